// Command decision runs a single Market -> Execution -> Risk
// rebalancing pass over a configured asset universe and prints the
// resulting plan or rejection reason.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/Rajchodisetti/quantum-vault/internal/approval"
	"github.com/Rajchodisetti/quantum-vault/internal/config"
	"github.com/Rajchodisetti/quantum-vault/internal/observ"
	"github.com/Rajchodisetti/quantum-vault/internal/outbox"
	"github.com/Rajchodisetti/quantum-vault/internal/pipeline"
	"github.com/Rajchodisetti/quantum-vault/internal/portfolio"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (omit to use built-in defaults)")
	universePath := flag.String("universe", "", "path to a JSON file describing the asset universe")
	userID := flag.String("user-id", "local-cli", "caller identity this run is scoped to")
	riskTolerance := flag.Float64("risk-tolerance", 0.5, "caller risk profile in [0,1] driving K/lambda_risk and the sentiment adjustment")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}

	assets, err := loadUniverse(*universePath)
	if err != nil {
		log.Fatalf("load universe: %v", err)
	}

	vault := portfolio.NewManager("data/vault_state.json", cfg.BaseUSD)
	if err := vault.Load(); err != nil {
		log.Fatalf("load vault state: %v", err)
	}
	for i, a := range assets {
		if h, ok := vault.GetHolding(a.Symbol); ok {
			assets[i].CurrentWeight = h.Weight
		}
	}

	orch := pipeline.NewOrchestrator(cfg, pipeline.LocalEntropy{})
	runID := uuid.NewString()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Entropy.TimeoutS)*time.Second)
	defer cancel()

	state := orch.Run(ctx, runID, *userID, *riskTolerance, assets)
	observ.Log("pipeline_run", map[string]any{"run_id": runID, "status": state.Status})

	if state.Status == pipeline.StatusError {
		log.Fatalf("pipeline error: %v", state.Err)
	}

	for _, c := range state.Risk.Checks.Ordered() {
		observ.Log("guardrail_check", map[string]any{"name": c.Name, "passed": c.Passed, "detail": c.Detail})
	}

	switch state.Status {
	case pipeline.StatusRejected:
		fmt.Println("plan rejected by risk guardrails")
		os.Exit(1)
	case pipeline.StatusPending:
		store := approval.NewStore(time.Duration(cfg.Approval.TTLHours) * time.Hour)
		plan, err := pipeline.BuildPlan(state, cfg.Risk.MaxPortfolioRisk)
		if err != nil {
			log.Fatalf("build plan: %v", err)
		}
		a, err := store.Create(plan.Hash, "risk threshold crossed, awaiting operator sign-off")
		if err != nil {
			log.Fatalf("create approval: %v", err)
		}
		fmt.Printf("plan %s pending operator approval %s\n", plan.Hash, a.ID)
	case pipeline.StatusApproved:
		plan, err := pipeline.BuildPlan(state, cfg.Risk.MaxPortfolioRisk)
		if err != nil {
			log.Fatalf("build plan: %v", err)
		}

		ob, err := outbox.New("data/outbox.jsonl", 300)
		if err != nil {
			log.Fatalf("open outbox: %v", err)
		}
		alreadySubmitted, err := ob.HasRecentSubmission(plan.Hash)
		if err != nil {
			log.Fatalf("check outbox: %v", err)
		}
		if alreadySubmitted {
			fmt.Printf("plan %s already submitted recently, skipping\n", plan.Hash)
			return
		}
		if err := ob.WriteSubmission(outbox.Submission{
			RunID: runID, PlanHash: plan.Hash, TradeUSD: state.Execution.MaxTradeUSD,
			Timestamp: time.Now(), Status: "submitted",
		}); err != nil {
			log.Fatalf("write outbox submission: %v", err)
		}

		weights := make(map[string]float64, len(plan.Trades))
		for _, t := range plan.Trades {
			weights[t.Symbol] = t.TargetWeight
		}
		if err := vault.ApplyPlanWeights(weights); err != nil {
			log.Fatalf("apply plan weights: %v", err)
		}

		printPlan(plan)
	}
}

func printPlan(plan pipeline.Plan) {
	b, _ := json.MarshalIndent(plan, "", "  ")
	fmt.Println(string(b))
}

func loadUniverse(path string) ([]pipeline.Asset, error) {
	if path == "" {
		return demoUniverse(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read universe file: %w", err)
	}
	var assets []pipeline.Asset
	if err := json.Unmarshal(data, &assets); err != nil {
		return nil, fmt.Errorf("unmarshal universe file: %w", err)
	}
	return assets, nil
}

// demoUniverse is used when no --universe flag is given, for a quick
// local smoke test of the pipeline.
func demoUniverse() []pipeline.Asset {
	r := rand.New(rand.NewSource(1))
	symbols := []struct {
		name  string
		price float64
		vol   float64
	}{
		{"BTC", 60000, 0.015}, {"ETH", 3000, 0.02}, {"SOL", 150, 0.03},
		{"AVAX", 35, 0.035}, {"SUI", 3.5, 0.04},
	}
	assets := make([]pipeline.Asset, len(symbols))
	for i, s := range symbols {
		returns := make([]float64, 60)
		for j := range returns {
			returns[j] = s.vol * (r.Float64()*2 - 1) * 0.3
		}
		assets[i] = pipeline.Asset{
			Symbol: s.name, CurrentWeight: 1.0 / float64(len(symbols)),
			MaxWeight: 0.4, PriceUSD: s.price, DailyReturns: returns,
		}
	}
	return assets
}
