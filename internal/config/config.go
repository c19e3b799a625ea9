package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Quant configures the covariance/QUBO/weight/slippage stages (C1-C5).
type Quant struct {
	TargetAvgVol   float64      `yaml:"target_avg_vol"`   // TARGET_AVG_VOL, default 0.35
	ReturnCenter   float64      `yaml:"return_center"`    // Black-Litterman-lite center, default 0.15
	ReturnSpread   float64      `yaml:"return_spread"`    // default 0.25
	MinGarchObs    int          `yaml:"min_garch_obs"`    // default 20
	LambdaReturn   float64      `yaml:"lambda_return"`    // default 1.0
	LambdaBudget   float64      `yaml:"lambda_budget"`    // default 2.0
	MinWeight      float64      `yaml:"min_weight"`       // MIN_WEIGHT, default 0.05
	NumReads       int          `yaml:"num_reads"`        // SA reads, default 200
	NumSweeps      int          `yaml:"num_sweeps"`       // SA sweeps per read, default 1000
	ExactMaxAssets int          `yaml:"exact_max_assets"` // N above which SA is used, default 20
	Impact         ImpactConfig `yaml:"impact"`
}

// ImpactConfig configures the Almgren-Chriss slippage model (C5).
type ImpactConfig struct {
	DefaultAlpha     float64                `yaml:"default_alpha"`     // default 0.10
	DefaultBeta      float64                `yaml:"default_beta"`      // default 0.60
	SafetyMarginBps  int                    `yaml:"safety_margin_bps"` // default 50
	MaxImpactPct     float64                `yaml:"max_impact_pct"`    // default 0.05
	PerAsset         map[string]AssetImpact `yaml:"per_asset"`
	DailyVolumeUSD   map[string]float64     `yaml:"daily_volume_usd"`
	BaseUnitDecimals map[string]int         `yaml:"base_unit_decimals"` // default 9
}

type AssetImpact struct {
	Alpha float64 `yaml:"alpha"`
	Beta  float64 `yaml:"beta"`
}

// Risk configures the guardrail state machine (C6). This is the single
// source of truth the reference implementation's two drifting copies
// (MAX_PORTFOLIO_RISK 0.35 vs 0.45, MIN_EXPECTED_RETURN 0.05 vs 0.01)
// collapse into — see DESIGN.md Open Question #1.
type Risk struct {
	MaxPositionWeight     float64 `yaml:"max_position_weight"`     // default 0.40
	MaxPortfolioRisk      float64 `yaml:"max_portfolio_risk"`      // default 0.45
	MinExpectedReturn     float64 `yaml:"min_expected_return"`     // default 0.01
	MaxSolverTimeS        float64 `yaml:"max_solver_time_s"`       // default 5.0
	ApprovalThresholdUSD  float64 `yaml:"approval_threshold_usd"`  // default 50000
	ApprovalRiskThreshold float64 `yaml:"approval_risk_threshold"` // default 0.30
}

// Relayer configures the event watcher (C9).
type Relayer struct {
	PollIntervalS      int      `yaml:"poll_interval_s"`       // default 3
	InitialBackoffS    int      `yaml:"initial_backoff_s"`     // default 1
	MaxBackoffS        int      `yaml:"max_backoff_s"`         // default 60
	HealthLogIntervalS int      `yaml:"health_log_interval_s"` // default 60
	CursorFilePath     string   `yaml:"cursor_file_path"`
	DedupSoftCap       int      `yaml:"dedup_soft_cap"` // default 10000
	DedupTrimTo        int      `yaml:"dedup_trim_to"`  // default 5000
	EventTypes         []string `yaml:"event_types"`
	RPCTimeoutS        int      `yaml:"rpc_timeout_s"` // default 15
	DemoMode           bool     `yaml:"demo_mode"`
}

// Entropy configures the injectable quantum/pseudo-random draw used for
// the execution agent's anti-front-running jitter (C7). The
// simulated-annealing solver (C3) is seeded separately from crypto/rand.
type Entropy struct {
	Shots    int `yaml:"shots"`     // QRNG_SHOTS, default 100
	TimeoutS int `yaml:"timeout_s"` // default 90
}

type Submitter struct {
	TimeoutS    int    `yaml:"timeout_s"` // default 30
	Endpoint    string `yaml:"endpoint"`
	PortfolioID string `yaml:"portfolio_id"` // default "default"
}

type Slack struct {
	Enabled                  bool   `yaml:"enabled"`
	WebhookURL               string `yaml:"webhook_url"`
	ChannelDefault           string `yaml:"channel_default"`
	RateLimitPerMin          int    `yaml:"rate_limit_per_min"`
	RateLimitPerSymbolPerMin int    `yaml:"rate_limit_per_symbol_per_min"`
	AlertOnPendingApproval   bool   `yaml:"alert_on_pending_approval"`
	AlertOnRejected          bool   `yaml:"alert_on_rejected"`
	AlertOnError             bool   `yaml:"alert_on_error"`
}

type Security struct {
	SlackSigningSecretEnv string   `yaml:"slack_signing_secret_env"`
	AllowedSlackUserIDs   []string `yaml:"allowed_slack_user_ids"`
}

type Approval struct {
	TTLHours int `yaml:"ttl_hours"` // 0 = no eviction
}

type Monitoring struct {
	MetricsAddr string `yaml:"metrics_addr"` // default ":9090"
}

// Root is the single configuration value constructed once at process
// startup and threaded through every component by reference. No package
// in this module keeps a process-wide mutable config singleton.
type Root struct {
	UseMock    bool       `yaml:"use_mock"`
	BaseUSD    float64    `yaml:"base_usd"`
	Quant      Quant      `yaml:"quant"`
	Risk       Risk       `yaml:"risk"`
	Relayer    Relayer    `yaml:"relayer"`
	Entropy    Entropy    `yaml:"entropy"`
	Submitter  Submitter  `yaml:"submitter"`
	Slack      Slack      `yaml:"slack"`
	Security   Security   `yaml:"security"`
	Approval   Approval   `yaml:"approval"`
	Monitoring Monitoring `yaml:"monitoring"`
}

// Load reads a YAML config file and fills in every documented default
// for zero-valued fields, mirroring the teacher's cascading-defaults
// style in the original Load function.
func Load(path string) (Root, error) {
	var c Root
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, err
	}
	applyDefaults(&c)
	return c, nil
}

// Default returns a Root with every documented default and no file I/O,
// used by tests and by cmd/* when no --config flag is given.
func Default() Root {
	var c Root
	applyDefaults(&c)
	return c
}

func applyDefaults(c *Root) {
	if c.BaseUSD == 0 {
		c.BaseUSD = 2000
	}

	q := &c.Quant
	if q.TargetAvgVol == 0 {
		q.TargetAvgVol = 0.35
	}
	if q.ReturnCenter == 0 {
		q.ReturnCenter = 0.15
	}
	if q.ReturnSpread == 0 {
		q.ReturnSpread = 0.25
	}
	if q.MinGarchObs == 0 {
		q.MinGarchObs = 20
	}
	if q.LambdaReturn == 0 {
		q.LambdaReturn = 1.0
	}
	if q.LambdaBudget == 0 {
		q.LambdaBudget = 2.0
	}
	if q.MinWeight == 0 {
		q.MinWeight = 0.05
	}
	if q.NumReads == 0 {
		q.NumReads = 200
	}
	if q.NumSweeps == 0 {
		q.NumSweeps = 1000
	}
	if q.ExactMaxAssets == 0 {
		q.ExactMaxAssets = 20
	}

	im := &q.Impact
	if im.DefaultAlpha == 0 {
		im.DefaultAlpha = 0.10
	}
	if im.DefaultBeta == 0 {
		im.DefaultBeta = 0.60
	}
	if im.SafetyMarginBps == 0 {
		im.SafetyMarginBps = 50
	}
	if im.MaxImpactPct == 0 {
		im.MaxImpactPct = 0.05
	}
	if im.PerAsset == nil {
		im.PerAsset = map[string]AssetImpact{
			"BTC":  {Alpha: 0.05, Beta: 0.55},
			"ETH":  {Alpha: 0.06, Beta: 0.55},
			"SUI":  {Alpha: 0.12, Beta: 0.65},
			"SOL":  {Alpha: 0.08, Beta: 0.60},
			"AVAX": {Alpha: 0.10, Beta: 0.60},
		}
	}
	if im.DailyVolumeUSD == nil {
		im.DailyVolumeUSD = map[string]float64{
			"BTC":  25_000_000_000,
			"ETH":  12_000_000_000,
			"SUI":  400_000_000,
			"SOL":  2_500_000_000,
			"AVAX": 300_000_000,
		}
	}
	if im.BaseUnitDecimals == nil {
		im.BaseUnitDecimals = map[string]int{}
	}

	r := &c.Risk
	if r.MaxPositionWeight == 0 {
		r.MaxPositionWeight = 0.40
	}
	if r.MaxPortfolioRisk == 0 {
		r.MaxPortfolioRisk = 0.45
	}
	if r.MinExpectedReturn == 0 {
		r.MinExpectedReturn = 0.01
	}
	if r.MaxSolverTimeS == 0 {
		r.MaxSolverTimeS = 5.0
	}
	if r.ApprovalThresholdUSD == 0 {
		r.ApprovalThresholdUSD = 50_000
	}
	if r.ApprovalRiskThreshold == 0 {
		r.ApprovalRiskThreshold = 0.30
	}

	rl := &c.Relayer
	if rl.PollIntervalS == 0 {
		rl.PollIntervalS = 3
	}
	if rl.InitialBackoffS == 0 {
		rl.InitialBackoffS = 1
	}
	if rl.MaxBackoffS == 0 {
		rl.MaxBackoffS = 60
	}
	if rl.HealthLogIntervalS == 0 {
		rl.HealthLogIntervalS = 60
	}
	if rl.CursorFilePath == "" {
		rl.CursorFilePath = "data/relayer_cursor.json"
	}
	if rl.DedupSoftCap == 0 {
		rl.DedupSoftCap = 10000
	}
	if rl.DedupTrimTo == 0 {
		rl.DedupTrimTo = 5000
	}
	if len(rl.EventTypes) == 0 {
		rl.EventTypes = []string{
			"vault::portfolio::RebalanceExecuted",
			"vault::portfolio::AgentRegistered",
		}
	}
	if rl.RPCTimeoutS == 0 {
		rl.RPCTimeoutS = 15
	}

	e := &c.Entropy
	if e.Shots == 0 {
		e.Shots = 100
	}
	if e.TimeoutS == 0 {
		e.TimeoutS = 90
	}

	s := &c.Submitter
	if s.TimeoutS == 0 {
		s.TimeoutS = 30
	}
	if s.PortfolioID == "" {
		s.PortfolioID = "default"
	}

	if c.Slack.ChannelDefault == "" {
		c.Slack.ChannelDefault = "#vault-alerts"
	}
	if c.Slack.RateLimitPerMin == 0 {
		c.Slack.RateLimitPerMin = 10
	}
	if c.Slack.RateLimitPerSymbolPerMin == 0 {
		c.Slack.RateLimitPerSymbolPerMin = 3
	}
	if !c.Slack.AlertOnPendingApproval && !c.Slack.AlertOnRejected && !c.Slack.AlertOnError {
		c.Slack.AlertOnPendingApproval = true
		c.Slack.AlertOnRejected = true
		c.Slack.AlertOnError = true
	}
	if c.Security.SlackSigningSecretEnv == "" {
		c.Security.SlackSigningSecretEnv = "SLACK_SIGNING_SECRET"
	}
	if c.Monitoring.MetricsAddr == "" {
		c.Monitoring.MetricsAddr = ":9090"
	}
}
