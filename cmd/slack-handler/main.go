// Command slack-handler serves Slack slash commands for inspecting and
// resolving pending rebalance-plan approvals, authenticating requests
// with the Slack signing secret and authorizing actions through RBAC.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Rajchodisetti/quantum-vault/internal/alerts"
	"github.com/Rajchodisetti/quantum-vault/internal/approval"
	"github.com/Rajchodisetti/quantum-vault/internal/config"
)

type slashCommand struct {
	UserID      string
	UserName    string
	Command     string
	Text        string
	Signature   string
	Timestamp   string
	Body        string
}

type slashResponse struct {
	ResponseType string `json:"response_type"`
	Text         string `json:"text"`
}

type server struct {
	rbac  *alerts.RBACManager
	store *approval.Store
}

func (s *server) handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	sig := r.Header.Get("X-Slack-Signature")
	ts := r.Header.Get("X-Slack-Request-Timestamp")
	if err := s.rbac.ValidateRequest(sig, ts, string(body)); err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	cmd := parseSlashCommand(string(body))
	permission := requiredPermission(cmd.Command)
	correlationID := fmt.Sprintf("slack-%d", time.Now().UnixNano())

	if err := s.rbac.AuthorizeAction(cmd.UserID, permission, correlationID); err != nil {
		writeJSON(w, slashResponse{ResponseType: "ephemeral", Text: fmt.Sprintf("unauthorized: %v", err)})
		return
	}

	writeJSON(w, s.dispatch(cmd))
}

func (s *server) dispatch(cmd slashCommand) slashResponse {
	switch cmd.Command {
	case "/pending":
		pending := s.store.Pending()
		if len(pending) == 0 {
			return slashResponse{ResponseType: "ephemeral", Text: "no pending approvals"}
		}
		var b strings.Builder
		for _, a := range pending {
			fmt.Fprintf(&b, "%s  hash=%s  reason=%q  expires=%s\n", a.ID, a.PlanHash, a.Reason, a.ExpiresAt.Format(time.RFC3339))
		}
		return slashResponse{ResponseType: "ephemeral", Text: b.String()}

	case "/approve", "/reject":
		id := strings.TrimSpace(cmd.Text)
		if id == "" {
			return slashResponse{ResponseType: "ephemeral", Text: fmt.Sprintf("usage: %s <id>", cmd.Command)}
		}
		a, ok := s.store.Resolve(id, cmd.Command == "/approve", cmd.UserName)
		if !ok {
			return slashResponse{ResponseType: "ephemeral", Text: fmt.Sprintf("approval %s not found or already resolved", id)}
		}
		return slashResponse{ResponseType: "in_channel", Text: fmt.Sprintf("approval %s -> %s by %s", a.ID, a.Status, cmd.UserName)}

	default:
		return slashResponse{ResponseType: "ephemeral", Text: fmt.Sprintf("unknown command %s", cmd.Command)}
	}
}

func requiredPermission(command string) string {
	switch command {
	case "/approve", "/reject":
		return alerts.PermissionResolveApproval
	case "/pending":
		return alerts.PermissionViewPortfolio
	default:
		return alerts.PermissionViewPortfolio
	}
}

func parseSlashCommand(body string) slashCommand {
	values := map[string]string{}
	for _, pair := range strings.Split(body, "&") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key, err := url.QueryUnescape(kv[0])
		if err != nil {
			continue
		}
		val, err := url.QueryUnescape(kv[1])
		if err != nil {
			continue
		}
		values[key] = val
	}
	return slashCommand{
		UserID:   values["user_id"],
		UserName: values["user_name"],
		Command:  values["command"],
		Text:     values["text"],
		Body:     body,
	}
}

func writeJSON(w http.ResponseWriter, resp slashResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func main() {
	addr := flag.String("addr", ":8090", "address to listen on")
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}

	secret := os.Getenv(cfg.Security.SlackSigningSecretEnv)
	auditLogPath := "data/audit/slack_commands.jsonl"

	s := &server{
		rbac:  alerts.NewRBACManager(secret, auditLogPath),
		store: approval.NewStore(time.Duration(cfg.Approval.TTLHours) * time.Hour),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/slack/commands", s.handle)

	log.Printf("slack-handler listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, mux))
}
