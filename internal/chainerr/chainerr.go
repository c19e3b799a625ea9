// Package chainerr maps on-chain Move abort codes to operator- and
// user-facing diagnostics (C10). It is the graceful-failure layer
// between a raw Sui transaction error and the dashboards/alerts that
// humans actually read.
package chainerr

import (
	"regexp"
	"strconv"
)

// Severity classifies how loudly an aborted transaction should be
// surfaced.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Entry is one row of the abort-code registry.
type Entry struct {
	Code             int
	Constant         string
	Module           string
	Severity         Severity
	FrontendMessage  string
	DevMessage       string
	Recovery         string
}

// Registry maps abort code to its Entry. It is a Go map, so iteration
// order is not defined.
var Registry = map[int]Entry{
	0: {Code: 0, Constant: "EInvalidAgent", Module: "portfolio", Severity: SeverityCritical,
		FrontendMessage: "Security error: agent not authorized.",
		DevMessage:      "AgentCap.portfolio_id does not match the target Portfolio object ID.",
		Recovery:        "Verify the agent cap ID is bound to the correct portfolio ID. Re-issue via issue_agent_cap if needed."},
	1: {Code: 1, Constant: "EAgentFrozen", Module: "portfolio", Severity: SeverityCritical,
		FrontendMessage: "Agent frozen: admin has blocked this agent.",
		DevMessage:      "Agent address is in the frozen_agents vector. Admin must call unfreeze_agent.",
		Recovery:        "Ask an admin to call unfreeze_agent with the admin cap, portfolio, and agent address."},
	2: {Code: 2, Constant: "ECooldownActive", Module: "portfolio", Severity: SeverityWarning,
		FrontendMessage: "Rebalance cooldown: please wait before retrying.",
		DevMessage:      "Last trade was less than cooldown_ms ago. Current default: 60s.",
		Recovery:        "Wait for the cooldown to expire, or ask an admin to lower it via update_limits."},
	3: {Code: 3, Constant: "EVolumeExceeded", Module: "portfolio", Severity: SeverityError,
		FrontendMessage: "Risk limit exceeded: daily volume exhausted.",
		DevMessage:      "total_traded_today + amount > daily_volume_limit.",
		Recovery:        "Wait for the 24h rolling window to reset, or ask an admin to raise daily_volume_limit."},
	4: {Code: 4, Constant: "EDrawdownExceeded", Module: "portfolio", Severity: SeverityError,
		FrontendMessage: "Drawdown protection: trade would exceed maximum loss.",
		DevMessage:      "Projected balance after trade would exceed max_drawdown_bps from peak.",
		Recovery:        "Reduce trade amount, or ask an admin to raise max_drawdown_bps."},
	5: {Code: 5, Constant: "EInsufficientBalance", Module: "portfolio", Severity: SeverityError,
		FrontendMessage: "Insufficient portfolio balance.",
		DevMessage:      "Portfolio balance < requested trade amount.",
		Recovery:        "Deposit more base asset, or reduce the trade amount."},
	6: {Code: 6, Constant: "EPaused", Module: "portfolio", Severity: SeverityCritical,
		FrontendMessage: "Portfolio paused: all trades are blocked.",
		DevMessage:      "Portfolio.paused == true. Admin activated the kill switch.",
		Recovery:        "Ask an admin to resume the portfolio."},
	7: {Code: 7, Constant: "ESlippageExceeded", Module: "portfolio", Severity: SeverityWarning,
		FrontendMessage: "Slippage too high: minimum output not reached.",
		DevMessage:      "output_amount < min_output returned by the DEX (or mock).",
		Recovery:        "Increase slippage tolerance (lower min_output) or wait for better market conditions."},
	8: {Code: 8, Constant: "EAtomicRebalanceFailed", Module: "portfolio", Severity: SeverityError,
		FrontendMessage: "Atomic rebalance failed: total value check failed.",
		DevMessage:      "Post-rebalance portfolio value check failed; the combined swaps violate safety bounds.",
		Recovery:        "Reduce swap amounts or split into smaller rebalances."},
	9: {Code: 9, Constant: "ESwapCountMismatch", Module: "portfolio", Severity: SeverityError,
		FrontendMessage: "Invalid swap configuration: lengths do not match.",
		DevMessage:      "swap_amounts.length != swap_min_outputs.length.",
		Recovery:        "Ensure swap_amounts and swap_min_outputs arrays have the same length."},
	10: {Code: 10, Constant: "EPostRebalanceDrawdown", Module: "portfolio", Severity: SeverityCritical,
		FrontendMessage: "Security limit: portfolio value after rebalance too low.",
		DevMessage:      "Post-rebalance drawdown exceeds max_drawdown_bps from peak; the entire PTB is reverted.",
		Recovery:        "Reduce total swap amounts; the combined effect exceeds the drawdown limit."},
	11: {Code: 11, Constant: "EProtocolNotWhitelisted", Module: "portfolio", Severity: SeverityCritical,
		FrontendMessage: "Protocol not whitelisted: target address not in whitelist.",
		DevMessage:      "Target protocol address is not in the portfolio's protocol_whitelist vector.",
		Recovery:        "Ask an admin to add the protocol via add_to_whitelist, or use a whitelisted protocol."},
	100: {Code: 100, Constant: "ESlippageTooHigh", Module: "oracle", Severity: SeverityError,
		FrontendMessage: "Oracle slippage: price deviation too high.",
		DevMessage:      "Oracle price vs expected price deviation exceeds max_slippage_bps. Default: 100 bps.",
		Recovery:        "Wait for price to stabilize or increase max_slippage_bps via update_oracle_config."},
	101: {Code: 101, Constant: "EPriceStale", Module: "oracle", Severity: SeverityError,
		FrontendMessage: "Oracle price stale: price feed too old.",
		DevMessage:      "Oracle price timestamp is older than max_staleness_ms. Default: 30s.",
		Recovery:        "Refresh the price feed before calling the swap, or increase max_staleness_ms."},
	102: {Code: 102, Constant: "EPriceNegative", Module: "oracle", Severity: SeverityCritical,
		FrontendMessage: "Invalid oracle price: price is zero or negative.",
		DevMessage:      "oracle_price_x8 or expected_price_x8 is zero; check feed health.",
		Recovery:        "Verify the oracle price feed is returning valid data."},
	103: {Code: 103, Constant: "EInvalidOracleConfig", Module: "oracle", Severity: SeverityError,
		FrontendMessage: "Invalid oracle configuration.",
		DevMessage:      "OracleConfig parameter out of range (max_slippage_bps > 1000 or max_staleness_ms < 1000).",
		Recovery:        "Use a valid config: slippage <= 1000 bps, staleness >= 1000ms."},
}

// abortPatterns are tried in order; the first one that matches wins.
// Grounded on error_map.py's _ABORT_PATTERNS list, same order.
var abortPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)MoveAbort\([^)]*,\s*(\d+)\)`),
	regexp.MustCompile(`(?i)abort[_ ]code[:\s]+(\d+)`),
	regexp.MustCompile(`(?i)Move abort (\d+)`),
	regexp.MustCompile(`(?i)status_code.*?(\d+)`),
	regexp.MustCompile(`(?i)VMError.*?(\d+)`),
}

// Parsed is the structured result of interpreting a raw chain error
// string.
type Parsed struct {
	IsMoveAbort     bool
	Code            int
	Entry           *Entry
	FrontendMessage string
	RawError        string
}

// Parse extracts a Move abort code from a raw chain error message and
// maps it to a registry Entry, trying each pattern in order and
// returning on the first match.
func Parse(raw string) Parsed {
	for _, pat := range abortPatterns {
		m := pat.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		code, _ := strconv.Atoi(m[1])
		entry, ok := Registry[code]
		msg := unknownMessage(code)
		var entryPtr *Entry
		if ok {
			entryPtr = &entry
			msg = entry.FrontendMessage
		}
		return Parsed{IsMoveAbort: true, Code: code, Entry: entryPtr, FrontendMessage: msg, RawError: raw}
	}
	return Parsed{IsMoveAbort: false, FrontendMessage: truncate("Unexpected error: "+raw, 219), RawError: raw}
}

func unknownMessage(code int) string {
	return "Unknown error (code " + strconv.Itoa(code) + ")"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// ResponseBody is the JSON-shaped error body returned to API callers.
type ResponseBody struct {
	Success bool          `json:"success"`
	Error   ResponseError `json:"error"`
}

type ResponseError struct {
	IsMoveAbort bool    `json:"isMoveAbort"`
	Code        *int    `json:"code"`
	Constant    *string `json:"constant"`
	Severity    string  `json:"severity"`
	Message     string  `json:"message"`
	Recovery    *string `json:"recovery"`
	Raw         string  `json:"raw"`
}

// ResponseBodyFor builds the full API error response for a raw chain
// error, used by the relayer and any HTTP surface that forwards
// rejected transactions to a caller.
func ResponseBodyFor(raw string) ResponseBody {
	p := Parse(raw)
	severity := string(SeverityError)
	var code *int
	var constant, recovery *string
	if p.IsMoveAbort {
		c := p.Code
		code = &c
	}
	if p.Entry != nil {
		severity = string(p.Entry.Severity)
		constant = &p.Entry.Constant
		recovery = &p.Entry.Recovery
	}
	return ResponseBody{
		Success: false,
		Error: ResponseError{
			IsMoveAbort: p.IsMoveAbort, Code: code, Constant: constant,
			Severity: severity, Message: p.FrontendMessage, Recovery: recovery, Raw: p.RawError,
		},
	}
}
