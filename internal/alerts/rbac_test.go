package alerts

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(secret, timestamp, body string) string {
	base := fmt.Sprintf("v0:%s:%s", timestamp, body)
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(base))
	return "v0=" + hex.EncodeToString(h.Sum(nil))
}

func newTestRBAC(t *testing.T) *RBACManager {
	t.Helper()
	return NewRBACManager("test-secret", filepath.Join(t.TempDir(), "audit.jsonl"))
}

func TestValidateRequestAcceptsCorrectSignature(t *testing.T) {
	rbac := newTestRBAC(t)
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	body := "command=/pending&user_id=U12345"
	sig := sign("test-secret", ts, body)

	require.NoError(t, rbac.ValidateRequest(sig, ts, body))
}

func TestValidateRequestRejectsBadSignature(t *testing.T) {
	rbac := newTestRBAC(t)
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	body := "command=/pending&user_id=U12345"

	err := rbac.ValidateRequest("v0=deadbeef", ts, body)
	assert.Error(t, err)
}

func TestValidateRequestRejectsStaleTimestamp(t *testing.T) {
	rbac := newTestRBAC(t)
	ts := strconv.FormatInt(time.Now().Add(-10*time.Minute).Unix(), 10)
	body := "command=/pending"
	sig := sign("test-secret", ts, body)

	err := rbac.ValidateRequest(sig, ts, body)
	assert.ErrorContains(t, err, "too old")
}

func TestAuthorizeActionGrantsKnownPermission(t *testing.T) {
	rbac := newTestRBAC(t)
	require.NoError(t, rbac.AuthorizeAction("U12345", PermissionResolveApproval, "corr-1"))
}

func TestAuthorizeActionDeniesUnknownUser(t *testing.T) {
	rbac := newTestRBAC(t)
	err := rbac.AuthorizeAction("UNOBODY", PermissionViewPortfolio, "corr-1")
	assert.ErrorContains(t, err, "not found")
}

func TestAuthorizeActionDeniesMissingPermission(t *testing.T) {
	rbac := newTestRBAC(t)
	err := rbac.AuthorizeAction("U12345", PermissionPauseRelayer, "corr-1")
	assert.ErrorContains(t, err, "lacks permission")
}

func TestAuthorizeActionWildcardAdminGrantsEverything(t *testing.T) {
	rbac := newTestRBAC(t)
	require.NoError(t, rbac.AuthorizeAction("UADMIN", PermissionConfigChange, "corr-1"))
}

func TestRequireTwoPersonApprovalFlagsHighRiskActions(t *testing.T) {
	rbac := newTestRBAC(t)
	assert.True(t, rbac.RequireTwoPersonApproval(PermissionResolveApproval))
	assert.True(t, rbac.RequireTwoPersonApproval(PermissionPauseRelayer))
	assert.True(t, rbac.RequireTwoPersonApproval(PermissionConfigChange))
	assert.False(t, rbac.RequireTwoPersonApproval(PermissionViewPortfolio))
}

func TestValidateTwoPersonApprovalRequiresTwoAuthorizedApprovers(t *testing.T) {
	rbac := newTestRBAC(t)

	err := rbac.ValidateTwoPersonApproval(PermissionConfigChange, []string{"U67890"}, "corr-1")
	assert.Error(t, err)

	require.NoError(t, rbac.ValidateTwoPersonApproval(PermissionConfigChange, []string{"U67890", "UADMIN"}, "corr-1"))
}
