package chainerr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecognizesEachAbortPattern(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		code int
	}{
		{"MoveAbort tuple form", "MoveAbort(ModuleId { address: 0x2, name: portfolio }, 6)", 6},
		{"abort_code colon form", "transaction failed: abort_code: 2", 2},
		{"Move abort prose form", "Move abort 3 in module portfolio", 3},
		{"status_code form", "status_code error 100 oracle stale", 100},
		{"VMError form", "VMError: execution aborted 11", 11},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := Parse(c.raw)
			require.True(t, p.IsMoveAbort)
			assert.Equal(t, c.code, p.Code)
		})
	}
}

func TestParseUnmappedCodeStillReportsIsMoveAbort(t *testing.T) {
	p := Parse("abort_code: 9999")
	assert.True(t, p.IsMoveAbort)
	assert.Nil(t, p.Entry)
	assert.Contains(t, p.FrontendMessage, "Unknown error")
}

func TestParseNonAbortError(t *testing.T) {
	p := Parse("connection refused: dial tcp timeout")
	assert.False(t, p.IsMoveAbort)
	assert.Contains(t, p.FrontendMessage, "Unexpected error")
}

func TestRegistryEntriesAreFullyPopulated(t *testing.T) {
	for code, entry := range Registry {
		assert.Equal(t, code, entry.Code)
		assert.NotEmpty(t, entry.Constant, "code %d missing constant", code)
		assert.NotEmpty(t, entry.Module, "code %d missing module", code)
		assert.NotEmpty(t, entry.FrontendMessage, "code %d missing frontend message", code)
		assert.NotEmpty(t, entry.DevMessage, "code %d missing dev message", code)
		assert.NotEmpty(t, entry.Recovery, "code %d missing recovery text", code)
		assert.Contains(t, []Severity{SeverityWarning, SeverityError, SeverityCritical}, entry.Severity)
	}
}

func TestResponseBodyForMappedCode(t *testing.T) {
	body := ResponseBodyFor("MoveAbort(_, 6)")
	require.NotNil(t, body.Error.Code)
	assert.Equal(t, 6, *body.Error.Code)
	require.NotNil(t, body.Error.Constant)
	assert.Equal(t, "EPaused", *body.Error.Constant)
	assert.Equal(t, "critical", body.Error.Severity)
}
