package relayer

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Rajchodisetti/quantum-vault/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRPC struct {
	mu     sync.Mutex
	batch  [][]Event
	calls  int
	err    error
}

func (m *mockRPC) PollEvents(ctx context.Context, eventType string, after Cursor) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.calls >= len(m.batch) {
		return nil, nil
	}
	out := m.batch[m.calls]
	m.calls++
	return out, nil
}

func testConfig(t *testing.T) config.Relayer {
	dir := t.TempDir()
	return config.Relayer{
		PollIntervalS: 0, InitialBackoffS: 1, MaxBackoffS: 4, HealthLogIntervalS: 3600,
		CursorFilePath: filepath.Join(dir, "cursor.json"),
		DedupSoftCap:   5, DedupTrimTo: 2,
		EventTypes: []string{"vault::portfolio::RebalanceExecuted"},
	}
}

func TestPollOnceDispatchesNewEventsAndAdvancesCursor(t *testing.T) {
	rpc := &mockRPC{batch: [][]Event{{
		{Type: "vault::portfolio::RebalanceExecuted", TxDigest: "tx1", EventSeq: 1},
		{Type: "vault::portfolio::RebalanceExecuted", TxDigest: "tx1", EventSeq: 2},
	}}}

	var handled []Event
	r, err := New(testConfig(t), rpc, func(ev Event) error {
		handled = append(handled, ev)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, r.pollOnce(context.Background()))
	assert.Len(t, handled, 2)
	assert.Equal(t, int64(2), r.cursors["vault::portfolio::RebalanceExecuted"].LastEventSeq)
}

func TestPollOnceSkipsDuplicateEvents(t *testing.T) {
	rpc := &mockRPC{}
	r, err := New(testConfig(t), rpc, func(ev Event) error { return nil })
	require.NoError(t, err)

	k := key{TxDigest: "tx1", EventSeq: 1}
	r.markSeen(k)
	assert.True(t, r.isDuplicate(k))
}

func TestMarkSeenTrimsDedupWindowPastSoftCap(t *testing.T) {
	rpc := &mockRPC{}
	cfg := testConfig(t)
	r, err := New(cfg, rpc, func(ev Event) error { return nil })
	require.NoError(t, err)

	for i := 0; i < cfg.DedupSoftCap+1; i++ {
		r.markSeen(key{TxDigest: "tx", EventSeq: int64(i)})
	}
	assert.LessOrEqual(t, len(r.seen), cfg.DedupSoftCap)
}

func TestCursorPersistsAcrossRelayerInstances(t *testing.T) {
	cfg := testConfig(t)
	rpc := &mockRPC{batch: [][]Event{{{Type: "x", TxDigest: "txA", EventSeq: 5}}}}
	r1, err := New(cfg, rpc, func(ev Event) error { return nil })
	require.NoError(t, err)
	require.NoError(t, r1.pollOnce(context.Background()))

	r2, err := New(cfg, &mockRPC{}, func(ev Event) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, "txA", r2.cursors["vault::portfolio::RebalanceExecuted"].LastTxDigest)
	assert.Equal(t, int64(5), r2.cursors["vault::portfolio::RebalanceExecuted"].LastEventSeq)
}

type perTypeRPC struct {
	mu    sync.Mutex
	calls map[string]int
	batch map[string][]Event
}

func (m *perTypeRPC) PollEvents(ctx context.Context, eventType string, after Cursor) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	if m.calls[eventType] > 0 {
		return nil, nil
	}
	m.calls[eventType]++
	return m.batch[eventType], nil
}

func TestPollOnceAdvancesEachEventTypeCursorIndependently(t *testing.T) {
	cfg := testConfig(t)
	cfg.EventTypes = []string{"vault::portfolio::RebalanceExecuted", "vault::portfolio::AgentRegistered"}

	rpc := &perTypeRPC{batch: map[string][]Event{
		"vault::portfolio::RebalanceExecuted": {{Type: "vault::portfolio::RebalanceExecuted", TxDigest: "tx1", EventSeq: 10}},
		"vault::portfolio::AgentRegistered":   {{Type: "vault::portfolio::AgentRegistered", TxDigest: "tx2", EventSeq: 1}},
	}}

	r, err := New(cfg, rpc, func(ev Event) error { return nil })
	require.NoError(t, err)
	require.NoError(t, r.pollOnce(context.Background()))

	assert.Equal(t, int64(10), r.cursors["vault::portfolio::RebalanceExecuted"].LastEventSeq)
	assert.Equal(t, int64(1), r.cursors["vault::portfolio::AgentRegistered"].LastEventSeq)
}

func TestNextBackoffDoublesAndCaps(t *testing.T) {
	cfg := testConfig(t)
	r, err := New(cfg, &mockRPC{}, func(ev Event) error { return nil })
	require.NoError(t, err)

	first := r.nextBackoff()
	second := r.nextBackoff()
	third := r.nextBackoff()

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
	assert.Equal(t, int64(cfg.MaxBackoffS), third)
}

func TestStartAndStopIsGraceful(t *testing.T) {
	cfg := testConfig(t)
	cfg.PollIntervalS = 0
	cfg.HealthLogIntervalS = 3600
	r, err := New(cfg, &mockRPC{}, func(ev Event) error { return nil })
	require.NoError(t, err)

	r.Start(context.Background())
	time.Sleep(10 * time.Millisecond)
	r.Stop()
}
