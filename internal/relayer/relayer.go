package relayer

import (
	"context"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Rajchodisetti/quantum-vault/internal/config"
	"github.com/Rajchodisetti/quantum-vault/internal/observ"
)

// Relayer polls the chain for new events, dedups and dispatches them
// to a Handler, and persists its cursor between runs. Its goroutine
// tree mirrors the teacher's RiskManager.Start() split: one poll-loop
// goroutine, one health-logging goroutine on its own ticker.
type Relayer struct {
	cfg     config.Relayer
	rpc     ChainRPC
	handler Handler

	mu      sync.RWMutex
	cursors Cursors
	seen    map[key]struct{}
	order   []key

	startedAt time.Time

	consecutiveErrors int64
	backoffSeconds    atomic.Int64

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(cfg config.Relayer, rpc ChainRPC, handler Handler) (*Relayer, error) {
	cursors, err := loadCursors(cfg.CursorFilePath)
	if err != nil {
		return nil, err
	}
	r := &Relayer{
		cfg: cfg, rpc: rpc, handler: handler,
		cursors: cursors, seen: make(map[key]struct{}),
	}
	r.backoffSeconds.Store(int64(cfg.InitialBackoffS))
	return r, nil
}

// Start launches the poll loop and health logger, returning
// immediately. Call Stop (or cancel the parent context) for graceful
// shutdown.
func (r *Relayer) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.startedAt = time.Now()

	r.wg.Add(2)
	go r.pollLoop(ctx)
	go r.healthLoop(ctx)
}

// Stop cancels the relayer's goroutines and waits for them to exit.
func (r *Relayer) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

func (r *Relayer) pollLoop(ctx context.Context) {
	defer r.wg.Done()

	interval := time.Duration(r.cfg.PollIntervalS) * time.Second
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := r.pollOnce(ctx); err != nil {
			atomic.AddInt64(&r.consecutiveErrors, 1)
			observ.RelayerMetrics().RPCError()
			observ.RelayerMetrics().SetConsecutiveErrors(int(atomic.LoadInt64(&r.consecutiveErrors)))
			log.Printf("relayer: poll failed: %v", err)

			backoff := r.nextBackoff()
			select {
			case <-time.After(time.Duration(backoff) * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		atomic.StoreInt64(&r.consecutiveErrors, 0)
		r.backoffSeconds.Store(int64(r.cfg.InitialBackoffS))
		observ.RelayerMetrics().SetConsecutiveErrors(0)
		observ.RelayerMetrics().SetBackoffSeconds(float64(r.cfg.InitialBackoffS))

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return
		}
	}
}

// nextBackoff returns the current backoff (also reported to the health
// metrics) as the delay to apply now, and stores its double, capped at
// MaxBackoffS, for the next failure.
func (r *Relayer) nextBackoff() int64 {
	cur := r.backoffSeconds.Load()
	next := cur * 2
	if next > int64(r.cfg.MaxBackoffS) {
		next = int64(r.cfg.MaxBackoffS)
	}
	if next < int64(r.cfg.InitialBackoffS) {
		next = int64(r.cfg.InitialBackoffS)
	}
	r.backoffSeconds.Store(next)
	observ.RelayerMetrics().SetBackoffSeconds(float64(cur))
	return cur
}

// pollOnce fetches each configured event type independently, starting
// from that type's own persisted cursor, so advancing one event type
// never skips or duplicates another.
func (r *Relayer) pollOnce(ctx context.Context) error {
	for _, eventType := range r.cfg.EventTypes {
		if err := r.pollOnceForType(ctx, eventType); err != nil {
			return err
		}
	}
	return nil
}

func (r *Relayer) pollOnceForType(ctx context.Context, eventType string) error {
	r.mu.RLock()
	cursor := r.cursors[eventType]
	r.mu.RUnlock()

	events, err := r.rpc.PollEvents(ctx, eventType, cursor)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	sort.Slice(events, func(i, j int) bool { return events[i].EventSeq < events[j].EventSeq })

	for _, ev := range events {
		k := key{TxDigest: ev.TxDigest, EventSeq: ev.EventSeq}
		if r.isDuplicate(k) {
			observ.RelayerMetrics().EventSkipped()
			continue
		}
		if err := r.handler(ev); err != nil {
			log.Printf("relayer: handler failed for %s/%d: %v", ev.TxDigest, ev.EventSeq, err)
		}
		observ.RelayerMetrics().EventProcessed(ev.Type)
		r.markSeen(k)
		r.advanceCursor(eventType, ev)
	}

	return nil
}

func (r *Relayer) isDuplicate(k key) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.seen[k]
	return ok
}

// markSeen records k as processed, trimming the dedup window down to
// DedupTrimTo oldest-evicted entries once it crosses DedupSoftCap —
// the relayer never needs to remember more than a sliding window of
// recently-seen (tx_digest, event_seq) pairs.
func (r *Relayer) markSeen(k key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[k]; ok {
		return
	}
	r.seen[k] = struct{}{}
	r.order = append(r.order, k)

	if len(r.order) > r.cfg.DedupSoftCap {
		trimCount := len(r.order) - r.cfg.DedupTrimTo
		for _, old := range r.order[:trimCount] {
			delete(r.seen, old)
		}
		r.order = r.order[trimCount:]
	}
}

func (r *Relayer) advanceCursor(eventType string, ev Event) {
	r.mu.Lock()
	if r.cursors == nil {
		r.cursors = Cursors{}
	}
	r.cursors[eventType] = Cursor{LastTxDigest: ev.TxDigest, LastEventSeq: ev.EventSeq, UpdatedAt: time.Now()}
	snapshot := make(Cursors, len(r.cursors))
	for k, v := range r.cursors {
		snapshot[k] = v
	}
	r.mu.Unlock()

	if err := saveCursors(r.cfg.CursorFilePath, snapshot); err != nil {
		log.Printf("relayer: failed to persist cursor: %v", err)
	}
}

func (r *Relayer) healthLoop(ctx context.Context) {
	defer r.wg.Done()

	interval := time.Duration(r.cfg.HealthLogIntervalS) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.logHealth()
		}
	}
}

func (r *Relayer) logHealth() {
	uptime := time.Since(r.startedAt).Seconds()
	observ.RelayerMetrics().SetUptimeSeconds(uptime)

	r.mu.RLock()
	cursors := make(map[string]Cursor, len(r.cursors))
	for k, v := range r.cursors {
		cursors[k] = v
	}
	dedupSize := len(r.seen)
	r.mu.RUnlock()

	observ.Log("relayer_health", map[string]any{
		"uptime_s":           uptime,
		"consecutive_errors": atomic.LoadInt64(&r.consecutiveErrors),
		"current_backoff_s":  r.backoffSeconds.Load(),
		"dedup_window_size":  dedupSize,
		"cursors":            cursors,
	})
}
