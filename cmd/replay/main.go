// Command replay runs the relayer against a recorded batch of chain
// events from a JSON file instead of a live RPC endpoint, for
// deterministic local testing of the dedup/cursor/backoff logic.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Rajchodisetti/quantum-vault/internal/config"
	"github.com/Rajchodisetti/quantum-vault/internal/relayer"
)

type recordedEvent struct {
	Type      string         `json:"type"`
	TxDigest  string         `json:"tx_digest"`
	EventSeq  int64          `json:"event_seq"`
	Timestamp int64          `json:"timestamp_ms"`
	Payload   map[string]any `json:"payload"`
}

type fileRPC struct {
	events []recordedEvent
	served map[string]bool
}

func (f *fileRPC) PollEvents(ctx context.Context, eventType string, after relayer.Cursor) ([]relayer.Event, error) {
	if f.served == nil {
		f.served = map[string]bool{}
	}
	if f.served[eventType] {
		return nil, nil
	}
	f.served[eventType] = true

	out := make([]relayer.Event, 0, len(f.events))
	for _, e := range f.events {
		if e.Type != eventType || e.EventSeq <= after.LastEventSeq {
			continue
		}
		out = append(out, relayer.Event{
			Type: e.Type, TxDigest: e.TxDigest, EventSeq: e.EventSeq,
			Timestamp: time.UnixMilli(e.Timestamp), Payload: e.Payload,
		})
	}
	return out, nil
}

func main() {
	recordingPath := flag.String("recording", "", "path to a JSON array of recorded chain events")
	flag.Parse()

	if *recordingPath == "" {
		log.Fatal("--recording is required")
	}

	data, err := os.ReadFile(*recordingPath)
	if err != nil {
		log.Fatalf("read recording: %v", err)
	}
	var events []recordedEvent
	if err := json.Unmarshal(data, &events); err != nil {
		log.Fatalf("unmarshal recording: %v", err)
	}

	cfg := config.Default().Relayer
	cfg.CursorFilePath = os.TempDir() + "/replay_cursor.json"
	cfg.PollIntervalS = 0

	r, err := relayer.New(cfg, &fileRPC{events: events}, func(ev relayer.Event) error {
		fmt.Printf("replayed %s tx=%s seq=%d\n", ev.Type, ev.TxDigest, ev.EventSeq)
		return nil
	})
	if err != nil {
		log.Fatalf("build relayer: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	r.Start(ctx)
	<-ctx.Done()
	r.Stop()
}
