package market

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
)

// SnapshotSource serves prices, chains and signals from a single JSON market
// snapshot file. Layout:
//
//	{
//	  "generated": "2026-08-28T20:00:00Z",
//	  "prices":  {"AAPL": {"price": 150.0, "ts": "...", "source": "snap"}},
//	  "chains":  {"AAPL": {"2026-09-04": [{"strike":150,"bid":2.4,...}]}},
//	  "signals": {"AAPL": {"score": 0.42, "source": "oced"}}
//	}
//
// The file is read once; Reload picks up a rewritten snapshot.
type SnapshotSource struct {
	path string

	mu  sync.RWMutex
	doc gjson.Result
}

func NewSnapshotSource(path string) (*SnapshotSource, error) {
	s := &SnapshotSource{path: strings.TrimSpace(path)}
	if s.path == "" {
		return nil, fmt.Errorf("snapshot path cannot be empty")
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the snapshot file.
func (s *SnapshotSource) Reload() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read snapshot failed (%s): %w", s.path, err)
	}
	if !gjson.ValidBytes(raw) {
		return fmt.Errorf("snapshot is not valid json (%s)", s.path)
	}
	doc := gjson.ParseBytes(raw)
	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
	return nil
}

func (s *SnapshotSource) get(path string) gjson.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Get(path)
}

func (s *SnapshotSource) Price(_ context.Context, ticker string) (Quote, bool, error) {
	node := s.get("prices." + key(ticker))
	if !node.Exists() {
		return Quote{}, false, nil
	}
	price := node.Get("price")
	if !price.Exists() {
		return Quote{}, false, nil
	}
	q := Quote{
		Ticker: strings.ToUpper(strings.TrimSpace(ticker)),
		Price:  price.Float(),
		Source: node.Get("source").String(),
	}
	if ts := node.Get("ts").String(); ts != "" {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			q.TS = parsed
		}
	}
	return q, true, nil
}

func (s *SnapshotSource) Chain(_ context.Context, ticker, expiry string) ([]ChainRow, error) {
	node := s.get("chains." + key(ticker) + "." + escapeExpiry(expiry))
	if !node.Exists() || !node.IsArray() {
		return nil, nil
	}
	var rows []ChainRow
	node.ForEach(func(_, item gjson.Result) bool {
		rows = append(rows, parseChainRow(item))
		return true
	})
	return rows, nil
}

func (s *SnapshotSource) Signal(_ context.Context, ticker string) (Signal, bool, error) {
	node := s.get("signals." + key(ticker))
	if !node.Exists() {
		return Signal{}, false, nil
	}
	score := node.Get("score")
	if !score.Exists() {
		return Signal{}, false, nil
	}
	return Signal{
		Ticker: strings.ToUpper(strings.TrimSpace(ticker)),
		Score:  score.Float(),
		Source: node.Get("source").String(),
	}, true, nil
}

func parseChainRow(item gjson.Result) ChainRow {
	row := ChainRow{Source: item.Get("source").String()}
	row.Strike = optFloat(item, "strike")
	row.Bid = optFloat(item, "bid")
	row.Ask = optFloat(item, "ask")
	row.Mid = optFloat(item, "mid")
	row.Delta = optFloat(item, "delta")
	row.IV = optFloat(item, "iv")
	row.OI = optInt(item, "oi")
	row.Volume = optInt(item, "volume")
	return row
}

func optFloat(item gjson.Result, field string) *float64 {
	v := item.Get(field)
	if !v.Exists() || v.Type == gjson.Null {
		return nil
	}
	f := v.Float()
	return &f
}

func optInt(item gjson.Result, field string) *int64 {
	v := item.Get(field)
	if !v.Exists() || v.Type == gjson.Null {
		return nil
	}
	n := v.Int()
	return &n
}

func key(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// escapeExpiry keeps dots in expiry strings from being read as path
// separators by gjson.
func escapeExpiry(expiry string) string {
	return strings.ReplaceAll(strings.TrimSpace(expiry), ".", "\\.")
}
