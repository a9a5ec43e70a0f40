package market

import (
	"context"
	"sync"
)

// MapSource is an in-memory Sources implementation, used by tests and by
// callers that assemble snapshots programmatically.
type MapSource struct {
	mu      sync.RWMutex
	quotes  map[string]Quote
	chains  map[string]map[string][]ChainRow
	signals map[string]Signal

	// Err, when set, is returned by every lookup. Lets callers exercise the
	// infrastructure-failure path.
	Err error
}

func NewMapSource() *MapSource {
	return &MapSource{
		quotes:  make(map[string]Quote),
		chains:  make(map[string]map[string][]ChainRow),
		signals: make(map[string]Signal),
	}
}

func (m *MapSource) SetPrice(q Quote) {
	m.mu.Lock()
	m.quotes[key(q.Ticker)] = q
	m.mu.Unlock()
}

func (m *MapSource) SetChain(ticker, expiry string, rows []ChainRow) {
	m.mu.Lock()
	t := key(ticker)
	if m.chains[t] == nil {
		m.chains[t] = make(map[string][]ChainRow)
	}
	m.chains[t][expiry] = rows
	m.mu.Unlock()
}

func (m *MapSource) SetSignal(sig Signal) {
	m.mu.Lock()
	m.signals[key(sig.Ticker)] = sig
	m.mu.Unlock()
}

func (m *MapSource) Price(_ context.Context, ticker string) (Quote, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return Quote{}, false, m.Err
	}
	q, ok := m.quotes[key(ticker)]
	return q, ok, nil
}

func (m *MapSource) Chain(_ context.Context, ticker, expiry string) ([]ChainRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	byExpiry, ok := m.chains[key(ticker)]
	if !ok {
		return nil, nil
	}
	return byExpiry[expiry], nil
}

func (m *MapSource) Signal(_ context.Context, ticker string) (Signal, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return Signal{}, false, m.Err
	}
	sig, ok := m.signals[key(ticker)]
	return sig, ok, nil
}
