package rates

import (
	"context"
	"sort"
	"sync"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/fiscal"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/logger"
)

// TableSource loads every published rate at once, keyed by YYYY-MM-DD.
type TableSource interface {
	LoadRates(ctx context.Context) (map[string]float64, error)
}

// Table is a date-indexed rate cache filled from a TableSource on first use.
// Lookups are exact-date only. A failed load leaves the table empty until
// Invalidate is called.
type Table struct {
	name   string
	source TableSource

	mu     sync.RWMutex
	rates  map[string]float64
	loaded bool
}

// NewTable creates a rate table backed by source. name is used in logs.
func NewTable(name string, source TableSource) *Table {
	return &Table{
		name:   name,
		source: source,
		rates:  make(map[string]float64),
	}
}

// NewStaticTable creates an already loaded table, mostly for tests and
// offline runs.
func NewStaticTable(name string, rates map[string]float64) *Table {
	t := NewTable(name, nil)
	for k, v := range rates {
		t.rates[k] = v
	}
	t.loaded = true
	return t
}

// Load fills the cache if needed and returns a copy of it.
func (t *Table) Load(ctx context.Context) map[string]float64 {
	t.ensureLoaded(ctx)

	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]float64, len(t.rates))
	for k, v := range t.rates {
		out[k] = v
	}
	return out
}

func (t *Table) ensureLoaded(ctx context.Context) {
	t.mu.RLock()
	loaded := t.loaded
	t.mu.RUnlock()
	if loaded {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.loaded {
		return
	}

	log := logger.FromContext(ctx)
	t.loaded = true
	if t.source == nil {
		return
	}

	rates, err := t.source.LoadRates(ctx)
	if err != nil {
		log.Error().Err(err).Str("table", t.name).Msg("Failed to load rate table, rates will resolve to 0")
		return
	}
	t.rates = rates
	log.Info().Str("table", t.name).Int("dates", len(rates)).Msg("Rate table loaded")
}

// RateFor returns the rate published for date, or 0. date may use any of the
// layouts accepted by fiscal.ParseDate.
func (t *Table) RateFor(ctx context.Context, date string) float64 {
	key := fiscal.NormalizeDate(date)
	if key == "" {
		return 0
	}
	t.ensureLoaded(ctx)

	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rates[key]
}

// MostRecent returns the rate of the latest date in the table, or 0 and ""
// when the table is empty.
func (t *Table) MostRecent(ctx context.Context) (float64, string) {
	t.ensureLoaded(ctx)

	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.rates) == 0 {
		return 0, ""
	}
	dates := make([]string, 0, len(t.rates))
	for d := range t.rates {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	latest := dates[len(dates)-1]
	return t.rates[latest], latest
}

// Len returns the number of cached dates without triggering a load.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rates)
}

// Invalidate drops the cache so the next lookup reloads from the source.
func (t *Table) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rates = make(map[string]float64)
	t.loaded = false
}
