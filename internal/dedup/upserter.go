// Package dedup appends only the payment rows whose identity hash is not yet
// stored.
package dedup

import (
	"context"
	"fmt"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/domain"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/logger"
)

// DefaultChunkSize bounds the number of ids per existence query.
const DefaultChunkSize = 1000

// Store is the append-only payment table.
type Store interface {
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
	Append(ctx context.Context, records []domain.EnrichedRecord) error
}

// Result summarises one upsert.
type Result struct {
	TotalRows      int
	RowsLoaded     int
	RowsDuplicated int
	Loaded         []domain.EnrichedRecord
}

// Upserter checks ids in chunks and appends the new rows in one write.
type Upserter struct {
	store     Store
	chunkSize int
}

// NewUpserter creates an Upserter. A non-positive chunkSize uses
// DefaultChunkSize.
func NewUpserter(store Store, chunkSize int) *Upserter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Upserter{store: store, chunkSize: chunkSize}
}

// Upsert appends the records whose ID is neither stored nor repeated earlier
// in the batch. A failed existence check aborts before anything is written.
func (u *Upserter) Upsert(ctx context.Context, records []domain.EnrichedRecord) (Result, error) {
	log := logger.FromContext(ctx)
	res := Result{TotalRows: len(records)}
	if len(records) == 0 {
		return res, nil
	}

	// A repeated id inside one report keeps its first occurrence only, so
	// the table never receives two rows with the same id from one run.
	seen := make(map[string]bool, len(records))
	unique := make([]domain.EnrichedRecord, 0, len(records))
	ids := make([]string, 0, len(records))
	for _, r := range records {
		if seen[r.ID] {
			res.RowsDuplicated++
			continue
		}
		seen[r.ID] = true
		unique = append(unique, r)
		ids = append(ids, r.ID)
	}
	if dup := res.RowsDuplicated; dup > 0 {
		log.Info().Int("rows", dup).Msg("Repeated ids collapsed within the batch")
	}

	existing := make(map[string]bool)
	for start := 0; start < len(ids); start += u.chunkSize {
		end := start + u.chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		found, err := u.store.ExistingIDs(ctx, ids[start:end])
		if err != nil {
			return res, fmt.Errorf("Upsert: checking ids %d-%d: %w", start, end, err)
		}
		for id := range found {
			existing[id] = true
		}
		log.Debug().Int("chunk_start", start).Int("chunk_size", end-start).Int("found", len(found)).Msg("Existence check")
	}

	for _, r := range unique {
		if existing[r.ID] {
			res.RowsDuplicated++
			continue
		}
		res.Loaded = append(res.Loaded, r)
	}
	res.RowsLoaded = len(res.Loaded)

	if res.RowsLoaded > 0 {
		if err := u.store.Append(ctx, res.Loaded); err != nil {
			return res, fmt.Errorf("Upsert: appending %d rows: %w", res.RowsLoaded, err)
		}
	}

	log.Info().
		Int("total_rows", res.TotalRows).
		Int("rows_loaded", res.RowsLoaded).
		Int("rows_duplicated", res.RowsDuplicated).
		Msg("Upsert complete")
	return res, nil
}
