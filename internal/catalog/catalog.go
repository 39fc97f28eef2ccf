// Package catalog is the ingestion and merge engine: it turns parsed
// grocery text into catalog items, deduplicating on normalized name, and
// exposes the item CRUD operations.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/woutervb/boodschap/internal/metrics"
	"github.com/woutervb/boodschap/internal/model"
	"github.com/woutervb/boodschap/internal/parser"
	"github.com/woutervb/boodschap/internal/store"
)

// ErrValidation marks a malformed update payload (e.g. negative quantity).
var ErrValidation = errors.New("validation failed")

// conflictRetryDelay spaces the single retry of an ingest batch that lost a
// dedup race.
const conflictRetryDelay = 25 * time.Millisecond

type Engine struct {
	db         *sql.DB
	items      *store.ItemStore
	categories *store.CategoryStore
	logger     *slog.Logger
	now        func() time.Time

	// beforeCreate, when set, runs inside the ingest transaction right
	// before an item create. Test seam for simulating a concurrent ingest
	// winning the create for the same normalized name.
	beforeCreate func(tx *sql.Tx, norm string)
}

func NewEngine(db *sql.DB, logger *slog.Logger) *Engine {
	return &Engine{
		db:         db,
		items:      store.NewItemStore(db),
		categories: store.NewCategoryStore(db),
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// now stubbing hook for tests
func (e *Engine) setNow(now func() time.Time) { e.now = now }

// IngestRequest carries one free-form text submission.
type IngestRequest struct {
	Text           string
	Source         string
	Category       string // stable category key, optional
	PreferredStore *model.Store
}

// AddedItem describes one resulting catalog item of an ingest call.
type AddedItem struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Qty   float64 `json:"qty"`
	Unit  *string `json:"unit"`
	IsNew bool    `json:"is_new"`
}

// IngestResult summarizes an ingest call.
type IngestResult struct {
	Count   int         `json:"count"`
	Items   []AddedItem `json:"items"`
	Message string      `json:"message"`
}

// Ingest parses text and merges the parsed items into the catalog as one
// atomic batch. An existing live item with the same normalized name absorbs
// the parsed quantity (never decreasing), is reopened if it was checked,
// and gains category/store only when it had none. A dedup race with a
// concurrent ingest is retried once before surfacing.
func (e *Engine) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	parsed := parser.Parse(req.Text)
	if len(parsed) == 0 {
		return &IngestResult{Count: 0, Items: []AddedItem{}, Message: "Geen items herkend"}, nil
	}

	var result *IngestResult
	backoff := retry.WithMaxRetries(1, retry.NewConstant(conflictRetryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		res, err := e.ingestBatch(parsed, req)
		if err != nil {
			if errors.Is(err, store.ErrConflict) {
				e.logger.Warn("ingest dedup race, retrying", "source", req.Source)
				return retry.RetryableError(err)
			}
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, item := range result.Items {
		if item.IsNew {
			metrics.ItemsIngested.WithLabelValues("created").Inc()
		} else {
			metrics.ItemsIngested.WithLabelValues("merged").Inc()
		}
	}
	e.logger.Info("ingested items", "count", result.Count, "source", req.Source)
	return result, nil
}

func (e *Engine) ingestBatch(parsed []parser.Item, req IngestRequest) (*IngestResult, error) {
	now := e.now()
	var added []AddedItem

	err := store.InTx(e.db, func(tx *sql.Tx) error {
		items := e.items.WithTx(tx)
		categories := e.categories.WithTx(tx)

		catByKey, err := categoryIndex(categories)
		if err != nil {
			return err
		}

		var requestCatID *string
		if req.Category != "" {
			if id, ok := catByKey[req.Category]; ok {
				requestCatID = &id
			}
		}

		added = added[:0]
		for _, p := range parsed {
			norm := parser.Normalize(p.Name)

			existing, err := items.GetLiveByNorm(norm)
			switch {
			case err == nil:
				merged, err := mergeItem(items, existing, p, requestCatID, req.PreferredStore, now)
				if err != nil {
					return err
				}
				added = append(added, AddedItem{
					ID: merged.ID, Name: merged.NameRaw, Qty: merged.Qty, Unit: merged.Unit,
				})
			case errors.Is(err, store.ErrNotFound):
				if e.beforeCreate != nil {
					e.beforeCreate(tx, norm)
				}
				catID := requestCatID
				if catID == nil {
					if key := Categorize(p.Name); key != "" {
						if id, ok := catByKey[key]; ok {
							catID = &id
						}
					}
				}
				item, err := createItem(items, p, norm, catID, req.PreferredStore, now)
				if err != nil {
					return err
				}
				added = append(added, AddedItem{
					ID: item.ID, Name: item.NameRaw, Qty: item.Qty, Unit: item.Unit, IsNew: true,
				})
			default:
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &IngestResult{
		Count:   len(added),
		Items:   added,
		Message: ingestMessage(added),
	}, nil
}

func categoryIndex(categories *store.CategoryStore) (map[string]string, error) {
	cats, err := categories.List()
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]string, len(cats))
	for _, c := range cats {
		byKey[c.Name] = c.ID
	}
	return byKey, nil
}

// mergeItem applies the merge rules: quantity sums, checked reopens,
// category and store fill in only when unset.
func mergeItem(items *store.ItemStore, existing *model.Item, p parser.Item, catID *string, preferred *model.Store, now time.Time) (*model.Item, error) {
	existing.Qty += p.Qty
	existing.LastAddedAt = now
	existing.UpdatedAt = now
	if existing.Status == model.ItemStatusChecked {
		existing.Status = model.ItemStatusOpen
	}
	if existing.CategoryID == nil && catID != nil {
		existing.CategoryID = catID
	}
	if existing.PreferredStore == nil && preferred != nil {
		existing.PreferredStore = preferred
	}
	if err := items.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func createItem(items *store.ItemStore, p parser.Item, norm string, catID *string, preferred *model.Store, now time.Time) (*model.Item, error) {
	item := &model.Item{
		ID:             uuid.NewString(),
		NameRaw:        p.Name,
		NameNorm:       norm,
		CategoryID:     catID,
		Qty:            p.Qty,
		Status:         model.ItemStatusOpen,
		PreferredStore: preferred,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastAddedAt:    now,
	}
	if p.Unit != "" {
		unit := p.Unit
		item.Unit = &unit
	}
	if err := items.Insert(item); err != nil {
		return nil, err
	}
	return item, nil
}

// ingestMessage builds the Dutch confirmation: count plus the first three
// names, with a remainder count when more follow.
func ingestMessage(added []AddedItem) string {
	if len(added) == 1 {
		return fmt.Sprintf("1 item toegevoegd: %s", added[0].Name)
	}
	names := make([]string, 0, 3)
	for i, item := range added {
		if i == 3 {
			break
		}
		names = append(names, item.Name)
	}
	joined := strings.Join(names, ", ")
	if len(added) > 3 {
		joined = fmt.Sprintf("%s en %d meer", joined, len(added)-3)
	}
	return fmt.Sprintf("%d items toegevoegd: %s", len(added), joined)
}

// List returns catalog items. Removed items are excluded unless explicitly
// requested by status; snoozed items are excluded unless includeSnoozed.
func (e *Engine) List(status *model.ItemStatus, categoryID string, includeSnoozed bool) ([]model.Item, error) {
	return e.items.List(store.ItemFilter{
		Status:         status,
		CategoryID:     categoryID,
		IncludeSnoozed: includeSnoozed,
		Now:            e.now(),
	})
}

func (e *Engine) Get(id string) (*model.Item, error) {
	return e.items.GetByID(id)
}

// Check marks an item checked.
func (e *Engine) Check(ctx context.Context, id string) (*model.Item, error) {
	return e.setStatus(id, model.ItemStatusChecked)
}

// Uncheck reopens a checked item.
func (e *Engine) Uncheck(ctx context.Context, id string) (*model.Item, error) {
	return e.setStatus(id, model.ItemStatusOpen)
}

func (e *Engine) setStatus(id string, status model.ItemStatus) (*model.Item, error) {
	var item *model.Item
	err := store.InTx(e.db, func(tx *sql.Tx) error {
		items := e.items.WithTx(tx)
		existing, err := items.GetByID(id)
		if err != nil {
			return err
		}
		if existing.Status == model.ItemStatusRemoved {
			return store.ErrNotFound
		}
		existing.Status = status
		existing.UpdatedAt = e.now()
		if err := items.Update(existing); err != nil {
			return err
		}
		item = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Patch is a partial item update. A nil field is left untouched; for Unit,
// Notes and CategoryID an explicit empty string clears the value.
type Patch struct {
	NameRaw        *string
	Qty            *float64
	Unit           *string
	Notes          *string
	CategoryID     *string
	PreferredStore *model.Store
	SnoozeUntil    *time.Time
}

// Update applies a patch to a live item.
func (e *Engine) Update(ctx context.Context, id string, p Patch) (*model.Item, error) {
	if p.Qty != nil && *p.Qty < 0 {
		return nil, fmt.Errorf("%w: qty must be >= 0", ErrValidation)
	}
	if p.NameRaw != nil && strings.TrimSpace(*p.NameRaw) == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrValidation)
	}

	var item *model.Item
	err := store.InTx(e.db, func(tx *sql.Tx) error {
		items := e.items.WithTx(tx)
		existing, err := items.GetByID(id)
		if err != nil {
			return err
		}
		if existing.Status == model.ItemStatusRemoved {
			return store.ErrNotFound
		}

		if p.NameRaw != nil {
			existing.NameRaw = *p.NameRaw
			existing.NameNorm = parser.Normalize(*p.NameRaw)
		}
		if p.Qty != nil {
			existing.Qty = *p.Qty
		}
		if p.Unit != nil {
			existing.Unit = emptyToNil(*p.Unit)
		}
		if p.Notes != nil {
			existing.Notes = emptyToNil(*p.Notes)
		}
		if p.CategoryID != nil {
			catID := emptyToNil(*p.CategoryID)
			if catID != nil {
				if _, err := e.categories.WithTx(tx).GetByID(*catID); err != nil {
					if errors.Is(err, store.ErrNotFound) {
						return fmt.Errorf("%w: unknown category", ErrValidation)
					}
					return err
				}
			}
			existing.CategoryID = catID
		}
		if p.PreferredStore != nil {
			existing.PreferredStore = p.PreferredStore
		}
		if p.SnoozeUntil != nil {
			existing.SnoozeUntil = p.SnoozeUntil
		}
		existing.UpdatedAt = e.now()

		if err := items.Update(existing); err != nil {
			return err
		}
		item = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// SoftDelete marks an item removed. Removed items keep history but leave
// default listings, exports, session eligibility and dedup matching.
func (e *Engine) SoftDelete(ctx context.Context, id string) error {
	return store.InTx(e.db, func(tx *sql.Tx) error {
		items := e.items.WithTx(tx)
		existing, err := items.GetByID(id)
		if err != nil {
			return err
		}
		if existing.Status == model.ItemStatusRemoved {
			return store.ErrNotFound
		}
		existing.Status = model.ItemStatusRemoved
		existing.UpdatedAt = e.now()
		return items.Update(existing)
	})
}

// Categories lists all seeded categories.
func (e *Engine) Categories() ([]model.Category, error) {
	return e.categories.List()
}

// ItemsForExport returns items for the export surface.
func (e *Engine) ItemsForExport(storeFilter *model.Store, includeChecked, includeSnoozed bool) ([]model.Item, error) {
	return e.items.ListForExport(storeFilter, includeChecked, includeSnoozed, e.now())
}

// OpenItems returns the open, unsnoozed items (the sync surface's input).
func (e *Engine) OpenItems() ([]model.Item, error) {
	open := model.ItemStatusOpen
	return e.items.List(store.ItemFilter{Status: &open, Now: e.now()})
}
