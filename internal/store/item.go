package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/woutervb/boodschap/internal/model"
)

type ItemStore struct {
	db Queryer
}

func NewItemStore(db Queryer) *ItemStore {
	return &ItemStore{db: db}
}

// WithTx returns a store bound to the given transaction.
func (s *ItemStore) WithTx(tx *sql.Tx) *ItemStore {
	return &ItemStore{db: tx}
}

const itemCols = `id, name_raw, name_norm, category_id, qty, unit, notes, status, preferred_store, snooze_until, created_at, updated_at, last_added_at`

func scanItem(scanner interface{ Scan(...any) error }) (*model.Item, error) {
	var item model.Item
	var categoryID, unit, notes, preferred sql.NullString
	var snoozeUntil sql.NullTime
	var status, store string

	err := scanner.Scan(
		&item.ID, &item.NameRaw, &item.NameNorm, &categoryID, &item.Qty,
		&unit, &notes, &status, &preferred, &snoozeUntil,
		&item.CreatedAt, &item.UpdatedAt, &item.LastAddedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Status = model.ItemStatus(status)
	if categoryID.Valid {
		item.CategoryID = &categoryID.String
	}
	if unit.Valid {
		item.Unit = &unit.String
	}
	if notes.Valid {
		item.Notes = &notes.String
	}
	if preferred.Valid {
		store = preferred.String
		st := model.Store(store)
		item.PreferredStore = &st
	}
	if snoozeUntil.Valid {
		t := snoozeUntil.Time
		item.SnoozeUntil = &t
	}
	return &item, nil
}

func (s *ItemStore) GetByID(id string) (*model.Item, error) {
	row := s.db.QueryRow(`SELECT `+itemCols+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// GetLiveByNorm looks up the single non-removed item with the given
// normalized name.
func (s *ItemStore) GetLiveByNorm(norm string) (*model.Item, error) {
	row := s.db.QueryRow(
		`SELECT `+itemCols+` FROM items WHERE name_norm = ? AND status != ?`,
		norm, model.ItemStatusRemoved,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item by norm: %w", err)
	}
	return item, nil
}

func (s *ItemStore) Insert(item *model.Item) error {
	_, err := s.db.Exec(
		`INSERT INTO items (`+itemCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.NameRaw, item.NameNorm, item.CategoryID, item.Qty,
		item.Unit, item.Notes, item.Status, item.PreferredStore, item.SnoozeUntil,
		item.CreatedAt, item.UpdatedAt, item.LastAddedAt,
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", wrapConflict(err))
	}
	return nil
}

// Update writes every mutable field of an item. Callers load, mutate, and
// write back inside a transaction.
func (s *ItemStore) Update(item *model.Item) error {
	res, err := s.db.Exec(
		`UPDATE items SET name_raw = ?, name_norm = ?, category_id = ?, qty = ?, unit = ?,
		 notes = ?, status = ?, preferred_store = ?, snooze_until = ?, updated_at = ?, last_added_at = ?
		 WHERE id = ?`,
		item.NameRaw, item.NameNorm, item.CategoryID, item.Qty, item.Unit,
		item.Notes, item.Status, item.PreferredStore, item.SnoozeUntil,
		item.UpdatedAt, item.LastAddedAt, item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", wrapConflict(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ItemFilter narrows List. A nil Status means "everything except removed".
type ItemFilter struct {
	Status         *model.ItemStatus
	CategoryID     string
	IncludeSnoozed bool
	Now            time.Time
}

// List returns items ordered by category sort order (uncategorized last),
// then normalized name, then id for determinism.
func (s *ItemStore) List(f ItemFilter) ([]model.Item, error) {
	query := `SELECT ` + prefixedItemCols + ` FROM items i
		LEFT JOIN categories c ON c.id = i.category_id WHERE 1=1`
	var args []any

	if f.Status != nil {
		query += ` AND i.status = ?`
		args = append(args, *f.Status)
	} else {
		query += ` AND i.status != ?`
		args = append(args, model.ItemStatusRemoved)
	}
	if f.CategoryID != "" {
		query += ` AND i.category_id = ?`
		args = append(args, f.CategoryID)
	}
	if !f.IncludeSnoozed {
		query += ` AND (i.snooze_until IS NULL OR i.snooze_until <= ?)`
		args = append(args, f.Now)
	}
	query += itemOrder

	return s.queryItems(query, args...)
}

// ListEligible returns the items a new session exports: open, not snoozed,
// and either without store preference or matching the requested store.
func (s *ItemStore) ListEligible(store *model.Store, now time.Time) ([]model.Item, error) {
	query := `SELECT ` + prefixedItemCols + ` FROM items i
		LEFT JOIN categories c ON c.id = i.category_id
		WHERE i.status = ? AND (i.snooze_until IS NULL OR i.snooze_until <= ?)`
	args := []any{model.ItemStatusOpen, now}

	if store != nil {
		query += ` AND (i.preferred_store IS NULL OR i.preferred_store = ?)`
		args = append(args, *store)
	}
	query += itemOrder

	return s.queryItems(query, args...)
}

// ListForExport returns items for a store export.
func (s *ItemStore) ListForExport(store *model.Store, includeChecked, includeSnoozed bool, now time.Time) ([]model.Item, error) {
	query := `SELECT ` + prefixedItemCols + ` FROM items i
		LEFT JOIN categories c ON c.id = i.category_id WHERE `
	var args []any

	if includeChecked {
		query += `i.status IN (?, ?)`
		args = append(args, model.ItemStatusOpen, model.ItemStatusChecked)
	} else {
		query += `i.status = ?`
		args = append(args, model.ItemStatusOpen)
	}
	if !includeSnoozed {
		query += ` AND (i.snooze_until IS NULL OR i.snooze_until <= ?)`
		args = append(args, now)
	}
	if store != nil {
		query += ` AND (i.preferred_store IS NULL OR i.preferred_store = ?)`
		args = append(args, *store)
	}
	query += itemOrder

	return s.queryItems(query, args...)
}

const prefixedItemCols = `i.id, i.name_raw, i.name_norm, i.category_id, i.qty, i.unit, i.notes, i.status, i.preferred_store, i.snooze_until, i.created_at, i.updated_at, i.last_added_at`

const itemOrder = ` ORDER BY c.sort_order IS NULL ASC, c.sort_order ASC, i.name_norm ASC, i.id ASC`

func (s *ItemStore) queryItems(query string, args ...any) ([]model.Item, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}
