package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/woutervb/boodschap/internal/model"
)

type SessionStore struct {
	db Queryer
}

func NewSessionStore(db Queryer) *SessionStore {
	return &SessionStore{db: db}
}

// WithTx returns a store bound to the given transaction.
func (s *SessionStore) WithTx(tx *sql.Tx) *SessionStore {
	return &SessionStore{db: tx}
}

const sessionCols = `id, store, started_at, closed_at, close_policy`

func scanSession(scanner interface{ Scan(...any) error }) (*model.ShoppingSession, error) {
	var sess model.ShoppingSession
	var store, policy sql.NullString
	var closedAt sql.NullTime

	err := scanner.Scan(&sess.ID, &store, &sess.StartedAt, &closedAt, &policy)
	if err != nil {
		return nil, err
	}
	if store.Valid {
		st := model.Store(store.String)
		sess.Store = &st
	}
	if closedAt.Valid {
		t := closedAt.Time
		sess.ClosedAt = &t
	}
	if policy.Valid {
		p := model.ClosePolicy(policy.String)
		sess.ClosePolicy = &p
	}
	return &sess, nil
}

func (s *SessionStore) Insert(sess *model.ShoppingSession) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (`+sessionCols+`) VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.Store, sess.StartedAt, sess.ClosedAt, sess.ClosePolicy,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *SessionStore) GetByID(id string) (*model.ShoppingSession, error) {
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// List returns the most recently started sessions.
func (s *SessionStore) List(limit int) ([]model.ShoppingSession, error) {
	rows, err := s.db.Query(
		`SELECT `+sessionCols+` FROM sessions ORDER BY started_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.ShoppingSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

// Close stamps the closed timestamp and policy on a session.
func (s *SessionStore) Close(id string, policy model.ClosePolicy, closedAt time.Time) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET closed_at = ?, close_policy = ? WHERE id = ?`,
		closedAt, policy, id,
	)
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}

// --- Session item methods ---

const sessionItemCols = `id, session_id, item_id, qty_at_export, unit_at_export, checked_at, state`

func scanSessionItem(scanner interface{ Scan(...any) error }) (*model.SessionItem, error) {
	var si model.SessionItem
	var unit sql.NullString
	var checkedAt sql.NullTime
	var state string

	err := scanner.Scan(&si.ID, &si.SessionID, &si.ItemID, &si.QtyAtExport, &unit, &checkedAt, &state)
	if err != nil {
		return nil, err
	}
	si.State = model.SessionItemState(state)
	if unit.Valid {
		si.UnitAtExport = &unit.String
	}
	if checkedAt.Valid {
		t := checkedAt.Time
		si.CheckedAt = &t
	}
	return &si, nil
}

func (s *SessionStore) InsertItem(si *model.SessionItem) error {
	_, err := s.db.Exec(
		`INSERT INTO session_items (`+sessionItemCols+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		si.ID, si.SessionID, si.ItemID, si.QtyAtExport, si.UnitAtExport, si.CheckedAt, si.State,
	)
	if err != nil {
		return fmt.Errorf("insert session item: %w", err)
	}
	return nil
}

// GetItemPair finds the snapshot row linking a session and a catalog item.
func (s *SessionStore) GetItemPair(sessionID, itemID string) (*model.SessionItem, error) {
	row := s.db.QueryRow(
		`SELECT `+sessionItemCols+` FROM session_items WHERE session_id = ? AND item_id = ?`,
		sessionID, itemID,
	)
	si, err := scanSessionItem(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session item: %w", err)
	}
	return si, nil
}

// ListItems returns all snapshot rows of a session.
func (s *SessionStore) ListItems(sessionID string) ([]model.SessionItem, error) {
	return s.queryItems(`SELECT `+sessionItemCols+` FROM session_items WHERE session_id = ?`, sessionID)
}

// ListItemsInState returns a session's snapshot rows in the given state.
func (s *SessionStore) ListItemsInState(sessionID string, state model.SessionItemState) ([]model.SessionItem, error) {
	return s.queryItems(
		`SELECT `+sessionItemCols+` FROM session_items WHERE session_id = ? AND state = ?`,
		sessionID, state,
	)
}

func (s *SessionStore) queryItems(query string, args ...any) ([]model.SessionItem, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list session items: %w", err)
	}
	defer rows.Close()

	var items []model.SessionItem
	for rows.Next() {
		si, err := scanSessionItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session item: %w", err)
		}
		items = append(items, *si)
	}
	return items, rows.Err()
}

// SetItemState transitions a snapshot row. CheckedAt is stamped only for
// the checked state.
func (s *SessionStore) SetItemState(id string, state model.SessionItemState, checkedAt *time.Time) error {
	_, err := s.db.Exec(
		`UPDATE session_items SET state = ?, checked_at = ? WHERE id = ?`,
		state, checkedAt, id,
	)
	if err != nil {
		return fmt.Errorf("set session item state: %w", err)
	}
	return nil
}

// CountItems returns the total and checked snapshot counts for a session.
func (s *SessionStore) CountItems(sessionID string) (total, checked int, err error) {
	err = s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(state = ?), 0) FROM session_items WHERE session_id = ?`,
		model.SessionItemChecked, sessionID,
	).Scan(&total, &checked)
	if err != nil {
		return 0, 0, fmt.Errorf("count session items: %w", err)
	}
	return total, checked, nil
}
