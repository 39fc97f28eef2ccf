// Package session manages the shopping trip lifecycle: snapshotting
// eligible catalog items at start, tracking check-offs independently of the
// catalog, and reconciling leftovers back into the catalog on close.
package session

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/woutervb/boodschap/internal/metrics"
	"github.com/woutervb/boodschap/internal/model"
	"github.com/woutervb/boodschap/internal/store"
)

// ErrSessionClosed is returned when a check is attempted on a closed
// session. Closed is terminal; its snapshot no longer accepts transitions.
var ErrSessionClosed = errors.New("session closed")

// DefaultSnoozeDays is the leftover snooze horizon when the close request
// does not specify one.
const DefaultSnoozeDays = 7

type Service struct {
	db       *sql.DB
	sessions *store.SessionStore
	items    *store.ItemStore
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(db *sql.DB, logger *slog.Logger) *Service {
	return &Service{
		db:       db,
		sessions: store.NewSessionStore(db),
		items:    store.NewItemStore(db),
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) setNow(now func() time.Time) { s.now = now }

// Start opens a session and snapshots every eligible item: open, not
// snoozed, and not preferring a different store than the requested one.
// Session and snapshot rows commit as one unit.
func (s *Service) Start(ctx context.Context, storeFilter *model.Store) (*model.ShoppingSession, error) {
	now := s.now()
	sess := &model.ShoppingSession{
		ID:        uuid.NewString(),
		Store:     storeFilter,
		StartedAt: now,
	}

	err := store.InTx(s.db, func(tx *sql.Tx) error {
		sessions := s.sessions.WithTx(tx)
		items := s.items.WithTx(tx)

		if err := sessions.Insert(sess); err != nil {
			return err
		}

		eligible, err := items.ListEligible(storeFilter, now)
		if err != nil {
			return err
		}
		for _, item := range eligible {
			si := &model.SessionItem{
				ID:           uuid.NewString(),
				SessionID:    sess.ID,
				ItemID:       item.ID,
				QtyAtExport:  item.Qty,
				UnitAtExport: item.Unit,
				State:        model.SessionItemExported,
			}
			if err := sessions.InsertItem(si); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.SessionsStarted.Inc()
	s.logger.Info("session started", "session_id", sess.ID, "store", storeLabel(storeFilter))
	return sess, nil
}

func storeLabel(st *model.Store) string {
	if st == nil {
		return "any"
	}
	return string(*st)
}

func (s *Service) Get(id string) (*model.ShoppingSession, error) {
	return s.sessions.GetByID(id)
}

// List returns the most recent sessions.
func (s *Service) List(limit int) ([]model.ShoppingSession, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.sessions.List(limit)
}

// Items returns a session's snapshot rows.
func (s *Service) Items(sessionID string) ([]model.SessionItem, error) {
	if _, err := s.sessions.GetByID(sessionID); err != nil {
		return nil, err
	}
	return s.sessions.ListItems(sessionID)
}

// CheckItem transitions the session's snapshot of itemID from exported to
// checked and checks the underlying catalog item, atomically. Checking on
// a closed session is rejected; a missing or already transitioned snapshot
// reports not-found.
func (s *Service) CheckItem(ctx context.Context, sessionID, itemID string) error {
	now := s.now()
	return store.InTx(s.db, func(tx *sql.Tx) error {
		sessions := s.sessions.WithTx(tx)
		items := s.items.WithTx(tx)

		sess, err := sessions.GetByID(sessionID)
		if err != nil {
			return err
		}
		if sess.Closed() {
			return ErrSessionClosed
		}

		si, err := sessions.GetItemPair(sessionID, itemID)
		if err != nil {
			return err
		}
		if si.State != model.SessionItemExported {
			return store.ErrNotFound
		}

		if err := sessions.SetItemState(si.ID, model.SessionItemChecked, &now); err != nil {
			return err
		}

		item, err := items.GetByID(itemID)
		if err != nil {
			return err
		}
		// A catalog item soft-deleted mid-session keeps its state; only the
		// snapshot records the check.
		if item.Status == model.ItemStatusRemoved {
			return nil
		}
		item.Status = model.ItemStatusChecked
		item.UpdatedAt = now
		return items.Update(item)
	})
}

// Close ends a session. Every snapshot still exported becomes a leftover
// and the policy is applied to its catalog item: KeepOpen leaves it,
// SnoozeLeftovers sets snooze-until now+snoozeDays, RemoveLeftovers soft
// deletes it. Closing an already closed session is a no-op returning the
// stored session; the first policy wins.
func (s *Service) Close(ctx context.Context, id string, policy model.ClosePolicy, snoozeDays int) (*model.ShoppingSession, error) {
	if snoozeDays <= 0 {
		snoozeDays = DefaultSnoozeDays
	}
	now := s.now()

	var result *model.ShoppingSession
	closedNow := false
	leftoverCount := 0
	err := store.InTx(s.db, func(tx *sql.Tx) error {
		sessions := s.sessions.WithTx(tx)
		items := s.items.WithTx(tx)

		sess, err := sessions.GetByID(id)
		if err != nil {
			return err
		}
		if sess.Closed() {
			result = sess
			return nil
		}

		leftovers, err := sessions.ListItemsInState(id, model.SessionItemExported)
		if err != nil {
			return err
		}
		for _, si := range leftovers {
			if err := sessions.SetItemState(si.ID, model.SessionItemLeftover, nil); err != nil {
				return err
			}
			if err := s.applyPolicy(items, si.ItemID, policy, snoozeDays, now); err != nil {
				return err
			}
		}

		if err := sessions.Close(id, policy, now); err != nil {
			return err
		}
		sess.ClosedAt = &now
		sess.ClosePolicy = &policy
		result = sess
		closedNow = true
		leftoverCount = len(leftovers)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if closedNow {
		metrics.SessionsClosed.WithLabelValues(string(policy)).Inc()
		s.logger.Info("session closed", "session_id", id, "policy", policy, "leftovers", leftoverCount)
	}
	return result, nil
}

func (s *Service) applyPolicy(items *store.ItemStore, itemID string, policy model.ClosePolicy, snoozeDays int, now time.Time) error {
	if policy == model.PolicyKeepOpen {
		return nil
	}

	item, err := items.GetByID(itemID)
	if err != nil {
		// The catalog item may have been removed mid-session; nothing to
		// reconcile then.
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	switch policy {
	case model.PolicySnoozeLeftovers:
		until := now.AddDate(0, 0, snoozeDays)
		item.SnoozeUntil = &until
	case model.PolicyRemoveLeftovers:
		item.Status = model.ItemStatusRemoved
	}
	item.UpdatedAt = now
	return items.Update(item)
}

// Stats are recomputed on demand, never cached.
type Stats struct {
	ItemCount    int `json:"item_count"`
	CheckedCount int `json:"checked_count"`
}

func (s *Service) Stats(id string) (*Stats, error) {
	if _, err := s.sessions.GetByID(id); err != nil {
		return nil, err
	}
	total, checked, err := s.sessions.CountItems(id)
	if err != nil {
		return nil, err
	}
	return &Stats{ItemCount: total, CheckedCount: checked}, nil
}
