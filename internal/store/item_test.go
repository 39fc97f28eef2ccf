package store

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/woutervb/boodschap/internal/database"
	"github.com/woutervb/boodschap/internal/model"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testItem(norm string) *model.Item {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &model.Item{
		ID:          uuid.NewString(),
		NameRaw:     norm,
		NameNorm:    norm,
		Qty:         1,
		Status:      model.ItemStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
		LastAddedAt: now,
	}
}

func TestInsertDuplicateLiveNormConflicts(t *testing.T) {
	items := NewItemStore(testDB(t))

	if err := items.Insert(testItem("melk")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	err := items.Insert(testItem("melk"))
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate insert: err = %v, want ErrConflict", err)
	}
}

func TestRemovedItemFreesTheNorm(t *testing.T) {
	items := NewItemStore(testDB(t))

	first := testItem("melk")
	if err := items.Insert(first); err != nil {
		t.Fatalf("insert: %v", err)
	}
	first.Status = model.ItemStatusRemoved
	if err := items.Update(first); err != nil {
		t.Fatalf("remove: %v", err)
	}

	// The partial index only covers live rows, so the norm is reusable.
	if err := items.Insert(testItem("melk")); err != nil {
		t.Fatalf("insert after remove: %v", err)
	}
}

func TestGetLiveByNorm(t *testing.T) {
	items := NewItemStore(testDB(t))

	item := testItem("melk")
	if err := items.Insert(item); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := items.GetLiveByNorm("melk")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != item.ID {
		t.Errorf("id = %s, want %s", got.ID, item.ID)
	}

	item.Status = model.ItemStatusRemoved
	if err := items.Update(item); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := items.GetLiveByNorm("melk"); !errors.Is(err, ErrNotFound) {
		t.Errorf("removed item: err = %v, want ErrNotFound", err)
	}
}

func TestUpdateMissingItem(t *testing.T) {
	items := NewItemStore(testDB(t))

	if err := items.Update(testItem("spook")); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestInTxRollsBackOnError(t *testing.T) {
	db := testDB(t)
	items := NewItemStore(db)

	boom := errors.New("boom")
	err := InTx(db, func(tx *sql.Tx) error {
		if err := items.WithTx(tx).Insert(testItem("melk")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	if _, err := items.GetLiveByNorm("melk"); !errors.Is(err, ErrNotFound) {
		t.Errorf("insert should have rolled back, err = %v", err)
	}
}
