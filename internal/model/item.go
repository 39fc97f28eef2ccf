package model

import (
	"strings"
	"time"
)

// ItemStatus is the lifecycle state of a catalog item.
type ItemStatus string

const (
	ItemStatusOpen    ItemStatus = "open"
	ItemStatusChecked ItemStatus = "checked"
	ItemStatusRemoved ItemStatus = "removed"
)

// ParseItemStatus validates a status string from the API.
func ParseItemStatus(s string) (ItemStatus, bool) {
	switch ItemStatus(s) {
	case ItemStatusOpen, ItemStatusChecked, ItemStatusRemoved:
		return ItemStatus(s), true
	}
	return "", false
}

// Store is a supported grocery store for preferences and exports.
type Store string

const (
	StoreAH    Store = "AH"
	StoreJumbo Store = "Jumbo"
)

// ParseStore validates a store string from the API, case-insensitively.
func ParseStore(s string) (Store, bool) {
	switch {
	case strings.EqualFold(s, string(StoreAH)):
		return StoreAH, true
	case strings.EqualFold(s, string(StoreJumbo)):
		return StoreJumbo, true
	}
	return "", false
}

// Item is a grocery need in the catalog. NameNorm is the dedup key: at most
// one non-removed item may carry a given normalized name.
type Item struct {
	ID             string     `json:"id"`
	NameRaw        string     `json:"name_raw"`
	NameNorm       string     `json:"name_norm"`
	CategoryID     *string    `json:"category_id"`
	Qty            float64    `json:"qty"`
	Unit           *string    `json:"unit"`
	Notes          *string    `json:"notes"`
	Status         ItemStatus `json:"status"`
	PreferredStore *Store     `json:"preferred_store"`
	SnoozeUntil    *time.Time `json:"snooze_until"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	LastAddedAt    time.Time  `json:"last_added_at"`
}

// Snoozed reports whether the item is snoozed relative to now.
func (i *Item) Snoozed(now time.Time) bool {
	return i.SnoozeUntil != nil && i.SnoozeUntil.After(now)
}
