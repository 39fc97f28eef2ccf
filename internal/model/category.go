package model

import "time"

// Category is a grocery category. Seeded by migration; read-mostly.
// Name is the stable key ("dairy"), NameNL the display name ("Zuivel").
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	NameNL    string    `json:"name_nl"`
	Icon      string    `json:"icon"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}
