// Package export renders the catalog for consumption outside the app:
// plaintext grouped by category, a bare comma list for voice assistants,
// and JSON.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/woutervb/boodschap/internal/model"
)

// fallbackCategory labels items without a category in grouped output.
const fallbackCategory = "Overig"

// Plaintext renders items grouped by category with markdown-ish headers.
func Plaintext(items []model.Item, categories []model.Category, storeLabel string) string {
	nameByID := categoryNames(categories)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s (%d items)\n", storeLabel, len(items))

	current := ""
	for _, item := range items {
		catName := fallbackCategory
		if item.CategoryID != nil {
			if n, ok := nameByID[*item.CategoryID]; ok {
				catName = n
			}
		}
		if catName != current {
			if current != "" {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "## %s\n", catName)
			current = catName
		}
		b.WriteString(formatLine(item))
		b.WriteString("\n")
	}
	return b.String()
}

// formatLine renders one item as "- 2x brood (L)"; a quantity of exactly 1
// is left implicit.
func formatLine(item model.Item) string {
	var b strings.Builder
	b.WriteString("- ")
	if item.Qty != 1 {
		b.WriteString(formatQty(item.Qty))
		b.WriteString("x ")
	}
	b.WriteString(item.NameRaw)
	if item.Unit != nil {
		fmt.Fprintf(&b, " (%s)", *item.Unit)
	}
	return b.String()
}

// Simple renders a bare comma-separated list, suitable for reading aloud.
func Simple(items []model.Item) string {
	if len(items) == 0 {
		return "Je boodschappenlijst is leeg."
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if item.Qty != 1 {
			parts = append(parts, formatQty(item.Qty)+" "+item.NameRaw)
		} else {
			parts = append(parts, item.NameRaw)
		}
	}
	return strings.Join(parts, ", ")
}

func formatQty(qty float64) string {
	if qty == float64(int64(qty)) {
		return fmt.Sprintf("%d", int64(qty))
	}
	return fmt.Sprintf("%g", qty)
}

// Doc is the JSON export envelope.
type Doc struct {
	Store      string    `json:"store"`
	ExportedAt time.Time `json:"exported_at"`
	Count      int       `json:"count"`
	Items      []DocItem `json:"items"`
}

type DocItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Qty      float64 `json:"qty"`
	Unit     *string `json:"unit"`
	Category *string `json:"category"`
	Status   string  `json:"status"`
}

// JSON assembles the JSON export document.
func JSON(items []model.Item, categories []model.Category, storeLabel string, exportedAt time.Time) Doc {
	nameByID := categoryNames(categories)

	doc := Doc{
		Store:      storeLabel,
		ExportedAt: exportedAt,
		Count:      len(items),
		Items:      make([]DocItem, 0, len(items)),
	}
	for _, item := range items {
		di := DocItem{
			ID:     item.ID,
			Name:   item.NameRaw,
			Qty:    item.Qty,
			Unit:   item.Unit,
			Status: string(item.Status),
		}
		if item.CategoryID != nil {
			if n, ok := nameByID[*item.CategoryID]; ok {
				di.Category = &n
			}
		}
		doc.Items = append(doc.Items, di)
	}
	return doc
}

func categoryNames(categories []model.Category) map[string]string {
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.NameNL
	}
	return names
}
