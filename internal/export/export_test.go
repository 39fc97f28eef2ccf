package export

import (
	"strings"
	"testing"
	"time"

	"github.com/woutervb/boodschap/internal/model"
)

func strPtr(s string) *string { return &s }

func testCategories() []model.Category {
	return []model.Category{
		{ID: "cat-dairy", Name: "dairy", NameNL: "Zuivel", SortOrder: 2},
		{ID: "cat-bakery", Name: "bakery", NameNL: "Brood & Banket", SortOrder: 3},
	}
}

func TestPlaintextGroupsByCategory(t *testing.T) {
	items := []model.Item{
		{ID: "1", NameRaw: "melk", Qty: 2, Unit: strPtr("L"), CategoryID: strPtr("cat-dairy"), Status: model.ItemStatusOpen},
		{ID: "2", NameRaw: "kaas", Qty: 1, CategoryID: strPtr("cat-dairy"), Status: model.ItemStatusOpen},
		{ID: "3", NameRaw: "brood", Qty: 2, CategoryID: strPtr("cat-bakery"), Status: model.ItemStatusOpen},
		{ID: "4", NameRaw: "batterijen", Qty: 1, Status: model.ItemStatusOpen},
	}

	out := Plaintext(items, testCategories(), "AH")

	want := `# AH (4 items)
## Zuivel
- 2x melk (L)
- kaas

## Brood & Banket
- 2x brood

## Overig
- batterijen
`
	if out != want {
		t.Errorf("Plaintext mismatch:\ngot:\n%s\nwant:\n%s", out, want)
	}
}

func TestPlaintextEmpty(t *testing.T) {
	out := Plaintext(nil, testCategories(), "ALLE")
	if !strings.HasPrefix(out, "# ALLE (0 items)") {
		t.Errorf("expected empty header, got %q", out)
	}
}

func TestFormatLineFractionalQty(t *testing.T) {
	line := formatLine(model.Item{NameRaw: "gehakt", Qty: 1.5, Unit: strPtr("kg")})
	if line != "- 1.5x gehakt (kg)" {
		t.Errorf("got %q", line)
	}
}

func TestSimple(t *testing.T) {
	items := []model.Item{
		{NameRaw: "melk", Qty: 2},
		{NameRaw: "kaas", Qty: 1},
		{NameRaw: "brood", Qty: 3},
	}
	out := Simple(items)
	if out != "2 melk, kaas, 3 brood" {
		t.Errorf("got %q", out)
	}
}

func TestSimpleEmpty(t *testing.T) {
	if out := Simple(nil); out != "Je boodschappenlijst is leeg." {
		t.Errorf("got %q", out)
	}
}

func TestJSONDoc(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	items := []model.Item{
		{ID: "1", NameRaw: "melk", Qty: 2, Unit: strPtr("L"), CategoryID: strPtr("cat-dairy"), Status: model.ItemStatusOpen},
		{ID: "2", NameRaw: "batterijen", Qty: 1, Status: model.ItemStatusOpen},
	}

	doc := JSON(items, testCategories(), "JUMBO", now)

	if doc.Store != "JUMBO" || doc.Count != 2 || !doc.ExportedAt.Equal(now) {
		t.Errorf("unexpected envelope: %+v", doc)
	}
	if doc.Items[0].Category == nil || *doc.Items[0].Category != "Zuivel" {
		t.Errorf("expected dairy category name, got %+v", doc.Items[0])
	}
	if doc.Items[1].Category != nil {
		t.Errorf("expected nil category for uncategorized item")
	}
}
