package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/woutervb/boodschap/internal/appie"
	"github.com/woutervb/boodschap/internal/database"
	"github.com/woutervb/boodschap/internal/model"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(db, appie.NewClient(appie.Config{}, logger), []string{"*"}, logger)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, ts *httptest.Server, method, path string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestIngestAndListFlow(t *testing.T) {
	ts := newTestServer(t)

	var ingest struct {
		Count   int    `json:"count"`
		Message string `json:"message"`
	}
	code := doJSON(t, ts, "POST", "/api/items", map[string]string{
		"text":   "2x brood, melk 2L, 500g gehakt",
		"source": "test",
	}, &ingest)
	if code != http.StatusCreated {
		t.Fatalf("ingest status = %d", code)
	}
	if ingest.Count != 3 {
		t.Fatalf("count = %d, want 3", ingest.Count)
	}

	var items []model.Item
	if code := doJSON(t, ts, "GET", "/api/items", nil, &items); code != http.StatusOK {
		t.Fatalf("list status = %d", code)
	}
	if len(items) != 3 {
		t.Fatalf("listed %d items, want 3", len(items))
	}
}

func TestIngestRequiresText(t *testing.T) {
	ts := newTestServer(t)

	code := doJSON(t, ts, "POST", "/api/items", map[string]string{"source": "test"}, nil)
	if code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", code)
	}
}

func TestItemNotFoundIsDutch(t *testing.T) {
	ts := newTestServer(t)

	var body map[string]string
	code := doJSON(t, ts, "GET", "/api/items/bestaat-niet", nil, &body)
	if code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", code)
	}
	if body["error"] != "Item niet gevonden" {
		t.Errorf("error = %q", body["error"])
	}
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	doJSON(t, ts, "POST", "/api/items", map[string]string{"text": "melk, brood, kaas"}, nil)

	var sess struct {
		ID           string `json:"id"`
		ItemCount    int    `json:"item_count"`
		CheckedCount int    `json:"checked_count"`
	}
	if code := doJSON(t, ts, "POST", "/api/sessions", nil, &sess); code != http.StatusCreated {
		t.Fatalf("start status = %d", code)
	}
	if sess.ItemCount != 3 || sess.CheckedCount != 0 {
		t.Fatalf("fresh session stats = %+v", sess)
	}

	var items []model.SessionItem
	doJSON(t, ts, "GET", "/api/sessions/"+sess.ID+"/items", nil, &items)
	if len(items) != 3 {
		t.Fatalf("snapshot rows = %d", len(items))
	}

	checkPath := "/api/sessions/" + sess.ID + "/items/" + items[0].ItemID + "/check"
	if code := doJSON(t, ts, "POST", checkPath, nil, nil); code != http.StatusOK {
		t.Fatalf("check status = %d", code)
	}

	var stats struct {
		ItemCount    int `json:"item_count"`
		CheckedCount int `json:"checked_count"`
	}
	if code := doJSON(t, ts, "GET", "/api/sessions/"+sess.ID+"/stats", nil, &stats); code != http.StatusOK {
		t.Fatalf("stats status = %d", code)
	}
	if stats.ItemCount != 3 || stats.CheckedCount != 1 {
		t.Fatalf("stats = %+v, want 3/1", stats)
	}

	var closed struct {
		ClosedAt     *string `json:"closed_at"`
		ClosePolicy  *string `json:"close_policy"`
		CheckedCount int     `json:"checked_count"`
	}
	code := doJSON(t, ts, "POST", "/api/sessions/"+sess.ID+"/close",
		map[string]string{"close_policy": "remove_leftovers"}, &closed)
	if code != http.StatusOK {
		t.Fatalf("close status = %d", code)
	}
	if closed.ClosedAt == nil || closed.ClosePolicy == nil || *closed.ClosePolicy != "remove_leftovers" {
		t.Fatalf("closed session = %+v", closed)
	}
	if closed.CheckedCount != 1 {
		t.Errorf("checked_count = %d, want 1", closed.CheckedCount)
	}

	// Checking after close is a conflict.
	if code := doJSON(t, ts, "POST", checkPath, nil, nil); code != http.StatusConflict {
		t.Errorf("check after close status = %d, want 409", code)
	}

	// The two leftovers were removed from the catalog.
	var remaining []model.Item
	doJSON(t, ts, "GET", "/api/items", nil, &remaining)
	if len(remaining) != 1 {
		t.Errorf("remaining items = %d, want 1 (the checked one)", len(remaining))
	}
}

func TestExportPlaintext(t *testing.T) {
	ts := newTestServer(t)

	doJSON(t, ts, "POST", "/api/items", map[string]string{"text": "2x brood, melk"}, nil)

	resp, err := http.Get(ts.URL + "/api/export/ah")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	text := string(body)
	if !strings.HasPrefix(text, "# AH (2 items)") {
		t.Errorf("missing header: %q", text)
	}
	if !strings.Contains(text, "## Zuivel") || !strings.Contains(text, "- melk") {
		t.Errorf("missing dairy group: %q", text)
	}
	if !strings.Contains(text, "- 2x brood") {
		t.Errorf("missing brood line: %q", text)
	}
}

func TestCategoriesSeeded(t *testing.T) {
	ts := newTestServer(t)

	var categories []model.Category
	if code := doJSON(t, ts, "GET", "/api/categories", nil, &categories); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(categories) != 11 {
		t.Errorf("seeded categories = %d, want 11", len(categories))
	}
}

func TestSyncWithoutCredentials(t *testing.T) {
	ts := newTestServer(t)

	doJSON(t, ts, "POST", "/api/items", map[string]string{"text": "melk"}, nil)

	var body map[string]string
	code := doJSON(t, ts, "POST", "/api/sync/ah", nil, &body)
	if code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", code)
	}
	if body["error"] != "AH koppeling niet geconfigureerd" {
		t.Errorf("error = %q", body["error"])
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	var body map[string]string
	if code := doJSON(t, ts, "GET", "/health", nil, &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if body["status"] != "ok" {
		t.Errorf("status body = %v", body)
	}
}
