package appie

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/woutervb/boodschap/internal/model"
)

// fakeAH is a minimal stand-in for the AH mobile API.
type fakeAH struct {
	mux        *http.ServeMux
	logins     atomic.Int32
	refreshes  atomic.Int32
	searches   atomic.Int32
	listPushes atomic.Int32
	searchHit  bool
}

func newFakeAH(t *testing.T) (*fakeAH, *httptest.Server) {
	t.Helper()
	f := &fakeAH{mux: http.NewServeMux(), searchHit: true}

	f.mux.HandleFunc("POST /mobile-auth/v1/auth/token/anonymous", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"access_token": "anon-token", "expires_in": 300})
	})
	f.mux.HandleFunc("POST /mobile-auth/v1/auth/token/password", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer anon-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.logins.Add(1)
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-1",
			"refresh_token": "refresh-1",
			"expires_in":    3600,
		})
	})
	f.mux.HandleFunc("POST /mobile-auth/v1/auth/token/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.refreshes.Add(1)
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-2",
			"expires_in":   3600,
		})
	})
	f.mux.HandleFunc("GET /mobile-services/product/search/v2", func(w http.ResponseWriter, r *http.Request) {
		f.searches.Add(1)
		if r.Header.Get("X-Application") != "AHWEBSHOP" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		products := []map[string]any{}
		if f.searchHit {
			products = append(products, map[string]any{
				"webshopId":        12345,
				"title":            "AH Halfvolle melk",
				"priceBeforeBonus": 1.29,
			})
		}
		json.NewEncoder(w).Encode(map[string]any{"products": products})
	})
	f.mux.HandleFunc("PATCH /mobile-services/shoppinglist/v2/items", func(w http.ResponseWriter, r *http.Request) {
		f.listPushes.Add(1)
		var body struct {
			Items []struct {
				ProductID int    `json:"productId"`
				Quantity  int    `json:"quantity"`
				Type      string `json:"type"`
			} `json:"items"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Items) != 1 || body.Items[0].Type != "SHOPPABLE" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := httptest.NewServer(f.mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return NewClient(Config{
		Email:    "test@example.com",
		Password: "secret",
		BaseURL:  baseURL,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSearchProductAuthenticatesOnce(t *testing.T) {
	fake, srv := newFakeAH(t)
	client := testClient(t, srv.URL)
	ctx := context.Background()

	for range 3 {
		product, err := client.SearchProduct(ctx, "melk")
		if err != nil {
			t.Fatalf("SearchProduct: %v", err)
		}
		if product == nil || product.ProductID != 12345 || product.Title != "AH Halfvolle melk" {
			t.Fatalf("unexpected product: %+v", product)
		}
	}

	if got := fake.logins.Load(); got != 1 {
		t.Errorf("expected 1 login, got %d", got)
	}
}

func TestSearchProductNoMatch(t *testing.T) {
	fake, srv := newFakeAH(t)
	fake.searchHit = false
	client := testClient(t, srv.URL)

	product, err := client.SearchProduct(context.Background(), "iets onbestaands")
	if err != nil {
		t.Fatalf("SearchProduct: %v", err)
	}
	if product != nil {
		t.Errorf("expected nil product, got %+v", product)
	}
}

func TestExpiredTokenRefreshes(t *testing.T) {
	fake, srv := newFakeAH(t)
	client := testClient(t, srv.URL)
	ctx := context.Background()

	if _, err := client.SearchProduct(ctx, "melk"); err != nil {
		t.Fatalf("SearchProduct: %v", err)
	}

	// Force expiry and verify we refresh instead of logging in again.
	client.mu.Lock()
	client.tokens.expiresAt = time.Now().UTC().Add(-time.Minute)
	client.mu.Unlock()

	if _, err := client.SearchProduct(ctx, "kaas"); err != nil {
		t.Fatalf("SearchProduct after expiry: %v", err)
	}
	if got := fake.refreshes.Load(); got != 1 {
		t.Errorf("expected 1 refresh, got %d", got)
	}
	if got := fake.logins.Load(); got != 1 {
		t.Errorf("expected 1 login, got %d", got)
	}
}

func TestSyncItems(t *testing.T) {
	fake, srv := newFakeAH(t)
	client := testClient(t, srv.URL)

	items := []model.Item{
		{NameRaw: "melk", Qty: 2},
		{NameRaw: "brood", Qty: 0.5},
	}
	results, err := client.SyncItems(context.Background(), items)
	if err != nil {
		t.Fatalf("SyncItems: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Status != "ok" {
			t.Errorf("item %q: status %q (%s)", r.ItemName, r.Status, r.Error)
		}
	}
	if got := fake.listPushes.Load(); got != 2 {
		t.Errorf("expected 2 list pushes, got %d", got)
	}
}

func TestSyncItemsNotConfigured(t *testing.T) {
	client := NewClient(Config{}, slog.Default())
	if _, err := client.SyncItems(context.Background(), nil); err != ErrNotConfigured {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}
