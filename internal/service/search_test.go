package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/saadjs/fitflow/internal/db"
)

func newServiceDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fitflow.db")
	sqldb, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return sqldb
}

type fakeSearchClient struct {
	calls int
	items []FoodSearchResult
	err   error
}

func (f *fakeSearchClient) SearchFoods(ctx context.Context, query string, limit int) ([]FoodSearchResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]FoodSearchResult, len(f.items))
	copy(out, f.items)
	return out, nil
}

func TestDedupeAndRankFoodSearchKeepsBestAndAlternatives(t *testing.T) {
	items := []FoodSearchResult{
		{Provider: ProviderOpenFoodFacts, Description: "Greek Yogurt", Brand: "Fage", Completeness: "partial"},
		{Provider: ProviderUSDA, Description: "Greek  yogurt", Brand: "FAGE", Completeness: "complete"},
		{Provider: ProviderOpenFoodFacts, Description: "Skyr Yogurt", Brand: "Siggi", Completeness: "complete"},
	}
	out := dedupeAndRankFoodSearch(items, []string{ProviderOpenFoodFacts, ProviderUSDA})
	if len(out) != 2 {
		t.Fatalf("expected 2 deduped results, got %d", len(out))
	}
	if out[0].Provider != ProviderOpenFoodFacts || out[0].Description != "Skyr Yogurt" {
		t.Fatalf("expected complete Open Food Facts result ranked first, got %+v", out[0])
	}
	if out[1].Provider != ProviderUSDA || len(out[1].Alternatives) != 1 {
		t.Fatalf("expected complete USDA yogurt with one alternative, got %+v", out[1])
	}
}

func TestProviderSearchCacheRoundTrip(t *testing.T) {
	sqldb := newServiceDB(t)
	defer sqldb.Close()

	items := []FoodSearchResult{{Provider: ProviderUSDA, Description: "Greek Yogurt", Brand: "Fage", Calories: 120}}
	if err := upsertProviderSearchCache(sqldb, ProviderUSDA, "greek yogurt", 10, items, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("upsert provider search cache: %v", err)
	}
	got, found, err := lookupProviderSearchCache(sqldb, ProviderUSDA, "  Greek   Yogurt ", 10)
	if err != nil {
		t.Fatalf("lookup provider search cache: %v", err)
	}
	if !found {
		t.Fatalf("expected cache hit")
	}
	if len(got) != 1 || got[0].Description != "Greek Yogurt" || got[0].Calories != 120 {
		t.Fatalf("unexpected cache payload: %+v", got)
	}
}

func TestProviderSearchCacheExpires(t *testing.T) {
	sqldb := newServiceDB(t)
	defer sqldb.Close()

	items := []FoodSearchResult{{Provider: ProviderUSDA, Description: "Greek Yogurt"}}
	if err := upsertProviderSearchCache(sqldb, ProviderUSDA, "greek yogurt", 10, items, time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("upsert provider search cache: %v", err)
	}
	_, found, err := lookupProviderSearchCache(sqldb, ProviderUSDA, "greek yogurt", 10)
	if err != nil {
		t.Fatalf("lookup provider search cache: %v", err)
	}
	if found {
		t.Fatalf("expected expired cache miss")
	}
}

func TestListAndPurgeProviderSearchCache(t *testing.T) {
	sqldb := newServiceDB(t)
	defer sqldb.Close()

	items := []FoodSearchResult{{Provider: ProviderOpenFoodFacts, Description: "Greek Yogurt"}}
	if err := upsertProviderSearchCache(sqldb, ProviderOpenFoodFacts, "greek yogurt", 10, items, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("upsert provider search cache: %v", err)
	}
	list, err := ListProviderSearchCache(sqldb, ProviderOpenFoodFacts, "greek yogurt", 10)
	if err != nil {
		t.Fatalf("list provider search cache: %v", err)
	}
	if len(list) != 1 || list[0].Query != "greek yogurt" || list[0].ExpiresAt.IsZero() {
		t.Fatalf("unexpected provider search cache rows: %+v", list)
	}
	if _, err := PurgeProviderSearchCache(sqldb, "", "", false); err == nil {
		t.Fatalf("expected purge without a filter to fail")
	}
	removed, err := PurgeProviderSearchCache(sqldb, ProviderOpenFoodFacts, "greek yogurt", false)
	if err != nil {
		t.Fatalf("purge provider search cache: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected one deleted row, got %d", removed)
	}
}

func TestSearchUsesCacheAndToleratesProviderFailure(t *testing.T) {
	sqldb := newServiceDB(t)
	defer sqldb.Close()

	off := &fakeSearchClient{items: []FoodSearchResult{{Description: "Banana", Calories: 105, ProteinG: 1.3, CarbsG: 27, FatG: 0.4}}}
	broken := &fakeSearchClient{err: errors.New("status 500")}
	order := []string{ProviderOpenFoodFacts, ProviderUSDA}
	clients := map[string]searchClient{ProviderOpenFoodFacts: off, ProviderUSDA: broken}

	first, err := searchWithClients(context.Background(), sqldb, "banana", order, clients, FoodSearchOptions{Limit: 5})
	if err != nil {
		t.Fatalf("first search: %v", err)
	}
	if len(first) != 1 || first[0].Provider != ProviderOpenFoodFacts || first[0].SourceTier != "provider" || first[0].Completeness != "complete" {
		t.Fatalf("unexpected first result: %+v", first)
	}
	second, err := searchWithClients(context.Background(), sqldb, "Banana", order, clients, FoodSearchOptions{Limit: 5})
	if err != nil {
		t.Fatalf("second search: %v", err)
	}
	if off.calls != 1 {
		t.Fatalf("expected cached second search, provider called %d times", off.calls)
	}
	if second[0].SourceTier != "cache" {
		t.Fatalf("expected cache tier, got %q", second[0].SourceTier)
	}
	if broken.calls != 2 {
		t.Fatalf("expected failed provider to be retried, got %d calls", broken.calls)
	}

	if _, err := searchWithClients(context.Background(), sqldb, "kiwi", []string{ProviderUSDA}, clients, FoodSearchOptions{}); err == nil {
		t.Fatalf("expected error when every provider fails")
	}
}

func TestSearchFoodsAgainstOpenFoodFactsServer(t *testing.T) {
	sqldb := newServiceDB(t)
	defer sqldb.Close()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"products":[{"code":"42","product_name":"Peanut Butter","brands":"Nutty","serving_quantity":32,"nutriments":{"energy-kcal_serving":190,"proteins_serving":7,"carbohydrates_serving":7,"fat_serving":16}}]}`))
	}))
	defer ts.Close()

	got, err := SearchFoods(context.Background(), sqldb, "peanut butter", FoodSearchOptions{OpenFoodFactsURL: ts.URL, HTTPClient: ts.Client()})
	if err != nil {
		t.Fatalf("search foods: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got))
	}
	food := got[0].FoodItem()
	if food.Name != "Peanut Butter (Nutty)" || food.Calories != 190 || food.ServingSize != "32 g" {
		t.Fatalf("unexpected food item: %+v", food)
	}
}
