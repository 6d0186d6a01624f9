package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/saadjs/fitflow/internal/model"
	"github.com/saadjs/fitflow/internal/provider/openfoodfacts"
	"github.com/saadjs/fitflow/internal/provider/usda"
)

const (
	ProviderOpenFoodFacts = "openfoodfacts"
	ProviderUSDA          = "usda"

	defaultProviderSearchTTL = 7 * 24 * time.Hour
	defaultSearchLimit       = 10
	maxSearchLimit           = 50
)

var searchKeyPattern = regexp.MustCompile(`[^a-z0-9]+`)

type FoodSearchResult struct {
	Provider      string             `json:"provider"`
	Description   string             `json:"description"`
	Brand         string             `json:"brand,omitempty"`
	ServingAmount float64            `json:"serving_amount"`
	ServingUnit   string             `json:"serving_unit"`
	Calories      float64            `json:"calories"`
	ProteinG      float64            `json:"protein_g"`
	CarbsG        float64            `json:"carbs_g"`
	FatG          float64            `json:"fat_g"`
	SourceID      string             `json:"source_id,omitempty"`
	SourceTier    string             `json:"source_tier,omitempty"`
	Completeness  string             `json:"nutrition_completeness,omitempty"`
	Alternatives  []FoodSearchResult `json:"alternatives,omitempty"`
}

// FoodItem converts a search hit into a loggable food for one serving.
func (r FoodSearchResult) FoodItem() model.FoodItem {
	name := r.Description
	if r.Brand != "" {
		name = fmt.Sprintf("%s (%s)", r.Description, r.Brand)
	}
	serving := ""
	if r.ServingAmount > 0 {
		serving = strconv.FormatFloat(r.ServingAmount, 'f', -1, 64) + " " + r.ServingUnit
	}
	return model.FoodItem{
		Name:        name,
		Calories:    r.Calories,
		ProteinG:    r.ProteinG,
		CarbsG:      r.CarbsG,
		FatG:        r.FatG,
		ServingSize: strings.TrimSpace(serving),
	}
}

// FoodSearchOptions configures the lookup providers. USDA is only queried
// when an API key is set.
type FoodSearchOptions struct {
	OpenFoodFactsURL string
	USDAURL          string
	USDAAPIKey       string
	Limit            int
	TTL              time.Duration
	HTTPClient       *http.Client
}

type ProviderSearchCacheItem struct {
	Provider       string    `json:"provider"`
	Query          string    `json:"query"`
	LimitRequested int       `json:"limit_requested"`
	FetchedAt      time.Time `json:"fetched_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

type searchClient interface {
	SearchFoods(ctx context.Context, query string, limit int) ([]FoodSearchResult, error)
}

type openFoodFactsAdapter struct{ client *openfoodfacts.Client }

func (a openFoodFactsAdapter) SearchFoods(ctx context.Context, query string, limit int) ([]FoodSearchResult, error) {
	items, err := a.client.SearchFoods(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]FoodSearchResult, 0, len(items))
	for _, it := range items {
		out = append(out, fromOpenFoodFacts(it))
	}
	return out, nil
}

func fromOpenFoodFacts(it openfoodfacts.FoodLookup) FoodSearchResult {
	return FoodSearchResult{
		Provider:      ProviderOpenFoodFacts,
		Description:   it.Description,
		Brand:         it.Brand,
		ServingAmount: it.ServingAmount,
		ServingUnit:   it.ServingUnit,
		Calories:      it.Calories,
		ProteinG:      it.ProteinG,
		CarbsG:        it.CarbsG,
		FatG:          it.FatG,
		SourceID:      it.SourceID,
	}
}

type usdaAdapter struct{ client *usda.Client }

func (a usdaAdapter) SearchFoods(ctx context.Context, query string, limit int) ([]FoodSearchResult, error) {
	items, err := a.client.SearchFoods(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]FoodSearchResult, 0, len(items))
	for _, it := range items {
		out = append(out, FoodSearchResult{
			Provider:      ProviderUSDA,
			Description:   it.Description,
			Brand:         it.Brand,
			ServingAmount: it.ServingAmount,
			ServingUnit:   it.ServingUnit,
			Calories:      it.Calories,
			ProteinG:      it.ProteinG,
			CarbsG:        it.CarbsG,
			FatG:          it.FatG,
			SourceID:      it.SourceID(),
		})
	}
	return out, nil
}

func searchProviders(opts FoodSearchOptions) ([]string, map[string]searchClient) {
	order := []string{ProviderOpenFoodFacts}
	clients := map[string]searchClient{
		ProviderOpenFoodFacts: openFoodFactsAdapter{client: &openfoodfacts.Client{BaseURL: opts.OpenFoodFactsURL, HTTPClient: opts.HTTPClient}},
	}
	if strings.TrimSpace(opts.USDAAPIKey) != "" {
		order = append(order, ProviderUSDA)
		clients[ProviderUSDA] = usdaAdapter{client: &usda.Client{APIKey: opts.USDAAPIKey, BaseURL: opts.USDAURL, HTTPClient: opts.HTTPClient}}
	}
	return order, clients
}

// SearchFoods queries every configured provider, serving fresh cached answers
// from sqlite, and merges the hits. Duplicates across providers collapse into
// the best-ranked hit with the rest kept as alternatives. It fails only when
// every provider fails.
func SearchFoods(ctx context.Context, db *sql.DB, query string, opts FoodSearchOptions) ([]FoodSearchResult, error) {
	order, clients := searchProviders(opts)
	return searchWithClients(ctx, db, query, order, clients, opts)
}

func searchWithClients(ctx context.Context, db *sql.DB, query string, order []string, clients map[string]searchClient, opts FoodSearchOptions) ([]FoodSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultSearchLimit
	}
	if opts.Limit > maxSearchLimit {
		opts.Limit = maxSearchLimit
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultProviderSearchTTL
	}

	all := make([]FoodSearchResult, 0, 16)
	var errs []error
	for _, provider := range order {
		items, err := searchFoodsByProvider(ctx, db, provider, clients[provider], query, opts)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", provider, err))
			continue
		}
		all = append(all, items...)
	}
	if len(all) == 0 {
		if len(errs) == 0 {
			return nil, fmt.Errorf("no foods found for %q", query)
		}
		return nil, fmt.Errorf("search failed for %q: %w", query, errors.Join(errs...))
	}
	all = dedupeAndRankFoodSearch(all, order)
	if len(all) > opts.Limit {
		all = all[:opts.Limit]
	}
	return all, nil
}

func searchFoodsByProvider(ctx context.Context, db *sql.DB, provider string, client searchClient, query string, opts FoodSearchOptions) ([]FoodSearchResult, error) {
	if cached, found, err := lookupProviderSearchCache(db, provider, query, opts.Limit); err != nil {
		return nil, err
	} else if found {
		for i := range cached {
			cached[i].SourceTier = "cache"
		}
		return cached, nil
	}
	if client == nil {
		return nil, fmt.Errorf("unsupported provider %q", provider)
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	items, err := client.SearchFoods(ctx, query, opts.Limit)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Provider = provider
		items[i].SourceTier = "provider"
		items[i].Completeness = deriveNutritionCompleteness(items[i])
	}
	if err := upsertProviderSearchCache(db, provider, query, opts.Limit, items, time.Now().Add(opts.TTL)); err != nil {
		return nil, err
	}
	return items, nil
}

// LookupBarcode fetches one packaged product from Open Food Facts.
func LookupBarcode(ctx context.Context, barcode string, opts FoodSearchOptions) (FoodSearchResult, error) {
	client := &openfoodfacts.Client{BaseURL: opts.OpenFoodFactsURL, HTTPClient: opts.HTTPClient}
	item, err := client.LookupBarcode(ctx, barcode)
	if err != nil {
		return FoodSearchResult{}, err
	}
	out := fromOpenFoodFacts(item)
	out.SourceTier = "provider"
	out.Completeness = deriveNutritionCompleteness(out)
	return out, nil
}

func deriveNutritionCompleteness(r FoodSearchResult) string {
	present := 0
	for _, v := range []float64{r.Calories, r.ProteinG, r.CarbsG, r.FatG} {
		if v > 0 {
			present++
		}
	}
	switch {
	case present == 4:
		return "complete"
	case r.Calories > 0:
		return "partial"
	default:
		return "none"
	}
}

func dedupeAndRankFoodSearch(items []FoodSearchResult, providerOrder []string) []FoodSearchResult {
	if len(items) == 0 {
		return nil
	}
	groups := map[string][]FoodSearchResult{}
	keys := make([]string, 0)
	for _, item := range items {
		key := canonicalSearchKey(item.Description, item.Brand)
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], item)
	}
	providerRank := map[string]int{}
	for i, p := range providerOrder {
		providerRank[p] = i
	}
	out := make([]FoodSearchResult, 0, len(groups))
	for _, key := range keys {
		group := groups[key]
		sort.SliceStable(group, func(i, j int) bool {
			return compareFoodSearch(group[i], group[j], providerRank)
		})
		primary := group[0]
		if len(group) > 1 {
			primary.Alternatives = append([]FoodSearchResult(nil), group[1:]...)
		}
		out = append(out, primary)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return compareFoodSearch(out[i], out[j], providerRank)
	})
	return out
}

func compareFoodSearch(a, b FoodSearchResult, providerRank map[string]int) bool {
	ca := completenessRank(a.Completeness)
	cb := completenessRank(b.Completeness)
	if ca != cb {
		return ca > cb
	}
	ra, oka := providerRank[a.Provider]
	rb, okb := providerRank[b.Provider]
	if oka && okb && ra != rb {
		return ra < rb
	}
	if oka != okb {
		return oka
	}
	return false
}

func completenessRank(v string) int {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "complete":
		return 2
	case "partial":
		return 1
	default:
		return 0
	}
}

func canonicalSearchKey(description, brand string) string {
	normalize := func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		s = searchKeyPattern.ReplaceAllString(s, " ")
		return strings.Join(strings.Fields(s), " ")
	}
	return normalize(description) + "|" + normalize(brand)
}

func lookupProviderSearchCache(db *sql.DB, provider, query string, limit int) ([]FoodSearchResult, bool, error) {
	queryNorm := canonicalSearchKey(query, "")
	var raw string
	var expiresAtRaw string
	err := db.QueryRow(`
SELECT results_json, expires_at
FROM provider_search_cache
WHERE provider = ? AND query_norm = ? AND limit_requested = ?
`, provider, queryNorm, limit).Scan(&raw, &expiresAtRaw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup provider search cache: %w", err)
	}
	expiresAt := parseStoredTime(expiresAtRaw)
	if expiresAt.IsZero() {
		return nil, false, fmt.Errorf("parse provider search cache expiry %q", expiresAtRaw)
	}
	if time.Now().After(expiresAt) {
		return nil, false, nil
	}
	var items []FoodSearchResult
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, false, fmt.Errorf("decode provider search cache: %w", err)
	}
	return items, true, nil
}

func upsertProviderSearchCache(db *sql.DB, provider, query string, limit int, items []FoodSearchResult, expiresAt time.Time) error {
	query = strings.TrimSpace(query)
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal provider search cache payload: %w", err)
	}
	_, err = db.Exec(`
INSERT INTO provider_search_cache(provider, query, query_norm, limit_requested, results_json, fetched_at, expires_at)
VALUES(?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, query_norm, limit_requested) DO UPDATE SET
  query=excluded.query,
  results_json=excluded.results_json,
  fetched_at=excluded.fetched_at,
  expires_at=excluded.expires_at
`, provider, query, canonicalSearchKey(query, ""), limit, string(payload), time.Now().UTC().Format(time.RFC3339), expiresAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert provider search cache: %w", err)
	}
	return nil
}

func ListProviderSearchCache(db *sql.DB, provider, query string, limit int) ([]ProviderSearchCacheItem, error) {
	provider = normalizeName(provider)
	if limit <= 0 {
		limit = 100
	}
	base := `SELECT provider, query, limit_requested, fetched_at, expires_at FROM provider_search_cache`
	args := make([]any, 0, 3)
	clauses := make([]string, 0, 2)
	if provider != "" {
		clauses = append(clauses, "provider = ?")
		args = append(args, provider)
	}
	if strings.TrimSpace(query) != "" {
		clauses = append(clauses, "query_norm = ?")
		args = append(args, canonicalSearchKey(query, ""))
	}
	if len(clauses) > 0 {
		base += " WHERE " + strings.Join(clauses, " AND ")
	}
	base += " ORDER BY fetched_at DESC, id DESC LIMIT ?"
	args = append(args, limit)
	rows, err := db.Query(base, args...)
	if err != nil {
		return nil, fmt.Errorf("list provider search cache: %w", err)
	}
	defer rows.Close()
	out := make([]ProviderSearchCacheItem, 0)
	for rows.Next() {
		var item ProviderSearchCacheItem
		var fetched, expires string
		if err := rows.Scan(&item.Provider, &item.Query, &item.LimitRequested, &fetched, &expires); err != nil {
			return nil, fmt.Errorf("scan provider search cache: %w", err)
		}
		item.FetchedAt = parseStoredTime(fetched)
		item.ExpiresAt = parseStoredTime(expires)
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate provider search cache: %w", err)
	}
	return out, nil
}

func PurgeProviderSearchCache(db *sql.DB, provider, query string, purgeAll bool) (int64, error) {
	provider = normalizeName(provider)
	queryNorm := canonicalSearchKey(query, "")
	var (
		res sql.Result
		err error
	)
	switch {
	case purgeAll:
		res, err = db.Exec(`DELETE FROM provider_search_cache`)
	case provider != "" && strings.TrimSpace(query) != "":
		res, err = db.Exec(`DELETE FROM provider_search_cache WHERE provider = ? AND query_norm = ?`, provider, queryNorm)
	case provider != "":
		res, err = db.Exec(`DELETE FROM provider_search_cache WHERE provider = ?`, provider)
	case strings.TrimSpace(query) != "":
		res, err = db.Exec(`DELETE FROM provider_search_cache WHERE query_norm = ?`, queryNorm)
	default:
		return 0, fmt.Errorf("specify --all, --provider, --query, or provider+query")
	}
	if err != nil {
		return 0, fmt.Errorf("purge provider search cache: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("provider search cache rows affected: %w", err)
	}
	return affected, nil
}
