package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://world.openfoodfacts.org"
	userAgent      = "fitflow/1.0 (+https://github.com/saadjs/fitflow)"
	requestTimeout = 12 * time.Second
)

// FoodLookup holds nutrition for one serving when the product declares a
// serving size, otherwise per 100 g.
type FoodLookup struct {
	Description   string
	Brand         string
	ServingAmount float64
	ServingUnit   string
	Calories      float64
	ProteinG      float64
	CarbsG        float64
	FatG          float64
	SourceID      string
}

// Client talks to the public Open Food Facts API. The zero value is usable.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// LookupBarcode fetches a single product by EAN/UPC code.
func (c *Client) LookupBarcode(ctx context.Context, barcode string) (FoodLookup, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return FoodLookup{}, fmt.Errorf("barcode is required")
	}
	var parsed struct {
		Status  int     `json:"status"`
		Product product `json:"product"`
	}
	if err := c.getJSON(ctx, "/api/v2/product/"+url.PathEscape(barcode)+".json", nil, &parsed); err != nil {
		return FoodLookup{}, err
	}
	if parsed.Status != 1 || strings.TrimSpace(parsed.Product.ProductName) == "" {
		return FoodLookup{}, fmt.Errorf("no openfoodfacts product found for barcode %q", barcode)
	}
	return parsed.Product.lookup(barcode), nil
}

// SearchFoods runs a full-text product search. Products without a name are
// dropped.
func (c *Client) SearchFoods(ctx context.Context, query string, limit int) ([]FoodLookup, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if limit <= 0 {
		limit = 10
	}
	params := url.Values{
		"search_terms":  {query},
		"search_simple": {"1"},
		"action":        {"process"},
		"json":          {"1"},
		"page_size":     {strconv.Itoa(limit)},
	}
	var parsed struct {
		Products []product `json:"products"`
	}
	if err := c.getJSON(ctx, "/cgi/search.pl", params, &parsed); err != nil {
		return nil, err
	}
	out := make([]FoodLookup, 0, len(parsed.Products))
	for _, p := range parsed.Products {
		if strings.TrimSpace(p.ProductName) == "" {
			continue
		}
		id := strings.TrimSpace(p.Code)
		if id == "" {
			id = strings.TrimSpace(p.ID)
		}
		out = append(out, p.lookup(id))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no openfoodfacts product found for query %q", query)
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	u := base + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build openfoodfacts request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call openfoodfacts: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("openfoodfacts %s returned status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode openfoodfacts %s: %w", path, err)
	}
	return nil
}

type product struct {
	ID                  string         `json:"_id"`
	Code                string         `json:"code"`
	ProductName         string         `json:"product_name"`
	Brands              string         `json:"brands"`
	ServingSize         string         `json:"serving_size"`
	ServingQuantity     float64        `json:"serving_quantity"`
	ServingQuantityUnit string         `json:"serving_quantity_unit"`
	Nutriments          map[string]any `json:"nutriments"`
}

func (p product) lookup(sourceID string) FoodLookup {
	amount, unit := p.serving()
	return FoodLookup{
		Description:   strings.TrimSpace(p.ProductName),
		Brand:         strings.TrimSpace(p.Brands),
		ServingAmount: amount,
		ServingUnit:   unit,
		Calories:      p.nutrient("energy-kcal"),
		ProteinG:      p.nutrient("proteins"),
		CarbsG:        p.nutrient("carbohydrates"),
		FatG:          p.nutrient("fat"),
		SourceID:      sourceID,
	}
}

// nutrient prefers the per-serving value and falls back to per 100 g.
func (p product) nutrient(name string) float64 {
	for _, suffix := range []string{"_serving", "_100g"} {
		if v, ok := toFloat(p.Nutriments[name+suffix]); ok {
			return v
		}
	}
	return 0
}

func (p product) serving() (float64, string) {
	if p.ServingQuantity > 0 {
		unit := strings.TrimSpace(p.ServingQuantityUnit)
		if unit == "" {
			unit = "g"
		}
		return p.ServingQuantity, unit
	}
	// serving_size is free text such as "30 g" or "1,5 cup".
	if fields := strings.Fields(p.ServingSize); len(fields) >= 2 {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(fields[0], ",", ""), 64); err == nil && v > 0 {
			return v, fields[1]
		}
	}
	return 100, "g"
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}
