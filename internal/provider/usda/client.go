package usda

import (
	"bytes"
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
	defaultBaseURL = "https://api.nal.usda.gov"
	requestTimeout = 12 * time.Second
)

// FoodLookup is one FoodData Central search hit. Branded foods report
// nutrients per serving; other data types report them per 100 g.
type FoodLookup struct {
	Description   string  `json:"description"`
	Brand         string  `json:"brand"`
	ServingAmount float64 `json:"serving_amount"`
	ServingUnit   string  `json:"serving_unit"`
	Calories      float64 `json:"calories"`
	ProteinG      float64 `json:"protein_g"`
	CarbsG        float64 `json:"carbs_g"`
	FatG          float64 `json:"fat_g"`
	FDCID         int64   `json:"fdc_id"`
}

type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// SearchFoods queries FoodData Central across Foundation, SR Legacy and
// Branded foods.
func (c *Client) SearchFoods(ctx context.Context, query string, limit int) ([]FoodLookup, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, fmt.Errorf("missing USDA API key")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if limit <= 0 {
		limit = 10
	}
	payload, err := json.Marshal(searchRequest{
		Query:    query,
		DataType: []string{"Foundation", "SR Legacy", "Branded"},
		PageSize: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("encode USDA search: %w", err)
	}

	var parsed searchResponse
	if err := c.postJSON(ctx, "/fdc/v1/foods/search", payload, &parsed); err != nil {
		return nil, err
	}
	out := make([]FoodLookup, 0, len(parsed.Foods))
	for _, food := range parsed.Foods {
		if strings.TrimSpace(food.Description) == "" {
			continue
		}
		out = append(out, toLookup(food))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no USDA food found for query %q", query)
	}
	return out, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload []byte, out any) error {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	u := base + path + "?" + url.Values{"api_key": {c.APIKey}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build USDA request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call USDA: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("USDA %s returned status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode USDA response: %w", err)
	}
	return nil
}

func toLookup(food usdaFood) FoodLookup {
	out := FoodLookup{
		Description:   strings.TrimSpace(food.Description),
		Brand:         strings.TrimSpace(food.BrandOwner),
		ServingAmount: food.ServingSize,
		ServingUnit:   strings.ToLower(strings.TrimSpace(food.ServingSizeUnit)),
		FDCID:         food.FDCID,
	}
	if out.ServingAmount <= 0 {
		out.ServingAmount, out.ServingUnit = 100, "g"
	}
	for _, n := range food.FoodNutrients {
		switch strings.ToLower(strings.TrimSpace(n.NutrientName)) {
		case "energy":
			// Foundation foods list energy twice, in kJ and kcal.
			if strings.EqualFold(n.UnitName, "kj") {
				continue
			}
			out.Calories = n.Value
		case "protein":
			out.ProteinG = n.Value
		case "carbohydrate, by difference":
			out.CarbsG = n.Value
		case "total lipid (fat)":
			out.FatG = n.Value
		}
	}
	return out
}

// SourceID formats the FoodData Central id for cache keys and display.
func (f FoodLookup) SourceID() string {
	if f.FDCID == 0 {
		return ""
	}
	return strconv.FormatInt(f.FDCID, 10)
}

type searchRequest struct {
	Query    string   `json:"query"`
	DataType []string `json:"dataType"`
	PageSize int      `json:"pageSize"`
}

type searchResponse struct {
	Foods []usdaFood `json:"foods"`
}

type usdaFood struct {
	FDCID           int64          `json:"fdcId"`
	Description     string         `json:"description"`
	BrandOwner      string         `json:"brandOwner"`
	ServingSize     float64        `json:"servingSize"`
	ServingSizeUnit string         `json:"servingSizeUnit"`
	FoodNutrients   []usdaNutrient `json:"foodNutrients"`
}

type usdaNutrient struct {
	NutrientName string  `json:"nutrientName"`
	UnitName     string  `json:"unitName"`
	Value        float64 `json:"value"`
}
