// Package places is a small client for the Google Places API (New).
//
// Every call goes through a scraper.QuotaFetcher, so callers see the
// fetcher's error taxonomy: ErrRequestFailed, ErrOverQuota or an
// HTTPStatusError.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/garyellow/taichung-eats-linebot/internal/scraper"
)

// DefaultBaseURL is the Places API (New) endpoint.
const DefaultBaseURL = "https://places.googleapis.com/v1"

const (
	languageCode = "zh-TW"
	regionCode   = "TW"

	searchRadiusMeters = 3000.0
	searchPageSize     = 3
	searchIncludedType = "restaurant"

	detailsFields = "id,displayName,formattedAddress,internationalPhoneNumber,regularOpeningHours.weekdayDescriptions"
	reviewsFields = "displayName,formattedAddress,userRatingCount,reviews"
)

// LatLng is a WGS84 coordinate.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Place is a search hit.
type Place struct {
	ID      string
	Name    string
	Address string
}

// Details is the subset of place details the catalog stores.
type Details struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Address             string   `json:"address"`
	Phone               string   `json:"phone"`
	WeekdayDescriptions []string `json:"weekdayDescriptions"`
}

// Hours joins the weekday descriptions with " / ".
func (d Details) Hours() string {
	return strings.Join(d.WeekdayDescriptions, " / ")
}

// Review is one user review as returned by the API.
type Review struct {
	Text         string
	LanguageCode string
}

// Client calls the Places API.
type Client struct {
	fetcher *scraper.QuotaFetcher
	apiKey  string
	baseURL string
}

// NewClient creates a client. An empty baseURL selects DefaultBaseURL.
func NewClient(fetcher *scraper.QuotaFetcher, apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		fetcher: fetcher,
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type localizedText struct {
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode"`
}

type wirePlace struct {
	ID                       string        `json:"id"`
	DisplayName              localizedText `json:"displayName"`
	FormattedAddress         string        `json:"formattedAddress"`
	InternationalPhoneNumber string        `json:"internationalPhoneNumber"`
	RegularOpeningHours      struct {
		WeekdayDescriptions []string `json:"weekdayDescriptions"`
	} `json:"regularOpeningHours"`
	Reviews []struct {
		Text localizedText `json:"text"`
	} `json:"reviews"`
}

type searchResponse struct {
	Places []wirePlace `json:"places"`
}

// SearchNearby runs a text search for query biased to a 3 km circle around
// center, returning at most three restaurants.
func (c *Client) SearchNearby(ctx context.Context, query string, center LatLng) ([]Place, error) {
	body := map[string]any{
		"textQuery":    query,
		"includedType": searchIncludedType,
		"pageSize":     searchPageSize,
		"languageCode": languageCode,
		"locationBias": map[string]any{
			"circle": map[string]any{
				"center": center,
				"radius": searchRadiusMeters,
			},
		},
	}
	return c.searchText(ctx, "search_text", body, "places.id,places.displayName")
}

// SearchPlace runs an unbiased text search, used to find the place a
// catalog row refers to by "name address".
func (c *Client) SearchPlace(ctx context.Context, query string) ([]Place, error) {
	body := map[string]any{
		"textQuery":    query,
		"languageCode": languageCode,
		"regionCode":   regionCode,
	}
	return c.searchText(ctx, "search_place", body, "places.id,places.displayName,places.formattedAddress")
}

// FindPlaceID returns the first hit of SearchPlace, or "" when nothing matches.
func (c *Client) FindPlaceID(ctx context.Context, query string) (string, error) {
	hits, err := c.SearchPlace(ctx, query)
	if err != nil || len(hits) == 0 {
		return "", err
	}
	return hits[0].ID, nil
}

func (c *Client) searchText(ctx context.Context, op string, body map[string]any, fieldMask string) ([]Place, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", op, err)
	}

	header := c.header(fieldMask)
	header.Set("Content-Type", "application/json")
	data, err := c.fetcher.Do(ctx, scraper.Request{
		Op:     op,
		Method: http.MethodPost,
		URL:    c.baseURL + "/places:searchText",
		Header: header,
		Body:   payload,
	})
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode %s: %w", op, err)
	}
	out := make([]Place, 0, len(resp.Places))
	for _, p := range resp.Places {
		if p.ID == "" {
			continue
		}
		out = append(out, Place{ID: p.ID, Name: p.DisplayName.Text, Address: p.FormattedAddress})
	}
	return out, nil
}

// GetDetails fetches name, address, phone and opening hours of a place.
func (c *Client) GetDetails(ctx context.Context, placeID string) (Details, error) {
	p, err := c.get(ctx, "place_details", placeID, url.Values{
		"languageCode": {languageCode},
		"fields":       {detailsFields},
	})
	if err != nil {
		return Details{}, err
	}
	d := Details{
		ID:                  p.ID,
		Name:                p.DisplayName.Text,
		Address:             p.FormattedAddress,
		Phone:               p.InternationalPhoneNumber,
		WeekdayDescriptions: p.RegularOpeningHours.WeekdayDescriptions,
	}
	if d.ID == "" {
		d.ID = placeID
	}
	return d, nil
}

// GetReviews returns up to limit reviews of a place in API order. Reviews
// without text are skipped; a missing language code is reported as zh-TW.
func (c *Client) GetReviews(ctx context.Context, placeID string, limit int) ([]Review, error) {
	p, err := c.get(ctx, "place_reviews", placeID, url.Values{
		"languageCode": {languageCode},
		"regionCode":   {regionCode},
		"fields":       {reviewsFields},
	})
	if err != nil {
		return nil, err
	}
	var out []Review
	for _, r := range p.Reviews {
		if len(out) == limit {
			break
		}
		text := strings.TrimSpace(r.Text.Text)
		if text == "" {
			continue
		}
		lang := r.Text.LanguageCode
		if lang == "" {
			lang = languageCode
		}
		out = append(out, Review{Text: text, LanguageCode: lang})
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, op, placeID string, query url.Values) (*wirePlace, error) {
	data, err := c.fetcher.Do(ctx, scraper.Request{
		Op:     op,
		Method: http.MethodGet,
		URL:    c.baseURL + "/places/" + url.PathEscape(placeID) + "?" + query.Encode(),
		Header: c.header(""),
	})
	if err != nil {
		return nil, err
	}
	var p wirePlace
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode %s: %w", op, err)
	}
	return &p, nil
}

func (c *Client) header(fieldMask string) http.Header {
	h := http.Header{}
	h.Set("X-Goog-Api-Key", c.apiKey)
	if fieldMask != "" {
		h.Set("X-Goog-FieldMask", fieldMask)
	}
	return h
}
