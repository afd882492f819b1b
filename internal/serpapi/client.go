// Package serpapi provides a minimal SerpApi client covering the Google Maps
// engines used by the service: reviews and autocomplete.
package serpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://serpapi.com/search.json"

// Client fetches Google Maps data through SerpApi.
type Client interface {
	Reviews(ctx context.Context, req ReviewsRequest) (*ReviewsPage, error)
	Autocomplete(ctx context.Context, req AutocompleteRequest) (*AutocompleteResponse, error)
}

// APIError represents a non-success response from SerpApi.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("serpapi error: status=%d message=%s", e.StatusCode, e.Message)
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("serpapi client not configured")

// PlaceholderClient is a stub Client used when no API key is configured.
type PlaceholderClient struct{}

// Reviews returns ErrNotConfigured.
func (PlaceholderClient) Reviews(ctx context.Context, req ReviewsRequest) (*ReviewsPage, error) {
	_ = ctx
	_ = req
	return nil, ErrNotConfigured
}

// Autocomplete returns ErrNotConfigured.
func (PlaceholderClient) Autocomplete(ctx context.Context, req AutocompleteRequest) (*AutocompleteResponse, error) {
	_ = ctx
	_ = req
	return nil, ErrNotConfigured
}

// ReviewsRequest identifies one page of reviews for a place.
type ReviewsRequest struct {
	DataID        string
	SortBy        string
	NextPageToken string
}

// AutocompleteRequest holds an autocomplete query biased towards a point.
type AutocompleteRequest struct {
	Query     string
	Latitude  float64
	Longitude float64
}

// ReviewsPage is one page of the google_maps_reviews engine response.
type ReviewsPage struct {
	SearchMetadata   SearchMetadata     `json:"search_metadata"`
	SearchParameters SearchParameters   `json:"search_parameters"`
	PlaceInfo        *PlaceInfo         `json:"place_info,omitempty"`
	Reviews          []ReviewRow        `json:"reviews"`
	Pagination       *SerpAPIPagination `json:"serpapi_pagination,omitempty"`
	ErrorMessage     string             `json:"error,omitempty"`
}

type SearchMetadata struct {
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

type SearchParameters struct {
	DataID string `json:"data_id"`
}

type PlaceInfo struct {
	Type    string  `json:"type"`
	Title   string  `json:"title"`
	Address string  `json:"address"`
	Rating  float64 `json:"rating"`
	Reviews int     `json:"reviews"`
}

type SerpAPIPagination struct {
	Next          string `json:"next,omitempty"`
	NextPageToken string `json:"next_page_token,omitempty"`
}

// ReviewRow is a single raw review as returned by SerpApi.
type ReviewRow struct {
	Rating  float64 `json:"rating"`
	ISODate string  `json:"iso_date"`
	User    struct {
		Name string `json:"name"`
	} `json:"user"`
	ExtractedSnippet struct {
		Original string `json:"original"`
	} `json:"extracted_snippet"`
}

// AutocompleteResponse is the google_maps_autocomplete engine response.
type AutocompleteResponse struct {
	SearchMetadata SearchMetadata  `json:"search_metadata"`
	Suggestions    []SuggestionRow `json:"suggestions"`
	ErrorMessage   string          `json:"error,omitempty"`
}

// SuggestionRow is a single raw autocomplete suggestion.
type SuggestionRow struct {
	Type      string  `json:"type"`
	Value     string  `json:"value"`
	DataID    string  `json:"data_id"`
	Subtext   string  `json:"subtext"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// HTTPClient is the production Client backed by net/http.
type HTTPClient struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
}

// NewHTTPClient constructs a SerpApi client. baseURL may be empty to use the
// public endpoint.
func NewHTTPClient(apiKey, baseURL, language string) (*HTTPClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("SERPAPI_KEY is required")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if strings.TrimSpace(language) == "" {
		language = "en"
	}
	return &HTTPClient{
		apiKey:   apiKey,
		baseURL:  baseURL,
		language: language,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

func (c *HTTPClient) Reviews(ctx context.Context, req ReviewsRequest) (*ReviewsPage, error) {
	if strings.TrimSpace(req.DataID) == "" {
		return nil, fmt.Errorf("data_id is required")
	}
	params := url.Values{}
	params.Set("engine", "google_maps_reviews")
	params.Set("data_id", req.DataID)
	params.Set("hl", c.language)
	params.Set("api_key", c.apiKey)
	if req.SortBy != "" {
		params.Set("sort_by", req.SortBy)
	}
	if req.NextPageToken != "" {
		params.Set("next_page_token", req.NextPageToken)
	}

	var page ReviewsPage
	if err := c.get(ctx, params, &page); err != nil {
		return nil, err
	}
	if page.ErrorMessage != "" {
		return nil, &APIError{StatusCode: http.StatusOK, Message: page.ErrorMessage}
	}
	return &page, nil
}

func (c *HTTPClient) Autocomplete(ctx context.Context, req AutocompleteRequest) (*AutocompleteResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("query is required")
	}
	params := url.Values{}
	params.Set("engine", "google_maps_autocomplete")
	params.Set("q", req.Query)
	params.Set("ll", fmt.Sprintf("@%v,%v,3z", req.Latitude, req.Longitude))
	params.Set("hl", c.language)
	params.Set("api_key", c.apiKey)

	var result AutocompleteResponse
	if err := c.get(ctx, params, &result); err != nil {
		return nil, err
	}
	if result.ErrorMessage != "" {
		return nil, &APIError{StatusCode: http.StatusOK, Message: result.ErrorMessage}
	}
	return &result, nil
}

func (c *HTTPClient) get(ctx context.Context, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("serpapi request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: extractErrorMessage(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("serpapi response parse: %w", err)
	}
	return nil
}

func extractErrorMessage(body []byte) string {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
		return envelope.Error
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
