package books

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

const volumesURL = "https://www.googleapis.com/books/v1/volumes"

// Query is the structured search request extracted from a user's free-text
// wish. Language restricts results ("en", "zh", ...); empty means any.
type Query struct {
	Keywords []string `json:"keywords"`
	Language string   `json:"language"`
}

// Book is one catalog hit, reduced to what the bot presents.
type Book struct {
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	PublishedDate string   `json:"published_date"`
	Description   string   `json:"description"`
	Link          string   `json:"link"`
}

// Searcher queries a public book catalog.
type Searcher interface {
	Search(ctx context.Context, query Query) ([]Book, error)
}

// GoogleSearcher hits the Google Books volumes API.
type GoogleSearcher struct {
	baseURL    string
	maxResults int
	httpClient *http.Client
}

func NewGoogleSearcher(maxResults int) *GoogleSearcher {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &GoogleSearcher{
		baseURL:    volumesURL,
		maxResults: maxResults,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *GoogleSearcher) Search(ctx context.Context, query Query) ([]Book, error) {
	keywords := make([]string, 0, len(query.Keywords))
	for _, kw := range query.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	if len(keywords) == 0 {
		return nil, fmt.Errorf("book search needs at least one keyword")
	}

	params := url.Values{}
	params.Set("q", strings.Join(keywords, "+"))
	params.Set("maxResults", strconv.Itoa(s.maxResults))
	if query.Language != "" {
		params.Set("langRestrict", query.Language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create books request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("books request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read books response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("books API request failed: status=%d", resp.StatusCode)
	}

	var searchResp struct {
		Items []struct {
			VolumeInfo struct {
				Title         string   `json:"title"`
				Authors       []string `json:"authors"`
				PublishedDate string   `json:"publishedDate"`
				Description   string   `json:"description"`
				InfoLink      string   `json:"infoLink"`
			} `json:"volumeInfo"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("parse books response: %w", err)
	}

	results := make([]Book, 0, len(searchResp.Items))
	for _, item := range searchResp.Items {
		if len(results) >= s.maxResults {
			break
		}
		results = append(results, Book{
			Title:         item.VolumeInfo.Title,
			Authors:       item.VolumeInfo.Authors,
			PublishedDate: item.VolumeInfo.PublishedDate,
			Description:   item.VolumeInfo.Description,
			Link:          item.VolumeInfo.InfoLink,
		})
	}
	return results, nil
}
