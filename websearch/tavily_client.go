package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/SaiNageswarS/crag-boot/workflow"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

const DefaultMaxResults = 3

type TavilyClient struct {
	apiKey     string
	httpClient *http.Client
	url        string
	maxResults int
}

func NewTavilyClient(maxResults int) (*TavilyClient, error) {
	apiKey := os.Getenv("TAVILY_API_KEY")
	if apiKey == "" {
		logger.Error("TAVILY_API_KEY environment variable is not set")
		return nil, fmt.Errorf("TAVILY_API_KEY environment variable is not set")
	}

	return NewTavilyClientWith(apiKey, "https://api.tavily.com/search", &http.Client{}, maxResults), nil
}

func NewTavilyClientWith(apiKey, url string, httpClient *http.Client, maxResults int) *TavilyClient {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &TavilyClient{apiKey: apiKey, httpClient: httpClient, url: url, maxResults: maxResults}
}

func (c *TavilyClient) MaxResults() int {
	return c.maxResults
}

func (c *TavilyClient) Query(ctx context.Context, query string) ([]workflow.SearchResult, error) {
	request := tavilyRequest{
		Query:       query,
		MaxResults:  c.maxResults,
		SearchDepth: "basic",
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		logger.Error("Tavily search failed", zap.Int("status", resp.StatusCode), zap.String("body", string(body)))
		return nil, fmt.Errorf("tavily search failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response tavilyResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %w", err)
	}

	results := make([]workflow.SearchResult, 0, len(response.Results))
	for _, r := range response.Results {
		results = append(results, workflow.SearchResult{Title: r.Title, URL: r.URL, Content: r.Content})
	}
	return results, nil
}

type tavilyRequest struct {
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type tavilyResponse struct {
	Query   string         `json:"query"`
	Results []tavilyResult `json:"results"`
}

type tavilyResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}
