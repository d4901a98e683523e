package catalog

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"geekhub/models"
)

const defaultRAWGBaseURL = "https://api.rawg.io/api"

// Minimal RAWG client (search and game detail).

type rawgClient struct {
	apiKey   string
	baseURL  string
	pageSize int
	httpc    *http.Client
	breaker  *gobreaker.CircuitBreaker[[]byte]
}

func newRAWGClient(apiKey, baseURL string, pageSize int, httpc *http.Client, breaker *gobreaker.CircuitBreaker[[]byte]) *rawgClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultRAWGBaseURL
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return &rawgClient{
		apiKey:   strings.TrimSpace(apiKey),
		baseURL:  strings.TrimRight(baseURL, "/"),
		pageSize: pageSize,
		httpc:    httpc,
		breaker:  breaker,
	}
}

func (c *rawgClient) search(ctx context.Context, query string, page int) (rawgSearchResponse, error) {
	var out rawgSearchResponse
	if c.apiKey == "" {
		return out, ErrProviderNotConfigured
	}
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("search", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(c.pageSize))
	endpoint := c.baseURL + "/games?" + params.Encode()
	err := getJSON(ctx, c.httpc, c.breaker, models.ProviderRAWG, "search", endpoint, nil, &out)
	return out, err
}

func (c *rawgClient) game(ctx context.Context, id string) (RawgGame, error) {
	var out RawgGame
	if c.apiKey == "" {
		return out, ErrProviderNotConfigured
	}
	params := url.Values{}
	params.Set("key", c.apiKey)
	endpoint := c.baseURL + "/games/" + url.PathEscape(id) + "?" + params.Encode()
	err := getJSON(ctx, c.httpc, c.breaker, models.ProviderRAWG, "detail", endpoint, nil, &out)
	return out, err
}
