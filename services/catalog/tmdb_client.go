package catalog

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/text/language"

	"geekhub/models"
)

const (
	defaultTMDBBaseURL  = "https://api.themoviedb.org/3"
	defaultTMDBLanguage = "es-ES"
)

// Minimal TMDb v3 client (movie/tv search and detail). Authenticates with
// the v4 read token when configured, otherwise with the v3 api_key param.

type tmdbClient struct {
	apiKey    string
	readToken string
	language  string
	baseURL   string
	httpc     *http.Client
	breaker   *gobreaker.CircuitBreaker[[]byte]
}

func newTMDBClient(apiKey, readToken, lang, baseURL string, httpc *http.Client, breaker *gobreaker.CircuitBreaker[[]byte]) *tmdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultTMDBBaseURL
	}
	return &tmdbClient{
		apiKey:    strings.TrimSpace(apiKey),
		readToken: strings.TrimSpace(readToken),
		language:  normalizeLanguage(lang),
		baseURL:   strings.TrimRight(baseURL, "/"),
		httpc:     httpc,
		breaker:   breaker,
	}
}

// normalizeLanguage turns loose locale input ("es", "en_US", "pt-br") into
// the language-REGION form TMDb expects, filling in the likely region.
func normalizeLanguage(lang string) string {
	lang = strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if lang == "" {
		return defaultTMDBLanguage
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return defaultTMDBLanguage
	}
	base, _ := tag.Base()
	region, _ := tag.Region()
	if region.String() == "ZZ" {
		return base.String()
	}
	return base.String() + "-" + region.String()
}

func (c *tmdbClient) configured() bool {
	return c.apiKey != "" || c.readToken != ""
}

func (c *tmdbClient) request(ctx context.Context, operation, path string, params url.Values, dest any) error {
	if !c.configured() {
		return ErrProviderNotConfigured
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("language", c.language)
	var header http.Header
	if c.readToken != "" {
		header = http.Header{}
		header.Set("Authorization", "Bearer "+c.readToken)
	} else {
		params.Set("api_key", c.apiKey)
	}
	endpoint := c.baseURL + path + "?" + params.Encode()
	return getJSON(ctx, c.httpc, c.breaker, models.ProviderTMDB, operation, endpoint, header, dest)
}

// search runs /search/movie or /search/tv. kind is "movie" or "tv".
func (c *tmdbClient) search(ctx context.Context, kind, query string, page int) (tmdbSearchResponse, error) {
	var out tmdbSearchResponse
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("include_adult", "false")
	err := c.request(ctx, "search", "/search/"+kind, params, &out)
	return out, err
}

func (c *tmdbClient) details(ctx context.Context, kind, id string) (TmdbTitle, error) {
	var out TmdbTitle
	err := c.request(ctx, "detail", "/"+kind+"/"+url.PathEscape(id), nil, &out)
	return out, err
}
