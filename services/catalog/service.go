package catalog

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"

	"geekhub/internal/logging"
	"geekhub/internal/metrics"
	"geekhub/models"
)

// Config carries provider credentials and tuning for the catalog service.
type Config struct {
	RAWGAPIKey       string
	RAWGBaseURL      string
	TMDBAPIKey       string
	TMDBReadToken    string
	TMDBBaseURL      string
	Language         string
	Timeout          time.Duration
	PageSize         int
	CacheDir         string
	CacheTTL         time.Duration
	SearchCacheTTL   time.Duration
	BatchConcurrency int
	Breaker          BreakerConfig
}

type Service struct {
	rawg             *rawgClient
	tmdb             *tmdbClient
	items            *fileCache
	searches         *fileCache
	batchConcurrency int
}

// NewService builds the catalog service. fs backs the response cache; nil
// means the OS filesystem. httpc may be nil.
func NewService(cfg Config, fs afero.Fs, httpc *http.Client) *Service {
	if httpc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpc = &http.Client{Timeout: timeout}
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 4
	}
	if cfg.SearchCacheTTL <= 0 {
		cfg.SearchCacheTTL = cfg.CacheTTL / 24
	}
	cacheDir := filepath.Join(cfg.CacheDir, "catalog")
	return &Service{
		rawg:             newRAWGClient(cfg.RAWGAPIKey, cfg.RAWGBaseURL, cfg.PageSize, httpc, newBreaker(models.ProviderRAWG, cfg.Breaker)),
		tmdb:             newTMDBClient(cfg.TMDBAPIKey, cfg.TMDBReadToken, cfg.Language, cfg.TMDBBaseURL, httpc, newBreaker(models.ProviderTMDB, cfg.Breaker)),
		items:            newFileCache(fs, filepath.Join(cacheDir, "items"), cfg.CacheTTL),
		searches:         newFileCache(fs, filepath.Join(cacheDir, "search"), cfg.SearchCacheTTL),
		batchConcurrency: cfg.BatchConcurrency,
	}
}

// Search runs a provider search for the query type and normalizes the
// results. A blank query returns an empty page without calling a provider,
// whatever the type.
func (s *Service) Search(ctx context.Context, q models.CatalogSearchQuery) (models.CatalogSearchPage, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	query := strings.TrimSpace(q.Query)
	if query == "" {
		return models.CatalogSearchPage{Items: []models.UnifiedCatalogItem{}, Page: page}, nil
	}
	t := models.MediaType(strings.ToLower(strings.TrimSpace(string(q.Type))))
	if !t.Valid() {
		return models.CatalogSearchPage{}, ErrInvalidType
	}

	provider := models.ProviderFor(t)
	key := searchCacheKey(string(provider), string(t), page, query)
	var cached models.CatalogSearchPage
	if ok, _ := s.searches.get(key, &cached); ok {
		metrics.RecordCacheLookup("search", true)
		return cached, nil
	}
	metrics.RecordCacheLookup("search", false)

	var (
		result models.CatalogSearchPage
		err    error
	)
	switch t {
	case models.MediaTypeGame:
		result, err = s.searchRAWG(ctx, query, page)
	case models.MediaTypeMovie:
		result, err = s.searchTMDB(ctx, "movie", t, query, page, false)
	case models.MediaTypeTV:
		result, err = s.searchTMDB(ctx, "tv", t, query, page, false)
	case models.MediaTypeAnime:
		result, err = s.searchTMDB(ctx, "tv", t, query, page, true)
	}
	if err != nil {
		return models.CatalogSearchPage{}, err
	}

	if err := s.searches.set(key, result); err != nil {
		logging.With("component", "catalog").Warn("failed to cache search page", "error", err)
	}
	return result, nil
}

func (s *Service) searchRAWG(ctx context.Context, query string, page int) (models.CatalogSearchPage, error) {
	resp, err := s.rawg.search(ctx, query, page)
	if err != nil {
		return models.CatalogSearchPage{}, err
	}
	items := make([]models.UnifiedCatalogItem, 0, len(resp.Results))
	for _, raw := range resp.Results {
		items = append(items, NormalizeRawgItem(raw))
	}
	return models.CatalogSearchPage{
		Items:   items,
		Page:    page,
		HasMore: resp.Next != nil && *resp.Next != "",
	}, nil
}

func (s *Service) searchTMDB(ctx context.Context, kind string, t models.MediaType, query string, page int, animeOnly bool) (models.CatalogSearchPage, error) {
	resp, err := s.tmdb.search(ctx, kind, query, page)
	if err != nil {
		return models.CatalogSearchPage{}, err
	}
	results := resp.Results
	if animeOnly {
		results = FilterAnime(results)
	}
	items := make([]models.UnifiedCatalogItem, 0, len(results))
	for _, raw := range results {
		items = append(items, NormalizeTmdb(t, raw))
	}
	return models.CatalogSearchPage{
		Items:   items,
		Page:    page,
		HasMore: resp.Page < resp.TotalPages,
	}, nil
}

// Item fetches and normalizes a single title. Games must come from RAWG and
// every other type from TMDb.
func (s *Service) Item(ctx context.Context, ref models.CatalogItemRef) (models.UnifiedCatalogItem, error) {
	t := models.MediaType(strings.ToLower(strings.TrimSpace(string(ref.Type))))
	if !t.Valid() {
		return models.UnifiedCatalogItem{}, ErrInvalidType
	}
	provider := models.Provider(strings.ToLower(strings.TrimSpace(string(ref.Provider))))
	if provider != models.ProviderFor(t) {
		return models.UnifiedCatalogItem{}, ErrInvalidProvider
	}
	externalID := strings.TrimSpace(ref.ExternalID)
	if externalID == "" {
		return models.UnifiedCatalogItem{}, ErrExternalIDRequired
	}

	key := itemCacheKey(string(t), models.CatalogKey(provider, externalID))
	var cached models.UnifiedCatalogItem
	if ok, _ := s.items.get(key, &cached); ok {
		metrics.RecordCacheLookup("item", true)
		return cached, nil
	}
	metrics.RecordCacheLookup("item", false)

	var item models.UnifiedCatalogItem
	switch t {
	case models.MediaTypeGame:
		raw, err := s.rawg.game(ctx, externalID)
		if err != nil {
			return models.UnifiedCatalogItem{}, err
		}
		item = NormalizeRawgItem(raw)
	case models.MediaTypeMovie:
		raw, err := s.tmdb.details(ctx, "movie", externalID)
		if err != nil {
			return models.UnifiedCatalogItem{}, err
		}
		item = NormalizeTmdb(t, raw)
	default:
		raw, err := s.tmdb.details(ctx, "tv", externalID)
		if err != nil {
			return models.UnifiedCatalogItem{}, err
		}
		item = NormalizeTmdb(t, raw)
	}

	if err := s.items.set(key, item); err != nil {
		logging.With("component", "catalog").Warn("failed to cache catalog item", "key", item.Key, "error", err)
	}
	return item, nil
}

// Items looks up several titles concurrently. Results are returned in input
// order; a failed lookup is reported on its own entry. Repeated refs are
// fetched once.
func (s *Service) Items(ctx context.Context, refs []models.CatalogItemRef) []models.BatchCatalogItem {
	unique := make([]models.CatalogItemRef, 0, len(refs))
	slot := make(map[models.CatalogItemRef]int, len(refs))
	for _, ref := range refs {
		if _, ok := slot[ref]; !ok {
			slot[ref] = len(unique)
			unique = append(unique, ref)
		}
	}

	fetched := make([]models.BatchCatalogItem, len(unique))
	p := pool.New().WithMaxGoroutines(s.batchConcurrency).WithContext(ctx)
	for i, ref := range unique {
		p.Go(func(ctx context.Context) error {
			fetched[i].Ref = ref
			item, err := s.Item(ctx, ref)
			if err != nil {
				fetched[i].Error = err.Error()
				return nil
			}
			fetched[i].Item = &item
			return nil
		})
	}
	_ = p.Wait()

	results := make([]models.BatchCatalogItem, len(refs))
	for i, ref := range refs {
		results[i] = fetched[slot[ref]]
	}
	return results
}

// PruneCache deletes expired search pages and items from disk.
func (s *Service) PruneCache() (int, error) {
	items, errItems := s.items.prune()
	searches, errSearches := s.searches.prune()
	return items + searches, errors.Join(errItems, errSearches)
}
