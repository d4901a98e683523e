package catalog

import (
	"regexp"
	"strconv"
	"strings"

	"geekhub/models"
)

const (
	tmdbImageBase      = "https://image.tmdb.org/t/p"
	tmdbPosterSize     = "w500"
	tmdbBackdropSize   = "w1280"
	rawgResizeWidth    = 1280
	rawgMediaSegment   = "/media/"
	tmdbAnimationGenre = 16
)

var rawgResizedPattern = regexp.MustCompile(`/resize/\d+/-/`)

// tmdbGenreNames maps TMDb genre ids to names. Search results only carry
// genre_ids, detail payloads carry the full genres list.
var tmdbGenreNames = map[int]string{
	28: "Action", 12: "Adventure", 16: "Animation", 35: "Comedy", 80: "Crime",
	99: "Documentary", 18: "Drama", 10751: "Family", 14: "Fantasy", 36: "History",
	27: "Horror", 10402: "Music", 9648: "Mystery", 10749: "Romance",
	878: "Science Fiction", 10770: "TV Movie", 53: "Thriller", 10752: "War", 37: "Western",
	10759: "Action & Adventure", 10762: "Kids", 10763: "News", 10764: "Reality",
	10765: "Sci-Fi & Fantasy", 10766: "Soap", 10767: "Talk", 10768: "War & Politics",
}

// NormalizeRawgItem converts a RAWG game into the unified catalog shape.
func NormalizeRawgItem(raw RawgGame) models.UnifiedCatalogItem {
	externalID := strconv.FormatInt(raw.ID, 10)

	genres := make([]string, 0, len(raw.Genres))
	for _, g := range raw.Genres {
		if name := strings.TrimSpace(g.Name); name != "" {
			genres = append(genres, name)
		}
	}

	var meta map[string]any
	for _, key := range []string{"platforms", "stores", "metacritic", "ratings_count", "slug"} {
		if v, ok := raw.Extra[key]; ok && v != nil {
			if meta == nil {
				meta = make(map[string]any)
			}
			meta[key] = v
		}
	}

	return models.UnifiedCatalogItem{
		Key:        models.CatalogKey(models.ProviderRAWG, externalID),
		Type:       models.MediaTypeGame,
		Provider:   models.ProviderRAWG,
		ExternalID: externalID,
		Title:      raw.Name,
		Year:       parseYear(raw.Released),
		PosterURL:  rawgPoster(raw),
		Genres:     genres,
		Summary:    nonEmpty(raw.DescriptionRaw),
		Meta:       meta,
	}
}

func rawgPoster(raw RawgGame) *string {
	if img := nonEmpty(raw.BackgroundImage); img != nil {
		return ptr(UpgradeRawgImage(*img))
	}
	if img := nonEmpty(raw.BackgroundImageAdditional); img != nil {
		return ptr(UpgradeRawgImage(*img))
	}
	if len(raw.ShortScreenshots) > 0 {
		if img := strings.TrimSpace(raw.ShortScreenshots[0].Image); img != "" {
			return ptr(UpgradeRawgImage(img))
		}
	}
	return nil
}

// UpgradeRawgImage rewrites a RAWG media URL to its 1280px resize variant.
// URLs that are already resized, or that are not RAWG media URLs, are
// returned unchanged, so the upgrade is idempotent.
func UpgradeRawgImage(u string) string {
	if rawgResizedPattern.MatchString(u) {
		return u
	}
	idx := strings.Index(u, rawgMediaSegment)
	if idx < 0 {
		return u
	}
	cut := idx + len(rawgMediaSegment)
	return u[:cut] + "resize/" + strconv.Itoa(rawgResizeWidth) + "/-/" + u[cut:]
}

// NormalizeTmdb converts a TMDb movie (t == movie) or TV show (tv, anime)
// into the unified catalog shape. The item keeps the requested type.
func NormalizeTmdb(t models.MediaType, raw TmdbTitle) models.UnifiedCatalogItem {
	externalID := strconv.FormatInt(raw.ID, 10)
	item := models.UnifiedCatalogItem{
		Key:         models.CatalogKey(models.ProviderTMDB, externalID),
		Type:        t,
		Provider:    models.ProviderTMDB,
		ExternalID:  externalID,
		PosterURL:   tmdbImage(raw.PosterPath, tmdbPosterSize),
		BackdropURL: tmdbImage(raw.BackdropPath, tmdbBackdropSize),
		Genres:      tmdbGenres(raw),
		Summary:     nonEmpty(raw.Overview),
	}

	meta := make(map[string]any)
	if t == models.MediaTypeMovie {
		item.Title = raw.Title
		item.Year = parseYear(raw.ReleaseDate)
		if raw.Runtime != nil {
			meta["runtime"] = *raw.Runtime
		}
	} else {
		item.Title = raw.Name
		item.Year = parseYear(raw.FirstAirDate)
		if raw.NumberOfSeasons != nil {
			meta["number_of_seasons"] = *raw.NumberOfSeasons
		}
		if len(raw.EpisodeRunTime) > 0 {
			meta["episode_run_time"] = raw.EpisodeRunTime
		}
		if len(raw.OriginCountry) > 0 {
			meta["origin_country"] = raw.OriginCountry
		}
	}
	if raw.OriginalLanguage != "" {
		meta["original_language"] = raw.OriginalLanguage
	}
	for _, key := range []string{"vote_average", "vote_count"} {
		if v, ok := raw.Extra[key]; ok && v != nil {
			meta[key] = v
		}
	}
	if len(meta) > 0 {
		item.Meta = meta
	}
	return item
}

func tmdbGenres(raw TmdbTitle) []string {
	if len(raw.Genres) > 0 {
		genres := make([]string, 0, len(raw.Genres))
		for _, g := range raw.Genres {
			if name := strings.TrimSpace(g.Name); name != "" {
				genres = append(genres, name)
			}
		}
		return genres
	}
	genres := make([]string, 0, len(raw.GenreIDs))
	for _, id := range raw.GenreIDs {
		if name, ok := tmdbGenreNames[id]; ok {
			genres = append(genres, name)
		}
	}
	return genres
}

func tmdbImage(path *string, size string) *string {
	p := nonEmpty(path)
	if p == nil {
		return nil
	}
	if !strings.HasPrefix(*p, "/") {
		return ptr(tmdbImageBase + "/" + size + "/" + *p)
	}
	return ptr(tmdbImageBase + "/" + size + *p)
}

// parseYear reads the year from the first four characters of a provider date.
func parseYear(date *string) *int {
	if date == nil || len(*date) < 4 {
		return nil
	}
	year, err := strconv.Atoi((*date)[:4])
	if err != nil || year <= 0 {
		return nil
	}
	return &year
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func ptr[T any](v T) *T {
	return &v
}
