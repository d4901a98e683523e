package catalog

import (
	"github.com/goccy/go-json"
)

// Provider payloads. Fields the normalizer reads are promoted; every other
// key of the payload lands in Extra for the meta passthrough.

// RawgNamed is a RAWG {id, name} pair such as a genre.
type RawgNamed struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// RawgScreenshot is one entry of short_screenshots.
type RawgScreenshot struct {
	ID    int    `json:"id"`
	Image string `json:"image"`
}

// RawgGame is a game from RAWG search results or the detail endpoint.
type RawgGame struct {
	ID                        int64            `json:"id"`
	Name                      string           `json:"name"`
	Released                  *string          `json:"released"`
	BackgroundImage           *string          `json:"background_image"`
	BackgroundImageAdditional *string          `json:"background_image_additional"`
	ShortScreenshots          []RawgScreenshot `json:"short_screenshots"`
	Genres                    []RawgNamed      `json:"genres"`
	DescriptionRaw            *string          `json:"description_raw"`

	Extra map[string]any `json:"-"`
}

var rawgPromoted = []string{
	"id", "name", "released", "background_image", "background_image_additional",
	"short_screenshots", "genres", "description_raw",
}

func (g *RawgGame) UnmarshalJSON(data []byte) error {
	type plain RawgGame
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraFields(data, rawgPromoted)
	if err != nil {
		return err
	}
	p.Extra = extra
	*g = RawgGame(p)
	return nil
}

type rawgSearchResponse struct {
	Count    int        `json:"count"`
	Next     *string    `json:"next"`
	Previous *string    `json:"previous"`
	Results  []RawgGame `json:"results"`
}

// TmdbGenre is a TMDb genre as returned by detail endpoints.
type TmdbGenre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// TmdbTitle covers both TMDb movie and TV payloads, from search or detail
// endpoints. Movies use Title/ReleaseDate/Runtime; TV uses
// Name/FirstAirDate/NumberOfSeasons/EpisodeRunTime.
type TmdbTitle struct {
	ID               int64       `json:"id"`
	Title            string      `json:"title"`
	Name             string      `json:"name"`
	ReleaseDate      *string     `json:"release_date"`
	FirstAirDate     *string     `json:"first_air_date"`
	PosterPath       *string     `json:"poster_path"`
	BackdropPath     *string     `json:"backdrop_path"`
	Genres           []TmdbGenre `json:"genres"`
	GenreIDs         []int       `json:"genre_ids"`
	Overview         *string     `json:"overview"`
	OriginalLanguage string      `json:"original_language"`
	OriginCountry    []string    `json:"origin_country"`
	Runtime          *int        `json:"runtime"`
	NumberOfSeasons  *int        `json:"number_of_seasons"`
	EpisodeRunTime   []int       `json:"episode_run_time"`

	Extra map[string]any `json:"-"`
}

var tmdbPromoted = []string{
	"id", "title", "name", "release_date", "first_air_date", "poster_path", "backdrop_path",
	"genres", "genre_ids", "overview", "original_language", "origin_country", "runtime",
	"number_of_seasons", "episode_run_time",
}

func (t *TmdbTitle) UnmarshalJSON(data []byte) error {
	type plain TmdbTitle
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraFields(data, tmdbPromoted)
	if err != nil {
		return err
	}
	p.Extra = extra
	*t = TmdbTitle(p)
	return nil
}

// HasGenre reports whether the title carries the given TMDb genre id, either
// in genre_ids (search) or genres (detail).
func (t TmdbTitle) HasGenre(id int) bool {
	for _, g := range t.GenreIDs {
		if g == id {
			return true
		}
	}
	for _, g := range t.Genres {
		if g.ID == id {
			return true
		}
	}
	return false
}

type tmdbSearchResponse struct {
	Page         int         `json:"page"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
	Results      []TmdbTitle `json:"results"`
}

func extraFields(data []byte, promoted []string) (map[string]any, error) {
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, key := range promoted {
		delete(all, key)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}
