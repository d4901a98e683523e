package catalog

import (
	"testing"

	"github.com/goccy/go-json"

	"geekhub/models"
)

func TestUpgradeRawgImage(t *testing.T) {
	tests := map[string]string{
		"https://media.rawg.io/media/games/456/abc.jpg":              "https://media.rawg.io/media/resize/1280/-/games/456/abc.jpg",
		"https://media.rawg.io/media/resize/640/-/games/456/abc.jpg": "https://media.rawg.io/media/resize/640/-/games/456/abc.jpg",
		"https://media.rawg.io/media/screenshots/a1/b2.jpg":          "https://media.rawg.io/media/resize/1280/-/screenshots/a1/b2.jpg",
		"https://cdn.example.com/cover.jpg":                          "https://cdn.example.com/cover.jpg",
	}
	for input, expect := range tests {
		got := UpgradeRawgImage(input)
		if got != expect {
			t.Fatalf("UpgradeRawgImage(%q) = %q, want %q", input, got, expect)
		}
		if again := UpgradeRawgImage(got); again != got {
			t.Fatalf("upgrade is not idempotent: %q -> %q", got, again)
		}
	}
}

func TestNormalizeRawgItemScreenshotFallback(t *testing.T) {
	raw := RawgGame{
		ID:   3498,
		Name: "Grand Theft Auto V",
		ShortScreenshots: []RawgScreenshot{
			{ID: 1, Image: "https://media.rawg.io/media/screenshots/a7c/shot.jpg"},
			{ID: 2, Image: "https://media.rawg.io/media/screenshots/other.jpg"},
		},
	}
	item := NormalizeRawgItem(raw)
	if item.PosterURL == nil {
		t.Fatal("expected poster from screenshot")
	}
	if *item.PosterURL != "https://media.rawg.io/media/resize/1280/-/screenshots/a7c/shot.jpg" {
		t.Fatalf("unexpected poster: %s", *item.PosterURL)
	}
	if item.Key != "rawg-3498" || item.ExternalID != "3498" {
		t.Fatalf("unexpected identity: key=%s externalId=%s", item.Key, item.ExternalID)
	}
	if item.Type != models.MediaTypeGame || item.Provider != models.ProviderRAWG {
		t.Fatalf("unexpected type/provider: %s/%s", item.Type, item.Provider)
	}
	if item.Year != nil {
		t.Fatalf("expected nil year, got %d", *item.Year)
	}
}

func TestNormalizeRawgItemPosterOrder(t *testing.T) {
	bg := "https://media.rawg.io/media/games/bg.jpg"
	extra := "https://media.rawg.io/media/games/extra.jpg"
	shots := []RawgScreenshot{{Image: "https://media.rawg.io/media/screenshots/s.jpg"}}

	item := NormalizeRawgItem(RawgGame{ID: 1, BackgroundImage: &bg, BackgroundImageAdditional: &extra, ShortScreenshots: shots})
	if *item.PosterURL != "https://media.rawg.io/media/resize/1280/-/games/bg.jpg" {
		t.Fatalf("expected background_image first, got %s", *item.PosterURL)
	}

	empty := ""
	item = NormalizeRawgItem(RawgGame{ID: 1, BackgroundImage: &empty, BackgroundImageAdditional: &extra, ShortScreenshots: shots})
	if *item.PosterURL != "https://media.rawg.io/media/resize/1280/-/games/extra.jpg" {
		t.Fatalf("expected background_image_additional second, got %s", *item.PosterURL)
	}

	item = NormalizeRawgItem(RawgGame{ID: 1})
	if item.PosterURL != nil {
		t.Fatalf("expected nil poster, got %s", *item.PosterURL)
	}
}

func TestNormalizeRawgItemFromPayload(t *testing.T) {
	payload := `{
		"id": 28,
		"slug": "red-dead-redemption-2",
		"name": "Red Dead Redemption 2",
		"released": "2018-10-26",
		"background_image": null,
		"background_image_additional": "https://media.rawg.io/media/resize/1280/-/games/b7b/extra.jpg",
		"metacritic": 96,
		"ratings_count": 4100,
		"genres": [{"id": 4, "name": "Action"}, {"id": 3, "name": ""}],
		"platforms": [{"platform": {"id": 4, "name": "PC"}}]
	}`
	var raw RawgGame
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	item := NormalizeRawgItem(raw)

	if item.Year == nil || *item.Year != 2018 {
		t.Fatalf("expected year 2018, got %v", item.Year)
	}
	if *item.PosterURL != "https://media.rawg.io/media/resize/1280/-/games/b7b/extra.jpg" {
		t.Fatalf("already resized url must be kept, got %s", *item.PosterURL)
	}
	if len(item.Genres) != 1 || item.Genres[0] != "Action" {
		t.Fatalf("unexpected genres: %v", item.Genres)
	}
	if item.Meta["slug"] != "red-dead-redemption-2" {
		t.Fatalf("slug not carried in meta: %v", item.Meta)
	}
	if item.Meta["metacritic"] != float64(96) {
		t.Fatalf("metacritic not carried in meta: %v", item.Meta["metacritic"])
	}
	if _, ok := item.Meta["platforms"]; !ok {
		t.Fatal("platforms not carried in meta")
	}
	if _, ok := item.Meta["name"]; ok {
		t.Fatal("promoted fields must not leak into meta")
	}
}

func TestNormalizeTmdbMovie(t *testing.T) {
	poster := "/poster.jpg"
	backdrop := "/backdrop.jpg"
	release := "1999-03-31"
	runtime := 136
	raw := TmdbTitle{
		ID:           603,
		Title:        "The Matrix",
		Name:         "ignored",
		ReleaseDate:  &release,
		PosterPath:   &poster,
		BackdropPath: &backdrop,
		Runtime:      &runtime,
		Genres:       []TmdbGenre{{ID: 28, Name: "Action"}, {ID: 0, Name: " "}},
	}
	item := NormalizeTmdb(models.MediaTypeMovie, raw)

	if item.PosterURL == nil || *item.PosterURL != "https://image.tmdb.org/t/p/w500/poster.jpg" {
		t.Fatalf("unexpected poster: %v", item.PosterURL)
	}
	if item.BackdropURL == nil || *item.BackdropURL != "https://image.tmdb.org/t/p/w1280/backdrop.jpg" {
		t.Fatalf("unexpected backdrop: %v", item.BackdropURL)
	}
	if item.Title != "The Matrix" {
		t.Fatalf("unexpected title: %s", item.Title)
	}
	if item.Year == nil || *item.Year != 1999 {
		t.Fatalf("unexpected year: %v", item.Year)
	}
	if item.Key != "tmdb-603" {
		t.Fatalf("unexpected key: %s", item.Key)
	}
	if len(item.Genres) != 1 || item.Genres[0] != "Action" {
		t.Fatalf("unnamed genres must be dropped: %v", item.Genres)
	}
	if item.Meta["runtime"] != 136 {
		t.Fatalf("runtime missing from meta: %v", item.Meta)
	}
}

func TestNormalizeTmdbTvUsesShowFields(t *testing.T) {
	aired := "2013-04-07"
	seasons := 4
	raw := TmdbTitle{
		ID:              1429,
		Title:           "ignored",
		Name:            "Attack on Titan",
		FirstAirDate:    &aired,
		NumberOfSeasons: &seasons,
		EpisodeRunTime:  []int{24},
		GenreIDs:        []int{16, 10759, 999999},
		OriginCountry:   []string{"JP"},
	}
	item := NormalizeTmdb(models.MediaTypeAnime, raw)

	if item.Type != models.MediaTypeAnime || item.Provider != models.ProviderTMDB {
		t.Fatalf("unexpected type/provider: %s/%s", item.Type, item.Provider)
	}
	if item.Title != "Attack on Titan" {
		t.Fatalf("unexpected title: %s", item.Title)
	}
	if item.Year == nil || *item.Year != 2013 {
		t.Fatalf("unexpected year: %v", item.Year)
	}
	if item.PosterURL != nil || item.BackdropURL != nil {
		t.Fatal("expected nil images without paths")
	}
	if len(item.Genres) != 2 || item.Genres[0] != "Animation" || item.Genres[1] != "Action & Adventure" {
		t.Fatalf("unexpected genres: %v", item.Genres)
	}
	if item.Meta["number_of_seasons"] != 4 {
		t.Fatalf("seasons missing from meta: %v", item.Meta)
	}
}

func TestParseYear(t *testing.T) {
	valid := "2024-05-01"
	short := "199"
	junk := "abcd-01-01"
	if year := parseYear(&valid); year == nil || *year != 2024 {
		t.Fatalf("expected 2024, got %v", year)
	}
	if year := parseYear(&short); year != nil {
		t.Fatalf("expected nil for short date, got %d", *year)
	}
	if year := parseYear(&junk); year != nil {
		t.Fatalf("expected nil for junk date, got %d", *year)
	}
	if year := parseYear(nil); year != nil {
		t.Fatalf("expected nil for missing date, got %d", *year)
	}
}
