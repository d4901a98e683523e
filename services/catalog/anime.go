package catalog

import "strings"

// StrictAnimeThreshold is the number of strict matches above which the
// classifier trusts the language/country heuristic and drops every other
// animated result.
const StrictAnimeThreshold = 5

// FilterAnime separates Japanese animation from other animated shows in a
// TMDb TV search. A result is a strict match when it carries the Animation
// genre and is either in Japanese or produced in Japan. With at least
// StrictAnimeThreshold strict matches only those are returned; otherwise
// every Animation result is kept. Input order is preserved.
func FilterAnime(results []TmdbTitle) []TmdbTitle {
	strict := make([]TmdbTitle, 0, len(results))
	animated := make([]TmdbTitle, 0, len(results))
	for _, r := range results {
		if !r.HasGenre(tmdbAnimationGenre) {
			continue
		}
		animated = append(animated, r)
		if isJapanese(r) {
			strict = append(strict, r)
		}
	}
	if len(strict) >= StrictAnimeThreshold {
		return strict
	}
	return animated
}

func isJapanese(r TmdbTitle) bool {
	if strings.EqualFold(r.OriginalLanguage, "ja") {
		return true
	}
	for _, c := range r.OriginCountry {
		if strings.EqualFold(c, "JP") {
			return true
		}
	}
	return false
}
