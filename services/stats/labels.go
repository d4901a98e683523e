package stats

import "golang.org/x/text/language"

// DefaultLocale is the display locale used for month labels.
const DefaultLocale = "es"

// The first tag is the fallback when nothing matches.
var labelTags = []language.Tag{language.Spanish, language.English}

var labelTable = [][12]string{
	{"Ene", "Feb", "Mar", "Abr", "May", "Jun", "Jul", "Ago", "Sep", "Oct", "Nov", "Dic"},
	{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
}

var labelMatcher = language.NewMatcher(labelTags)

// MonthLabels returns the abbreviated month names for the closest supported
// locale. Unknown or empty locales fall back to Spanish.
func MonthLabels(locale string) [12]string {
	if locale == "" {
		locale = DefaultLocale
	}
	_, idx := language.MatchStrings(labelMatcher, locale)
	if idx < 0 || idx >= len(labelTable) {
		idx = 0
	}
	return labelTable[idx]
}
