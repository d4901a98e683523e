package models

// Provider identifies an external catalog source.
type Provider string

const (
	ProviderRAWG Provider = "rawg"
	ProviderTMDB Provider = "tmdb"
)

// ProviderFor returns the only provider allowed to serve the given media type.
func ProviderFor(t MediaType) Provider {
	if t == MediaTypeGame {
		return ProviderRAWG
	}
	return ProviderTMDB
}

// CatalogKey builds the cross-provider identifier "{provider}-{externalId}".
func CatalogKey(provider Provider, externalID string) string {
	return string(provider) + "-" + externalID
}

// UnifiedCatalogItem is the provider-agnostic shape every catalog item is
// normalized into.
type UnifiedCatalogItem struct {
	Key         string         `json:"key"`
	Type        MediaType      `json:"type"`
	Provider    Provider       `json:"provider"`
	ExternalID  string         `json:"externalId"`
	Title       string         `json:"title"`
	Year        *int           `json:"year"`
	PosterURL   *string        `json:"posterUrl"`
	BackdropURL *string        `json:"backdropUrl"`
	Genres      []string       `json:"genres"`
	Summary     *string        `json:"summary"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// CatalogSearchQuery selects a page of search results from one provider.
type CatalogSearchQuery struct {
	Type  MediaType `json:"type"`
	Query string    `json:"query"`
	Page  int       `json:"page"`
}

// CatalogSearchPage is one page of normalized search results.
type CatalogSearchPage struct {
	Items   []UnifiedCatalogItem `json:"items"`
	Page    int                  `json:"page"`
	HasMore bool                 `json:"hasMore"`
}

// CatalogItemRef addresses a single item at its provider.
type CatalogItemRef struct {
	Type       MediaType `json:"type" validate:"required,oneof=movie tv anime game"`
	Provider   Provider  `json:"provider" validate:"required,oneof=rawg tmdb"`
	ExternalID string    `json:"externalId" validate:"required"`
}

// Key returns the unified catalog key for the reference.
func (r CatalogItemRef) Key() string {
	return CatalogKey(r.Provider, r.ExternalID)
}

// BatchCatalogItemsRequest is the body of a batch item lookup.
type BatchCatalogItemsRequest struct {
	Items []CatalogItemRef `json:"items" validate:"required,min=1,max=50,dive"`
}

// BatchCatalogItem is one result of a batch lookup, in request order.
type BatchCatalogItem struct {
	Ref   CatalogItemRef      `json:"ref"`
	Item  *UnifiedCatalogItem `json:"item,omitempty"`
	Error string              `json:"error,omitempty"`
}
