package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geekhub/models"
)

func intPtr(v int) *int { return &v }

func validUpsert() models.LibraryUpsert {
	return models.LibraryUpsert{
		MediaType:  models.MediaTypeMovie,
		Provider:   models.ProviderTMDB,
		ExternalID: "603",
		Title:      "The Matrix",
		Status:     models.StatusCompleted,
		Rating:     intPtr(9),
	}
}

func TestStructAcceptsValidUpsert(t *testing.T) {
	require.NoError(t, Struct(validUpsert()))
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	u := validUpsert()
	u.Title = ""
	u.Rating = intPtr(11)

	err := Struct(u)
	var verr *Error
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 2)

	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Tag
	}
	assert.Equal(t, "required", fields["title"])
	assert.Equal(t, "max", fields["rating"])
}

func TestStructRejectsProviderMismatch(t *testing.T) {
	u := validUpsert()
	u.MediaType = models.MediaTypeGame

	err := Struct(u)
	var verr *Error
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "provider_pairing", verr.Fields[0].Tag)
	assert.Equal(t, "provider does not serve type game", verr.Fields[0].Message)
}

func TestStructRejectsUnknownStatus(t *testing.T) {
	u := validUpsert()
	u.Status = "watching"
	err := Struct(u)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status must be one of")
}

func TestStructAllowsMissingRating(t *testing.T) {
	u := validUpsert()
	u.Rating = nil
	assert.NoError(t, Struct(u))
}

func TestBatchRequestLimits(t *testing.T) {
	empty := models.BatchCatalogItemsRequest{}
	require.Error(t, Struct(empty))

	ok := models.BatchCatalogItemsRequest{Items: []models.CatalogItemRef{
		{Type: models.MediaTypeGame, Provider: models.ProviderRAWG, ExternalID: "1"},
	}}
	require.NoError(t, Struct(ok))

	bad := models.BatchCatalogItemsRequest{Items: []models.CatalogItemRef{
		{Type: models.MediaTypeAnime, Provider: models.ProviderRAWG, ExternalID: "1"},
	}}
	assert.Error(t, Struct(bad))
}
