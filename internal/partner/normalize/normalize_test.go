package normalize

import (
	"testing"

	e "github.com/gartstein/partnerhub/internal/partner/errors"
	"github.com/gartstein/partnerhub/internal/partner/models"
	"github.com/gartstein/partnerhub/internal/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartner_DefaultsMissingFields(t *testing.T) {
	p, err := Partner(models.RawPartner{ID: " 42 "})
	require.NoError(t, err)

	assert.Equal(t, "42", p.ID)
	assert.Equal(t, UnnamedPartner, p.Name)
	assert.Equal(t, "", p.Description)
	assert.NotNil(t, p.Countries)
	assert.NotNil(t, p.FacebookPlatforms)
	assert.NotNil(t, p.FocusAreas)
	assert.NotNil(t, p.Industries)
	assert.NotNil(t, p.ServiceModels)
	assert.NotNil(t, p.LanguageTags)
	assert.NotNil(t, p.SolutionTypes)
	assert.NotNil(t, p.SolutionSubtypes)
	assert.NotNil(t, p.DiverseOwnedIdentities)
	assert.NotNil(t, p.Media)
	assert.Nil(t, p.MinimumSpend)
	assert.Equal(t, PlaceholderLogoURL, p.ProfileImage)
}

func TestPartner_MissingID(t *testing.T) {
	_, err := Partner(models.RawPartner{Name: "No ID"})
	assert.ErrorIs(t, err, e.ErrMissingID)

	_, err = Partner(models.RawPartner{ID: "   ", Name: "Blank ID"})
	assert.ErrorIs(t, err, e.ErrMissingID)
}

func TestPartner_KeepsCountryOrderAndDuplicates(t *testing.T) {
	p, err := Partner(models.RawPartner{
		ID:        "1",
		Countries: []string{"France", "Germany", "France"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"France", "Germany", "France"}, p.Countries)
}

func TestName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"000  Iconic Solution", "Iconic Solution"},
		{"0. ZapUp", "ZapUp"},
		{"00001 API Platform by Plivo", "API Platform by Plivo"},
		{"3M Digital", "3M Digital"},
		{"360 Digital", "360 Digital"},
		{"24 7 Chat", "24 7 Chat"},
		{"012 Botbiz", "Botbiz"},
		{"  Botbiz ", "Botbiz"},
		{"", UnnamedPartner},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Name(tt.in))
		})
	}
}

func TestResolveLogo(t *testing.T) {
	legacy := &models.RawProfilePicture{}
	legacy.Image.URI = "https://cdn.example.com/legacy.png"

	t.Run("prefers LOGO media", func(t *testing.T) {
		media := []models.Media{
			{MediaURL: "https://cdn.example.com/shot.png", Tag: models.TagMedia},
			{MediaURL: "https://cdn.example.com/logo.png", Tag: models.TagLogo},
		}
		assert.Equal(t, "https://cdn.example.com/logo.png", ResolveLogo(media, legacy))
	})

	t.Run("falls back to legacy picture", func(t *testing.T) {
		media := []models.Media{{MediaURL: "", Tag: models.TagLogo}}
		assert.Equal(t, legacy.Image.URI, ResolveLogo(media, legacy))
	})

	t.Run("falls back to placeholder", func(t *testing.T) {
		assert.Equal(t, PlaceholderLogoURL, ResolveLogo(nil, nil))
	})
}

func TestMedia_DefaultsTagAndType(t *testing.T) {
	media := Media([]models.RawMedia{
		{ID: "m1", MediaURL: " https://x/a.mp4 ", Tag: "logo", MediaType: "video"},
		{ID: "m2", MediaURL: "https://x/b.png", Tag: "whatever"},
	}, "p1")

	require.Len(t, media, 2)
	assert.Equal(t, models.TagLogo, media[0].Tag)
	assert.Equal(t, models.MediaVideo, media[0].MediaType)
	assert.Equal(t, "https://x/a.mp4", media[0].MediaURL)
	assert.Equal(t, models.TagMedia, media[1].Tag)
	assert.Equal(t, models.MediaImage, media[1].MediaType)
	assert.Equal(t, "p1", media[1].CompanyID)
}

func TestDisplayableMedia(t *testing.T) {
	media := []models.Media{
		{ID: "logo", MediaURL: "https://x/logo.png", Tag: models.TagLogo},
		{ID: "empty", MediaURL: "  ", Tag: models.TagMedia},
		{ID: "junk", MediaURL: "https://x/uploads/.DS_Store", Tag: models.TagMedia},
		{ID: "shot", MediaURL: "https://x/shot.png", Tag: models.TagMedia},
	}

	got := DisplayableMedia(media)
	require.Len(t, got, 1)
	assert.Equal(t, "shot", got[0].ID)
}

func TestPartners_SkipsInvalidRecords(t *testing.T) {
	out, errs := Partners([]models.RawPartner{
		{ID: "1", Name: "One"},
		{Name: "Nameless id"},
		{ID: "2", Name: "Two"},
	})
	require.Len(t, out, 2)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], e.ErrMissingID)
	assert.Equal(t, "One", out[0].Name)
	assert.Equal(t, "Two", out[1].Name)
}

func TestPricingLabel(t *testing.T) {
	assert.Equal(t, FreePlanLabel, PricingLabel(utils.Ptr(0.0)))
	assert.Equal(t, FreePlanLabel, PricingLabel(utils.Ptr(-1.0)))
	assert.Equal(t, "Minimum spend: $49.50 monthly", PricingLabel(utils.Ptr(49.5)))
	assert.Equal(t, ContactPricingLabel, PricingLabel(nil))
}

func TestPartnerTypeLabel(t *testing.T) {
	assert.Equal(t, SolutionPartner, PartnerTypeLabel([]string{"MANAGED", "SAAS"}))
	assert.Equal(t, TechProvider, PartnerTypeLabel([]string{"PROJECT_BASED"}))
	assert.Equal(t, TechPartner, PartnerTypeLabel([]string{"HOURLY"}))
	assert.Equal(t, TechPartner, PartnerTypeLabel(nil))
}

func TestLocationSummary(t *testing.T) {
	assert.Equal(t, "France, Germany", LocationSummary([]string{"France", "Germany"}))
	assert.Equal(t, "A, B, C, and 2 more", LocationSummary([]string{"A", "B", "C", "D", "E"}))
	assert.Equal(t, "Global", LocationSummary(make([]string, 11)))
	assert.Equal(t, "", LocationSummary(nil))
}

func TestCanonical(t *testing.T) {
	p := Canonical(models.Partner{
		ID:        "7",
		Name:      "012 Botbiz",
		Countries: []string{"India", " "},
		Media: []models.Media{
			{ID: "m1", MediaURL: "https://cdn/logo.png", Tag: models.TagLogo},
		},
	})

	assert.Equal(t, "Botbiz", p.Name)
	assert.Equal(t, []string{"India"}, p.Countries)
	assert.NotNil(t, p.Industries)
	assert.NotNil(t, p.DiverseOwnedIdentities)
	assert.Equal(t, "https://cdn/logo.png", p.ProfileImage)

	bare := Canonical(models.Partner{ID: "8"})
	assert.NotNil(t, bare.Media)
	assert.Equal(t, PlaceholderLogoURL, bare.ProfileImage)
}
