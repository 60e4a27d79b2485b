// Package normalize converts raw upstream partner payloads into canonical
// models.Partner records so that no downstream component has to null-check.
package normalize

import (
	"fmt"
	"regexp"
	"strings"

	e "github.com/gartstein/partnerhub/internal/partner/errors"
	"github.com/gartstein/partnerhub/internal/partner/models"
	"github.com/gartstein/partnerhub/internal/pkg/utils"
)

const (
	// PlaceholderLogoURL is used when a partner has neither a LOGO media item
	// nor a legacy profile picture.
	PlaceholderLogoURL = "/images/partner-placeholder.svg"
	// UnnamedPartner replaces a blank partner name.
	UnnamedPartner = "Unnamed partner"
)

// Upstream names are prefixed with zero-padded ordering digits
// ("000 Iconic Solution", "00001 API Platform by Plivo"). Names that start
// with a real number ("360 Digital") are kept.
var orderingPrefix = regexp.MustCompile(`^0\d*\.?\s+`)

// Partner produces a canonical record from raw. It never fails on malformed
// optional fields; it returns ErrMissingID when the record has no usable id.
func Partner(raw models.RawPartner) (models.Partner, error) {
	id := strings.TrimSpace(raw.ID)
	if id == "" {
		return models.Partner{}, fmt.Errorf("%w: partner %q", e.ErrMissingID, raw.Name)
	}

	media := Media(raw.Media, id)
	p := models.Partner{
		ID:                     id,
		Name:                   Name(raw.Name),
		Description:            strings.TrimSpace(raw.Description),
		Website:                strings.TrimSpace(raw.CompanyWebsite),
		IsBadged:               raw.IsBadged,
		Countries:              list(raw.Countries),
		FacebookPlatforms:      list(raw.FacebookPlatforms),
		FocusAreas:             list(raw.FocusAreas),
		Industries:             list(raw.Industries),
		ServiceModels:          list(raw.ServiceModels),
		LanguageTags:           list(raw.LanguageTags),
		SolutionTypes:          list(raw.SolutionTypes),
		SolutionSubtypes:       list(raw.SolutionSubtypes),
		DiverseOwnedIdentities: list(raw.DiverseOwnedIdentities),
		Media:                  media,
	}
	if raw.MinimumSpend != nil {
		p.MinimumSpend = utils.Ptr(*raw.MinimumSpend)
	}
	p.ProfileImage = ResolveLogo(media, raw.ProfilePicture)
	return p, nil
}

// Partners normalizes a batch. Records that cannot be normalized are left out
// of the result and reported in the returned error slice.
func Partners(raws []models.RawPartner) ([]models.Partner, []error) {
	out := make([]models.Partner, 0, len(raws))
	var errs []error
	for _, raw := range raws {
		p, err := Partner(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, p)
	}
	return out, errs
}

// Canonical re-applies the normalizer guarantees to a record that arrived
// already in canonical shape, such as a decoded API response.
func Canonical(p models.Partner) models.Partner {
	p.Name = Name(p.Name)
	p.Countries = list(p.Countries)
	p.FacebookPlatforms = list(p.FacebookPlatforms)
	p.FocusAreas = list(p.FocusAreas)
	p.Industries = list(p.Industries)
	p.ServiceModels = list(p.ServiceModels)
	p.LanguageTags = list(p.LanguageTags)
	p.SolutionTypes = list(p.SolutionTypes)
	p.SolutionSubtypes = list(p.SolutionSubtypes)
	p.DiverseOwnedIdentities = list(p.DiverseOwnedIdentities)
	if p.Media == nil {
		p.Media = []models.Media{}
	}
	if strings.TrimSpace(p.ProfileImage) == "" {
		p.ProfileImage = ResolveLogo(p.Media, nil)
	}
	return p
}

// Name trims the upstream ordering prefix and surrounding whitespace.
func Name(raw string) string {
	name := strings.TrimSpace(orderingPrefix.ReplaceAllString(strings.TrimSpace(raw), ""))
	if name == "" {
		return UnnamedPartner
	}
	return name
}

// Media converts raw media rows, defaulting unknown tags to MEDIA and unknown
// types to IMAGE. A missing company id is filled with partnerID.
func Media(raws []models.RawMedia, partnerID string) []models.Media {
	out := make([]models.Media, 0, len(raws))
	for _, m := range raws {
		companyID := m.CompanyID
		if companyID == "" {
			companyID = partnerID
		}
		out = append(out, models.Media{
			ID:        m.ID,
			MediaURL:  strings.TrimSpace(m.MediaURL),
			Tag:       tag(m.Tag),
			MediaType: mediaType(m.MediaType),
			CompanyID: companyID,
		})
	}
	return out
}

// ResolveLogo prefers a LOGO media item, then the legacy profile picture,
// then the placeholder image.
func ResolveLogo(media []models.Media, legacy *models.RawProfilePicture) string {
	for _, m := range media {
		if m.Tag == models.TagLogo && m.MediaURL != "" {
			return m.MediaURL
		}
	}
	if legacy != nil {
		if uri := strings.TrimSpace(legacy.Image.URI); uri != "" {
			return uri
		}
	}
	return PlaceholderLogoURL
}

// DisplayableMedia returns the gallery of a partner: everything except logos,
// blank URLs and stray .DS_Store uploads.
func DisplayableMedia(media []models.Media) []models.Media {
	out := make([]models.Media, 0, len(media))
	for _, m := range media {
		url := strings.TrimSpace(m.MediaURL)
		if url == "" || m.Tag == models.TagLogo {
			continue
		}
		if strings.Contains(strings.ToLower(url), ".ds_store") {
			continue
		}
		out = append(out, m)
	}
	return out
}

func list(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func tag(raw string) models.MediaTag {
	if strings.EqualFold(strings.TrimSpace(raw), string(models.TagLogo)) {
		return models.TagLogo
	}
	return models.TagMedia
}

func mediaType(raw string) models.MediaType {
	if strings.EqualFold(strings.TrimSpace(raw), string(models.MediaVideo)) {
		return models.MediaVideo
	}
	return models.MediaImage
}
