package db

import (
	rows "github.com/gartstein/partnerhub/internal/partner/db/models"
	"github.com/gartstein/partnerhub/internal/partner/models"
)

func toPartnerRow(p *models.Partner) *rows.Partner {
	row := &rows.Partner{
		ID:                     p.ID,
		Name:                   p.Name,
		Description:            p.Description,
		Website:                p.Website,
		ProfileImage:           p.ProfileImage,
		IsBadged:               p.IsBadged,
		MinimumSpend:           p.MinimumSpend,
		Countries:              p.Countries,
		FacebookPlatforms:      p.FacebookPlatforms,
		FocusAreas:             p.FocusAreas,
		Industries:             p.Industries,
		ServiceModels:          p.ServiceModels,
		LanguageTags:           p.LanguageTags,
		SolutionTypes:          p.SolutionTypes,
		SolutionSubtypes:       p.SolutionSubtypes,
		DiverseOwnedIdentities: p.DiverseOwnedIdentities,
		CreatedAt:              p.CreatedAt,
		UpdatedAt:              p.UpdatedAt,
	}
	for i := range p.Media {
		m := p.Media[i]
		m.CompanyID = p.ID
		row.Media = append(row.Media, *toMediaRow(&m))
	}
	return row
}

func fromPartnerRow(row *rows.Partner) *models.Partner {
	p := &models.Partner{
		ID:                     row.ID,
		Name:                   row.Name,
		Description:            row.Description,
		Website:                row.Website,
		ProfileImage:           row.ProfileImage,
		IsBadged:               row.IsBadged,
		MinimumSpend:           row.MinimumSpend,
		Countries:              nonNil(row.Countries),
		FacebookPlatforms:      nonNil(row.FacebookPlatforms),
		FocusAreas:             nonNil(row.FocusAreas),
		Industries:             nonNil(row.Industries),
		ServiceModels:          nonNil(row.ServiceModels),
		LanguageTags:           nonNil(row.LanguageTags),
		SolutionTypes:          nonNil(row.SolutionTypes),
		SolutionSubtypes:       nonNil(row.SolutionSubtypes),
		DiverseOwnedIdentities: nonNil(row.DiverseOwnedIdentities),
		Media:                  make([]models.Media, 0, len(row.Media)),
		CreatedAt:              row.CreatedAt,
		UpdatedAt:              row.UpdatedAt,
	}
	for i := range row.Media {
		p.Media = append(p.Media, fromMediaRow(&row.Media[i]))
	}
	return p
}

func toMediaRow(m *models.Media) *rows.Media {
	return &rows.Media{
		ID:        m.ID,
		MediaURL:  m.MediaURL,
		Tag:       string(m.Tag),
		MediaType: string(m.MediaType),
		CompanyID: m.CompanyID,
	}
}

func fromMediaRow(row *rows.Media) models.Media {
	return models.Media{
		ID:        row.ID,
		MediaURL:  row.MediaURL,
		Tag:       models.MediaTag(row.Tag),
		MediaType: models.MediaType(row.MediaType),
		CompanyID: row.CompanyID,
	}
}

func toConsultationRow(c *models.ConsultationRequest) *rows.Consultation {
	return &rows.Consultation{
		ID:            c.ID,
		Name:          c.Name,
		Email:         c.Email,
		CompanyName:   c.CompanyName,
		BusinessType:  c.BusinessType,
		BusinessSize:  c.BusinessSize,
		InterestMedia: c.InterestMedia,
		UserQuery:     c.UserQuery,
		CreatedAt:     c.CreatedAt,
	}
}

func fromConsultationRow(row *rows.Consultation) models.ConsultationRequest {
	return models.ConsultationRequest{
		ID:            row.ID,
		Name:          row.Name,
		Email:         row.Email,
		CompanyName:   row.CompanyName,
		BusinessType:  row.BusinessType,
		BusinessSize:  row.BusinessSize,
		InterestMedia: nonNil(row.InterestMedia),
		UserQuery:     row.UserQuery,
		CreatedAt:     row.CreatedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
