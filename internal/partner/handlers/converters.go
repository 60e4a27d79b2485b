package handlers

import (
	"strings"

	"github.com/gartstein/partnerhub/internal/partner/models"
)

// partnerUpdateRequest is the PATCH /v1/partners/{id} body. Absent fields are
// left unchanged.
type partnerUpdateRequest struct {
	Name              *string   `json:"name"`
	Description       *string   `json:"description"`
	Website           *string   `json:"website"`
	ProfileImage      *string   `json:"profileImage"`
	IsBadged          *bool     `json:"isBadged"`
	MinimumSpend      *float64  `json:"minimumSpend"`
	Countries         *[]string `json:"countries"`
	FacebookPlatforms *[]string `json:"facebookPlatforms"`
	FocusAreas        *[]string `json:"focusAreas"`
	Industries        *[]string `json:"industries"`
	ServiceModels     *[]string `json:"serviceModels"`
}

// mediaRequest is the POST /v1/media body, in the upstream field naming.
type mediaRequest struct {
	CompanyID string `json:"company_id"`
	MediaURL  string `json:"media_url"`
	Tag       string `json:"tag"`
	MediaType string `json:"media_type"`
}

type selectionRequest struct {
	IDs []string `json:"ids"`
}

type newsletterRequest struct {
	Email string `json:"email"`
}

// mediaQuery and consultationQuery are decoded with gorilla/schema.
type mediaQuery struct {
	MediaType string `schema:"media_type"`
	Tag       string `schema:"tag"`
	CompanyID string `schema:"company_id"`
}

type consultationQuery struct {
	Page          int    `schema:"page"`
	Limit         int    `schema:"limit"`
	BusinessType  string `schema:"business_type"`
	InterestMedia string `schema:"interest_media"`
}

func updateToModel(id string, req partnerUpdateRequest) *models.PartnerUpdate {
	return &models.PartnerUpdate{
		ID:                id,
		Name:              req.Name,
		Description:       req.Description,
		Website:           req.Website,
		ProfileImage:      req.ProfileImage,
		IsBadged:          req.IsBadged,
		MinimumSpend:      req.MinimumSpend,
		Countries:         req.Countries,
		FacebookPlatforms: req.FacebookPlatforms,
		FocusAreas:        req.FocusAreas,
		Industries:        req.Industries,
		ServiceModels:     req.ServiceModels,
	}
}

// mediaToModel upper-cases the enums but leaves validation to the service, so
// an unknown tag is rejected instead of defaulted.
func mediaToModel(req mediaRequest) *models.Media {
	return &models.Media{
		CompanyID: req.CompanyID,
		MediaURL:  req.MediaURL,
		Tag:       models.MediaTag(strings.ToUpper(strings.TrimSpace(req.Tag))),
		MediaType: models.MediaType(strings.ToUpper(strings.TrimSpace(req.MediaType))),
	}
}

func (q mediaQuery) filter() models.MediaFilter {
	return models.MediaFilter{
		MediaType: strings.ToUpper(strings.TrimSpace(q.MediaType)),
		Tag:       strings.ToUpper(strings.TrimSpace(q.Tag)),
		CompanyID: strings.TrimSpace(q.CompanyID),
	}
}

func (q consultationQuery) filter() models.ConsultationFilter {
	return models.ConsultationFilter{
		Page:          q.Page,
		Limit:         q.Limit,
		BusinessType:  strings.TrimSpace(q.BusinessType),
		InterestMedia: strings.TrimSpace(q.InterestMedia),
	}
}
