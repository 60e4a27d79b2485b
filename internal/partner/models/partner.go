// Package models defines the core domain models of the partner directory:
// the canonical Partner record, its Media, the user-controlled FilterOptions,
// and the raw upstream payload the normalizer consumes.
package models

import (
	"time"
)

// MediaTag distinguishes a partner logo from gallery media.
type MediaTag string

const (
	TagLogo  MediaTag = "LOGO"
	TagMedia MediaTag = "MEDIA"
)

// MediaType is the kind of asset a media URL points to.
type MediaType string

const (
	MediaImage MediaType = "IMAGE"
	MediaVideo MediaType = "VIDEO"
)

// Service model values observed in partner records.
const (
	ServiceModelSaaS         = "SAAS"
	ServiceModelManaged      = "MANAGED"
	ServiceModelProjectBased = "PROJECT_BASED"
	ServiceModelHourly       = "HOURLY"
)

// Partner is the canonical, normalized partner record. List-valued fields are
// never nil once a record has passed through the normalizer.
type Partner struct {
	// ID is the opaque identifier assigned by the store.
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Website     string `json:"website,omitempty"`
	// ProfileImage is the resolved logo URL.
	ProfileImage string `json:"profileImage,omitempty"`
	// IsBadged flags a verified partner.
	IsBadged bool `json:"isBadged"`
	// MinimumSpend is nil when pricing is on request; 0 and -1 mean a free plan.
	MinimumSpend *float64 `json:"minimumSpend,omitempty"`

	Countries              []string `json:"countries"`
	FacebookPlatforms      []string `json:"facebookPlatforms"`
	FocusAreas             []string `json:"focusAreas"`
	Industries             []string `json:"industries"`
	ServiceModels          []string `json:"serviceModels"`
	LanguageTags           []string `json:"languageTags"`
	SolutionTypes          []string `json:"solutionTypes"`
	SolutionSubtypes       []string `json:"solutionSubtypes"`
	DiverseOwnedIdentities []string `json:"diverseOwnedIdentities"`

	Media []Media `json:"media"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Media is an asset attached to a partner. CompanyID is a back-reference only.
type Media struct {
	ID        string    `json:"id"`
	MediaURL  string    `json:"mediaUrl"`
	Tag       MediaTag  `json:"tag"`
	MediaType MediaType `json:"mediaType"`
	CompanyID string    `json:"companyId"`
}

// PartnerUpdate represents the fields that can be updated for a Partner.
// Pointer types are used to allow partial updates.
type PartnerUpdate struct {
	ID                string
	Name              *string
	Description       *string
	Website           *string
	ProfileImage      *string
	IsBadged          *bool
	MinimumSpend      *float64
	Countries         *[]string
	FacebookPlatforms *[]string
	FocusAreas        *[]string
	Industries        *[]string
	ServiceModels     *[]string
}

// FilterOptions is the structured filter state a visitor controls.
// An empty category imposes no constraint.
type FilterOptions struct {
	Products      []string `json:"products"`
	PartnerTypes  []string `json:"partnerTypes"`
	PricingModels []string `json:"pricingModels"`
	Regions       []string `json:"regions"`
	KeyServices   []string `json:"keyServices"`
}

// IsEmpty reports whether no category carries a constraint.
func (f FilterOptions) IsEmpty() bool {
	return len(f.Products) == 0 &&
		len(f.PartnerTypes) == 0 &&
		len(f.PricingModels) == 0 &&
		len(f.Regions) == 0 &&
		len(f.KeyServices) == 0
}

// Stats are the aggregate figures shown above the directory.
type Stats struct {
	TotalPartners      int `json:"totalPartners"`
	SaaSPartners       int `json:"saasPartners"`
	PlatformsSupported int `json:"platformsSupported"`
	CountriesCovered   int `json:"countriesCovered"`
}
