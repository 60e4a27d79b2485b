package models

// RawPartner is the partner payload as returned by the upstream API. Every
// field may be missing.
type RawPartner struct {
	ID                     string             `json:"id" yaml:"id"`
	Name                   string             `json:"name" yaml:"name"`
	Description            string             `json:"description" yaml:"description"`
	CompanyWebsite         string             `json:"company_website" yaml:"company_website"`
	MinimumSpend           *float64           `json:"minimum_spend,omitempty" yaml:"minimum_spend"`
	Countries              []string           `json:"countries" yaml:"countries"`
	FacebookPlatforms      []string           `json:"facebook_platforms" yaml:"facebook_platforms"`
	FocusAreas             []string           `json:"focus_areas" yaml:"focus_areas"`
	Industries             []string           `json:"industries" yaml:"industries"`
	IsBadged               bool               `json:"is_badged" yaml:"is_badged"`
	LanguageTags           []string           `json:"language_tags" yaml:"language_tags"`
	ServiceModels          []string           `json:"service_models" yaml:"service_models"`
	SolutionTypes          []string           `json:"solution_types" yaml:"solution_types"`
	SolutionSubtypes       []string           `json:"solution_subtypes" yaml:"solution_subtypes"`
	DiverseOwnedIdentities []string           `json:"diverse_owned_identities" yaml:"diverse_owned_identities"`
	ProfilePicture         *RawProfilePicture `json:"msp_profile_picture,omitempty" yaml:"msp_profile_picture"`
	Media                  []RawMedia         `json:"media" yaml:"media"`
}

// RawProfilePicture is the legacy logo field.
type RawProfilePicture struct {
	ID    string `json:"id" yaml:"id"`
	Image struct {
		URI string `json:"uri" yaml:"uri"`
	} `json:"image" yaml:"image"`
}

// RawMedia is a media row as returned by the upstream API.
type RawMedia struct {
	ID        string `json:"id" yaml:"id"`
	MediaURL  string `json:"media_url" yaml:"media_url"`
	Tag       string `json:"tag" yaml:"tag"`
	MediaType string `json:"media_type" yaml:"media_type"`
	CompanyID string `json:"company_id" yaml:"company_id"`
}
