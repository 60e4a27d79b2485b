package models

import "time"

// ConsultationRequest is a visitor's request for a consultation call.
type ConsultationRequest struct {
	ID            string    `json:"id"`
	Name          string    `json:"name" validate:"required,max=200"`
	Email         string    `json:"email" validate:"required,email"`
	CompanyName   string    `json:"companyName" validate:"required,max=200"`
	BusinessType  string    `json:"businessType" validate:"required,max=100"`
	BusinessSize  string    `json:"businessSize,omitempty" validate:"omitempty,max=100"`
	InterestMedia []string  `json:"interestMedia" validate:"dive,max=100"`
	UserQuery     string    `json:"userQuery" validate:"required,max=5000"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ConsultationFilter narrows a consultation listing.
type ConsultationFilter struct {
	Page          int
	Limit         int
	BusinessType  string
	InterestMedia string
}

// NewsletterSubscription is an email address signed up for updates.
type NewsletterSubscription struct {
	ID        string    `json:"id"`
	Email     string    `json:"email" validate:"required,email"`
	CreatedAt time.Time `json:"createdAt"`
}

// MediaFilter narrows a media listing.
type MediaFilter struct {
	MediaType string
	Tag       string
	CompanyID string
}
