// Package models contains the persistence models of the partner directory,
// configured to work using GORM as the ORM. List fields are stored as JSON
// text so the same schema runs on Postgres and SQLite.
package models

import (
	"time"
)

// Partner is the partners table row.
type Partner struct {
	ID                     string   `gorm:"size:64;primaryKey"`
	Name                   string   `gorm:"size:255;uniqueIndex;not null"`
	Description            string   `gorm:"size:5000"`
	Website                string   `gorm:"size:500"`
	ProfileImage           string   `gorm:"size:500"`
	IsBadged               bool     `gorm:"index"`
	MinimumSpend           *float64 `gorm:"check:minimum_spend >= -1"`
	Countries              []string `gorm:"serializer:json;type:text"`
	FacebookPlatforms      []string `gorm:"serializer:json;type:text"`
	FocusAreas             []string `gorm:"serializer:json;type:text"`
	Industries             []string `gorm:"serializer:json;type:text"`
	ServiceModels          []string `gorm:"serializer:json;type:text"`
	LanguageTags           []string `gorm:"serializer:json;type:text"`
	SolutionTypes          []string `gorm:"serializer:json;type:text"`
	SolutionSubtypes       []string `gorm:"serializer:json;type:text"`
	DiverseOwnedIdentities []string `gorm:"serializer:json;type:text"`
	Media                  []Media  `gorm:"foreignKey:CompanyID"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Media is the media table row. CompanyID references the owning partner.
type Media struct {
	ID        string `gorm:"size:64;primaryKey"`
	MediaURL  string `gorm:"size:1000;not null"`
	Tag       string `gorm:"size:16;index"`
	MediaType string `gorm:"size:16;index"`
	CompanyID string `gorm:"size:64;index"`
	CreatedAt time.Time
}

func (Media) TableName() string {
	return "media"
}

// Consultation is a stored consultation request.
type Consultation struct {
	ID            string   `gorm:"size:64;primaryKey"`
	Name          string   `gorm:"size:200"`
	Email         string   `gorm:"size:320;index"`
	CompanyName   string   `gorm:"size:200"`
	BusinessType  string   `gorm:"size:100;index"`
	BusinessSize  string   `gorm:"size:100"`
	InterestMedia []string `gorm:"serializer:json;type:text"`
	UserQuery     string   `gorm:"size:5000"`
	CreatedAt     time.Time
}

// Subscriber is a newsletter subscription.
type Subscriber struct {
	ID        string `gorm:"size:64;primaryKey"`
	Email     string `gorm:"size:320;uniqueIndex"`
	CreatedAt time.Time
}
