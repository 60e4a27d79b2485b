package db

import (
	"context"
	"errors"
	"fmt"

	rows "github.com/gartstein/partnerhub/internal/partner/db/models"
	e "github.com/gartstein/partnerhub/internal/partner/errors"
	"github.com/gartstein/partnerhub/internal/partner/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Tables lists every model the repository migrates.
var Tables = []any{
	&rows.Partner{},
	&rows.Media{},
	&rows.Consultation{},
	&rows.Subscriber{},
}

func NewRepository(cfg *Config) (*Repository, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return newRepository(db)
}

// NewSQLiteRepository opens a SQLite database, e.g. ":memory:" for tests and
// local runs. The pool is limited to one connection so an in-memory database
// is shared by every query.
func NewSQLiteRepository(dsn string) (*Repository, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return newRepository(db)
}

func newRepository(db *gorm.DB) (*Repository, error) {
	if err := db.AutoMigrate(Tables...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) CreatePartner(ctx context.Context, partner *models.Partner) error {
	row := toPartnerRow(partner)
	result := r.db.WithContext(ctx).Create(row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return e.ErrDuplicateName
		}
		return result.Error
	}
	partner.CreatedAt = row.CreatedAt
	partner.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *Repository) GetPartner(ctx context.Context, id string) (*models.Partner, error) {
	var row rows.Partner
	result := r.db.WithContext(ctx).Preload("Media", orderMedia).First(&row, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return fromPartnerRow(&row), nil
}

// ListPartners returns every partner, newest first, with media attached.
func (r *Repository) ListPartners(ctx context.Context) ([]models.Partner, error) {
	var found []rows.Partner
	result := r.db.WithContext(ctx).
		Preload("Media", orderMedia).
		Order("created_at DESC").
		Order("id").
		Find(&found)
	if result.Error != nil {
		return nil, result.Error
	}
	partners := make([]models.Partner, 0, len(found))
	for i := range found {
		partners = append(partners, *fromPartnerRow(&found[i]))
	}
	return partners, nil
}

func (r *Repository) UpdatePartner(ctx context.Context, update *models.PartnerUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row rows.Partner
		if err := tx.First(&row, "id = ?", update.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return e.ErrNotFound
			}
			return err
		}

		applyUpdate(&row, update)

		if err := tx.Omit(clause.Associations).Save(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return e.ErrDuplicateName
			}
			return err
		}
		return nil
	})
}

func (r *Repository) DeletePartner(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&rows.Partner{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return e.ErrNotFound
		}
		return tx.Delete(&rows.Media{}, "company_id = ?", id).Error
	})
}

func (r *Repository) PartnerExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&rows.Partner{}).
		Select("name").
		Where("name = ?", name).
		Limit(1).
		Count(&count)
	return count > 0, result.Error
}

func (r *Repository) CreateMedia(ctx context.Context, media *models.Media) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&rows.Partner{}).Where("id = ?", media.CompanyID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: partner %s", e.ErrNotFound, media.CompanyID)
	}
	return r.db.WithContext(ctx).Create(toMediaRow(media)).Error
}

// ListMedia returns media matching every non-empty filter field, newest id first.
func (r *Repository) ListMedia(ctx context.Context, filter models.MediaFilter) ([]models.Media, error) {
	q := r.db.WithContext(ctx).Model(&rows.Media{})
	if filter.MediaType != "" {
		q = q.Where("media_type = ?", filter.MediaType)
	}
	if filter.Tag != "" {
		q = q.Where("tag = ?", filter.Tag)
	}
	if filter.CompanyID != "" {
		q = q.Where("company_id = ?", filter.CompanyID)
	}

	var found []rows.Media
	if err := q.Order("id DESC").Find(&found).Error; err != nil {
		return nil, err
	}
	media := make([]models.Media, 0, len(found))
	for i := range found {
		media = append(media, fromMediaRow(&found[i]))
	}
	return media, nil
}

func (r *Repository) CreateConsultation(ctx context.Context, req *models.ConsultationRequest) error {
	row := toConsultationRow(req)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	req.CreatedAt = row.CreatedAt
	return nil
}

// ListConsultations returns one page of consultation requests, newest first,
// along with the total number matching the filter.
func (r *Repository) ListConsultations(ctx context.Context, filter models.ConsultationFilter) ([]models.ConsultationRequest, int64, error) {
	q := r.db.WithContext(ctx).Model(&rows.Consultation{})
	if filter.BusinessType != "" {
		q = q.Where("business_type = ?", filter.BusinessType)
	}
	if filter.InterestMedia != "" {
		// interest_media is a JSON array; match the quoted element.
		q = q.Where("interest_media LIKE ?", fmt.Sprintf("%%%q%%", filter.InterestMedia))
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var found []rows.Consultation
	err := q.Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&found).Error
	if err != nil {
		return nil, 0, err
	}

	out := make([]models.ConsultationRequest, 0, len(found))
	for i := range found {
		out = append(out, fromConsultationRow(&found[i]))
	}
	return out, total, nil
}

// CreateSubscription stores a newsletter subscriber. Subscribing an address
// twice returns ErrDuplicateName.
func (r *Repository) CreateSubscription(ctx context.Context, sub *models.NewsletterSubscription) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&rows.Subscriber{}).Where("email = ?", sub.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: already subscribed", e.ErrDuplicateName)
	}
	row := &rows.Subscriber{ID: sub.ID, Email: sub.Email}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: already subscribed", e.ErrDuplicateName)
		}
		return err
	}
	sub.CreatedAt = row.CreatedAt
	return nil
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

func orderMedia(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

func applyUpdate(row *rows.Partner, u *models.PartnerUpdate) {
	if u.Name != nil {
		row.Name = *u.Name
	}
	if u.Description != nil {
		row.Description = *u.Description
	}
	if u.Website != nil {
		row.Website = *u.Website
	}
	if u.ProfileImage != nil {
		row.ProfileImage = *u.ProfileImage
	}
	if u.IsBadged != nil {
		row.IsBadged = *u.IsBadged
	}
	if u.MinimumSpend != nil {
		row.MinimumSpend = u.MinimumSpend
	}
	if u.Countries != nil {
		row.Countries = *u.Countries
	}
	if u.FacebookPlatforms != nil {
		row.FacebookPlatforms = *u.FacebookPlatforms
	}
	if u.FocusAreas != nil {
		row.FocusAreas = *u.FocusAreas
	}
	if u.Industries != nil {
		row.Industries = *u.Industries
	}
	if u.ServiceModels != nil {
		row.ServiceModels = *u.ServiceModels
	}
}
