// Package controller implements the core business logic (service layer)
// of the partner directory: partner and media management, directory search,
// comparison lookups, and visitor engagement.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	e "github.com/gartstein/partnerhub/internal/partner/errors"
	"github.com/gartstein/partnerhub/internal/partner/events"
	"github.com/gartstein/partnerhub/internal/partner/metrics"
	"github.com/gartstein/partnerhub/internal/partner/models"
	"github.com/gartstein/partnerhub/internal/partner/normalize"
	"github.com/gartstein/partnerhub/internal/partner/search"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	maxNameLength        = 255
	maxDescriptionLength = 5000
)

type EventProducer interface {
	Produce(event events.Event)
}

// Repository defines the storage interface for partners and their media.
type Repository interface {
	CreatePartner(ctx context.Context, partner *models.Partner) error
	GetPartner(ctx context.Context, id string) (*models.Partner, error)
	UpdatePartner(ctx context.Context, update *models.PartnerUpdate) error
	DeletePartner(ctx context.Context, id string) error
	PartnerExistsByName(ctx context.Context, name string) (bool, error)
	CreateMedia(ctx context.Context, media *models.Media) error
	ListMedia(ctx context.Context, filter models.MediaFilter) ([]models.Media, error)
}

// PartnerCache holds the full partner collection used for searches and stats.
type PartnerCache interface {
	Get(ctx context.Context) ([]models.Partner, error)
	Invalidate()
}

// Options tune directory listings.
type Options struct {
	// PriorityCompanies are listed first, in this order, unless a request
	// names its own priority.
	PriorityCompanies []string
	ItemsPerPage      int
}

// ComparisonSlot is one column of a comparison. Partner is nil when the id
// could not be resolved and Unavailable says why.
type ComparisonSlot struct {
	ID          string          `json:"id"`
	Partner     *models.Partner `json:"partner,omitempty"`
	Unavailable string          `json:"unavailable,omitempty"`
}

// PartnerService provides methods to manage and search partners via
// repository operations, the partner cache, and event production.
type PartnerService struct {
	repo     Repository
	producer EventProducer
	cache    PartnerCache
	opts     Options
	logger   *zap.Logger
}

func NewPartnerService(repo Repository, producer EventProducer, cache PartnerCache, opts Options, logger *zap.Logger) *PartnerService {
	if opts.ItemsPerPage <= 0 {
		opts.ItemsPerPage = search.ItemsPerPage
	}
	return &PartnerService{
		repo:     repo,
		producer: producer,
		cache:    cache,
		opts:     opts,
		logger:   logger.Named("partner_service"),
	}
}

// CreatePartner normalizes raw, checks the name is unique, stores the
// partner and triggers an event. A blank id is replaced by a new UUID.
func (s *PartnerService) CreatePartner(ctx context.Context, raw models.RawPartner) (*models.Partner, error) {
	if strings.TrimSpace(raw.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", e.ErrInvalidInput)
	}
	if len(raw.Name) > maxNameLength {
		return nil, fmt.Errorf("%w: name too long", e.ErrInvalidInput)
	}
	if len(raw.Description) > maxDescriptionLength {
		return nil, fmt.Errorf("%w: description too long", e.ErrInvalidInput)
	}
	if strings.TrimSpace(raw.ID) == "" {
		raw.ID = uuid.NewString()
	}
	for i := range raw.Media {
		if raw.Media[i].ID == "" {
			raw.Media[i].ID = uuid.NewString()
		}
	}

	partner, err := normalize.Partner(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", e.ErrInvalidInput, err)
	}

	exists, err := s.repo.PartnerExistsByName(ctx, partner.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check name existence: %w", err)
	}
	if exists {
		return nil, e.ErrDuplicateName
	}

	if err := s.repo.CreatePartner(ctx, &partner); err != nil {
		if errors.Is(err, e.ErrDuplicateName) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create partner: %w", err)
	}
	s.cache.Invalidate()
	go func() {
		s.producer.Produce(events.PartnerEvent(events.PartnerCreated, &partner))
	}()
	return &partner, nil
}

// GetPartner retrieves a Partner by ID, returning an error if not found.
func (s *PartnerService) GetPartner(ctx context.Context, id string) (*models.Partner, error) {
	partner, err := s.repo.GetPartner(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get partner: %w", err)
	}
	refreshLogo(partner)
	return partner, nil
}

// UpdatePartner modifies the specified Partner fields,
// then fetches the updated version for returning and event production.
func (s *PartnerService) UpdatePartner(ctx context.Context, update *models.PartnerUpdate) (*models.Partner, error) {
	if strings.TrimSpace(update.ID) == "" {
		return nil, fmt.Errorf("%w: invalid partner ID", e.ErrInvalidInput)
	}
	if update.Name != nil {
		name := normalize.Name(*update.Name)
		if strings.TrimSpace(*update.Name) == "" || len(name) > maxNameLength {
			return nil, fmt.Errorf("%w: invalid name", e.ErrInvalidInput)
		}
		update.Name = &name
	}
	if update.Description != nil && len(*update.Description) > maxDescriptionLength {
		return nil, fmt.Errorf("%w: description too long", e.ErrInvalidInput)
	}
	if update.MinimumSpend != nil && *update.MinimumSpend < -1 {
		return nil, fmt.Errorf("%w: minimum spend must be -1 or more", e.ErrInvalidInput)
	}

	if err := s.repo.UpdatePartner(ctx, update); err != nil {
		if errors.Is(err, e.ErrNotFound) || errors.Is(err, e.ErrDuplicateName) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update partner: %w", err)
	}
	s.cache.Invalidate()

	updated, err := s.repo.GetPartner(ctx, update.ID)
	if err != nil {
		s.logger.Error("Failed to get partner for event",
			zap.Error(err),
			zap.String("partner_id", update.ID),
		)
		return nil, err
	}
	refreshLogo(updated)
	go func() {
		s.producer.Produce(events.PartnerEvent(events.PartnerUpdated, updated))
	}()
	return updated, nil
}

// DeletePartner removes a Partner and its media by ID and fires a deletion event.
func (s *PartnerService) DeletePartner(ctx context.Context, id string) error {
	partner, err := s.repo.GetPartner(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to get partner for deletion: %w", err)
	}

	if err := s.repo.DeletePartner(ctx, id); err != nil {
		return fmt.Errorf("failed to delete partner: %w", err)
	}
	s.cache.Invalidate()

	go func() {
		s.producer.Produce(events.PartnerEvent(events.PartnerDeleted, partner))
	}()
	return nil
}

// ListPartners runs a directory search over the cached collection. Paging
// input outside the valid range is clamped, not rejected.
func (s *PartnerService) ListPartners(ctx context.Context, q search.Query) (search.Page, error) {
	if len(q.Priority) == 0 {
		q.Priority = s.opts.PriorityCompanies
	}
	q.ItemsPerPage = s.opts.ItemsPerPage
	if err := q.Validate(); err != nil {
		s.logger.Debug("Clamping search input", zap.Error(err))
	}

	partners, err := s.all(ctx)
	if err != nil {
		return search.Page{}, err
	}
	page := search.Run(partners, q)

	metrics.Searches.Inc()
	metrics.SearchResults.Observe(float64(page.TotalCount))
	return page, nil
}

// Stats aggregates the figures shown above the directory.
func (s *PartnerService) Stats(ctx context.Context) (models.Stats, error) {
	partners, err := s.all(ctx)
	if err != nil {
		return models.Stats{}, err
	}
	return search.ComputeStats(partners), nil
}

// ComparePartners resolves each id independently. A missing or failing id
// yields an unavailable slot instead of failing the comparison.
func (s *PartnerService) ComparePartners(ctx context.Context, ids []string) []ComparisonSlot {
	slots := make([]ComparisonSlot, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		slots[i].ID = id
		g.Go(func() error {
			partner, err := s.GetPartner(gctx, id)
			switch {
			case err == nil:
				slots[i].Partner = partner
			case errors.Is(err, e.ErrNotFound):
				slots[i].Unavailable = "not found"
			default:
				s.logger.Warn("Failed to resolve compared partner",
					zap.Error(err),
					zap.String("partner_id", id),
				)
				slots[i].Unavailable = "temporarily unavailable"
			}
			return nil
		})
	}
	_ = g.Wait()
	return slots
}

// PartnerMedia returns the displayable gallery of a partner.
func (s *PartnerService) PartnerMedia(ctx context.Context, id string) ([]models.Media, error) {
	partner, err := s.GetPartner(ctx, id)
	if err != nil {
		return nil, err
	}
	return normalize.DisplayableMedia(partner.Media), nil
}

// CreateMedia attaches a media item to an existing partner.
func (s *PartnerService) CreateMedia(ctx context.Context, media *models.Media) (*models.Media, error) {
	media.CompanyID = strings.TrimSpace(media.CompanyID)
	media.MediaURL = strings.TrimSpace(media.MediaURL)
	switch {
	case media.CompanyID == "":
		return nil, fmt.Errorf("%w: company id is required", e.ErrInvalidInput)
	case media.MediaURL == "":
		return nil, fmt.Errorf("%w: media url is required", e.ErrInvalidInput)
	case media.Tag != models.TagLogo && media.Tag != models.TagMedia:
		return nil, fmt.Errorf("%w: unknown tag %q", e.ErrInvalidInput, media.Tag)
	case media.MediaType != models.MediaImage && media.MediaType != models.MediaVideo:
		return nil, fmt.Errorf("%w: unknown media type %q", e.ErrInvalidInput, media.MediaType)
	}

	media.ID = uuid.NewString()
	if err := s.repo.CreateMedia(ctx, media); err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create media: %w", err)
	}
	s.cache.Invalidate()

	partner, err := s.GetPartner(ctx, media.CompanyID)
	if err != nil {
		s.logger.Error("Failed to get partner for event",
			zap.Error(err),
			zap.String("partner_id", media.CompanyID),
		)
		return media, nil
	}
	go func() {
		s.producer.Produce(events.PartnerEvent(events.PartnerUpdated, partner))
	}()
	return media, nil
}

// ListMedia lists media matching filter.
func (s *PartnerService) ListMedia(ctx context.Context, filter models.MediaFilter) ([]models.Media, error) {
	media, err := s.repo.ListMedia(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	return media, nil
}

func (s *PartnerService) all(ctx context.Context) ([]models.Partner, error) {
	partners, err := s.cache.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load partners: %v", e.ErrTransientFetch, err)
	}
	for i := range partners {
		refreshLogo(&partners[i])
	}
	return partners, nil
}

// refreshLogo lets a LOGO media item added after creation take over from the
// stored profile image.
func refreshLogo(p *models.Partner) {
	stored := &models.RawProfilePicture{}
	stored.Image.URI = p.ProfileImage
	p.ProfileImage = normalize.ResolveLogo(p.Media, stored)
}
