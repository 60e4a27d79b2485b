package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	e "github.com/gartstein/partnerhub/internal/partner/errors"
	"github.com/gartstein/partnerhub/internal/partner/events"
	"github.com/gartstein/partnerhub/internal/partner/models"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultConsultationLimit = 10
	maxConsultationLimit     = 100
)

// EngagementRepository stores consultation requests and newsletter signups.
type EngagementRepository interface {
	CreateConsultation(ctx context.Context, req *models.ConsultationRequest) error
	ListConsultations(ctx context.Context, filter models.ConsultationFilter) ([]models.ConsultationRequest, int64, error)
	CreateSubscription(ctx context.Context, sub *models.NewsletterSubscription) error
}

// ConsultationPage is one page of consultation requests.
type ConsultationPage struct {
	Consultations []models.ConsultationRequest `json:"consultations"`
	Page          int                         `json:"page"`
	Limit         int                         `json:"limit"`
	Total         int64                       `json:"total"`
	Pages         int                         `json:"pages"`
}

// EngagementService handles consultation requests and newsletter signups.
type EngagementService struct {
	repo     EngagementRepository
	producer EventProducer
	validate *validator.Validate
	logger   *zap.Logger
}

func NewEngagementService(repo EngagementRepository, producer EventProducer, logger *zap.Logger) *EngagementService {
	return &EngagementService{
		repo:     repo,
		producer: producer,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.Named("engagement_service"),
	}
}

// SubmitConsultation validates and stores a consultation request.
func (s *EngagementService) SubmitConsultation(ctx context.Context, req *models.ConsultationRequest) (*models.ConsultationRequest, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	req.BusinessType = strings.TrimSpace(req.BusinessType)
	req.UserQuery = strings.TrimSpace(req.UserQuery)
	if req.InterestMedia == nil {
		req.InterestMedia = []string{}
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, invalidInput(err)
	}

	req.ID = uuid.NewString()
	req.CreatedAt = time.Now().UTC()
	if err := s.repo.CreateConsultation(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create consultation: %w", err)
	}

	s.logger.Info("Consultation requested",
		zap.String("consultation_id", req.ID),
		zap.String("business_type", req.BusinessType),
	)
	go func() {
		s.producer.Produce(events.ConsultationEvent(req))
	}()
	return req, nil
}

// ListConsultations returns a page of requests, newest first. Page defaults
// to 1 and limit to 10, capped at 100.
func (s *EngagementService) ListConsultations(ctx context.Context, filter models.ConsultationFilter) (*ConsultationPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultConsultationLimit
	}
	filter.Limit = min(filter.Limit, maxConsultationLimit)

	found, total, err := s.repo.ListConsultations(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list consultations: %w", err)
	}
	return &ConsultationPage{
		Consultations: found,
		Page:          filter.Page,
		Limit:         filter.Limit,
		Total:         total,
		Pages:         int((total + int64(filter.Limit) - 1) / int64(filter.Limit)),
	}, nil
}

// Subscribe signs email up for the newsletter.
func (s *EngagementService) Subscribe(ctx context.Context, email string) (*models.NewsletterSubscription, error) {
	sub := &models.NewsletterSubscription{Email: strings.ToLower(strings.TrimSpace(email))}
	if err := s.validate.Struct(sub); err != nil {
		return nil, invalidInput(err)
	}

	sub.ID = uuid.NewString()
	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		if errors.Is(err, e.ErrDuplicateName) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	go func() {
		s.producer.Produce(events.SubscriptionEvent(sub))
	}()
	return sub, nil
}

func invalidInput(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", e.ErrInvalidInput, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", e.ErrInvalidInput, strings.Join(fields, ", "))
}
