package controller

import (
	"context"
	"errors"
	"sync"
	"testing"

	e "github.com/gartstein/partnerhub/internal/partner/errors"
	"github.com/gartstein/partnerhub/internal/partner/events"
	"github.com/gartstein/partnerhub/internal/partner/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type MockEngagementRepository struct {
	createConsultation func(context.Context, *models.ConsultationRequest) error
	listConsultations  func(context.Context, models.ConsultationFilter) ([]models.ConsultationRequest, int64, error)
	createSubscription func(context.Context, *models.NewsletterSubscription) error
}

func (m *MockEngagementRepository) CreateConsultation(ctx context.Context, req *models.ConsultationRequest) error {
	return m.createConsultation(ctx, req)
}

func (m *MockEngagementRepository) ListConsultations(ctx context.Context, f models.ConsultationFilter) ([]models.ConsultationRequest, int64, error) {
	return m.listConsultations(ctx, f)
}

func (m *MockEngagementRepository) CreateSubscription(ctx context.Context, sub *models.NewsletterSubscription) error {
	return m.createSubscription(ctx, sub)
}

func validConsultation() *models.ConsultationRequest {
	return &models.ConsultationRequest{
		Name:          " Ada ",
		Email:         "ada@example.com",
		CompanyName:   "Acme",
		BusinessType:  "RETAIL",
		InterestMedia: []string{"WhatsApp"},
		UserQuery:     "How do I start?",
	}
}

func TestEngagementService_SubmitConsultation(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo := &MockEngagementRepository{
			createConsultation: func(_ context.Context, _ *models.ConsultationRequest) error { return nil },
		}
		producer := &MockProducer{wg: new(sync.WaitGroup)}
		service := NewEngagementService(repo, producer, zaptest.NewLogger(t))

		producer.wg.Add(1)
		got, err := service.SubmitConsultation(context.Background(), validConsultation())
		require.NoError(t, err)
		producer.wg.Wait()

		assert.NotEmpty(t, got.ID)
		assert.Equal(t, "Ada", got.Name)
		assert.False(t, got.CreatedAt.IsZero())
		assert.Equal(t, events.ConsultationRequested, producer.events()[0].Type)
	})

	t.Run("validation errors", func(t *testing.T) {
		service := NewEngagementService(&MockEngagementRepository{}, &MockProducer{}, zaptest.NewLogger(t))
		for name, mutate := range map[string]func(*models.ConsultationRequest){
			"missing name":  func(r *models.ConsultationRequest) { r.Name = "  " },
			"bad email":     func(r *models.ConsultationRequest) { r.Email = "not-an-email" },
			"missing query": func(r *models.ConsultationRequest) { r.UserQuery = "" },
			"missing type":  func(r *models.ConsultationRequest) { r.BusinessType = "" },
		} {
			t.Run(name, func(t *testing.T) {
				req := validConsultation()
				mutate(req)
				_, err := service.SubmitConsultation(context.Background(), req)
				assert.ErrorIs(t, err, e.ErrInvalidInput)
			})
		}
	})

	t.Run("repository error", func(t *testing.T) {
		repo := &MockEngagementRepository{
			createConsultation: func(_ context.Context, _ *models.ConsultationRequest) error {
				return errors.New("database error")
			},
		}
		service := NewEngagementService(repo, &MockProducer{}, zaptest.NewLogger(t))
		_, err := service.SubmitConsultation(context.Background(), validConsultation())
		assert.Error(t, err)
	})
}

func TestEngagementService_ListConsultations(t *testing.T) {
	var got models.ConsultationFilter
	repo := &MockEngagementRepository{
		listConsultations: func(_ context.Context, f models.ConsultationFilter) ([]models.ConsultationRequest, int64, error) {
			got = f
			return []models.ConsultationRequest{{ID: "c1"}}, 21, nil
		},
	}
	service := NewEngagementService(repo, &MockProducer{}, zaptest.NewLogger(t))

	page, err := service.ListConsultations(context.Background(), models.ConsultationFilter{Page: -1, BusinessType: "RETAIL"})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Page)
	assert.Equal(t, 10, got.Limit)
	assert.Equal(t, "RETAIL", got.BusinessType)
	assert.Equal(t, 3, page.Pages)
	assert.Equal(t, int64(21), page.Total)

	_, err = service.ListConsultations(context.Background(), models.ConsultationFilter{Page: 1, Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 100, got.Limit)
}

func TestEngagementService_Subscribe(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var stored *models.NewsletterSubscription
		repo := &MockEngagementRepository{
			createSubscription: func(_ context.Context, sub *models.NewsletterSubscription) error {
				stored = sub
				return nil
			},
		}
		producer := &MockProducer{wg: new(sync.WaitGroup)}
		service := NewEngagementService(repo, producer, zaptest.NewLogger(t))

		producer.wg.Add(1)
		sub, err := service.Subscribe(context.Background(), "  News@Example.com ")
		require.NoError(t, err)
		producer.wg.Wait()

		assert.Equal(t, "news@example.com", stored.Email)
		assert.NotEmpty(t, sub.ID)
		assert.Equal(t, events.NewsletterSubscribed, producer.events()[0].Type)
	})

	t.Run("invalid email", func(t *testing.T) {
		service := NewEngagementService(&MockEngagementRepository{}, &MockProducer{}, zaptest.NewLogger(t))
		_, err := service.Subscribe(context.Background(), "nope")
		assert.ErrorIs(t, err, e.ErrInvalidInput)
	})

	t.Run("already subscribed", func(t *testing.T) {
		repo := &MockEngagementRepository{
			createSubscription: func(_ context.Context, _ *models.NewsletterSubscription) error {
				return e.ErrDuplicateName
			},
		}
		service := NewEngagementService(repo, &MockProducer{}, zaptest.NewLogger(t))
		_, err := service.Subscribe(context.Background(), "news@example.com")
		assert.ErrorIs(t, err, e.ErrDuplicateName)
	})
}
