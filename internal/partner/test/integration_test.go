package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cenkalti/backoff/v4"
	"github.com/gartstein/partnerhub/internal/partner/cache"
	"github.com/gartstein/partnerhub/internal/partner/client"
	"github.com/gartstein/partnerhub/internal/partner/comparison"
	"github.com/gartstein/partnerhub/internal/partner/controller"
	"github.com/gartstein/partnerhub/internal/partner/db"
	e "github.com/gartstein/partnerhub/internal/partner/errors"
	"github.com/gartstein/partnerhub/internal/partner/events"
	"github.com/gartstein/partnerhub/internal/partner/handlers"
	"github.com/gartstein/partnerhub/internal/partner/listing"
	"github.com/gartstein/partnerhub/internal/partner/models"
	"github.com/gartstein/partnerhub/internal/partner/seed"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const priorityPartner = "Partner 15"

type recordingProducer struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingProducer) Produce(event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingProducer) count(t events.EventType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ev := range p.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

// IntegrationTestSuite runs the HTTP API over SQLite and an in-process Redis
// and drives it with the partner API client.
type IntegrationTestSuite struct {
	suite.Suite
	repo     *db.Repository
	redis    *miniredis.Miniredis
	producer *recordingProducer
	server   *httptest.Server
	api      *client.Client
	logger   *zap.Logger
}

func TestIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests")
	}
	suite.Run(t, new(IntegrationTestSuite))
}

func (s *IntegrationTestSuite) SetupSuite() {
	s.logger = zap.NewNop()
}

func (s *IntegrationTestSuite) SetupTest() {
	repo, err := db.NewSQLiteRepository(":memory:")
	s.Require().NoError(err)
	s.repo = repo

	res, err := seed.NewImporter(repo, s.logger).Import(context.Background(), fixture())
	s.Require().NoError(err)
	s.Require().Equal(15, res.Created)

	s.redis = miniredis.RunT(s.T())
	rdb := redis.NewClient(&redis.Options{Addr: s.redis.Addr()})
	s.T().Cleanup(func() { _ = rdb.Close() })

	s.producer = &recordingProducer{}
	partnerCache := cache.New(repo.ListPartners, s.logger, time.Minute)
	partnerSvc := controller.NewPartnerService(repo, s.producer, partnerCache, controller.Options{
		PriorityCompanies: []string{priorityPartner},
	}, s.logger)
	engagementSvc := controller.NewEngagementService(repo, s.producer, s.logger)

	h := handlers.NewHTTPHandler(
		partnerSvc,
		engagementSvc,
		comparison.NewSessions(comparison.RedisStores(rdb, time.Hour), s.logger),
		handlers.NewIPRateLimiter(rate.Limit(100), 100, s.logger),
		s.logger,
	)
	routes, err := h.Routes()
	s.Require().NoError(err)
	s.server = httptest.NewServer(routes)

	s.api = client.New(s.server.URL, s.logger, client.WithBackOff(func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 1)
	}))
}

func (s *IntegrationTestSuite) TearDownTest() {
	s.server.Close()
	s.Require().NoError(s.repo.Close())
}

func fixture() []models.RawPartner {
	raws := make([]models.RawPartner, 0, 15)
	for i := 1; i <= 15; i++ {
		platform := "Messenger"
		if i%2 == 1 {
			platform = "WhatsApp"
		}
		raws = append(raws, models.RawPartner{
			ID:                fmt.Sprintf("p-%02d", i),
			Name:              fmt.Sprintf("Partner %d", i),
			FacebookPlatforms: []string{platform},
			ServiceModels:     []string{"SAAS"},
			Countries:         []string{"Spain"},
		})
	}
	return raws
}

func (s *IntegrationTestSuite) httpClient() *http.Client {
	jar, err := cookiejar.New(nil)
	s.Require().NoError(err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (s *IntegrationTestSuite) send(hc *http.Client, method, path, body string) *http.Response {
	req, err := http.NewRequest(method, s.server.URL+path, strings.NewReader(body))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := hc.Do(req)
	s.Require().NoError(err)
	s.T().Cleanup(func() { resp.Body.Close() })
	return resp
}

func (s *IntegrationTestSuite) TestInfiniteListThroughAPI() {
	ctx := context.Background()
	list := listing.NewController(listing.APIFetcher{API: s.api}, s.logger)

	s.Require().NoError(list.SetParams(ctx, listing.Params{}))
	state := list.Snapshot()
	s.Equal(listing.Loaded, state.Status)
	s.Len(state.Partners, 12)
	s.Equal(15, state.TotalCount)
	s.True(state.HasMore)
	s.Equal(priorityPartner, state.Partners[0].Name)

	started, err := list.LoadMore(ctx)
	s.Require().NoError(err)
	s.True(started)
	state = list.Snapshot()
	s.Len(state.Partners, 15)
	s.False(state.HasMore)

	seen := make(map[string]bool)
	for _, p := range state.Partners {
		s.False(seen[p.ID], "duplicate %s", p.ID)
		seen[p.ID] = true
	}
}

func (s *IntegrationTestSuite) TestFilteringThroughAPI() {
	ctx := context.Background()
	list := listing.NewController(listing.APIFetcher{API: s.api}, s.logger)

	s.Require().NoError(list.SetParams(ctx, listing.Params{
		Filters: models.FilterOptions{Products: []string{"WhatsApp"}},
	}))
	state := list.Snapshot()
	s.Equal(8, state.TotalCount)
	for _, p := range state.Partners {
		s.Equal([]string{"WhatsApp"}, p.FacebookPlatforms)
	}

	s.Require().NoError(list.SetParams(ctx, listing.Params{Search: "partner 1"}))
	s.Equal(7, list.Snapshot().TotalCount, "Partner 1 and Partner 10-15")
}

func (s *IntegrationTestSuite) TestPartnerLifecycle() {
	ctx := context.Background()
	hc := s.httpClient()

	resp := s.send(hc, http.MethodPost, "/v1/partners", `{"name":"Acme Messaging","countries":["Chile"],"service_models":["MANAGED"]}`)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	var created models.Partner
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&created))
	s.NotEmpty(created.ID)

	stats, err := s.api.Stats(ctx)
	s.Require().NoError(err)
	s.Equal(16, stats.TotalPartners)
	s.Equal(2, stats.CountriesCovered)

	resp = s.send(hc, http.MethodPost, "/v1/partners", `{"name":"Acme Messaging"}`)
	s.Equal(http.StatusConflict, resp.StatusCode)

	resp = s.send(hc, http.MethodPatch, "/v1/partners/"+created.ID, `{"minimumSpend":0}`)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	got, err := s.api.GetPartner(ctx, created.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.MinimumSpend)
	s.Equal(0.0, *got.MinimumSpend)

	resp = s.send(hc, http.MethodDelete, "/v1/partners/"+created.ID, "")
	s.Equal(http.StatusNoContent, resp.StatusCode)

	_, err = s.api.GetPartner(ctx, created.ID)
	s.ErrorIs(err, e.ErrNotFound)

	s.Eventually(func() bool {
		return s.producer.count(events.PartnerCreated) == 1 &&
			s.producer.count(events.PartnerUpdated) == 1 &&
			s.producer.count(events.PartnerDeleted) == 1
	}, time.Second, 10*time.Millisecond)
}

func (s *IntegrationTestSuite) TestComparisonPersistsInRedis() {
	hc := s.httpClient()

	resp := s.send(hc, http.MethodGet, "/v1/directory?selectedIds=p-01,missing,p-03,p-05", "")
	s.Require().Equal(http.StatusSeeOther, resp.StatusCode)
	s.Equal("/v1/directory", resp.Header.Get("Location"))

	keys := s.redis.Keys()
	s.Require().Len(keys, 1)
	s.True(strings.HasPrefix(keys[0], comparison.StorageKey+":"))

	resp = s.send(hc, http.MethodGet, "/v1/compare", "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var cmp struct {
		SelectedIDs []string                    `json:"selectedIds"`
		Partners    []controller.ComparisonSlot `json:"partners"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&cmp))
	s.Equal([]string{"p-01", "missing", "p-03"}, cmp.SelectedIDs)
	s.Require().Len(cmp.Partners, 3)
	s.Equal("Partner 1", cmp.Partners[0].Partner.Name)
	s.Nil(cmp.Partners[1].Partner)
	s.Equal("not found", cmp.Partners[1].Unavailable)

	resp = s.send(hc, http.MethodPost, "/v1/compare/p-07", "")
	s.Equal(http.StatusConflict, resp.StatusCode)

	resp = s.send(hc, http.MethodDelete, "/v1/compare", "")
	s.Equal(http.StatusNoContent, resp.StatusCode)
	s.Empty(s.redis.Keys())
}

func (s *IntegrationTestSuite) TestEngagement() {
	hc := s.httpClient()

	resp := s.send(hc, http.MethodPost, "/v1/consultations",
		`{"name":"Ada","email":"ada@example.com","companyName":"Acme","businessType":"RETAIL","interestMedia":["WhatsApp"],"userQuery":"Pricing?"}`)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	resp = s.send(hc, http.MethodGet, "/v1/consultations?interest_media=WhatsApp", "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var page controller.ConsultationPage
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&page))
	s.Equal(int64(1), page.Total)
	s.Equal("Ada", page.Consultations[0].Name)

	resp = s.send(hc, http.MethodPost, "/v1/newsletter", `{"email":"News@Example.com"}`)
	s.Equal(http.StatusCreated, resp.StatusCode)
	resp = s.send(hc, http.MethodPost, "/v1/newsletter", `{"email":"news@example.com"}`)
	s.Equal(http.StatusConflict, resp.StatusCode)
}
