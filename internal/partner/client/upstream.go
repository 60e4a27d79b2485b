package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	e "github.com/gartstein/partnerhub/internal/partner/errors"
	"github.com/gartstein/partnerhub/internal/partner/models"
	"github.com/gartstein/partnerhub/internal/partner/normalize"
	"go.uber.org/zap"
)

type companiesResponse struct {
	Companies  []models.RawPartner `json:"companies"`
	Pagination struct {
		Page  int `json:"page"`
		Total int `json:"total"`
	} `json:"pagination"`
}

// Upstream reads the company API partner records originate from. Its
// payloads use snake_case fields and may omit any of them.
type Upstream struct {
	r      *requester
	logger *zap.Logger
}

func NewUpstream(baseURL string, logger *zap.Logger, opts ...Option) *Upstream {
	logger = logger.Named("upstream_client")
	return &Upstream{r: newRequester(baseURL, logger, opts), logger: logger}
}

// RawPartners returns the company list as served, without normalization.
func (u *Upstream) RawPartners(ctx context.Context) ([]models.RawPartner, error) {
	var resp companiesResponse
	if err := u.r.getJSON(ctx, "/api/company", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Companies == nil {
		return []models.RawPartner{}, nil
	}
	return resp.Companies, nil
}

// Partners returns the normalized company list. Records without an id are
// logged and left out.
func (u *Upstream) Partners(ctx context.Context) ([]models.Partner, error) {
	raws, err := u.RawPartners(ctx)
	if err != nil {
		return nil, err
	}
	partners, errs := normalize.Partners(raws)
	for _, err := range errs {
		u.logger.Warn("Skipping upstream record", zap.Error(err))
	}
	return partners, nil
}

// Partner fetches and normalizes a single company.
func (u *Upstream) Partner(ctx context.Context, id string) (*models.Partner, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: partner id is required", e.ErrInvalidInput)
	}
	var raw models.RawPartner
	if err := u.r.getJSON(ctx, "/api/company/"+url.PathEscape(id), nil, &raw); err != nil {
		return nil, err
	}
	if raw.ID == "" {
		raw.ID = id
	}
	partner, err := normalize.Partner(raw)
	if err != nil {
		return nil, err
	}
	return &partner, nil
}
