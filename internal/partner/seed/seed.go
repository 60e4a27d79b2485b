// Package seed imports partner records into the store from a YAML fixture
// or the upstream company API.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	e "github.com/gartstein/partnerhub/internal/partner/errors"
	"github.com/gartstein/partnerhub/internal/partner/models"
	"github.com/gartstein/partnerhub/internal/partner/normalize"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Repository is the subset of the store the importer writes to.
type Repository interface {
	CreatePartner(ctx context.Context, partner *models.Partner) error
	PartnerExistsByName(ctx context.Context, name string) (bool, error)
}

// Fixture is the on-disk seed format, shaped like the upstream list response.
type Fixture struct {
	Companies []models.RawPartner `yaml:"companies"`
}

// Result summarizes an import run.
type Result struct {
	Created  int
	Skipped  int
	Rejected int
}

// LoadFile reads a YAML fixture.
func LoadFile(path string) ([]models.RawPartner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var fixture Fixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("%w: failed to parse seed file %s: %v", e.ErrInvalidInput, path, err)
	}
	return fixture.Companies, nil
}

type Importer struct {
	repo   Repository
	logger *zap.Logger
}

func NewImporter(repo Repository, logger *zap.Logger) *Importer {
	return &Importer{repo: repo, logger: logger.Named("seed")}
}

// Import normalizes and stores raws. Records without an id are rejected and
// partners whose name is already taken are skipped, so re-running an import
// is harmless. Storage failures abort the run.
func (i *Importer) Import(ctx context.Context, raws []models.RawPartner) (Result, error) {
	var res Result
	for _, raw := range raws {
		partner, err := normalize.Partner(raw)
		if err != nil {
			i.logger.Warn("Rejecting seed record", zap.Error(err))
			res.Rejected++
			continue
		}

		exists, err := i.repo.PartnerExistsByName(ctx, partner.Name)
		if err != nil {
			return res, fmt.Errorf("failed to check name existence: %w", err)
		}
		if exists {
			i.logger.Debug("Partner already present", zap.String("name", partner.Name))
			res.Skipped++
			continue
		}

		if err := i.repo.CreatePartner(ctx, &partner); err != nil {
			if errors.Is(err, e.ErrDuplicateName) {
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("failed to create partner %s: %w", partner.ID, err)
		}
		res.Created++
	}

	i.logger.Info("Seed import finished",
		zap.Int("created", res.Created),
		zap.Int("skipped", res.Skipped),
		zap.Int("rejected", res.Rejected),
	)
	return res, nil
}
