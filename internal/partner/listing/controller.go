// Package listing drives an incrementally loaded partner list: page one on
// every parameter change, further pages appended on demand, and results of
// superseded requests discarded.
package listing

import (
	"context"
	"slices"
	"sync"

	"github.com/gartstein/partnerhub/internal/partner/models"
	"github.com/gartstein/partnerhub/internal/partner/search"
	"go.uber.org/zap"
)

type Status int

const (
	Idle Status = iota
	Loading
	Loaded
	Error
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Error:
		return "error"
	default:
		return "idle"
	}
}

// Params are the query parameters a list is keyed by.
type Params struct {
	Search   string
	Filters  models.FilterOptions
	Priority []string
}

// Fetcher returns one page of partners for the given parameters.
type Fetcher interface {
	FetchPage(ctx context.Context, params Params, page int) (search.Page, error)
}

// State is a point-in-time view of the controller.
type State struct {
	Params     Params
	Partners   []models.Partner
	Page       int
	HasMore    bool
	TotalCount int
	Status     Status
	Err        error
}

// Controller is safe for concurrent use. Fetches run outside the lock; each
// carries the generation it was started under and is dropped on return if
// the parameters changed meanwhile.
type Controller struct {
	fetcher Fetcher
	logger  *zap.Logger

	mu         sync.Mutex
	generation uint64
	state      State
}

func NewController(fetcher Fetcher, logger *zap.Logger) *Controller {
	return &Controller{
		fetcher: fetcher,
		logger:  logger.Named("listing"),
	}
}

// SetParams discards accumulated results and loads page one for params.
func (c *Controller) SetParams(ctx context.Context, params Params) error {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.state = State{Params: params, Status: Loading}
	c.mu.Unlock()

	return c.fetch(ctx, gen, params, 1, false)
}

// LoadMore appends the next page. It reports whether a fetch was started;
// calls while a fetch is in flight, before the first load, or after the last
// page are no-ops.
func (c *Controller) LoadMore(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if c.state.Status != Loaded || !c.state.HasMore {
		c.mu.Unlock()
		return false, nil
	}
	gen := c.generation
	params := c.state.Params
	next := c.state.Page + 1
	c.state.Status = Loading
	c.state.Err = nil
	c.mu.Unlock()

	return true, c.fetch(ctx, gen, params, next, true)
}

// Retry repeats the request that put the controller in the Error state.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Status != Error {
		c.mu.Unlock()
		return nil
	}
	params := c.state.Params
	if c.state.Page == 0 {
		c.mu.Unlock()
		return c.SetParams(ctx, params)
	}
	gen := c.generation
	next := c.state.Page + 1
	c.state.Status = Loading
	c.state.Err = nil
	c.mu.Unlock()

	return c.fetch(ctx, gen, params, next, true)
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Partners = slices.Clone(c.state.Partners)
	return s
}

func (c *Controller) fetch(ctx context.Context, gen uint64, params Params, page int, appendResults bool) error {
	result, err := c.fetcher.FetchPage(ctx, params, page)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		c.logger.Debug("Discarding stale page",
			zap.Int("page", page),
			zap.Uint64("generation", gen),
			zap.Uint64("current_generation", c.generation),
		)
		return nil
	}

	if err != nil {
		c.logger.Warn("Failed to fetch partners page", zap.Int("page", page), zap.Error(err))
		c.state.Status = Error
		c.state.Err = err
		return err
	}

	if appendResults {
		c.state.Partners = append(slices.Clone(c.state.Partners), result.Items...)
	} else {
		c.state.Partners = slices.Clone(result.Items)
	}
	c.state.Page = page
	c.state.HasMore = result.HasMore
	c.state.TotalCount = result.TotalCount
	c.state.Status = Loaded
	c.state.Err = nil
	return nil
}
