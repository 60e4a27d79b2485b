package listing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	e "github.com/gartstein/partnerhub/internal/partner/errors"
	"github.com/gartstein/partnerhub/internal/partner/models"
	"github.com/gartstein/partnerhub/internal/partner/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func numbered(n int) []models.Partner {
	out := make([]models.Partner, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, models.Partner{ID: fmt.Sprint(i), Name: fmt.Sprintf("Partner %d", i)})
	}
	return out
}

func ids(partners []models.Partner) []string {
	out := make([]string, 0, len(partners))
	for _, p := range partners {
		out = append(out, p.ID)
	}
	return out
}

type staticSource []models.Partner

func (s staticSource) Get(context.Context) ([]models.Partner, error) {
	return s, nil
}

// scriptedFetcher serves pages from a CacheFetcher but lets a test block
// chosen requests and inject failures.
type scriptedFetcher struct {
	inner CacheFetcher

	mu    sync.Mutex
	calls []string
	gates map[string]chan struct{}
	fail  map[int]error
}

func newScripted(partners []models.Partner, perPage int) *scriptedFetcher {
	return &scriptedFetcher{
		inner: CacheFetcher{Source: staticSource(partners), ItemsPerPage: perPage},
		gates: make(map[string]chan struct{}),
		fail:  make(map[int]error),
	}
}

func (f *scriptedFetcher) block(search string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[search] = ch
	return ch
}

func (f *scriptedFetcher) FetchPage(ctx context.Context, params Params, page int) (search.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fmt.Sprintf("%s#%d", params.Search, page))
	gate := f.gates[params.Search]
	err := f.fail[page]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return search.Page{}, err
	}
	return f.inner.FetchPage(ctx, params, page)
}

func (f *scriptedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestController_InitialState(t *testing.T) {
	c := NewController(newScripted(nil, 2), zaptest.NewLogger(t))
	s := c.Snapshot()
	assert.Equal(t, Idle, s.Status)
	assert.Empty(t, s.Partners)

	started, err := c.LoadMore(context.Background())
	require.NoError(t, err)
	assert.False(t, started)
}

func TestController_SetParamsThenLoadMore(t *testing.T) {
	ctx := context.Background()
	f := newScripted(numbered(5), 2)
	c := NewController(f, zaptest.NewLogger(t))

	require.NoError(t, c.SetParams(ctx, Params{}))
	s := c.Snapshot()
	assert.Equal(t, Loaded, s.Status)
	assert.Equal(t, []string{"1", "2"}, ids(s.Partners))
	assert.Equal(t, 1, s.Page)
	assert.True(t, s.HasMore)
	assert.Equal(t, 5, s.TotalCount)

	started, err := c.LoadMore(ctx)
	require.NoError(t, err)
	assert.True(t, started)
	started, err = c.LoadMore(ctx)
	require.NoError(t, err)
	assert.True(t, started)

	s = c.Snapshot()
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(s.Partners))
	assert.False(t, s.HasMore)
	assert.Equal(t, 3, s.Page)

	started, err = c.LoadMore(ctx)
	require.NoError(t, err)
	assert.False(t, started)
	assert.Equal(t, 3, f.callCount())
}

func TestController_ParamChangeReplacesResults(t *testing.T) {
	ctx := context.Background()
	partners := numbered(5)
	partners[4].Name = "Special"
	c := NewController(newScripted(partners, 2), zaptest.NewLogger(t))

	require.NoError(t, c.SetParams(ctx, Params{}))
	_, err := c.LoadMore(ctx)
	require.NoError(t, err)
	require.Len(t, c.Snapshot().Partners, 4)

	require.NoError(t, c.SetParams(ctx, Params{Search: "special"}))
	s := c.Snapshot()
	assert.Equal(t, []string{"5"}, ids(s.Partners))
	assert.Equal(t, 1, s.Page)
	assert.False(t, s.HasMore)
	assert.Equal(t, "special", s.Params.Search)
}

func TestController_LoadMoreWhileLoadingIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newScripted(numbered(5), 2)
	c := NewController(f, zaptest.NewLogger(t))
	require.NoError(t, c.SetParams(ctx, Params{}))

	gate := f.block("")
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.LoadMore(ctx)
	}()
	require.Eventually(t, func() bool { return c.Snapshot().Status == Loading }, time.Second, time.Millisecond)

	for range 5 {
		started, err := c.LoadMore(ctx)
		require.NoError(t, err)
		assert.False(t, started)
	}
	close(gate)
	<-done

	assert.Equal(t, 2, f.callCount())
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(c.Snapshot().Partners))
}

func TestController_DiscardsStaleResponses(t *testing.T) {
	ctx := context.Background()
	partners := numbered(3)
	partners[0].Name = "Alpha"
	partners[1].Name = "Beta"
	f := newScripted(partners, 12)
	c := NewController(f, zaptest.NewLogger(t))

	slow := f.block("alpha")
	done := make(chan error, 1)
	go func() { done <- c.SetParams(ctx, Params{Search: "alpha"}) }()
	require.Eventually(t, func() bool { return f.callCount() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, c.SetParams(ctx, Params{Search: "beta"}))
	assert.Equal(t, []string{"2"}, ids(c.Snapshot().Partners))

	close(slow)
	require.NoError(t, <-done)

	s := c.Snapshot()
	assert.Equal(t, Loaded, s.Status)
	assert.Equal(t, "beta", s.Params.Search)
	assert.Equal(t, []string{"2"}, ids(s.Partners))
}

func TestController_StaleLoadMoreIsDiscarded(t *testing.T) {
	ctx := context.Background()
	f := newScripted(numbered(5), 2)
	c := NewController(f, zaptest.NewLogger(t))
	require.NoError(t, c.SetParams(ctx, Params{}))

	gate := f.block("")
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.LoadMore(ctx)
	}()
	require.Eventually(t, func() bool { return f.callCount() == 2 }, time.Second, time.Millisecond)

	require.NoError(t, c.SetParams(ctx, Params{Search: "Partner 5"}))
	close(gate)
	<-done

	s := c.Snapshot()
	assert.Equal(t, []string{"5"}, ids(s.Partners))
	assert.Equal(t, 1, s.Page)
}

func TestController_ErrorPreservesAccumulatedItems(t *testing.T) {
	ctx := context.Background()
	f := newScripted(numbered(5), 2)
	c := NewController(f, zaptest.NewLogger(t))
	require.NoError(t, c.SetParams(ctx, Params{}))

	f.fail[2] = fmt.Errorf("%w: upstream 503", e.ErrTransientFetch)
	started, err := c.LoadMore(ctx)
	assert.True(t, started)
	assert.ErrorIs(t, err, e.ErrTransientFetch)

	s := c.Snapshot()
	assert.Equal(t, Error, s.Status)
	assert.ErrorIs(t, s.Err, e.ErrTransientFetch)
	assert.Equal(t, []string{"1", "2"}, ids(s.Partners))
	assert.Equal(t, 1, s.Page)

	started, err = c.LoadMore(ctx)
	require.NoError(t, err)
	assert.False(t, started)

	delete(f.fail, 2)
	require.NoError(t, c.Retry(ctx))
	s = c.Snapshot()
	assert.Equal(t, Loaded, s.Status)
	assert.NoError(t, s.Err)
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(s.Partners))
}

func TestController_RetryFirstPage(t *testing.T) {
	ctx := context.Background()
	f := newScripted(numbered(3), 2)
	f.fail[1] = errors.New("network down")
	c := NewController(f, zaptest.NewLogger(t))

	assert.Error(t, c.SetParams(ctx, Params{}))
	assert.Equal(t, Error, c.Snapshot().Status)

	delete(f.fail, 1)
	require.NoError(t, c.Retry(ctx))
	assert.Equal(t, []string{"1", "2"}, ids(c.Snapshot().Partners))

	require.NoError(t, c.Retry(ctx))
	assert.Equal(t, 2, f.callCount())
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "loaded", Loaded.String())
	assert.Equal(t, "error", Error.String())
}
