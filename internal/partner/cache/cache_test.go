package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gartstein/partnerhub/internal/partner/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type countingLoader struct {
	calls    atomic.Int32
	release  chan struct{}
	partners []models.Partner
	err      error
}

func (l *countingLoader) Load(context.Context) ([]models.Partner, error) {
	l.calls.Add(1)
	if l.release != nil {
		<-l.release
	}
	return l.partners, l.err
}

func TestPartners_GetMemoizes(t *testing.T) {
	loader := &countingLoader{partners: []models.Partner{{ID: "1"}, {ID: "2"}}}
	c := New(loader.Load, zaptest.NewLogger(t), 0)

	for range 3 {
		got, err := c.Get(context.Background())
		require.NoError(t, err)
		assert.Len(t, got, 2)
	}
	assert.Equal(t, int32(1), loader.calls.Load())
}

func TestPartners_ConcurrentCallersShareLoad(t *testing.T) {
	loader := &countingLoader{
		release:  make(chan struct{}),
		partners: []models.Partner{{ID: "1"}},
	}
	c := New(loader.Load, zaptest.NewLogger(t), 0)

	const callers = 10
	var wg sync.WaitGroup
	results := make(chan []models.Partner, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.Get(context.Background())
			assert.NoError(t, err)
			results <- got
		}()
	}

	require.Eventually(t, func() bool { return loader.calls.Load() == 1 }, time.Second, time.Millisecond)
	// Give the remaining callers time to join the in-flight load.
	time.Sleep(20 * time.Millisecond)
	close(loader.release)
	wg.Wait()
	close(results)

	assert.Equal(t, int32(1), loader.calls.Load())
	for got := range results {
		assert.Equal(t, []models.Partner{{ID: "1"}}, got)
	}
}

func TestPartners_ErrorsAreNotCached(t *testing.T) {
	loader := &countingLoader{err: errors.New("boom")}
	c := New(loader.Load, zaptest.NewLogger(t), 0)

	_, err := c.Get(context.Background())
	assert.Error(t, err)

	loader.err = nil
	loader.partners = []models.Partner{{ID: "1"}}
	got, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, int32(2), loader.calls.Load())
}

func TestPartners_Invalidate(t *testing.T) {
	loader := &countingLoader{partners: []models.Partner{{ID: "1"}}}
	c := New(loader.Load, zaptest.NewLogger(t), 0)

	_, err := c.Get(context.Background())
	require.NoError(t, err)
	c.Invalidate()

	loader.partners = []models.Partner{{ID: "1"}, {ID: "2"}}
	got, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, int32(2), loader.calls.Load())
}

func TestPartners_TTLExpiry(t *testing.T) {
	loader := &countingLoader{partners: []models.Partner{{ID: "1"}}}
	c := New(loader.Load, zaptest.NewLogger(t), time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, err := c.Get(context.Background())
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	_, err = c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), loader.calls.Load())

	now = now.Add(time.Minute)
	_, err = c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), loader.calls.Load())
}

func TestPartners_ReturnsCopies(t *testing.T) {
	loader := &countingLoader{partners: []models.Partner{{ID: "1"}, {ID: "2"}}}
	c := New(loader.Load, zaptest.NewLogger(t), 0)

	got, err := c.Get(context.Background())
	require.NoError(t, err)
	got[0], got[1] = got[1], got[0]

	again, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1", again[0].ID)
}
