package reader

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/mercury-reader/pkg/mercury"
)

type stubParser struct {
	calls   atomic.Int32
	err     error
	gate    chan struct{}
	article func(target string) *mercury.Article
}

func (p *stubParser) Parse(ctx context.Context, target string, _ ...mercury.ParseOption) (*mercury.Article, error) {
	p.calls.Add(1)
	if p.gate != nil {
		select {
		case <-p.gate:
		case <-ctx.Done():
			return nil, &mercury.TransportError{URL: target, Err: ctx.Err()}
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	if p.article != nil {
		return p.article(target), nil
	}
	return &mercury.Article{Title: "Parsed", URL: target, Content: "<p>hi</p>", Direction: mercury.LTR, TotalPages: 1, RenderedPages: 1}, nil
}

type mapStore struct {
	mu       sync.Mutex
	articles map[string]*mercury.Article
	getErr   error
}

func (m *mapStore) GetArticle(key string) (*mercury.Article, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	a, ok := m.articles[key]
	return a, ok, nil
}

func (m *mapStore) PutArticle(key string, a *mercury.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.articles == nil {
		m.articles = map[string]*mercury.Article{}
	}
	m.articles[key] = a
	return nil
}

func TestServiceReadCachesInMemoryAndStore(t *testing.T) {
	parser := &stubParser{}
	store := &mapStore{}
	svc := NewService(parser, store, nil, ServiceOptions{CacheTTL: time.Minute})

	first, err := svc.Read(context.Background(), " https://example.com/a ")
	require.NoError(t, err)
	second, err := svc.Read(context.Background(), "https://example.com/a")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), parser.calls.Load())
	assert.Contains(t, store.articles, "https://example.com/a")
}

func TestServiceReadFallsBackToStore(t *testing.T) {
	parser := &stubParser{}
	store := &mapStore{articles: map[string]*mercury.Article{
		"https://example.com/b": {Title: "From disk", URL: "https://example.com/b"},
	}}
	svc := NewService(parser, store, nil, ServiceOptions{CacheTTL: time.Minute})

	a, err := svc.Read(context.Background(), "https://example.com/b")
	require.NoError(t, err)
	assert.Equal(t, "From disk", a.Title)
	assert.Zero(t, parser.calls.Load())
}

func TestServiceReadWithoutTTLAlwaysParses(t *testing.T) {
	parser := &stubParser{}
	store := &mapStore{getErr: errors.New("must not be called")}
	svc := NewService(parser, store, nil, ServiceOptions{})

	for i := 0; i < 3; i++ {
		_, err := svc.Read(context.Background(), "https://example.com/c")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), parser.calls.Load())
	assert.Empty(t, store.articles)
}

func TestServiceReadStoreErrorStillParses(t *testing.T) {
	parser := &stubParser{}
	svc := NewService(parser, &mapStore{getErr: errors.New("disk gone")}, nil, ServiceOptions{CacheTTL: time.Minute})

	a, err := svc.Read(context.Background(), "https://example.com/d")
	require.NoError(t, err)
	assert.Equal(t, "Parsed", a.Title)
}

func TestServiceReadCoalescesConcurrentRequests(t *testing.T) {
	parser := &stubParser{gate: make(chan struct{})}
	svc := NewService(parser, nil, nil, ServiceOptions{})

	const n = 8
	var wg sync.WaitGroup
	results := make([]*mercury.Article, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := svc.Read(context.Background(), "https://example.com/same")
			assert.NoError(t, err)
			results[i] = a
		}(i)
	}

	require.Eventually(t, func() bool { return parser.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(parser.gate)
	wg.Wait()

	assert.Equal(t, int32(1), parser.calls.Load())
	for _, a := range results {
		assert.Same(t, results[0], a)
	}
}

func TestServiceReadSurvivesFirstCallerCancelling(t *testing.T) {
	parser := &stubParser{gate: make(chan struct{})}
	svc := NewService(parser, nil, nil, ServiceOptions{})
	const target = "https://example.com/slow"

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := svc.Read(ctxA, target)
		errA <- err
	}()
	require.Eventually(t, func() bool { return parser.calls.Load() == 1 }, time.Second, time.Millisecond)

	type result struct {
		article *mercury.Article
		err     error
	}
	resB := make(chan result, 1)
	go func() {
		a, err := svc.Read(context.Background(), target)
		resB <- result{a, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(parser.gate)
	select {
	case res := <-resB:
		require.NoError(t, res.err)
		assert.Equal(t, target, res.article.URL)
	case <-time.After(time.Second):
		t.Fatal("second caller did not return")
	}
	assert.Equal(t, int32(1), parser.calls.Load())
}

func TestServiceReadValidatesAndPropagatesErrors(t *testing.T) {
	svc := NewService(&stubParser{}, nil, nil, ServiceOptions{})
	_, err := svc.Read(context.Background(), "  ")
	assert.True(t, mercury.IsConfigError(err))

	apiErr := &mercury.APIError{StatusCode: 404, Message: "not found"}
	svc = NewService(&stubParser{err: apiErr}, nil, nil, ServiceOptions{CacheTTL: time.Minute})
	_, err = svc.Read(context.Background(), "https://example.com/missing")
	assert.ErrorIs(t, err, apiErr)
}
