package documents

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/docutrust/internal/domain/assessment"
	domain "github.com/bryanwahyu/docutrust/internal/domain/documents"
)

type fakeCache struct {
	mu sync.Mutex
	m  map[string]*domain.Report
}

func newFakeCache() *fakeCache { return &fakeCache{m: map[string]*domain.Report{}} }

func (c *fakeCache) Get(hash string) (*domain.Report, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.m[hash]
	return r, ok
}

func (c *fakeCache) Put(hash string, report *domain.Report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[hash] = report
}

func (c *fakeCache) Invalidate(hash string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.m[hash]
	delete(c.m, hash)
	return ok
}

func (c *fakeCache) SweepExpired() int { return 0 }

func (c *fakeCache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.m)
	c.m = map[string]*domain.Report{}
	return n
}

func (c *fakeCache) Stats() domain.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.CacheStats{TotalEntries: len(c.m), ActiveEntries: len(c.m)}
}

type countingImage struct {
	calls int32
	delay time.Duration
}

func (a *countingImage) Analyze(data []byte) (domain.ComponentResult, error) {
	atomic.AddInt32(&a.calls, 1)
	if a.delay > 0 {
		time.Sleep(a.delay)
	}
	return domain.ComponentResult{Component: ComponentImage, Score: 10, Severity: domain.SeverityLow}, nil
}

type noopFormat struct{}

func (noopFormat) Inspect(text string, fonts *domain.FontProfile) domain.ComponentResult {
	return domain.ComponentResult{Component: ComponentFormat, Score: 5, Severity: domain.SeverityLow}
}

type noopExtractor struct{}

func (noopExtractor) Extract(data []byte, sub domain.Submission) (string, *domain.FontProfile, error) {
	return string(data), nil, nil
}

func newTestService(img domain.ImageAnalyzer) *Service {
	return &Service{
		Cache:         newFakeCache(),
		Extractor:     noopExtractor{},
		Format:        noopFormat{},
		Image:         img,
		Clock:         domain.SystemClock{},
		Fingerprinter: NewFingerprinter(16),
	}
}

func TestValidateDeduplicatesConcurrentIdenticalUploads(t *testing.T) {
	img := &countingImage{delay: 50 * time.Millisecond}
	svc := newTestService(img)

	data := pngBytes(t, 16, 16)

	const n = 8
	var wg sync.WaitGroup
	reports := make([]*domain.Report, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reports[i], errs[i] = svc.Validate(context.Background(), "acme", "scan.png", data)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, reports[i])
	}
	// identical bytes in flight share a single analyzer pass
	assert.Equal(t, int32(1), atomic.LoadInt32(&img.calls))

	// all callers see the same verdict
	for i := 1; i < n; i++ {
		assert.Equal(t, reports[0].Summary, reports[i].Summary)
	}
}

func TestValidateSecondCallServedFromCache(t *testing.T) {
	img := &countingImage{}
	svc := newTestService(img)
	data := pngBytes(t, 8, 8)

	first, err := svc.Validate(context.Background(), "acme", "scan.png", data)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := svc.Validate(context.Background(), "acme", "scan.png", data)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.ReportID, second.ReportID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&img.calls))

	// the cached copy must not mutate the stored report
	third, err := svc.Validate(context.Background(), "acme", "scan.png", data)
	require.NoError(t, err)
	assert.True(t, third.Cached)
}

func TestValidatePropagatesFingerprintRejection(t *testing.T) {
	svc := newTestService(&countingImage{})

	_, err := svc.Validate(context.Background(), "acme", "empty.txt", []byte("  "))
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, domain.ErrCodeEmptyFile, verr.Code)
}

type failingImage struct{}

func (failingImage) Analyze(data []byte) (domain.ComponentResult, error) {
	return domain.ComponentResult{}, assert.AnError
}

func TestValidateDegradesFailedAnalyzer(t *testing.T) {
	svc := newTestService(failingImage{})
	data := pngBytes(t, 8, 8)

	report, err := svc.Validate(context.Background(), "acme", "scan.png", data)
	require.NoError(t, err)

	var found bool
	for _, c := range report.Factors {
		if c.Component == ComponentImage {
			found = true
			assert.Equal(t, 80.0, c.Score)
			assert.Equal(t, domain.SeverityHigh, c.Severity)
		}
	}
	assert.True(t, found, "degraded image component must still appear")
}

type panickingImage struct{}

func (panickingImage) Analyze(data []byte) (domain.ComponentResult, error) {
	var empty []float64
	_ = empty[3]
	return domain.ComponentResult{}, nil
}

func TestValidateDegradesPanickingAnalyzer(t *testing.T) {
	svc := newTestService(panickingImage{})
	data := pngBytes(t, 8, 8)

	report, err := svc.Validate(context.Background(), "acme", "scan.png", data)
	require.NoError(t, err)

	var found bool
	for _, c := range report.Factors {
		if c.Component == ComponentImage {
			found = true
			assert.Equal(t, 80.0, c.Score)
			assert.Equal(t, domain.SeverityHigh, c.Severity)
		}
	}
	assert.True(t, found, "panicking image component must degrade, not crash")
}

type panickingAssessor struct{}

func (panickingAssessor) Assess(ctx context.Context, fileName, text string) (*assessment.Result, error) {
	panic("schema drift")
}

func TestValidateDegradesPanickingAssessor(t *testing.T) {
	svc := newTestService(&countingImage{})
	svc.Assessor = panickingAssessor{}
	data := pngBytes(t, 8, 8)

	report, err := svc.Validate(context.Background(), "acme", "scan.png", data)
	require.NoError(t, err)

	var found bool
	for _, c := range report.Factors {
		if c.Component == ComponentAssessment {
			found = true
			assert.Equal(t, 80.0, c.Score)
			assert.Equal(t, domain.SeverityHigh, c.Severity)
		}
	}
	assert.True(t, found, "panicking assessor must degrade, not crash")
}

func TestInvalidateCacheForcesReanalysis(t *testing.T) {
	img := &countingImage{}
	svc := newTestService(img)
	data := pngBytes(t, 8, 8)

	_, err := svc.Validate(context.Background(), "acme", "scan.png", data)
	require.NoError(t, err)

	sub, err := svc.Fingerprinter.Fingerprint(data, "scan.png")
	require.NoError(t, err)
	assert.True(t, svc.InvalidateCache(sub.ContentHash))

	_, err = svc.Validate(context.Background(), "acme", "scan.png", data)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&img.calls))
}
