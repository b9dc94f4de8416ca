package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/docutrust/internal/domain/documents"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func report(id string) *domain.Report {
	return &domain.Report{ReportID: domain.ReportID(id), FileName: id + ".pdf"}
}

func TestGetReturnsFreshEntry(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	c := New(24*time.Hour, 0, clock)

	c.Put("abc", report("r1"))
	got, ok := c.Get("abc")
	require.True(t, ok)
	assert.Equal(t, domain.ReportID("r1"), got.ReportID)
}

func TestGetEvictsExpiredEntry(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	c := New(24*time.Hour, 0, clock)

	c.Put("abc", report("r1"))
	clock.Advance(24*time.Hour + time.Minute)

	_, ok := c.Get("abc")
	assert.False(t, ok)

	// lazy eviction removed it entirely
	stats := c.Stats()
	assert.Zero(t, stats.TotalEntries)
}

func TestPutAfterSweepDoesNotResurrect(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	c := New(1*time.Hour, 0, clock)

	c.Put("abc", report("old"))
	clock.Advance(2 * time.Hour)
	assert.Equal(t, 1, c.SweepExpired())

	c.Put("abc", report("new"))
	got, ok := c.Get("abc")
	require.True(t, ok)
	assert.Equal(t, domain.ReportID("new"), got.ReportID)
}

func TestInvalidate(t *testing.T) {
	c := New(time.Hour, 0, &fakeClock{now: time.Now()})
	c.Put("abc", report("r1"))

	assert.True(t, c.Invalidate("abc"))
	assert.False(t, c.Invalidate("abc"))
	_, ok := c.Get("abc")
	assert.False(t, ok)
}

func TestSweepExpiredOnlyDropsAgedEntries(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	c := New(1*time.Hour, 0, clock)

	c.Put("old", report("old"))
	clock.Advance(2 * time.Hour)
	c.Put("fresh", report("fresh"))

	assert.Equal(t, 1, c.SweepExpired())
	_, ok := c.Get("fresh")
	assert.True(t, ok)
	_, ok = c.Get("old")
	assert.False(t, ok)
}

func TestClearDropsEverything(t *testing.T) {
	c := New(time.Hour, 0, &fakeClock{now: time.Now()})
	for i := 0; i < 5; i++ {
		c.Put(fmt.Sprintf("h%d", i), report(fmt.Sprintf("r%d", i)))
	}
	assert.Equal(t, 5, c.Clear())
	assert.Zero(t, c.Stats().TotalEntries)
}

func TestStats(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	c := New(1*time.Hour, 0, clock)

	c.Put("old", report("old"))
	clock.Advance(2 * time.Hour)
	c.Put("fresh", report("fresh"))

	stats := c.Stats()
	assert.Equal(t, 2, stats.TotalEntries)
	assert.Equal(t, 1, stats.ExpiredEntries)
	assert.Equal(t, 1, stats.ActiveEntries)
	assert.Greater(t, stats.TotalSizeBytes, int64(0))
}

func TestLRUBoundEvictsOldest(t *testing.T) {
	c := New(time.Hour, 2, &fakeClock{now: time.Now()})
	c.Put("a", report("a"))
	c.Put("b", report("b"))
	c.Put("c", report("c"))

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}
