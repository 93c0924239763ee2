package journey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func arrivalAt(stationID string, at time.Time) ArrivalRecord {
	return ArrivalRecord{StationID: stationID, StationName: "Station " + stationID, ArrivedAt: at}
}

func historyDay(date string, arrivals ...ArrivalRecord) HistoryRecord {
	return HistoryRecord{Date: date, Arrivals: arrivals}
}

func TestEstimator_AverageTravelTime(t *testing.T) {
	base := time.Date(2026, 8, 20, 8, 0, 0, 0, time.UTC)
	day := func(offset int) time.Time { return base.AddDate(0, 0, offset) }

	history := []HistoryRecord{
		historyDay("2026-08-20",
			arrivalAt("a", day(0)),
			arrivalAt("b", day(0).Add(10*time.Minute))),
		historyDay("2026-08-21",
			arrivalAt("a", day(1)),
			arrivalAt("b", day(1).Add(12*time.Minute))),
		historyDay("2026-08-22",
			arrivalAt("a", day(2)),
			arrivalAt("b", day(2).Add(14*time.Minute))),
	}

	t.Run("averages valid samples", func(t *testing.T) {
		est := NewEstimator(nil, 0)
		d, ok := est.AverageTravelTime(history, "a", "b")
		assert.True(t, ok)
		assert.Equal(t, 12*time.Minute, d)
	})

	t.Run("destination before origin is excluded", func(t *testing.T) {
		withBadDay := append([]HistoryRecord{}, history...)
		withBadDay = append(withBadDay, historyDay("2026-08-23",
			arrivalAt("b", day(3)),
			arrivalAt("a", day(3).Add(40*time.Minute))))

		est := NewEstimator(nil, 0)
		d, ok := est.AverageTravelTime(withBadDay, "a", "b")
		assert.True(t, ok)
		assert.Equal(t, 12*time.Minute, d)
	})

	t.Run("implausibly long gap is excluded", func(t *testing.T) {
		withBadDay := append([]HistoryRecord{}, history...)
		withBadDay = append(withBadDay, historyDay("2026-08-23",
			arrivalAt("a", day(3)),
			arrivalAt("b", day(3).Add(13*time.Hour))))

		est := NewEstimator(nil, 0)
		d, ok := est.AverageTravelTime(withBadDay, "a", "b")
		assert.True(t, ok)
		assert.Equal(t, 12*time.Minute, d)
	})

	t.Run("first arrival per day wins", func(t *testing.T) {
		est := NewEstimator(nil, 0)
		d, ok := est.AverageTravelTime([]HistoryRecord{
			historyDay("2026-08-20",
				arrivalAt("a", day(0)),
				arrivalAt("b", day(0).Add(20*time.Minute)),
				arrivalAt("b", day(0).Add(3*time.Hour))),
		}, "a", "b")
		assert.True(t, ok)
		assert.Equal(t, 20*time.Minute, d)
	})

	t.Run("no valid samples", func(t *testing.T) {
		est := NewEstimator(nil, 0)
		_, ok := est.AverageTravelTime(history, "a", "z")
		assert.False(t, ok)

		_, ok = est.AverageTravelTime(nil, "a", "b")
		assert.False(t, ok)
	})
}

// fakeCache records writes and serves them back, so cache interaction is
// observable without waiting on TTLs.
type fakeCache struct {
	entries map[string]time.Duration
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]time.Duration)}
}

func (f *fakeCache) Get(key string) (time.Duration, bool) {
	d, ok := f.entries[key]
	return d, ok
}

func (f *fakeCache) Set(key string, d time.Duration, ttl time.Duration) {
	f.entries[key] = d
	f.sets++
}

func TestEstimator_CacheIsAdvisory(t *testing.T) {
	base := time.Date(2026, 8, 20, 8, 0, 0, 0, time.UTC)
	history := []HistoryRecord{
		historyDay("2026-08-20",
			arrivalAt("a", base),
			arrivalAt("b", base.Add(10*time.Minute))),
	}

	cache := newFakeCache()
	est := NewEstimator(cache, time.Hour)

	d, ok := est.AverageTravelTime(history, "a", "b")
	assert.True(t, ok)
	assert.Equal(t, 10*time.Minute, d)
	assert.Equal(t, 1, cache.sets)

	// Second call is served from the cache, even with no history at hand.
	d, ok = est.AverageTravelTime(nil, "a", "b")
	assert.True(t, ok)
	assert.Equal(t, 10*time.Minute, d)
	assert.Equal(t, 1, cache.sets)

	// The key ignores station order.
	d, ok = est.AverageTravelTime(nil, "b", "a")
	assert.True(t, ok)
	assert.Equal(t, 10*time.Minute, d)
}

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache(8)

	_, ok := cache.Get("a|b")
	assert.False(t, ok)

	cache.Set("a|b", 7*time.Minute, time.Hour)
	d, ok := cache.Get("a|b")
	assert.True(t, ok)
	assert.Equal(t, 7*time.Minute, d)
}
