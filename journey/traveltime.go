package journey

import (
	"time"
)

// maxPlausibleTravel rejects history samples that can only come from
// corrupted or cross-day data.
const maxPlausibleTravel = 12 * time.Hour

// Estimator computes observed travel durations between station pairs from
// historical arrival logs. The cache is optional and purely advisory.
type Estimator struct {
	cache Cache
	ttl   time.Duration
}

func NewEstimator(cache Cache, ttl time.Duration) *Estimator {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Estimator{cache: cache, ttl: ttl}
}

// AverageTravelTime averages the observed travel duration from fromID to toID
// across the supplied history. For each day the first arrival at either
// station is used; a day contributes a sample only when both arrivals exist,
// the destination follows the origin, and the gap is under twelve hours.
// ok is false when no day yields a valid sample, and the caller must fall
// back to a schedule-derived duration.
func (e *Estimator) AverageTravelTime(history []HistoryRecord, fromID, toID string) (time.Duration, bool) {
	key := pairKey(fromID, toID)
	if e.cache != nil {
		if d, ok := e.cache.Get(key); ok {
			return d, true
		}
	}

	var total time.Duration
	var samples int
	for _, day := range history {
		from, ok := firstArrival(day.Arrivals, fromID)
		if !ok {
			continue
		}
		to, ok := firstArrival(day.Arrivals, toID)
		if !ok {
			continue
		}
		d := to.Sub(from)
		if d <= 0 || d >= maxPlausibleTravel {
			continue
		}
		total += d
		samples++
	}
	if samples == 0 {
		return 0, false
	}

	avg := total / time.Duration(samples)
	if e.cache != nil {
		e.cache.Set(key, avg, e.ttl)
	}
	return avg, true
}

func firstArrival(arrivals []ArrivalRecord, stationID string) (time.Time, bool) {
	for _, a := range arrivals {
		if a.StationID == stationID {
			return a.ArrivedAt, true
		}
	}
	return time.Time{}, false
}

// pairKey is order-insensitive so both directions of a hop share one entry.
func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}
