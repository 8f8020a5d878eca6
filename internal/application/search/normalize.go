// Package search keeps the external search index consistent with the store.
package search

import (
	"time"

	"github.com/go-market-triggers/internal/domain"
)

// Normalize converts store-native values into JSON-safe ones, recursing into
// slices and maps. Timestamps and dates become epoch milliseconds, geo points
// become {lat, lng}; every other scalar passes through unchanged.
func Normalize(v any) any {
	switch val := v.(type) {
	case domain.Timestamp:
		return val.Millis()
	case *domain.Timestamp:
		if val == nil {
			return nil
		}
		return val.Millis()
	case time.Time:
		return val.UnixMilli()
	case *time.Time:
		if val == nil {
			return nil
		}
		return val.UnixMilli()
	case domain.GeoPoint:
		return geo(val)
	case *domain.GeoPoint:
		if val == nil {
			return nil
		}
		return geo(*val)
	case domain.Document:
		return normalizeMap(val)
	case map[string]any:
		return normalizeMap(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = Normalize(e)
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = e
		}
		return out
	default:
		return v
	}
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, e := range m {
		out[k] = Normalize(e)
	}
	return out
}

func geo(g domain.GeoPoint) map[string]any {
	return map[string]any{"lat": g.Latitude, "lng": g.Longitude}
}
