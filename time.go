package jose

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// nowFunc is the clock used by every expiry and issued-at computation.
var nowFunc = time.Now

// formatEpoch renders t as decimal epoch seconds, the form exp and iat are stored in.
func formatEpoch(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

// parseEpoch reads an epoch-second claim. Decimal strings are the native form;
// JSON numbers and Go numeric types are accepted for tokens minted elsewhere.
func parseEpoch(v any) (time.Time, bool) {
	switch n := v.(type) {
	case string:
		return parseEpochString(n)
	case json.Number:
		return parseEpochString(n.String())
	case float64:
		return epochFromFloat(n)
	case float32:
		return epochFromFloat(float64(n))
	case int:
		return time.Unix(int64(n), 0), true
	case int32:
		return time.Unix(int64(n), 0), true
	case int64:
		return time.Unix(n, 0), true
	case uint32:
		return time.Unix(int64(n), 0), true
	case uint64:
		if n > math.MaxInt64 {
			return time.Time{}, false
		}
		return time.Unix(int64(n), 0), true
	default:
		return time.Time{}, false
	}
}

func parseEpochString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, false
	}
	return epochFromFloat(f)
}

func epochFromFloat(f float64) (time.Time, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return time.Time{}, false
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)), true
}
