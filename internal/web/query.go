package web

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// QueryForDate renders t as "?year=..&month=..&day=..&hour=..&minute=..&second=.."
// keeping the first n fields (1..6).
func QueryForDate(t time.Time, n int) string {
	keys := []string{"year", "month", "day", "hour", "minute", "second"}
	vals := []int{t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second()}
	n = max(1, min(n, len(keys)))

	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = fmt.Sprintf("%s=%d", keys[i], vals[i])
	}
	return "?" + strings.Join(parts, "&")
}

// parseDate reads the requested day from either ?date=YYYY-MM-DD or the
// ?year=&month=&day= form produced by QueryForDate. Without either, now is
// used.
func parseDate(q url.Values, loc *time.Location, now time.Time) (time.Time, error) {
	if s := q.Get("date"); s != "" {
		t, err := time.ParseInLocation(time.DateOnly, s, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("date %q: want YYYY-MM-DD", s)
		}
		return t, nil
	}

	if q.Get("year") == "" {
		return now.In(loc), nil
	}
	var ymd [3]int
	for i, key := range []string{"year", "month", "day"} {
		v := q.Get(key)
		if v == "" {
			ymd[i] = 1
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return time.Time{}, fmt.Errorf("%s %q is not a number", key, v)
		}
		ymd[i] = n
	}
	if ymd[1] < 1 || ymd[1] > 12 || ymd[2] < 1 || ymd[2] > 31 {
		return time.Time{}, fmt.Errorf("date %04d-%02d-%02d out of range", ymd[0], ymd[1], ymd[2])
	}
	return time.Date(ymd[0], time.Month(ymd[1]), ymd[2], 0, 0, 0, 0, loc), nil
}
