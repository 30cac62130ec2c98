package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// WeekBucket is an ISO week number (1..53). NoWeek marks an event whose
// timestamp could not be parsed.
type WeekBucket int

// NoWeek is the undefined bucket.
const NoWeek WeekBucket = 0

// Valid reports whether the bucket is a real week.
func (w WeekBucket) Valid() bool {
	return w >= 1 && w <= 53
}

func (w WeekBucket) String() string {
	if !w.Valid() {
		return "undefined"
	}
	return fmt.Sprintf("Week %d", int(w))
}

// WeekPolicy selects where a week starts. The zero value is the ISO
// (Monday) policy. A shifted policy moves each date back by
// (weekday + Offset) mod 7 days, weekday counted Monday=0..Sunday=6,
// before taking the ISO week of the shifted date.
type WeekPolicy struct {
	Shifted bool
	Offset  int
}

// MondayPolicy is the ISO calendar week policy.
var MondayPolicy = WeekPolicy{}

// ShiftedPolicy returns a shifted policy with the given offset.
func ShiftedPolicy(offset int) WeekPolicy {
	return WeekPolicy{Shifted: true, Offset: offset}
}

func (p WeekPolicy) String() string {
	if !p.Shifted {
		return "monday"
	}
	return fmt.Sprintf("shifted:%d", p.Offset)
}

// ParseWeekPolicy accepts "monday" (also "" and "iso") or "shifted:N" with
// 0 <= N <= 6.
func ParseWeekPolicy(s string) (WeekPolicy, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "", "monday", "iso":
		return MondayPolicy, nil
	}
	if rest, ok := strings.CutPrefix(v, "shifted:"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(rest))
		if err == nil && n >= 0 && n <= 6 {
			return ShiftedPolicy(n), nil
		}
	}
	return WeekPolicy{}, &ConfigurationError{
		Field:  "week_policy",
		Value:  s,
		Reason: `expected "monday" or "shifted:N" with N in 0..6`,
	}
}

// ParseWeeks parses a week list such as "3,5-7". An empty string yields nil.
// The result is sorted and deduplicated.
func ParseWeeks(s string) ([]WeekBucket, error) {
	seen := make(map[WeekBucket]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi := part, part
		if i := strings.IndexByte(part, '-'); i > 0 {
			lo, hi = part[:i], part[i+1:]
		}
		from, errFrom := strconv.Atoi(strings.TrimSpace(lo))
		to, errTo := strconv.Atoi(strings.TrimSpace(hi))
		if errFrom != nil || errTo != nil || from > to ||
			!WeekBucket(from).Valid() || !WeekBucket(to).Valid() {
			return nil, &ConfigurationError{
				Field:  "weeks",
				Value:  part,
				Reason: "expected week numbers or ranges within 1..53",
			}
		}
		for w := from; w <= to; w++ {
			seen[WeekBucket(w)] = true
		}
	}
	return SortedWeeks(seen), nil
}

// SortedWeeks returns the keys of a week set in ascending order.
func SortedWeeks(set map[WeekBucket]bool) []WeekBucket {
	if len(set) == 0 {
		return nil
	}
	out := make([]WeekBucket, 0, len(set))
	for w := range set {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
