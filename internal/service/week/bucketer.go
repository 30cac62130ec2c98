package week

import (
	"time"

	"github.com/seu-repo/outlet-kpi/internal/domain"
)

// Bucketer assigns timestamps to week buckets under one policy.
type Bucketer struct {
	policy domain.WeekPolicy
	parser *TimestampParser
}

// NewBucketer creates a bucketer; a nil parser is month-first.
func NewBucketer(policy domain.WeekPolicy, parser *TimestampParser) *Bucketer {
	if parser == nil {
		parser = NewTimestampParser(false)
	}
	return &Bucketer{policy: policy, parser: parser}
}

// Policy returns the week-start policy in use.
func (b *Bucketer) Policy() domain.WeekPolicy {
	return b.policy
}

// Week returns the bucket of t. Only the calendar date of t matters.
func (b *Bucketer) Week(t time.Time) domain.WeekBucket {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if b.policy.Shifted {
		weekday := (int(d.Weekday()) + 6) % 7
		shift := (weekday + b.policy.Offset%7 + 7) % 7
		d = d.AddDate(0, 0, -shift)
	}
	_, w := d.ISOWeek()
	return domain.WeekBucket(w)
}

// Bucket parses raw and returns its bucket, or domain.NoWeek with the parse
// failure.
func (b *Bucketer) Bucket(raw string) (domain.WeekBucket, time.Time, error) {
	t, err := b.parser.Parse(raw)
	if err != nil {
		return domain.NoWeek, time.Time{}, err
	}
	return b.Week(t), t, nil
}

// Apply buckets every event. Events keep their position; undated ones get
// domain.NoWeek and a row scoped *domain.ParseError. Row numbers count the
// header as row 1.
func (b *Bucketer) Apply(events []domain.ScanEvent) ([]domain.ScanEvent, []domain.ParseError) {
	out := make([]domain.ScanEvent, len(events))
	var failures []domain.ParseError
	for i, e := range events {
		w, t, err := b.Bucket(e.Timestamp)
		e.Week, e.Time = w, t
		out[i] = e
		if err != nil {
			failures = append(failures, domain.ParseError{
				Row:    i + 2,
				Field:  domain.FieldEventTimestamp,
				Value:  e.Timestamp,
				Reason: err.Error(),
				Err:    err,
			})
		}
	}
	return out, failures
}
