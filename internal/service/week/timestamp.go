package week

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Largest serial excelize accepts (9999-12-31).
const maxExcelSerial = 2958465

var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"20060102",
	"02 Jan 2006 15:04",
	"02 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
}

var monthFirstLayouts = []string{
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"1-2-2006 15:04:05",
	"1-2-2006",
	"1/2/06",
}

var dayFirstLayouts = []string{
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
	"2-1-2006 15:04:05",
	"2-1-2006",
	"2/1/06",
}

// ErrUnparseable is wrapped by every Parse failure.
var ErrUnparseable = errors.New("unrecognized timestamp")

// TimestampParser parses the date spellings found in exported scan logs.
// A written offset is kept so the calendar date stays as written; values
// without one are read as UTC.
type TimestampParser struct {
	layouts []string
}

// NewTimestampParser creates a parser. dayFirst selects how ambiguous
// slash and dash dates such as 03/04/2024 are read.
func NewTimestampParser(dayFirst bool) *TimestampParser {
	layouts := append([]string(nil), isoLayouts...)
	if dayFirst {
		layouts = append(layouts, dayFirstLayouts...)
	} else {
		layouts = append(layouts, monthFirstLayouts...)
	}
	return &TimestampParser{layouts: layouts}
}

// Parse converts raw into a time. Numeric input is read as an Excel serial
// date.
func (p *TimestampParser) Parse(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrUnparseable)
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && !strings.ContainsAny(s, "eE") {
		if serial >= 1 && serial <= maxExcelSerial {
			t, err := excelize.ExcelDateToTime(serial, false)
			if err == nil {
				return t.UTC(), nil
			}
		}
		if len(s) != len("20060102") {
			return time.Time{}, fmt.Errorf("%w: serial %s out of range", ErrUnparseable, s)
		}
	}
	for _, layout := range p.layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseable, s)
}
