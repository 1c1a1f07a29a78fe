package attendance

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	isoDateRegex = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	dmyDateRegex = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)

	ErrInvalidDate = errors.New("invalid date")
)

// ParseDate accepts dd/mm/yyyy, dd.mm.yyyy (trailing separators and spaces tolerated) and yyyy-mm-dd.
func ParseDate(s string) (time.Time, error) {
	s = strings.Join(strings.Fields(s), "")
	s = strings.TrimRight(strings.ReplaceAll(s, ".", "/"), "/")

	var y, m, d string
	if parts := isoDateRegex.FindStringSubmatch(s); parts != nil {
		y, m, d = parts[1], parts[2], parts[3]
	} else if parts = dmyDateRegex.FindStringSubmatch(s); parts != nil {
		d, m, y = parts[1], parts[2], parts[3]
	} else {
		return time.Time{}, ErrInvalidDate
	}

	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalises 31/02 to March
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// FormatDate formats t the way dates are stored: dd/mm/yyyy.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%02d/%02d/%04d", t.Day(), int(t.Month()), t.Year())
}

// NormalizeDate rewrites any accepted date format as dd/mm/yyyy.
func NormalizeDate(s string) (string, error) {
	t, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	return FormatDate(t), nil
}
