package inventory

import "time"

// DateLayout is the wire format for civil dates
const DateLayout = "2006-01-02"

// CivilDate truncates t to midnight UTC of its calendar day in t's own location.
// All batch dates are stored and compared in this form.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseCivilDate parses a YYYY-MM-DD string
func ParseCivilDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// DaysBetween returns the whole number of days from -> to (negative if to is earlier)
func DaysBetween(from, to time.Time) int {
	return int(CivilDate(to).Sub(CivilDate(from)).Hours() / 24)
}
