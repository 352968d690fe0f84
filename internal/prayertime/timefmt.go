package prayertime

import (
	"regexp"
	"strings"
)

var (
	meridiemSuffix = regexp.MustCompile(`(?i)\s*(AM|PM)$`)
	singleDigitHH  = regexp.MustCompile(`^\d:\d{2}$`)
	clockTime      = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// FormatTimeTo24Hour cleans an upstream timing such as "4:58 (+06)" or
// "05:30 AM" down to "HH:mm". The meridiem is dropped, not applied: the
// upstream already reports 24-hour values. Input that still does not look
// like a clock time after cleaning is returned as cleaned.
func FormatTimeTo24Hour(raw string) string {
	s := strings.TrimSpace(raw)
	s = meridiemSuffix.ReplaceAllString(s, "")
	if i := strings.Index(s, "("); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	if singleDigitHH.MatchString(s) {
		return "0" + s
	}
	return s
}

// IsClockTime reports whether s is exactly HH:mm with a valid hour and minute.
func IsClockTime(s string) bool {
	if !clockTime.MatchString(s) {
		return false
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	return h < 24 && m < 60
}
