package util

import (
	"regexp"
	"strings"
)

var nonDigits = regexp.MustCompile(`[^\d\+]+`)

// NormalizeMSISDN normalizes user input into the 2547XXXXXXXX format the
// Daraja API uses for MSISDNs. Accepts local (07..), E.164 (+2547..) and
// bare international (2547..) forms.
func NormalizeMSISDN(raw string) string {
	s := strings.TrimSpace(raw)
	s = nonDigits.ReplaceAllString(s, "")

	if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	if strings.HasPrefix(s, "00") {
		s = s[2:]
	}
	if strings.HasPrefix(s, "0") && len(s) == 10 {
		s = "254" + s[1:]
	} else if strings.HasPrefix(s, "7") && len(s) == 9 {
		s = "254" + s
	}

	return s
}
