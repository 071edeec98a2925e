package scraping

import (
	"strings"

	"room-availability/config"
)

const (
	messageGreeting = "שלום!"
	messageIntro    = "התאריכים הבאים פנויים להזמנה בחורשת טל:"
	messageSignoff  = "להתראות!"
)

// FormatMessage renders the notification body: every available range in
// display form followed by its booking link.
func FormatMessage(tmpl URLTemplate, available []config.DateRange) string {
	lines := make([]string, 0, 2*len(available)+3)
	lines = append(lines, messageGreeting, messageIntro)
	for _, r := range available {
		lines = append(lines, r.String(), tmpl.Expand(r))
	}
	lines = append(lines, messageSignoff)
	return strings.Join(lines, "\n")
}
