package scraping

import (
	"fmt"
	"strconv"
	"strings"

	"room-availability/config"
)

const (
	checkInPlaceholder  = "{in}"
	checkOutPlaceholder = "{out}"
)

// URLTemplate is a booking results deep link with check-in and check-out
// placeholders.
type URLTemplate struct {
	raw string
}

type occupancy struct {
	key   string
	value int
	min   int
	param string
}

// NewURLTemplate builds the deep link for the configured hotel and occupancy.
// Adults are mandatory; children and infants are only sent when present.
func NewURLTemplate(cfg config.DatesFinder) (URLTemplate, error) {
	var b strings.Builder
	b.WriteString(cfg.BaseURL)
	if strings.Contains(cfg.BaseURL, "?") {
		b.WriteString("&")
	} else {
		b.WriteString("?")
	}
	fmt.Fprintf(&b, "lang=%s&hotel=%d&In=%s&Out=%s&Rooms=%d",
		cfg.Lang, cfg.Hotel, checkInPlaceholder, checkOutPlaceholder, cfg.Rooms)

	for _, o := range []occupancy{
		{key: "num_adults", value: cfg.NumAdults, min: 1, param: "Ad1"},
		{key: "num_children", value: cfg.NumChildren, min: 0, param: "Ch1"},
		{key: "num_infants", value: cfg.NumInfants, min: 0, param: "Inf1"},
	} {
		if o.value < o.min {
			return URLTemplate{}, fmt.Errorf("%w: %s must be >= %d", config.ErrInvalidConfig, o.key, o.min)
		}
		if o.value > 0 {
			b.WriteString("&" + o.param + "=" + strconv.Itoa(o.value))
		}
	}

	return URLTemplate{raw: b.String()}, nil
}

// Expand substitutes the range's dates into the template.
func (t URLTemplate) Expand(r config.DateRange) string {
	return strings.NewReplacer(
		checkInPlaceholder, r.CheckIn.String(),
		checkOutPlaceholder, r.CheckOut.String(),
	).Replace(t.raw)
}

func (t URLTemplate) String() string {
	return t.raw
}
