package vendoradapter

import "time"

// dateLayouts are tried in order when parsing MeetingRecord.Start.
// ISO-8601 first, per spec §4.4 phase 2, then a handful of the
// locale-variant formats vendor adapters have been observed to emit.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// ParseStart attempts to parse MeetingRecord.Start against each known
// layout in turn. A NULL/unparseable date is permitted by the spec, so
// ParseStart returns (nil, false) rather than an error when nothing
// matches; the caller decides whether that's worth logging.
func ParseStart(start string) (*time.Time, bool) {
	if start == "" {
		return nil, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, start); err == nil {
			return &t, true
		}
	}
	return nil, false
}
