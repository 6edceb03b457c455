// Package parsing extracts structured public-participation information
// (contact email, phone, virtual meeting link, streaming links) from raw
// agenda/packet text, ahead of summarization. Ported from
// original_source/parsing/participation.py, simplified to the fields
// models.Participation actually carries: one primary email and phone
// rather than a full per-address context list, and a flat list of
// streaming URLs rather than platform-tagged structs.
package parsing

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/engagic/core/internal/models"
)

var (
	emailPattern = regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	// phonePatterns is tried in order, first match wins, mirroring the
	// original's "Phone: ..." prefix match before the bare-digits forms.
	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)phone[:\s]+\+?1?[\s.-]?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}`),
		regexp.MustCompile(`(?i)\+?1?\s*\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}`),
		regexp.MustCompile(`\b\d{3}-\d{3}-\d{4}\b`),
	}

	phoneDigits = regexp.MustCompile(`\D`)

	urlPattern = regexp.MustCompile(`(?i)https?://[^\s<>"{}|\\^` + "`" + `\[\]]+`)

	meetingIDPattern = regexp.MustCompile(`(?i)meeting\s*id[:\s]+(\d{3}[\s-]?\d{3}[\s-]?\d{3,4})`)
)

var spamEmailMarkers = []string{"example.com", "test@", "noreply"}

var virtualDomains = []string{"zoom.us", "meet.google.com", "teams.microsoft.com", "webex.com", "gotomeeting.com"}

var streamingDomains = []string{"youtube.com", "youtu.be", "facebook.com", "granicus.com", "midpenmedia.org", "vimeo.com"}

// ParseParticipationInfo extracts contact and streaming details from
// text, or returns nil if nothing was found. Callers typically pass the
// first few thousand characters of an agenda PDF (spec §4.5.1 step 1)
// or the combined text of a meeting's first/last processed item (spec
// §4.5.1 step 7).
func ParseParticipationInfo(text string) *models.Participation {
	if text == "" {
		return nil
	}

	info := &models.Participation{}
	found := false

	if email, ok := findEmail(text); ok {
		info.Email = email
		found = true
	}

	if phone, ok := findPhone(text); ok {
		info.Phone = phone
		found = true
	}

	virtualURL, streamingURLs := findURLs(text)
	if virtualURL != "" {
		info.VirtualURL = virtualURL
		found = true
	}
	if len(streamingURLs) > 0 {
		info.StreamingURLs = streamingURLs
		found = true
	}

	if !found {
		return nil
	}
	return info
}

func findEmail(text string) (string, bool) {
	for _, candidate := range emailPattern.FindAllString(text, -1) {
		lower := strings.ToLower(candidate)
		spam := false
		for _, marker := range spamEmailMarkers {
			if strings.Contains(lower, marker) {
				spam = true
				break
			}
		}
		if !spam {
			return candidate, true
		}
	}
	return "", false
}

func findPhone(text string) (string, bool) {
	for _, pattern := range phonePatterns {
		match := pattern.FindString(text)
		if match == "" {
			continue
		}
		digits := phoneDigits.ReplaceAllString(match, "")
		switch {
		case len(digits) == 10:
			return "+1" + digits, true
		case len(digits) == 11 && strings.HasPrefix(digits, "1"):
			return "+" + digits, true
		}
		return digits, true
	}
	return "", false
}

func findURLs(text string) (virtualURL string, streamingURLs []string) {
	for _, raw := range urlPattern.FindAllString(text, -1) {
		clean := strings.TrimRight(raw, ".,;:)")
		parsed, err := url.Parse(clean)
		if err != nil {
			continue
		}
		host := parsed.Host

		if virtualURL == "" {
			for _, domain := range virtualDomains {
				if strings.Contains(host, domain) {
					virtualURL = clean
					break
				}
			}
		}

		for _, domain := range streamingDomains {
			if strings.Contains(host, domain) {
				streamingURLs = append(streamingURLs, clean)
				break
			}
		}
	}
	return virtualURL, streamingURLs
}

// ExtractMeetingID pulls a virtual-meeting numeric ID (e.g. a Zoom
// meeting ID) out of text, returning "" if none is present.
func ExtractMeetingID(text string) string {
	m := meetingIDPattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}
