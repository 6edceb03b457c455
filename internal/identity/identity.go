// Package identity produces deterministic, collision-resistant IDs for
// meetings and matters. Every function here is a pure function of its
// inputs: same arguments always produce the same ID, which is what lets
// re-ingesting the same vendor record be a no-op instead of a duplicate.
package identity

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMissingMatterIdentifier is returned when neither matterFile nor
// matterID is supplied to GenerateMatterID.
var ErrMissingMatterIdentifier = errors.New("identity: at least one of matter_file or matter_id must be provided")

var matterIDPattern = regexp.MustCompile(`^[A-Za-z0-9]+_[0-9a-f]{16}$`)

// GenerateMatterID builds the composite matter ID "{banana}_{hash}" where
// hash is the first 16 hex characters of SHA-256("{banana}:{matterFile}:{matterID}").
// matterFile and matterID may each be empty, but not both.
func GenerateMatterID(banana, matterFile, matterID string) (string, error) {
	if matterFile == "" && matterID == "" {
		return "", ErrMissingMatterIdentifier
	}
	key := fmt.Sprintf("%s:%s:%s", banana, matterFile, matterID)
	sum := sha256.Sum256([]byte(key))
	hash := hex.EncodeToString(sum[:])[:16]
	return fmt.Sprintf("%s_%s", banana, hash), nil
}

// GenerateMeetingID builds "{banana}_{8-char-MD5}" over
// "{banana}:{vendorID}:{dateISO}:{title}". dateISO may be empty when the
// vendor record carries no parseable date.
func GenerateMeetingID(banana, vendorID, dateISO, title string) string {
	key := fmt.Sprintf("%s:%s:%s:%s", banana, vendorID, dateISO, title)
	sum := md5.Sum([]byte(key))
	return fmt.Sprintf("%s_%s", banana, hex.EncodeToString(sum[:])[:8])
}

// ValidateMatterID reports whether id matches the matter ID shape
// {banana}_{16-hex}.
func ValidateMatterID(id string) bool {
	return matterIDPattern.MatchString(id)
}

// BananaFromMatterID extracts the banana prefix of a matter ID, splitting
// on the last underscore. Returns false if id is not a valid matter ID.
func BananaFromMatterID(id string) (string, bool) {
	if !ValidateMatterID(id) {
		return "", false
	}
	idx := strings.LastIndex(id, "_")
	return id[:idx], true
}

// MatterIDsEqual reports whether two (matterFile, matterID) identifier
// pairs for the same banana resolve to the same matter ID. Useful when
// vendor data is noisy about which of the two fields it populates.
func MatterIDsEqual(banana, matterFile1, matterID1, matterFile2, matterID2 string) bool {
	id1, err1 := GenerateMatterID(banana, matterFile1, matterID1)
	id2, err2 := GenerateMatterID(banana, matterFile2, matterID2)
	if err1 != nil || err2 != nil {
		return false
	}
	return id1 == id2
}

const minNormalizedTitleLength = 30

// readingPrefixes are stripped from the front of a title before it is
// hashed as a last-resort matter key. At most one is stripped: the first
// entry in this list that the title starts with.
var readingPrefixes = []string{
	"first reading:",
	"second reading:",
	"third reading:",
	"final reading:",
	"public hearing:",
	"reintroduced:",
}

// genericTitleStopList holds titles that are never worth tracking as a
// matter even if they happen to be long enough, because they recur on
// nearly every agenda without identifying a distinct piece of business.
var genericTitleStopList = map[string]struct{}{
	"public comment":       {},
	"closed session":       {},
	"adjournment":          {},
	"roll call":            {},
	"approval of minutes":  {},
	"approval of the minutes": {},
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeTitleForMatterID implements the last-resort matter key: used
// only when a vendor item supplies neither matter_file nor matter_id.
// It lowercases the title, strips a recognized "reading" prefix,
// collapses internal whitespace, and rejects titles that are too short
// or appear on the generic stop-list. Callers must be prepared for
// ok == false, in which case the item is not tracked as a matter.
func NormalizeTitleForMatterID(title string) (key string, ok bool) {
	t := strings.ToLower(strings.TrimSpace(title))
	stripped := false
	for _, prefix := range readingPrefixes {
		if strings.HasPrefix(t, prefix) {
			t = strings.TrimSpace(t[len(prefix):])
			stripped = true
			break
		}
	}
	// "Reintroduced" headings may carry a date or note before the colon
	// ("reintroduced 3/4/2026: ..."); everything up to that colon goes.
	if !stripped && strings.HasPrefix(t, "reintroduced") {
		if i := strings.IndexByte(t, ':'); i >= 0 {
			t = strings.TrimSpace(t[i+1:])
		}
	}
	t = whitespaceRun.ReplaceAllString(t, " ")
	if _, generic := genericTitleStopList[t]; generic {
		return "", false
	}
	if len([]rune(t)) < minNormalizedTitleLength {
		return "", false
	}
	return t, true
}
