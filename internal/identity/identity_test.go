package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateMatterID_Determinism(t *testing.T) {
	id1, err := GenerateMatterID("nashvilleTN", "BL2025-1098", "")
	require.NoError(t, err)

	id2, err := GenerateMatterID("nashvilleTN", "BL2025-1098", "")
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "same inputs must always produce the same id")
	assert.True(t, ValidateMatterID(id1))
}

func TestGenerateMatterID_CrossCityUniqueness(t *testing.T) {
	id1, err := GenerateMatterID("nashvilleTN", "BL2025-1", "")
	require.NoError(t, err)

	id2, err := GenerateMatterID("memphisTN", "BL2025-1", "")
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2, "same matter_file across cities must not collide")
}

func TestGenerateMatterID_RequiresAnIdentifier(t *testing.T) {
	_, err := GenerateMatterID("paloaltoCA", "", "")
	assert.ErrorIs(t, err, ErrMissingMatterIdentifier)
}

func TestGenerateMatterID_FileTakesPrecedenceButBothContribute(t *testing.T) {
	withFile, err := GenerateMatterID("paloaltoCA", "BL-1", "")
	require.NoError(t, err)

	withBoth, err := GenerateMatterID("paloaltoCA", "BL-1", "vendor-9")
	require.NoError(t, err)

	assert.NotEqual(t, withFile, withBoth, "matter_id still contributes to the hash when both are present")
}

func TestGenerateMeetingID_Determinism(t *testing.T) {
	id1 := GenerateMeetingID("paloaltoCA", "12345", "2026-03-05", "City Council")
	id2 := GenerateMeetingID("paloaltoCA", "12345", "2026-03-05", "City Council")
	assert.Equal(t, id1, id2)
	assert.Regexp(t, `^paloaltoCA_[0-9a-f]{8}$`, id1)
}

func TestGenerateMeetingID_DifferentInputsDiffer(t *testing.T) {
	base := GenerateMeetingID("paloaltoCA", "12345", "2026-03-05", "City Council")
	diffDate := GenerateMeetingID("paloaltoCA", "12345", "2026-03-06", "City Council")
	diffTitle := GenerateMeetingID("paloaltoCA", "12345", "2026-03-05", "Planning Commission")

	assert.NotEqual(t, base, diffDate)
	assert.NotEqual(t, base, diffTitle)
}

func TestValidateMatterID(t *testing.T) {
	good, err := GenerateMatterID("sanfranciscoCA", "251041", "")
	require.NoError(t, err)

	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"valid", good, true},
		{"empty", "", false},
		{"no underscore", "sanfranciscoCA2511041", false},
		{"short hash", "sanfranciscoCA_ab12", false},
		{"non-hex hash", "sanfranciscoCA_zzzzzzzzzzzzzzzz", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateMatterID(tt.id))
		})
	}
}

func TestBananaFromMatterID(t *testing.T) {
	id, err := GenerateMatterID("nashvilleTN", "BL2025-1098", "")
	require.NoError(t, err)

	banana, ok := BananaFromMatterID(id)
	assert.True(t, ok)
	assert.Equal(t, "nashvilleTN", banana)

	_, ok = BananaFromMatterID("not-a-matter-id")
	assert.False(t, ok)
}

func TestMatterIDsEqual(t *testing.T) {
	assert.True(t, MatterIDsEqual("nashvilleTN", "BL2025-1098", "", "BL2025-1098", ""))
	assert.False(t, MatterIDsEqual("nashvilleTN", "BL2025-1098", "", "BL2025-1099", ""))
}

func TestNormalizeTitleForMatterID(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		wantKey string
		wantOK  bool
	}{
		{
			name:    "strips reading prefix and normalizes case",
			title:   "FIRST READING: An Ordinance Amending the Zoning Code for Downtown Parcels",
			wantKey: "an ordinance amending the zoning code for downtown parcels",
			wantOK:  true,
		},
		{
			name:   "rejects short titles",
			title:  "Adjourn",
			wantOK: false,
		},
		{
			name:   "rejects stop-list titles even if reading-prefixed",
			title:  "FIRST READING: Public Comment",
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := NormalizeTitleForMatterID(tt.title)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantKey, key)
			}
		})
	}
}
