package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParticipationInfo_Empty(t *testing.T) {
	assert.Nil(t, ParseParticipationInfo(""))
	assert.Nil(t, ParseParticipationInfo("no contact info whatsoever, just agenda text"))
}

func TestParseParticipationInfo_Email(t *testing.T) {
	info := ParseParticipationInfo("Submit written comments to cityclerk@example.gov before the meeting.")
	require.NotNil(t, info)
	assert.Equal(t, "cityclerk@example.gov", info.Email)
}

func TestParseParticipationInfo_FiltersSpamEmails(t *testing.T) {
	info := ParseParticipationInfo("Contact us at noreply@example.com for more information.")
	assert.Nil(t, info)
}

func TestParseParticipationInfo_Phone(t *testing.T) {
	info := ParseParticipationInfo("Join by phone: 1-669-900-6833 during the meeting.")
	require.NotNil(t, info)
	assert.Equal(t, "+16699006833", info.Phone)
}

func TestParseParticipationInfo_VirtualAndStreaming(t *testing.T) {
	text := "Join via https://zoom.us/j/1234567890 or watch live on https://www.youtube.com/watch?v=abc123."
	info := ParseParticipationInfo(text)
	require.NotNil(t, info)
	assert.Contains(t, info.VirtualURL, "zoom.us")
	require.Len(t, info.StreamingURLs, 1)
	assert.Contains(t, info.StreamingURLs[0], "youtube.com")
}

func TestExtractMeetingID(t *testing.T) {
	assert.Equal(t, "362 027 238", ExtractMeetingID("Zoom Meeting ID: 362 027 238"))
	assert.Equal(t, "", ExtractMeetingID("no meeting id here"))
}
