package vendoradapter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeetingRecord_ValidateAll(t *testing.T) {
	tests := []struct {
		name    string
		rec     MeetingRecord
		wantErr []error
	}{
		{
			name: "valid minimal record",
			rec: MeetingRecord{
				MeetingID: "12345",
				Title:     "City Council",
				AgendaURL: "https://example.gov/agenda.html",
			},
		},
		{
			name: "missing meeting id and url",
			rec: MeetingRecord{
				Title: "City Council",
			},
			wantErr: []error{ErrMissingMeetingID, ErrMissingURL},
		},
		{
			name: "item missing id and negative sequence",
			rec: MeetingRecord{
				MeetingID: "1",
				Title:     "x",
				AgendaURL: "https://example.gov/a.html",
				Items: []ItemRecord{
					{Title: "Something", Sequence: -1},
				},
			},
			wantErr: []error{ErrMissingItemID, ErrNegativeSequence},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.rec.ValidateAll()
			assert.Len(t, errs, len(tt.wantErr))
		})
	}
}

func TestPacketURL_JSONRoundTrip(t *testing.T) {
	t.Run("single string", func(t *testing.T) {
		var rec MeetingRecord
		require.NoError(t, json.Unmarshal([]byte(`{"packet_url":"https://example.gov/p.pdf"}`), &rec))
		assert.Equal(t, PacketURL{"https://example.gov/p.pdf"}, rec.PacketURL)

		b, err := json.Marshal(rec.PacketURL)
		require.NoError(t, err)
		assert.JSONEq(t, `"https://example.gov/p.pdf"`, string(b))
	})

	t.Run("array of strings", func(t *testing.T) {
		var rec MeetingRecord
		require.NoError(t, json.Unmarshal([]byte(`{"packet_url":["a.pdf","b.pdf"]}`), &rec))
		assert.Equal(t, PacketURL{"a.pdf", "b.pdf"}, rec.PacketURL)
	})
}

func TestParseStart(t *testing.T) {
	tests := []struct {
		name  string
		start string
		ok    bool
	}{
		{"iso date", "2026-03-05", true},
		{"rfc3339", "2026-03-05T18:00:00Z", true},
		{"empty is permitted", "", false},
		{"garbage is permitted, not an error", "whenever works", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ParseStart(tt.start)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
