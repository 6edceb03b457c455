package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatterFilter_IsProcedural(t *testing.T) {
	f := NewMatterFilter()

	cases := []struct {
		title      string
		matterType string
		want       bool
	}{
		{"Public Comment", "", true},
		{"  public comment  ", "", true},
		{"Closed Session", "", true},
		{"Ordinance Amending the Zoning Code", "", false},
		{"Presentation on Budget", "presentation", true},
		{"Resolution 2026-14", "ceremonial", true},
		{"Resolution 2026-14", "ordinance", false},
	}
	for _, tc := range cases {
		got := f.IsProcedural(tc.title, tc.matterType)
		assert.Equalf(t, tc.want, got, "title=%q matterType=%q", tc.title, tc.matterType)
	}
}
