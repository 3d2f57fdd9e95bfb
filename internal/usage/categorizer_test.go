package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"wellsync/internal/types"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		id       string
		expected types.Category
	}{
		{"com.instagram.android", types.CategorySocial},
		{"com.WhatsApp", types.CategorySocial},
		{"com.google.android.youtube", types.CategoryEntertainment},
		{"com.spotify.music", types.CategoryEntertainment},
		{"com.google.android.gm", types.CategoryProductivity},
		{"com.slack", types.CategoryProductivity},
		{"com.zenflow.app", types.CategoryHealth},
		{"com.strava", types.CategoryHealth},
		{"com.android.chrome", types.CategoryOther},
		{"", types.CategoryOther},
		{"???", types.CategoryOther},
		// social is checked before entertainment
		{"social.video.app", types.CategorySocial},
		// entertainment is checked before health
		{"music.for.sleep", types.CategoryEntertainment},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.expected, Categorize(tt.id))
		})
	}
}

func TestCategorize_IsTotalAndStable(t *testing.T) {
	inputs := []string{"", " ", "a", "ÄÖÜ", "com.example.x", "\x00\xff", "FACEBOOK", "fit", "com.zoom.us"}
	for _, in := range inputs {
		first := Categorize(in)
		assert.True(t, first.IsValid(), "category %q for %q is not one of the fixed values", first, in)
		for i := 0; i < 3; i++ {
			assert.Equal(t, first, Categorize(in))
		}
	}
}
