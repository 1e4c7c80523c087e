package features

import (
	"reflect"
	"testing"

	"github.com/benvon/postpilot/internal/models"
)

func TestEncode(t *testing.T) {
	t.Parallel()

	var mediaTypes, niches models.Vocabulary
	mediaTypes.Extend("image")
	mediaTypes.Extend("video")
	niches.Extend("fitness")

	tests := []struct {
		name string
		row  Row
		want []float64
	}{
		{
			name: "known categories",
			row: Row{
				MediaType:     "video",
				Niche:         "fitness",
				Hour:          18,
				DayOfWeek:     5,
				HashtagCount:  4,
				CaptionLength: 80,
			},
			want: []float64{1, 0, 18, 5, 4, 80},
		},
		{
			name: "unseen categories map to the unknown code",
			row: Row{
				MediaType:     "hologram",
				Niche:         "astrology",
				Hour:          9,
				DayOfWeek:     1,
				HashtagCount:  0,
				CaptionLength: 0,
			},
			want: []float64{models.UnknownCode, models.UnknownCode, 9, 1, 0, 0},
		},
		{
			name: "zero row",
			row:  Row{MediaType: "image", Niche: "fitness"},
			want: []float64{0, 0, 0, 0, 0, 0},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Encode(&mediaTypes, &niches, tt.row)
			if len(got) != Width {
				t.Fatalf("Vector length = %d, want %d", len(got), Width)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Encode = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEncode_DoesNotMutateVocabularies(t *testing.T) {
	t.Parallel()

	var mediaTypes, niches models.Vocabulary
	mediaTypes.Extend("image")

	Encode(&mediaTypes, &niches, Row{MediaType: "hologram", Niche: "astrology"})

	if mediaTypes.Len() != 1 {
		t.Errorf("Encoding extended the media vocabulary: Len = %d, want 1", mediaTypes.Len())
	}
	if niches.Len() != 0 {
		t.Errorf("Encoding extended the niche vocabulary: Len = %d, want 0", niches.Len())
	}
}
