// Package features turns raw post attributes into numeric feature vectors.
// Encoding is a pure function of the vocabularies and the row: no hidden
// state, no mutation. Extending vocabularies with newly observed categories
// is the training pipeline's job, never the encoder's.
package features

import "github.com/benvon/postpilot/internal/models"

// Width is the number of features in an encoded vector.
const Width = 6

// Feature vector layout.
const (
	FeatureMediaType = iota
	FeatureNiche
	FeatureHour
	FeatureDayOfWeek
	FeatureHashtagCount
	FeatureCaptionLength
)

// Row is one post's raw attributes, already derived and bounds-checked by the
// caller.
type Row struct {
	MediaType     string
	Niche         string
	Hour          int
	DayOfWeek     int
	HashtagCount  int
	CaptionLength int
}

// Encode maps a row to its feature vector. Categorical fields go through the
// append-only vocabularies; values the vocabularies have never seen map to
// the reserved unknown code. Numeric fields pass through unchanged.
func Encode(mediaTypes, niches *models.Vocabulary, row Row) []float64 {
	return []float64{
		FeatureMediaType:     float64(mediaTypes.Code(row.MediaType)),
		FeatureNiche:         float64(niches.Code(row.Niche)),
		FeatureHour:          float64(row.Hour),
		FeatureDayOfWeek:     float64(row.DayOfWeek),
		FeatureHashtagCount:  float64(row.HashtagCount),
		FeatureCaptionLength: float64(row.CaptionLength),
	}
}
