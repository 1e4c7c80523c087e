package models

// Bounds for prediction request fields.
const (
	MinHour         = 0
	MaxHour         = 23
	MinDayOfWeek    = 0
	MaxDayOfWeek    = 6
	MinHashtagCount = 0
	MaxHashtagCount = 30
)

// PredictionRequest is a candidate post to forecast engagement for.
type PredictionRequest struct {
	UserID       string `json:"user_id" validate:"required"`
	Caption      string `json:"caption"`
	MediaType    string `json:"media_type" validate:"required"`
	Hour         int    `json:"hour" validate:"posting_hour"`
	DayOfWeek    int    `json:"day_of_week" validate:"weekday_index"`
	HashtagCount int    `json:"hashtag_count" validate:"min=0,max=30"`
	Niche        string `json:"niche"`
}

// Validate checks the request's field ranges. Category values are not
// restricted here: unseen media types and niches map to the reserved unknown
// code at encode time instead of failing.
func (r *PredictionRequest) Validate() error {
	if r.UserID == "" {
		return NewValidationError("user_id", "must not be empty")
	}
	if r.MediaType == "" {
		return NewValidationError("media_type", "must not be empty")
	}
	if r.Hour < MinHour || r.Hour > MaxHour {
		return NewValidationError("hour", "must be between 0 and 23")
	}
	if r.DayOfWeek < MinDayOfWeek || r.DayOfWeek > MaxDayOfWeek {
		return NewValidationError("day_of_week", "must be between 0 and 6")
	}
	if r.HashtagCount < MinHashtagCount || r.HashtagCount > MaxHashtagCount {
		return NewValidationError("hashtag_count", "must be between 0 and 30")
	}
	return nil
}

// PredictionResult is the forecast for a candidate post. All metrics are
// clamped to non-negative integers before the result leaves the service.
type PredictionResult struct {
	Likes        int `json:"likes"`
	Comments     int `json:"comments"`
	NewFollowers int `json:"new_followers"`
	ModelVersion int `json:"model_version"`
}
