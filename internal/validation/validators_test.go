package validation

import "testing"

type hourFixture struct {
	Hour int `validate:"posting_hour"`
}

type weekdayFixture struct {
	Day int `validate:"weekday_index"`
}

func TestPostingHourValidator(t *testing.T) {
	t.Parallel()

	tests := []struct {
		hour    int
		wantErr bool
	}{
		{hour: 0},
		{hour: 12},
		{hour: 23},
		{hour: -1, wantErr: true},
		{hour: 24, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		err := Validate.Struct(hourFixture{Hour: tt.hour})
		if (err != nil) != tt.wantErr {
			t.Errorf("hour %d: err = %v, wantErr %v", tt.hour, err, tt.wantErr)
		}
	}
}

func TestWeekdayIndexValidator(t *testing.T) {
	t.Parallel()

	tests := []struct {
		day     int
		wantErr bool
	}{
		{day: 0},
		{day: 6},
		{day: -1, wantErr: true},
		{day: 7, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		err := Validate.Struct(weekdayFixture{Day: tt.day})
		if (err != nil) != tt.wantErr {
			t.Errorf("day %d: err = %v, wantErr %v", tt.day, err, tt.wantErr)
		}
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "trims whitespace", in: "  leg day  ", want: "leg day"},
		{name: "drops control characters", in: "leg\x00day", want: "legday"},
		{name: "keeps newlines and tabs", in: "leg\n\tday", want: "leg\n\tday"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := SanitizeText(tt.in); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
