package models

// UnknownCode is the reserved code for category values never seen during
// training. It is distinct from every assigned code, so novel inference-time
// input degrades gracefully instead of failing.
const UnknownCode = -1

// Vocabulary is an append-only mapping from a categorical value to a stable
// integer code. The code of a value is its index in Values: first-seen values
// get the next code, and a code is never reused or reassigned. The table is
// slice-backed so serialized artifacts are byte-stable across encodes.
type Vocabulary struct {
	Values []string `json:"values"`
}

// Code returns the code assigned to value, or UnknownCode if the value has
// never been seen.
func (v *Vocabulary) Code(value string) int {
	for i, existing := range v.Values {
		if existing == value {
			return i
		}
	}
	return UnknownCode
}

// Extend assigns the next code to value if it is unseen and returns the
// value's code. Existing codes are never changed.
func (v *Vocabulary) Extend(value string) int {
	if code := v.Code(value); code != UnknownCode {
		return code
	}
	v.Values = append(v.Values, value)
	return len(v.Values) - 1
}

// Len returns the number of assigned codes.
func (v *Vocabulary) Len() int {
	return len(v.Values)
}

// Clone returns an independent copy of the vocabulary.
func (v *Vocabulary) Clone() Vocabulary {
	values := make([]string, len(v.Values))
	copy(values, v.Values)
	return Vocabulary{Values: values}
}
