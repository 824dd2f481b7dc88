package models

// ExerciseStatus represents the fetch outcome of an exercise page in the state database
type ExerciseStatus string

const (
	ExerciseStatusUnset    ExerciseStatus = ""          // Zero value = unset/unknown
	ExerciseStatusSuccess  ExerciseStatus = "success"   // Page fetched and parsed
	ExerciseStatusFailure  ExerciseStatus = "failure"   // Fetch failed; detail holds empty fields
	ExerciseStatusNotFound ExerciseStatus = "not_found" // URL not in database
	ExerciseStatusDBError  ExerciseStatus = "db_error"  // Database error occurred
)

// String implements fmt.Stringer for logging
func (s ExerciseStatus) String() string {
	if s == "" {
		return "unset"
	}
	return string(s)
}

// IsValid returns true if the status is a known operational value
func (s ExerciseStatus) IsValid() bool {
	switch s {
	case ExerciseStatusSuccess, ExerciseStatusFailure:
		return true
	}
	return false
}
