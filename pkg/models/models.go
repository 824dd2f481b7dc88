package models

import "time"

// Catalog is the root output document: one group per category page, in discovery order
type Catalog []ExerciseCategoryGroup

// ExerciseCategoryGroup holds everything harvested from one muscle-group category page
type ExerciseCategoryGroup struct {
	SourceURL   string             `json:"-" yaml:"-"`                      // Category page the group was harvested from
	MuscleGroup string             `json:"muscleGroup" yaml:"muscle_group"` // Page title minus its trailing word
	Muscles     []MuscleSubsection `json:"muscles" yaml:"muscles"`          // One entry per heading/container pair
	Warnings    []string           `json:"-" yaml:"-"`                      // Structural drift noticed while harvesting
}

// MuscleSubsection is one muscle's free exercises within a category page.
// ExerciseURLs is fixed after harvesting; Exercises has the same length and is filled slot by slot.
type MuscleSubsection struct {
	Name         string           `json:"name" yaml:"name"`
	ExerciseURLs []string         `json:"-" yaml:"-"`
	Exercises    []ExerciseDetail `json:"exercises" yaml:"exercises"`
}

// ExerciseDetail is the data extracted from a single exercise page
type ExerciseDetail struct {
	URL            string         `json:"-" yaml:"-"` // Source page; not part of the output document
	Name           string         `json:"name" yaml:"name"`
	TargetMuscles  []string       `json:"targetMuscles" yaml:"target_muscles"`
	Classification Classification `json:"classification" yaml:"classification"`
}

// Classification is the (utility, mechanics, force) triple of an exercise.
// Fields missing from the page stay empty and are omitted on output.
type Classification struct {
	Utility   string `json:"utility,omitempty" yaml:"utility,omitempty"`
	Mechanics string `json:"mechanics,omitempty" yaml:"mechanics,omitempty"`
	Force     string `json:"force,omitempty" yaml:"force,omitempty"`
}

// ExerciseCount returns the number of exercise links harvested across all groups
func (c Catalog) ExerciseCount() int {
	total := 0
	for _, group := range c {
		total += group.ExerciseCount()
	}
	return total
}

// ExerciseCount returns the number of exercise links in the group
func (g ExerciseCategoryGroup) ExerciseCount() int {
	total := 0
	for _, muscle := range g.Muscles {
		total += len(muscle.ExerciseURLs)
	}
	return total
}

// ExerciseDBEntry stores the outcome of fetching one exercise page in the state database
type ExerciseDBEntry struct {
	Status      ExerciseStatus `json:"status"`
	RunID       string         `json:"run_id"`
	ErrorType   string         `json:"error_type,omitempty"` // Error category (on failure)
	LastAttempt time.Time      `json:"last_attempt"`
}

// RunRecord summarises one completed pipeline run
type RunRecord struct {
	RunID         string    `json:"run_id"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Categories    int       `json:"categories"`
	Exercises     int       `json:"exercises"`
	FailedFetches int       `json:"failed_fetches"`
	Warnings      []string  `json:"warnings,omitempty"`
	OutputPath    string    `json:"output_path,omitempty"`
	OutputSHA256  string    `json:"output_sha256,omitempty"`
}
