// internal/domain/expand.go
package domain

import "sort"

// PlannedExercise is one (date, exercise template) pair produced by template
// expansion: what should exist for that calendar day, independent of what
// already exists in storage.
type PlannedExercise struct {
	Date     ISODate
	Template ExerciseTemplate
}

// ExpandTemplate materializes a weekly template over [start, end] inclusive.
// For each day in the range the matching DayTemplate's exercises are emitted
// in OrderIndex order; rest days (no exercise templates) and weekdays with no
// matching entry contribute nothing. Pure and deterministic: no I/O, same
// output for the same inputs.
func ExpandTemplate(template []DayTemplate, start, end ISODate) []PlannedExercise {
	byWeekday := make(map[int][]ExerciseTemplate, len(template))
	for _, day := range template {
		if len(day.ExerciseTemplates) == 0 {
			continue
		}
		exercises := make([]ExerciseTemplate, len(day.ExerciseTemplates))
		copy(exercises, day.ExerciseTemplates)
		sort.SliceStable(exercises, func(i, j int) bool {
			return exercises[i].OrderIndex < exercises[j].OrderIndex
		})
		byWeekday[day.DayOfWeek] = exercises
	}

	var planned []PlannedExercise
	for _, date := range DatesBetween(start, end) {
		for _, tmpl := range byWeekday[date.DayOfWeek()] {
			planned = append(planned, PlannedExercise{Date: date, Template: tmpl})
		}
	}
	return planned
}
