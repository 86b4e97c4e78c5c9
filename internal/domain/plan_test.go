package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func validPlan() *WorkoutPlan {
	return &WorkoutPlan{
		UserID:         primitive.NewObjectID(),
		Name:           "Push Pull Legs",
		Mode:           ModeOngoing,
		WeeklyTemplate: restWeek(),
	}
}

func TestValidateWeeklyTemplate(t *testing.T) {
	t.Run("full week passes", func(t *testing.T) {
		assert.NoError(t, ValidateWeeklyTemplate(restWeek()))
	})

	t.Run("six entries fail", func(t *testing.T) {
		err := ValidateWeeklyTemplate(restWeek()[:6])
		assert.ErrorContains(t, err, "exactly 7")
	})

	t.Run("duplicate day fails", func(t *testing.T) {
		template := restWeek()
		template[6].DayOfWeek = 0
		err := ValidateWeeklyTemplate(template)
		assert.ErrorContains(t, err, "duplicate dayOfWeek")
	})

	t.Run("day out of range fails", func(t *testing.T) {
		template := restWeek()
		template[0].DayOfWeek = 7
		err := ValidateWeeklyTemplate(template)
		assert.ErrorContains(t, err, "out of range")
	})

	t.Run("negative weight fails", func(t *testing.T) {
		template := restWeek()
		template[2].ExerciseTemplates = []ExerciseTemplate{
			{ExerciseID: primitive.NewObjectID(), Weight: -5},
		}
		err := ValidateWeeklyTemplate(template)
		assert.ErrorContains(t, err, "weight")
	})

	t.Run("missing exercise id fails", func(t *testing.T) {
		template := restWeek()
		template[2].ExerciseTemplates = []ExerciseTemplate{{Sets: 3}}
		err := ValidateWeeklyTemplate(template)
		assert.ErrorContains(t, err, "exercise id")
	})
}

func TestWorkoutPlan_Validate(t *testing.T) {
	t.Run("ongoing plan without bounds passes", func(t *testing.T) {
		assert.NoError(t, validPlan().Validate())
	})

	t.Run("dated plan requires start before end", func(t *testing.T) {
		plan := validPlan()
		plan.Mode = ModeDated
		plan.StartDate = "2024-02-01"
		plan.EndDate = "2024-02-29"
		assert.NoError(t, plan.Validate())

		plan.EndDate = "2024-02-01"
		assert.ErrorContains(t, plan.Validate(), "startDate < endDate")

		plan.EndDate = "2024-01-01"
		assert.ErrorContains(t, plan.Validate(), "startDate < endDate")
	})

	t.Run("dated plan requires valid bounds", func(t *testing.T) {
		plan := validPlan()
		plan.Mode = ModeDated
		assert.ErrorContains(t, plan.Validate(), "valid startDate and endDate")
	})

	t.Run("unknown mode fails", func(t *testing.T) {
		plan := validPlan()
		plan.Mode = "weekly"
		assert.ErrorContains(t, plan.Validate(), "unknown plan mode")
	})

	t.Run("missing user fails", func(t *testing.T) {
		plan := validPlan()
		plan.UserID = primitive.NilObjectID
		assert.ErrorContains(t, plan.Validate(), "owning user")
	})
}

func TestGenerationPolicy_Defaults(t *testing.T) {
	var p GenerationPolicy
	assert.Equal(t, DefaultAdvanceDays, p.EffectiveAdvanceDays())
	assert.Equal(t, DefaultBatchSize, p.EffectiveBatchSize())
	assert.True(t, p.PreservesUserModifications())
	assert.True(t, p.AutoGenerationOn())

	off := false
	p.PreserveUserModifications = &off
	p.AutoGenerationEnabled = &off
	assert.False(t, p.PreservesUserModifications())
	assert.False(t, p.AutoGenerationOn())

	p.AdvanceDays = 30
	p.BatchSize = 10
	assert.Equal(t, 30, p.EffectiveAdvanceDays())
	assert.Equal(t, 10, p.EffectiveBatchSize())
}

func TestGenerationPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		policy  GenerationPolicy
		wantErr string
	}{
		{"zero values pass", GenerationPolicy{}, ""},
		{"in-range values pass", GenerationPolicy{AdvanceDays: 90, BatchSize: 14}, ""},
		{"advanceDays too large", GenerationPolicy{AdvanceDays: 91}, "advanceDays"},
		{"advanceDays negative", GenerationPolicy{AdvanceDays: -1}, "advanceDays"},
		{"batchSize too large", GenerationPolicy{BatchSize: 15}, "batchSize"},
		{"malformed furthest date", GenerationPolicy{FurthestGeneratedDate: "01/02/2024"}, "furthestGeneratedDate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestWorkoutPlan_Expired(t *testing.T) {
	plan := validPlan()
	plan.Mode = ModeDated
	plan.StartDate = "2024-01-01"
	plan.EndDate = "2024-01-31"

	assert.True(t, plan.Expired("2024-02-01"))
	assert.False(t, plan.Expired("2024-01-31"))

	plan.Mode = ModeOngoing
	assert.False(t, plan.Expired("2030-01-01"))
}

func TestWorkoutPlan_DayTemplateFor(t *testing.T) {
	plan := validPlan()
	plan.WeeklyTemplate[3].Name = "Leg Day"

	day := plan.DayTemplateFor(3)
	assert.NotNil(t, day)
	assert.Equal(t, "Leg Day", day.Name)
	assert.Nil(t, plan.DayTemplateFor(9))
}
