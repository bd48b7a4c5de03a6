package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursedrip/models"
)

func TestAllDefinitionsAreValid(t *testing.T) {
	require.NoError(t, ValidateAll())
}

func TestAllCoversEveryNicheAndTrigger(t *testing.T) {
	defs := All()
	require.Len(t, defs, 6)

	slugs := make(map[string]bool)
	byTrigger := make(map[string]int)
	for _, def := range defs {
		assert.False(t, slugs[def.Slug], "duplicate slug %s", def.Slug)
		slugs[def.Slug] = true
		byTrigger[def.TriggerType]++
	}
	assert.Equal(t, 3, byTrigger[models.TriggerMiniDiplomaStarted])
	assert.Equal(t, 3, byTrigger[models.TriggerMiniDiplomaCompleted])
}

func TestCampaignShapes(t *testing.T) {
	for _, def := range ForTrigger(models.TriggerMiniDiplomaStarted) {
		assert.Len(t, def.Steps, 18, "nurture campaign %s", def.Slug)
		assert.Equal(t, 0, def.Steps[0].DelayDays)
		assert.Equal(t, 30, def.Steps[len(def.Steps)-1].DelayDays)
	}
	for _, def := range ForTrigger(models.TriggerMiniDiplomaCompleted) {
		assert.Len(t, def.Steps, 7, "completion campaign %s", def.Slug)
		// Completion outranks nurture when both could match an event chain
		for _, nurture := range ForTrigger(models.TriggerMiniDiplomaStarted) {
			assert.Greater(t, def.Priority, nurture.Priority)
		}
	}
}

func TestDelaysAreMonotonic(t *testing.T) {
	for _, def := range All() {
		prev := -1
		for _, step := range def.Steps {
			delay := step.DelayDays*24 + step.DelayHours
			assert.GreaterOrEqual(t, delay, prev, "%s step %d", def.Slug, step.Order)
			prev = delay
		}
	}
}

func TestNicheVariantsShareSchedule(t *testing.T) {
	nurtures := ForTrigger(models.TriggerMiniDiplomaStarted)
	require.NotEmpty(t, nurtures)
	base := nurtures[0]
	for _, other := range nurtures[1:] {
		require.Len(t, other.Steps, len(base.Steps))
		for i := range base.Steps {
			assert.Equal(t, base.Steps[i].Order, other.Steps[i].Order)
			assert.Equal(t, base.Steps[i].DelayDays, other.Steps[i].DelayDays)
			assert.Equal(t, base.Steps[i].DelayHours, other.Steps[i].DelayHours)
		}
	}
}

func TestCompletionUsesExamScorePlaceholder(t *testing.T) {
	for _, def := range ForTrigger(models.TriggerMiniDiplomaCompleted) {
		assert.True(t, strings.Contains(def.Steps[0].Body, "{{ examScore }}"), def.Slug)
	}
}

func TestValidateRejectsDuplicateOrder(t *testing.T) {
	def := SequenceDefinition{
		Slug:        "broken",
		TriggerType: models.TriggerMiniDiplomaStarted,
		Steps: []StepDefinition{
			{Order: 1, Subject: "a"},
			{Order: 1, Subject: "b"},
		},
	}
	err := Validate(def)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate step order")
}

func TestValidateRejectsNegativeDelay(t *testing.T) {
	def := SequenceDefinition{
		Slug:        "broken",
		TriggerType: models.TriggerMiniDiplomaStarted,
		Steps: []StepDefinition{
			{Order: 1, DelayDays: -1, Subject: "a"},
		},
	}
	require.Error(t, Validate(def))
}

func TestValidateRejectsNonMonotonicDelays(t *testing.T) {
	def := SequenceDefinition{
		Slug:        "broken",
		TriggerType: models.TriggerMiniDiplomaStarted,
		Steps: []StepDefinition{
			{Order: 1, DelayDays: 2, Subject: "a"},
			{Order: 2, DelayDays: 1, Subject: "b"},
		},
	}
	require.Error(t, Validate(def))
}

func TestValidateRejectsEmptySubject(t *testing.T) {
	def := SequenceDefinition{
		Slug:        "broken",
		TriggerType: models.TriggerMiniDiplomaStarted,
		Steps:       []StepDefinition{{Order: 1}},
	}
	require.Error(t, Validate(def))
}
