package lifecycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unieval/evaluation-backend/internal/model"
)

var statuses = []model.QuestionnaireStatus{
	model.QuestionnaireStatusDraft,
	model.QuestionnaireStatusPublished,
	model.QuestionnaireStatusClosed,
}

func TestTransition_Table(t *testing.T) {
	allowed := map[[2]model.QuestionnaireStatus]bool{
		{model.QuestionnaireStatusDraft, model.QuestionnaireStatusPublished}:  true,
		{model.QuestionnaireStatusPublished, model.QuestionnaireStatusClosed}: true,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			err := Transition(from, to)
			if allowed[[2]model.QuestionnaireStatus{from, to}] {
				assert.NoError(t, err, "%s -> %s", from, to)
				continue
			}
			require.Error(t, err, "%s -> %s", from, to)
			assert.ErrorIs(t, err, ErrIllegalTransition)

			var te *TransitionError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, from, te.From)
			assert.Equal(t, to, te.To)
			assert.Contains(t, te.Error(), string(from))
			assert.Contains(t, te.Error(), string(to))
		}
	}
}

// Any accepted walk through the machine is a subsequence of draft, published, closed.
func TestTransition_Monotonic(t *testing.T) {
	rank := map[model.QuestionnaireStatus]int{
		model.QuestionnaireStatusDraft:     0,
		model.QuestionnaireStatusPublished: 1,
		model.QuestionnaireStatusClosed:    2,
	}

	current := model.QuestionnaireStatusDraft
	history := []model.QuestionnaireStatus{current}
	attempts := []model.QuestionnaireStatus{
		model.QuestionnaireStatusClosed,
		model.QuestionnaireStatusDraft,
		model.QuestionnaireStatusPublished,
		model.QuestionnaireStatusDraft,
		model.QuestionnaireStatusPublished,
		model.QuestionnaireStatusClosed,
		model.QuestionnaireStatusPublished,
		model.QuestionnaireStatusDraft,
	}
	for _, to := range attempts {
		if Transition(current, to) == nil {
			current = to
			history = append(history, current)
		}
	}

	assert.Equal(t, []model.QuestionnaireStatus{
		model.QuestionnaireStatusDraft,
		model.QuestionnaireStatusPublished,
		model.QuestionnaireStatusClosed,
	}, history)
	for i := 1; i < len(history); i++ {
		assert.Greater(t, rank[history[i]], rank[history[i-1]])
	}
}

func TestEditableAndAcceptsResponses(t *testing.T) {
	assert.True(t, Editable(model.QuestionnaireStatusDraft))
	assert.False(t, Editable(model.QuestionnaireStatusPublished))
	assert.False(t, Editable(model.QuestionnaireStatusClosed))

	assert.False(t, AcceptsResponses(model.QuestionnaireStatusDraft))
	assert.True(t, AcceptsResponses(model.QuestionnaireStatusPublished))
	assert.False(t, AcceptsResponses(model.QuestionnaireStatusClosed))
}

func TestVisibleTo(t *testing.T) {
	for _, s := range statuses {
		assert.True(t, VisibleTo(model.RoleAdmin, s))
		assert.True(t, VisibleTo(model.RoleQualityManager, s))
		assert.Equal(t, s == model.QuestionnaireStatusPublished, VisibleTo(model.RoleStudent, s))
		assert.False(t, VisibleTo(model.Role("guest"), s))
	}
}
