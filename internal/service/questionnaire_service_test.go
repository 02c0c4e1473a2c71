package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unieval/evaluation-backend/internal/lifecycle"
	"github.com/unieval/evaluation-backend/internal/model"
)

func strPtr(s string) *string { return &s }

func TestQuestionnaire_EditGate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	q := env.mustQuestionnaire(courseC)
	updated, err := env.questionnaires.Update(ctx, q.ID, &model.UpdateQuestionnaireRequest{Title: strPtr("  Renamed  ")})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)

	_, err = env.questionnaires.Publish(ctx, q.ID)
	require.NoError(t, err)

	_, err = env.questionnaires.Update(ctx, q.ID, &model.UpdateQuestionnaireRequest{Title: strPtr("Again")})
	assert.ErrorIs(t, err, ErrNotDraft)

	stored, err := env.questionnaires.Get(ctx, Actor{UserID: 1, Role: model.RoleAdmin}, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Title)

	_, err = env.questionnaires.Update(ctx, uuid.New(), &model.UpdateQuestionnaireRequest{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQuestionnaire_Transitions(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	q := env.mustQuestionnaire(courseC)

	_, err := env.questionnaires.Close(ctx, q.ID)
	assert.ErrorIs(t, err, lifecycle.ErrIllegalTransition, "draft cannot close")

	published, err := env.questionnaires.Publish(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, model.QuestionnaireStatusPublished, published.Status)

	_, err = env.questionnaires.Publish(ctx, q.ID)
	assert.ErrorIs(t, err, lifecycle.ErrIllegalTransition, "published cannot publish again")

	closed, err := env.questionnaires.Close(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, model.QuestionnaireStatusClosed, closed.Status)

	_, err = env.questionnaires.Publish(ctx, q.ID)
	assert.ErrorIs(t, err, lifecycle.ErrIllegalTransition, "closed is terminal")

	_, err = env.questionnaires.Publish(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQuestionnaire_ConcurrentPublishSucceedsOnce(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	q := env.mustQuestionnaire(courseC)

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.questionnaires.Publish(ctx, q.ID)
		}(i)
	}
	wg.Wait()
	env.bg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, lifecycle.ErrIllegalTransition)
	}
	assert.Equal(t, 1, ok)
	assert.Len(t, env.db.published, 1)
}

func TestQuestionnaire_CreatePublishedRunsPublish(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	q, err := env.questionnaires.Create(ctx, &model.CreateQuestionnaireRequest{
		Title: "Direct", CourseID: courseC, Status: string(model.QuestionnaireStatusPublished),
	})
	require.NoError(t, err)
	env.bg.Wait()

	assert.Equal(t, model.QuestionnaireStatusPublished, q.Status)
	assert.Equal(t, []uuid.UUID{q.ID}, env.db.published)
	assert.Contains(t, env.db.papers, q.ID)
}

func TestQuestionnaire_Visibility(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	student := env.mustUser(model.RoleStudent, "s@uni.edu")
	require.NoError(t, env.gate.Enroll(ctx, student.ID, courseC))

	draft := env.mustQuestionnaire(courseC)
	open := env.mustQuestionnaire(courseC)
	_, err := env.questionnaires.Publish(ctx, open.ID)
	require.NoError(t, err)
	foreign := env.mustQuestionnaire(courseC + 1)
	_, err = env.questionnaires.Publish(ctx, foreign.ID)
	require.NoError(t, err)

	stu := Actor{UserID: student.ID, Role: model.RoleStudent}
	list, page, err := env.questionnaires.List(ctx, stu, "", 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, open.ID, list[0].ID)
	assert.Equal(t, 1, page.TotalItems)

	_, err = env.questionnaires.Get(ctx, stu, draft.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.questionnaires.Get(ctx, stu, foreign.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	for _, role := range []model.Role{model.RoleAdmin, model.RoleTeacher, model.RoleQualityManager} {
		list, _, err := env.questionnaires.List(ctx, Actor{UserID: 99, Role: role}, "", 1, 10)
		require.NoError(t, err)
		assert.Len(t, list, 3, role)
	}

	drafts, _, err := env.questionnaires.List(ctx, Actor{UserID: 99, Role: model.RoleAdmin}, model.QuestionnaireStatusDraft, 1, 10)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, draft.ID, drafts[0].ID)
}

func TestQuestionnaire_PaperCacheLifecycle(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	student := env.mustUser(model.RoleStudent, "s@uni.edu")
	require.NoError(t, env.gate.Enroll(ctx, student.ID, courseC))
	outsider := env.mustUser(model.RoleStudent, "o@uni.edu")

	q := env.mustQuestionnaire(courseC)
	env.mustQuestion(q.ID, model.QuestionTypeSingleChoice, 1, "Yes", "No")

	_, err := env.questionnaires.Paper(ctx, student.ID, q.ID)
	assert.ErrorIs(t, err, ErrNotPublished)

	_, err = env.questionnaires.Publish(ctx, q.ID)
	require.NoError(t, err)
	require.Contains(t, env.db.papers, q.ID)

	paper, err := env.questionnaires.Paper(ctx, student.ID, q.ID)
	require.NoError(t, err)
	require.Len(t, paper.Questions, 1)
	assert.Equal(t, []string{"Yes", "No"}, paper.Questions[0].PossibleAnswers)

	_, err = env.questionnaires.Paper(ctx, outsider.ID, q.ID)
	assert.ErrorIs(t, err, ErrNotEnrolled)

	delete(env.db.papers, q.ID)
	_, err = env.questionnaires.Paper(ctx, student.ID, q.ID)
	require.NoError(t, err)
	assert.Contains(t, env.db.papers, q.ID, "miss refills the cache")

	_, err = env.questionnaires.Close(ctx, q.ID)
	require.NoError(t, err)
	assert.NotContains(t, env.db.papers, q.ID)
}

func TestQuestionnaire_DeleteCascades(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	q := env.mustQuestionnaire(courseC)
	question := env.mustQuestion(q.ID, model.QuestionTypeText, 1)

	require.NoError(t, env.questionnaires.Delete(ctx, q.ID))
	_, err := env.questions.GetByID(ctx, question.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, env.questionnaires.Delete(ctx, q.ID), ErrNotFound)
}

func TestQuestionnaire_PrewarmPapers(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	q := env.mustQuestionnaire(courseC)
	_, err := env.questionnaires.Publish(ctx, q.ID)
	require.NoError(t, err)
	env.mustQuestionnaire(courseC)

	env.db.papers = map[uuid.UUID]*model.QuestionnairePaper{}
	require.NoError(t, env.questionnaires.PrewarmPapers(ctx))
	assert.Len(t, env.db.papers, 1)
	assert.Contains(t, env.db.papers, q.ID)
}
