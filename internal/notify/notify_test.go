package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/unieval/evaluation-backend/internal/config"
	"github.com/unieval/evaluation-backend/internal/model"
	"github.com/unieval/evaluation-backend/internal/repository"
)

type mockEnqueuer struct {
	mock.Mock
}

func (m *mockEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(task.Type(), len(opts))
	info, _ := args.Get(0).(*asynq.TaskInfo)
	return info, args.Error(1)
}

type fakeDirectory struct {
	students []model.User
	admins   []model.User
	titles   map[uuid.UUID]string
}

func (d *fakeDirectory) StudentsOfCourse(context.Context, int64) ([]model.User, error) {
	return d.students, nil
}

func (d *fakeDirectory) Admins(context.Context) ([]model.User, error) { return d.admins, nil }

func (d *fakeDirectory) QuestionnaireTitle(_ context.Context, id uuid.UUID) (string, error) {
	t, ok := d.titles[id]
	if !ok {
		return "", repository.ErrNotFound
	}
	return t, nil
}

type sentMail struct{ to, subject, html string }

type recordingSender struct {
	sent   []sentMail
	failTo map[string]bool
}

func (s *recordingSender) Send(to, subject, html string) error {
	if s.failTo[to] {
		return errors.New("smtp down")
	}
	s.sent = append(s.sent, sentMail{to, subject, html})
	return nil
}

func TestDispatcher_QuestionnairePublished(t *testing.T) {
	enq := new(mockEnqueuer)
	enq.On("EnqueueContext", config.WorkerKey.QuestionnairePublishedTask, 3).Return(&asynq.TaskInfo{}, nil).Once()

	d := NewDispatcher(enq, 5, zerolog.Nop())
	err := d.QuestionnairePublished(context.Background(), &model.Questionnaire{ID: uuid.New(), Title: "Algebra", CourseID: 1})

	require.NoError(t, err)
	enq.AssertExpectations(t)
}

func TestDispatcher_PublishedTwiceIsNoop(t *testing.T) {
	enq := new(mockEnqueuer)
	enq.On("EnqueueContext", config.WorkerKey.QuestionnairePublishedTask, 3).Return(nil, asynq.ErrTaskIDConflict)

	d := NewDispatcher(enq, 5, zerolog.Nop())
	assert.NoError(t, d.QuestionnairePublished(context.Background(), &model.Questionnaire{ID: uuid.New()}))
}

func TestDispatcher_ResponseSubmittedPropagatesEnqueueError(t *testing.T) {
	enq := new(mockEnqueuer)
	enq.On("EnqueueContext", config.WorkerKey.ResponseSubmittedTask, 2).Return(nil, errors.New("redis gone"))

	d := NewDispatcher(enq, 5, zerolog.Nop())
	err := d.ResponseSubmitted(context.Background(), uuid.New(), 3)
	assert.ErrorContains(t, err, "redis gone")
}

func TestHandleQuestionnairePublished_MailsEveryStudent(t *testing.T) {
	dir := &fakeDirectory{students: []model.User{
		{ID: 1, Email: "a@uni.edu", FirstName: "Ana"},
		{ID: 2, Email: "b@uni.edu"},
	}}
	sender := &recordingSender{failTo: map[string]bool{"b@uni.edu": true}}
	h := NewHandlers(dir, sender, "https://eval.example/", zerolog.Nop())

	qid := uuid.New()
	task, err := NewQuestionnairePublishedTask(QuestionnairePublishedPayload{QuestionnaireID: qid, Title: "Physics I", CourseID: 7})
	require.NoError(t, err)

	require.NoError(t, h.HandleQuestionnairePublished(context.Background(), task))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "a@uni.edu", sender.sent[0].to)
	assert.Contains(t, sender.sent[0].subject, "Physics I")
	assert.Contains(t, sender.sent[0].html, "Ana")
	assert.Contains(t, sender.sent[0].html, "https://eval.example/questionnaires/"+qid.String())
}

func TestHandleQuestionnairePublished_AllFailuresRetry(t *testing.T) {
	dir := &fakeDirectory{students: []model.User{{ID: 1, Email: "a@uni.edu"}}}
	sender := &recordingSender{failTo: map[string]bool{"a@uni.edu": true}}
	h := NewHandlers(dir, sender, "", zerolog.Nop())

	task, _ := NewQuestionnairePublishedTask(QuestionnairePublishedPayload{QuestionnaireID: uuid.New()})
	assert.Error(t, h.HandleQuestionnairePublished(context.Background(), task))
}

func TestHandleQuestionnairePublished_BadPayloadSkipsRetry(t *testing.T) {
	h := NewHandlers(&fakeDirectory{}, &recordingSender{}, "", zerolog.Nop())
	err := h.HandleQuestionnairePublished(context.Background(), asynq.NewTask(config.WorkerKey.QuestionnairePublishedTask, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleResponseSubmitted_CarriesNoIdentity(t *testing.T) {
	qid := uuid.New()
	dir := &fakeDirectory{
		admins: []model.User{{ID: 9, Email: "admin@uni.edu"}},
		titles: map[uuid.UUID]string{qid: "Chemistry"},
	}
	sender := &recordingSender{}
	h := NewHandlers(dir, sender, "https://eval.example", zerolog.Nop())

	task, err := NewResponseSubmittedTask(ResponseSubmittedPayload{QuestionnaireID: qid, Answered: 4})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(task.Payload(), &raw))
	assert.ElementsMatch(t, []string{"questionnaire_id", "answered"}, keys(raw))

	require.NoError(t, h.HandleResponseSubmitted(context.Background(), task))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "admin@uni.edu", sender.sent[0].to)
	assert.Contains(t, sender.sent[0].html, "4 answers")
}

func TestHandleResponseSubmitted_DeletedQuestionnaireIsDropped(t *testing.T) {
	h := NewHandlers(&fakeDirectory{}, &recordingSender{}, "", zerolog.Nop())
	task, _ := NewResponseSubmittedTask(ResponseSubmittedPayload{QuestionnaireID: uuid.New(), Answered: 1})
	assert.NoError(t, h.HandleResponseSubmitted(context.Background(), task))
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
