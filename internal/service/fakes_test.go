package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/unieval/evaluation-backend/internal/config"
	"github.com/unieval/evaluation-backend/internal/model"
	"github.com/unieval/evaluation-backend/internal/pseudonym"
	"github.com/unieval/evaluation-backend/internal/repository"
)

const testSalt = "0123456789abcdef-test-salt"

// memDB is an in-memory stand-in for every store the services use.
type memDB struct {
	mu             sync.Mutex
	nextUserID     int64
	users          map[int64]*model.User
	enrollments    map[[2]int64]bool
	questionnaires map[uuid.UUID]*model.Questionnaire
	questions      map[uuid.UUID]*model.Question
	responses      []*model.Response
	sessions       map[int64]string
	papers         map[uuid.UUID]*model.QuestionnairePaper
	events         []model.SubmissionEvent
	published      []uuid.UUID
	submitted      []int
}

func newMemDB() *memDB {
	return &memDB{
		users:          map[int64]*model.User{},
		enrollments:    map[[2]int64]bool{},
		questionnaires: map[uuid.UUID]*model.Questionnaire{},
		questions:      map[uuid.UUID]*model.Question{},
		sessions:       map[int64]string{},
		papers:         map[uuid.UUID]*model.QuestionnairePaper{},
	}
}

// ─── users ─────────────────────────────────────────────────────────────

type memUsers struct{ db *memDB }

func (s memUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s memUsers) List(_ context.Context, role model.Role) ([]model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.User
	for _, u := range s.db.users {
		if role == "" || u.Role == role {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s memUsers) ListByCourse(_ context.Context, courseID int64) ([]model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.User
	for k := range s.db.enrollments {
		if k[1] == courseID {
			out = append(out, *s.db.users[k[0]])
		}
	}
	return out, nil
}

func (s memUsers) Create(_ context.Context, u *model.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	s.db.nextUserID++
	u.ID = s.db.nextUserID
	cp := *u
	s.db.users[u.ID] = &cp
	return nil
}

func (s memUsers) Update(_ context.Context, u *model.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range s.db.users {
		if id != u.ID && existing.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	cp := *u
	s.db.users[u.ID] = &cp
	return nil
}

func (s memUsers) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.db.users, id)
	return nil
}

// ─── enrollments ───────────────────────────────────────────────────────

type memEnrollments struct{ db *memDB }

func (s memEnrollments) Create(_ context.Context, userID, courseID int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	k := [2]int64{userID, courseID}
	if s.db.enrollments[k] {
		return repository.ErrAlreadyEnrolled
	}
	s.db.enrollments[k] = true
	return nil
}

func (s memEnrollments) Delete(_ context.Context, userID, courseID int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	k := [2]int64{userID, courseID}
	if !s.db.enrollments[k] {
		return repository.ErrNotFound
	}
	delete(s.db.enrollments, k)
	return nil
}

func (s memEnrollments) Exists(_ context.Context, userID, courseID int64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.enrollments[[2]int64{userID, courseID}], nil
}

// ─── questionnaires ────────────────────────────────────────────────────

type memQuestionnaires struct{ db *memDB }

func (s memQuestionnaires) GetByID(_ context.Context, id uuid.UUID) (*model.Questionnaire, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	q, ok := s.db.questionnaires[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (s memQuestionnaires) List(_ context.Context, f repository.QuestionnaireFilter) ([]model.Questionnaire, int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.Questionnaire
	for _, q := range s.db.questionnaires {
		if f.Status != "" && q.Status != f.Status {
			continue
		}
		if f.CourseID > 0 && q.CourseID != f.CourseID {
			continue
		}
		if f.StudentID > 0 && !s.db.enrollments[[2]int64{f.StudentID, q.CourseID}] {
			continue
		}
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := len(out)
	if f.Limit > 0 {
		end := f.Offset + f.Limit
		if f.Offset > total {
			f.Offset = total
		}
		if end > total {
			end = total
		}
		out = out[f.Offset:end]
	}
	return out, total, nil
}

func (s memQuestionnaires) ListByStatus(ctx context.Context, st model.QuestionnaireStatus) ([]model.Questionnaire, error) {
	out, _, err := s.List(ctx, repository.QuestionnaireFilter{Status: st})
	return out, err
}

func (s memQuestionnaires) Create(_ context.Context, q *model.Questionnaire) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	q.ID = uuid.New()
	q.CreatedAt = time.Now()
	q.UpdatedAt = q.CreatedAt
	cp := *q
	s.db.questionnaires[q.ID] = &cp
	return nil
}

func (s memQuestionnaires) UpdateContent(_ context.Context, q *model.Questionnaire, expect model.QuestionnaireStatus) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	cur, ok := s.db.questionnaires[q.ID]
	if !ok || cur.Status != expect {
		return repository.ErrNotFound
	}
	cp := *q
	cp.Status = cur.Status
	s.db.questionnaires[q.ID] = &cp
	return nil
}

func (s memQuestionnaires) UpdateStatus(_ context.Context, id uuid.UUID, from, to model.QuestionnaireStatus) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	cur, ok := s.db.questionnaires[id]
	if !ok || cur.Status != from {
		return repository.ErrNotFound
	}
	cur.Status = to
	return nil
}

func (s memQuestionnaires) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.questionnaires[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.db.questionnaires, id)
	for qid, q := range s.db.questions {
		if q.QuestionnaireID == id {
			delete(s.db.questions, qid)
		}
	}
	kept := s.db.responses[:0]
	for _, r := range s.db.responses {
		if r.QuestionnaireID != id {
			kept = append(kept, r)
		}
	}
	s.db.responses = kept
	return nil
}

// ─── questions ─────────────────────────────────────────────────────────

type memQuestions struct{ db *memDB }

func (s memQuestions) ListByQuestionnaire(_ context.Context, questionnaireID uuid.UUID) ([]model.Question, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.Question
	for _, q := range s.db.questions {
		if q.QuestionnaireID == questionnaireID {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNum < out[j].OrderNum })
	return out, nil
}

func (s memQuestions) GetByID(_ context.Context, id uuid.UUID) (*model.Question, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	q, ok := s.db.questions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *q
	return &cp, nil
}

// editable mirrors the status guard on question writes. Callers hold mu.
func (s memQuestions) editable(questionnaireID uuid.UUID, expect model.QuestionnaireStatus) bool {
	qn, ok := s.db.questionnaires[questionnaireID]
	return ok && qn.Status == expect
}

func (s memQuestions) Create(_ context.Context, q *model.Question, expect model.QuestionnaireStatus) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if !s.editable(q.QuestionnaireID, expect) {
		return repository.ErrNotFound
	}
	q.ID = uuid.New()
	cp := *q
	s.db.questions[q.ID] = &cp
	return nil
}

func (s memQuestions) Update(_ context.Context, q *model.Question, expect model.QuestionnaireStatus) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	cur, ok := s.db.questions[q.ID]
	if !ok || !s.editable(cur.QuestionnaireID, expect) {
		return repository.ErrNotFound
	}
	cp := *q
	s.db.questions[q.ID] = &cp
	return nil
}

func (s memQuestions) Delete(_ context.Context, id uuid.UUID, expect model.QuestionnaireStatus) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	cur, ok := s.db.questions[id]
	if !ok || !s.editable(cur.QuestionnaireID, expect) {
		return repository.ErrNotFound
	}
	delete(s.db.questions, id)
	kept := s.db.responses[:0]
	for _, r := range s.db.responses {
		if r.QuestionID != id {
			kept = append(kept, r)
		}
	}
	s.db.responses = kept
	return nil
}

// ─── responses ─────────────────────────────────────────────────────────

type memResponses struct {
	db *memDB
	// failAt makes CreateBatch fail on that index after inserting earlier rows,
	// to prove the rollback.
	failAt int
}

func (s *memResponses) insertLocked(r *model.Response) error {
	for _, existing := range s.db.responses {
		if existing.AnonymousID == r.AnonymousID && existing.QuestionID == r.QuestionID {
			return repository.ErrDuplicateResponse
		}
	}
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	cp := *r
	s.db.responses = append(s.db.responses, &cp)
	return nil
}

func (s *memResponses) Create(_ context.Context, r *model.Response) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.insertLocked(r)
}

func (s *memResponses) CreateBatch(_ context.Context, rs []*model.Response) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	snapshot := len(s.db.responses)
	for i, r := range rs {
		err := s.insertLocked(r)
		if err == nil && s.failAt >= 0 && i == s.failAt {
			err = repository.ErrDuplicateResponse
		}
		if err != nil {
			s.db.responses = s.db.responses[:snapshot]
			return &repository.BatchError{Index: i, Err: err}
		}
	}
	return nil
}

func (s *memResponses) Exists(_ context.Context, anonymousID string, questionID uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, r := range s.db.responses {
		if r.AnonymousID == anonymousID && r.QuestionID == questionID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memResponses) AnsweredQuestionIDs(_ context.Context, anonymousID string, questionnaireID uuid.UUID) ([]uuid.UUID, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []uuid.UUID
	for _, r := range s.db.responses {
		if r.AnonymousID == anonymousID && r.QuestionnaireID == questionnaireID {
			out = append(out, r.QuestionID)
		}
	}
	return out, nil
}

func (s *memResponses) answers(match func(*model.Response) bool) []model.AnonymizedAnswer {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.AnonymizedAnswer
	for _, r := range s.db.responses {
		if match(r) {
			label := ""
			if q, ok := s.db.questions[r.QuestionID]; ok {
				label = q.Label
			}
			out = append(out, model.AnonymizedAnswer{QuestionID: r.QuestionID, Label: label, Answer: r.Answer})
		}
	}
	return out
}

func (s *memResponses) ListByQuestionnaire(_ context.Context, id uuid.UUID) ([]model.AnonymizedAnswer, error) {
	return s.answers(func(r *model.Response) bool { return r.QuestionnaireID == id }), nil
}

func (s *memResponses) ListByQuestion(_ context.Context, id uuid.UUID) ([]model.AnonymizedAnswer, error) {
	return s.answers(func(r *model.Response) bool { return r.QuestionID == id }), nil
}

func (s *memResponses) ListBySubject(_ context.Context, anonymousID string, id uuid.UUID) ([]model.AnonymizedAnswer, error) {
	return s.answers(func(r *model.Response) bool { return r.AnonymousID == anonymousID && r.QuestionnaireID == id }), nil
}

func (s *memResponses) CountSubjects(_ context.Context, id uuid.UUID) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	seen := map[string]bool{}
	for _, r := range s.db.responses {
		if r.QuestionnaireID == id {
			seen[r.AnonymousID] = true
		}
	}
	return len(seen), nil
}

// ─── redis-backed stores and side effects ──────────────────────────────

type memSessions struct{ db *memDB }

func (s memSessions) Set(_ context.Context, userID int64, tokenID string, _ time.Duration) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.sessions[userID] = tokenID
	return nil
}

func (s memSessions) Get(_ context.Context, userID int64) (string, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.sessions[userID], nil
}

func (s memSessions) Delete(_ context.Context, userID int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.sessions, userID)
	return nil
}

type memPapers struct{ db *memDB }

func (s memPapers) Get(_ context.Context, id uuid.UUID) (*model.QuestionnairePaper, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.papers[id]
	if !ok {
		return nil, repository.ErrCacheMiss
	}
	return p, nil
}

func (s memPapers) Set(_ context.Context, p *model.QuestionnairePaper) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.papers[p.QuestionnaireID] = p
	return nil
}

func (s memPapers) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.papers, id)
	return nil
}

type memFeed struct{ db *memDB }

func (f memFeed) RecordSubmission(_ context.Context, ev *model.SubmissionEvent) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.events = append(f.db.events, *ev)
	ev.TotalSubmissions = int64(len(f.db.events))
	return nil
}

func (f memFeed) SubmissionCount(_ context.Context, id uuid.UUID) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var n int64
	for _, ev := range f.db.events {
		if ev.QuestionnaireID == id {
			n++
		}
	}
	return n, nil
}

type memNotifier struct{ db *memDB }

func (n memNotifier) QuestionnairePublished(_ context.Context, q *model.Questionnaire) error {
	n.db.mu.Lock()
	defer n.db.mu.Unlock()
	n.db.published = append(n.db.published, q.ID)
	return nil
}

func (n memNotifier) ResponseSubmitted(_ context.Context, _ uuid.UUID, answered int) error {
	n.db.mu.Lock()
	defer n.db.mu.Unlock()
	n.db.submitted = append(n.db.submitted, answered)
	return nil
}

// ─── wiring ────────────────────────────────────────────────────────────

type testEnv struct {
	db             *memDB
	bg             *Background
	responsesStore *memResponses
	pseudo         *pseudonym.Pseudonymizer
	auth           *AuthService
	users          *UserService
	gate           *EnrollmentService
	questionnaires *QuestionnaireService
	questions      *QuestionService
	responses      *ResponseService
	now            time.Time
}

func newTestEnv(opts ...func(*ResponseOptions)) *testEnv {
	db := newMemDB()
	log := zerolog.Nop()
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour, BcryptCost: 4}

	pseudo, err := pseudonym.New(testSalt)
	if err != nil {
		panic(err)
	}

	env := &testEnv{db: db, pseudo: pseudo, now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	env.bg = NewBackground(time.Second, log)
	env.responsesStore = &memResponses{db: db, failAt: -1}

	ro := ResponseOptions{EnforceDeadline: true, Now: func() time.Time { return env.now }}
	for _, o := range opts {
		o(&ro)
	}

	usersStore := memUsers{db}
	qnStore := memQuestionnaires{db}
	qStore := memQuestions{db}

	env.auth = NewAuthService(cfg, usersStore, memSessions{db}, log)
	env.users = NewUserService(usersStore, env.auth, log)
	env.gate = NewEnrollmentService(memEnrollments{db}, usersStore, qnStore, log)
	env.questionnaires = NewQuestionnaireService(qnStore, qStore, env.gate, memPapers{db}, memNotifier{db}, env.bg, log)
	env.questions = NewQuestionService(qStore, qnStore, log)
	env.responses = NewResponseService(qnStore, qStore, env.responsesStore, env.gate, pseudo,
		memFeed{db}, memNotifier{db}, env.bg, ro, log)
	return env
}

func (e *testEnv) mustUser(role model.Role, email string) *model.User {
	u, err := e.users.Create(context.Background(), &model.CreateUserRequest{
		Email: email, Password: "password123", Role: string(role),
	})
	if err != nil {
		panic(err)
	}
	return u
}

func (e *testEnv) mustQuestionnaire(courseID int64) *model.Questionnaire {
	q, err := e.questionnaires.Create(context.Background(), &model.CreateQuestionnaireRequest{
		Title: "Course evaluation", CourseID: courseID,
	})
	if err != nil {
		panic(err)
	}
	return q
}

func (e *testEnv) mustQuestion(questionnaireID uuid.UUID, qtype model.QuestionType, order int, options ...string) *model.Question {
	q, err := e.questions.Create(context.Background(), &model.QuestionRequest{
		QuestionnaireID: questionnaireID,
		Label:           "Question " + string(qtype),
		Type:            string(qtype),
		PossibleAnswers: options,
		OrderNum:        order,
	})
	if err != nil {
		panic(err)
	}
	return q
}

func (e *testEnv) responseRows() []*model.Response {
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	out := make([]*model.Response, len(e.db.responses))
	copy(out, e.db.responses)
	return out
}
