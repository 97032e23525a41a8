package quiz

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/quizforge/quizforge/internal/grading"
	"github.com/quizforge/quizforge/internal/joincode"
)

// Service implements the platform's actions over a Store: authoring, the
// join/attempt lifecycle, answer submission with grading, manual grading and
// score aggregation. Handlers call Service; Service is the only place that
// enforces lifecycle and ownership rules.
type Service struct {
	store   Store
	codec   *joincode.Codec
	subj    *grading.Subjective
	pending *grading.Tracker

	now func() int64
}

func NewService(store Store, codec *joincode.Codec, subj *grading.Subjective) *Service {
	return &Service{
		store:   store,
		codec:   codec,
		subj:    subj,
		pending: grading.NewTracker(),
		now:     func() int64 { return time.Now().Unix() },
	}
}

// ---- authoring ----

func (s *Service) CreateTest(ctx context.Context, creatorID string, t Test) (Test, error) {
	if creatorID == "" || t.Title == "" {
		return Test{}, &ValidationError{Msg: "invalid request"}
	}
	t.ID = uuid.NewString()
	t.CreatorID = creatorID
	t.CreatedAt = s.now()
	t.AcceptResponses = true

	for i := range t.Questions {
		q := &t.Questions[i]
		q.ID = uuid.NewString()
		q.TestID = t.ID
		q.Position = i
		for j := range q.Choices {
			q.Choices[j].ID = uuid.NewString()
			q.Choices[j].QuestionID = q.ID
		}
		if err := validateQuestion(*q); err != nil {
			return Test{}, err
		}
	}

	seq, err := s.store.NextCodeSeq(ctx)
	if err != nil {
		return Test{}, err
	}
	t.JoinCode = s.codec.Encode(seq)

	if err := s.store.PutTest(ctx, t); err != nil {
		return Test{}, err
	}
	return t, nil
}

func validateQuestion(q Question) error {
	if q.Text == "" {
		return &ValidationError{Msg: "question text required"}
	}
	if q.MaxScore <= 0 {
		return &ValidationError{Msg: "max score must be positive"}
	}
	switch q.Type {
	case QuestionEssay:
		if q.ExactAnswer && q.AnswerText == "" {
			return &ValidationError{Msg: "exact-answer essay needs an answer key"}
		}
	case QuestionChoice:
		correct := 0
		for _, c := range q.Choices {
			if c.IsCorrect {
				correct++
			}
		}
		if len(q.Choices) < 2 {
			return &ValidationError{Msg: "choice question needs at least two choices"}
		}
		if correct != 1 {
			return &ValidationError{Msg: "choice question needs exactly one correct choice"}
		}
	case QuestionMultiSelect:
		if len(q.Choices) == 0 {
			return &ValidationError{Msg: "multiple-select question needs choices"}
		}
	default:
		return &ValidationError{Msg: fmt.Sprintf("unknown question type %q", q.Type)}
	}
	return nil
}

// GetTestForCreator returns the full test, answer keys included.
func (s *Service) GetTestForCreator(ctx context.Context, callerID, testID string) (Test, error) {
	t, err := s.store.GetTest(ctx, testID)
	if err != nil {
		return Test{}, err
	}
	if t.CreatorID != callerID {
		return Test{}, &AuthorizationError{Msg: "not the test creator"}
	}
	return t, nil
}

// GetTestByCode returns the participant-safe view: answer keys and
// correctness flags stripped.
func (s *Service) GetTestByCode(ctx context.Context, code string) (Test, error) {
	t, err := s.store.GetTestByCode(ctx, code)
	if err != nil {
		return Test{}, err
	}
	stripKeys(&t)
	return t, nil
}

func stripKeys(t *Test) {
	t.CreatorID = ""
	t.Prerequisites = nil
	for i := range t.Questions {
		q := &t.Questions[i]
		q.AnswerText = ""
		q.ExactAnswer = false
		for j := range q.Choices {
			q.Choices[j].IsCorrect = false
		}
	}
}

func (s *Service) ListTests(ctx context.Context, creatorID string) ([]TestSummary, error) {
	return s.store.ListTests(ctx, creatorID)
}

func (s *Service) UpdateQuestion(ctx context.Context, callerID string, q Question) (Question, error) {
	if q.ID == "" {
		return Question{}, &ValidationError{Msg: "invalid request"}
	}
	existing, err := s.store.GetQuestion(ctx, q.ID)
	if err != nil {
		return Question{}, err
	}
	t, err := s.store.GetTest(ctx, existing.TestID)
	if err != nil {
		return Question{}, err
	}
	if t.CreatorID != callerID {
		return Question{}, &AuthorizationError{Msg: "not the test creator"}
	}
	// Type is immutable (answers already reference it); position is fixed at
	// creation and not editable through this operation.
	q.TestID = existing.TestID
	q.Type = existing.Type
	q.Position = existing.Position
	for j := range q.Choices {
		if q.Choices[j].ID == "" {
			q.Choices[j].ID = uuid.NewString()
		}
		q.Choices[j].QuestionID = q.ID
	}
	if err := validateQuestion(q); err != nil {
		return Question{}, err
	}
	if err := s.store.UpdateQuestion(ctx, q); err != nil {
		return Question{}, err
	}
	return q, nil
}

func (s *Service) SetAcceptResponses(ctx context.Context, callerID, testID string, accept bool) error {
	t, err := s.store.GetTest(ctx, testID)
	if err != nil {
		return err
	}
	if t.CreatorID != callerID {
		return &AuthorizationError{Msg: "not the test creator"}
	}
	return s.store.SetAcceptResponses(ctx, testID, accept)
}

func (s *Service) ListParticipants(ctx context.Context, callerID, testID string) ([]Participant, error) {
	t, err := s.store.GetTest(ctx, testID)
	if err != nil {
		return nil, err
	}
	if t.CreatorID != callerID {
		return nil, &AuthorizationError{Msg: "not the test creator"}
	}
	return s.store.ListParticipants(ctx, testID)
}

// ParticipantAnswers is the creator's review view of one attempt.
func (s *Service) ParticipantAnswers(ctx context.Context, callerID, participantID string) ([]Answer, error) {
	p, err := s.store.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	t, err := s.store.GetTest(ctx, p.TestID)
	if err != nil {
		return nil, err
	}
	if t.CreatorID != callerID {
		return nil, &AuthorizationError{Msg: "not the test creator"}
	}
	return s.store.ListAnswers(ctx, participantID)
}

// ---- join / attempt lifecycle ----

// Join resolves a join code and either resumes the identity's incomplete
// attempt or creates a fresh one with empty answer rows for every question.
// Preconditions run in a fixed order; the first failure wins.
func (s *Service) Join(ctx context.Context, code string, who Identity) (Participant, []Answer, error) {
	if code == "" || (who.UserID == "" && who.GuestName == "") {
		return Participant{}, nil, &ValidationError{Msg: "invalid request"}
	}
	t, err := s.store.GetTestByCode(ctx, code)
	if err != nil {
		return Participant{}, nil, err
	}
	if !t.AcceptResponses {
		return Participant{}, nil, &StateError{Msg: "test not accepting responses"}
	}
	if t.RequiresLogin && who.UserID == "" {
		return Participant{}, nil, &AuthorizationError{Msg: "login required to join this test"}
	}
	now := s.now()
	if t.StartTime > 0 && now < t.StartTime {
		return Participant{}, nil, &StateError{Msg: "test has not started yet"}
	}
	if t.EndTime > 0 && now > t.EndTime {
		return Participant{}, nil, &StateError{Msg: "test has ended"}
	}

	attempts, err := s.store.FindAttempts(ctx, t.ID, who)
	if err != nil {
		return Participant{}, nil, err
	}
	completed := 0
	for _, p := range attempts {
		if !p.Completed {
			// Resume the open attempt instead of creating a new one.
			answers, err := s.store.ListAnswers(ctx, p.ID)
			if err != nil {
				return Participant{}, nil, err
			}
			return p, answers, nil
		}
		completed++
	}
	if t.MaxAttempts > 0 && completed >= t.MaxAttempts {
		return Participant{}, nil, &StateError{Msg: fmt.Sprintf("attempt limit of %d reached", t.MaxAttempts)}
	}

	// Prerequisites only gate authenticated users; guests have no history to
	// check against.
	if who.UserID != "" {
		for _, pre := range t.Prerequisites {
			best, ok, err := s.store.BestCompletedScore(ctx, pre.RequiredTestID, who.UserID)
			if err != nil {
				return Participant{}, nil, err
			}
			if !ok || best < pre.MinScore {
				req, err := s.store.GetTest(ctx, pre.RequiredTestID)
				if err != nil {
					return Participant{}, nil, err
				}
				return Participant{}, nil, &StateError{
					Msg: fmt.Sprintf("requires a score of at least %d on %q", pre.MinScore, req.Title),
				}
			}
		}
	}

	p := Participant{
		ID:        uuid.NewString(),
		TestID:    t.ID,
		UserID:    who.UserID,
		GuestName: who.GuestName,
		CreatedAt: now,
	}
	answers := make([]Answer, 0, len(t.Questions))
	for _, q := range t.Questions {
		answers = append(answers, Answer{
			ID:            uuid.NewString(),
			ParticipantID: p.ID,
			QuestionID:    q.ID,
			Type:          q.Type,
		})
	}
	if err := s.store.CreateParticipant(ctx, p, answers); err != nil {
		return Participant{}, nil, err
	}
	return p, answers, nil
}

// Session returns a participant and its answers to its owner.
func (s *Service) Session(ctx context.Context, participantID string, who Identity) (Participant, []Answer, error) {
	p, err := s.store.GetParticipant(ctx, participantID)
	if err != nil {
		return Participant{}, nil, err
	}
	if !owns(p, who) {
		return Participant{}, nil, &AuthorizationError{Msg: "unauthorized"}
	}
	answers, err := s.store.ListAnswers(ctx, participantID)
	if err != nil {
		return Participant{}, nil, err
	}
	return p, answers, nil
}

func owns(p Participant, who Identity) bool {
	if p.UserID != "" {
		return p.UserID == who.UserID
	}
	return p.GuestName != "" && p.GuestName == who.GuestName
}

// ---- answer submission ----

type EssaySubmission struct {
	AnswerID      string `json:"answer_id"`
	ParticipantID string `json:"participant_id"`
	AnswerText    string `json:"answer_text"`
}

type ChoiceSubmission struct {
	AnswerID         string `json:"answer_id"`
	ParticipantID    string `json:"participant_id"`
	SelectedChoiceID string `json:"selected_choice_id"`
}

type MultiSelectSubmission struct {
	AnswerID          string   `json:"answer_id"`
	ParticipantID     string   `json:"participant_id"`
	SelectedChoiceIDs []string `json:"selected_choice_ids"`
}

// loadForUpdate runs the shared submission preamble: the caller must be the
// attempt's owner, then state checks on the participant's test and attempt,
// then the ownership check on the answer row.
func (s *Service) loadForUpdate(ctx context.Context, answerID, participantID string, who Identity) (Answer, Question, error) {
	if answerID == "" || participantID == "" {
		return Answer{}, Question{}, &ValidationError{Msg: "invalid request"}
	}
	p, err := s.store.GetParticipant(ctx, participantID)
	if err != nil {
		return Answer{}, Question{}, err
	}
	if !owns(p, who) {
		return Answer{}, Question{}, &AuthorizationError{Msg: "unauthorized"}
	}
	t, err := s.store.GetTest(ctx, p.TestID)
	if err != nil {
		return Answer{}, Question{}, err
	}
	if !t.AcceptResponses {
		return Answer{}, Question{}, &StateError{Msg: "test not accepting responses"}
	}
	if p.Completed {
		return Answer{}, Question{}, &StateError{Msg: "test has been completed"}
	}
	a, err := s.store.GetAnswer(ctx, answerID)
	if err != nil {
		return Answer{}, Question{}, err
	}
	if a.ParticipantID != p.ID {
		return Answer{}, Question{}, &AuthorizationError{Msg: "unauthorized"}
	}
	q, err := s.store.GetQuestion(ctx, a.QuestionID)
	if err != nil {
		return Answer{}, Question{}, err
	}
	return a, q, nil
}

// SubmitEssay saves the essay text. Exact-answer essays are graded
// synchronously; subjective essays save on the fast path and grade in the
// background so navigation never blocks on the model.
func (s *Service) SubmitEssay(ctx context.Context, who Identity, in EssaySubmission) (Answer, error) {
	a, q, err := s.loadForUpdate(ctx, in.AnswerID, in.ParticipantID, who)
	if err != nil {
		return Answer{}, err
	}
	if q.Type != QuestionEssay {
		return Answer{}, &ValidationError{Msg: "not an essay question"}
	}
	a.AnswerText = in.AnswerText

	if q.ExactAnswer {
		a.Score = grading.GradeExact(in.AnswerText, q.AnswerText, 0, q.MaxScore)
		a.Explanation = ""
		if err := s.store.UpdateAnswer(ctx, a); err != nil {
			return Answer{}, err
		}
		if _, err := s.RecomputeScore(ctx, a.ParticipantID); err != nil {
			return Answer{}, err
		}
		return a, nil
	}

	if err := s.store.UpdateAnswer(ctx, a); err != nil {
		return Answer{}, err
	}
	if s.subj != nil && s.subj.Available() {
		s.gradeInBackground(a.ID, a.ParticipantID, q)
	}
	return a, nil
}

func (s *Service) gradeInBackground(answerID, participantID string, q Question) {
	s.pending.Go(participantID, func() error {
		// No cancellation: if the test completes first, completion waits.
		ctx := context.Background()
		a, err := s.store.GetAnswer(ctx, answerID)
		if err != nil {
			return err
		}
		res, err := s.subj.Grade(ctx, grading.SubjectiveInput{
			Question: q.Text,
			Key:      q.AnswerText,
			Answer:   a.AnswerText,
			MinScore: 0,
			MaxScore: q.MaxScore,
		})
		if err != nil {
			return &ExternalServiceError{Err: err}
		}
		a.Score = res.Score
		a.Explanation = res.Explanation
		if err := s.store.UpdateAnswer(ctx, a); err != nil {
			return err
		}
		_, err = s.RecomputeScore(ctx, participantID)
		return err
	})
}

func (s *Service) SubmitChoice(ctx context.Context, who Identity, in ChoiceSubmission) (Answer, error) {
	if in.SelectedChoiceID == "" {
		return Answer{}, &ValidationError{Msg: "invalid request"}
	}
	a, q, err := s.loadForUpdate(ctx, in.AnswerID, in.ParticipantID, who)
	if err != nil {
		return Answer{}, err
	}
	if q.Type != QuestionChoice {
		return Answer{}, &ValidationError{Msg: "not a single-choice question"}
	}
	score, err := grading.GradeChoice(in.SelectedChoiceID, gradingChoices(q), q.MaxScore)
	if err != nil {
		return Answer{}, mapGradingError(err)
	}
	a.SelectedChoiceID = in.SelectedChoiceID
	a.Score = score
	if err := s.store.UpdateAnswer(ctx, a); err != nil {
		return Answer{}, err
	}
	if _, err := s.RecomputeScore(ctx, a.ParticipantID); err != nil {
		return Answer{}, err
	}
	return a, nil
}

func (s *Service) SubmitMultiSelect(ctx context.Context, who Identity, in MultiSelectSubmission) (Answer, error) {
	a, q, err := s.loadForUpdate(ctx, in.AnswerID, in.ParticipantID, who)
	if err != nil {
		return Answer{}, err
	}
	if q.Type != QuestionMultiSelect {
		return Answer{}, &ValidationError{Msg: "not a multiple-select question"}
	}
	score, err := grading.GradeMultiSelect(in.SelectedChoiceIDs, gradingChoices(q), q.MaxScore)
	if err != nil {
		return Answer{}, mapGradingError(err)
	}
	a.SelectedChoiceIDs = in.SelectedChoiceIDs
	a.Score = score
	if err := s.store.UpdateAnswer(ctx, a); err != nil {
		return Answer{}, err
	}
	if _, err := s.RecomputeScore(ctx, a.ParticipantID); err != nil {
		return Answer{}, err
	}
	return a, nil
}

func gradingChoices(q Question) []grading.Choice {
	out := make([]grading.Choice, len(q.Choices))
	for i, c := range q.Choices {
		out[i] = grading.Choice{ID: c.ID, Correct: c.IsCorrect}
	}
	return out
}

func mapGradingError(err error) error {
	if errors.Is(err, grading.ErrNoCorrectChoice) {
		return &DataIntegrityError{Msg: "no correct choice configured"}
	}
	return &ValidationError{Msg: err.Error()}
}

// ---- manual grading ----

func (s *Service) GradeManually(ctx context.Context, callerID, answerID string, score int) (Answer, error) {
	if answerID == "" {
		return Answer{}, &ValidationError{Msg: "invalid request"}
	}
	a, err := s.store.GetAnswer(ctx, answerID)
	if err != nil {
		return Answer{}, err
	}
	q, err := s.store.GetQuestion(ctx, a.QuestionID)
	if err != nil {
		return Answer{}, err
	}
	t, err := s.store.GetTest(ctx, q.TestID)
	if err != nil {
		return Answer{}, err
	}
	if t.CreatorID != callerID {
		return Answer{}, &AuthorizationError{Msg: "not the test creator"}
	}
	if score < 0 || score > q.MaxScore {
		return Answer{}, &ValidationError{Msg: fmt.Sprintf("score must be between 0 and %d", q.MaxScore)}
	}
	a.Score = score
	if err := s.store.UpdateAnswer(ctx, a); err != nil {
		return Answer{}, err
	}
	if _, err := s.RecomputeScore(ctx, a.ParticipantID); err != nil {
		return Answer{}, err
	}
	return a, nil
}

// ---- completion and aggregation ----

// Complete joins on every pending background grade for the participant, then
// marks the attempt completed (irreversible) and recomputes the final total.
func (s *Service) Complete(ctx context.Context, participantID string, who Identity) (Participant, error) {
	p, err := s.store.GetParticipant(ctx, participantID)
	if err != nil {
		return Participant{}, err
	}
	if !owns(p, who) {
		return Participant{}, &AuthorizationError{Msg: "unauthorized"}
	}
	if p.Completed {
		return Participant{}, &StateError{Msg: "test has been completed"}
	}

	// Join barrier: every background grade fired during this attempt must
	// land before the score freezes. A failed grade leaves its answer for
	// manual grading rather than blocking completion.
	if err := s.pending.Wait(participantID); err != nil {
		log.Printf("pending grades for participant %s: %v", participantID, err)
	}

	if err := s.store.MarkCompleted(ctx, participantID); err != nil {
		return Participant{}, err
	}
	score, err := s.RecomputeScore(ctx, participantID)
	if err != nil {
		return Participant{}, err
	}
	p.Completed = true
	p.Score = score
	return p, nil
}

// RecomputeScore sums all of the participant's answer scores and overwrites
// the aggregate. Always a full recomputation, never an increment, so it is
// idempotent and safe to call after any single-answer change.
func (s *Service) RecomputeScore(ctx context.Context, participantID string) (int, error) {
	answers, err := s.store.ListAnswers(ctx, participantID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, a := range answers {
		total += a.Score
	}
	if err := s.store.SetParticipantScore(ctx, participantID, total); err != nil {
		return 0, err
	}
	return total, nil
}

// WaitPending blocks until the participant's background grades settle.
// Exposed for tests and graceful shutdown.
func (s *Service) WaitPending(participantID string) error {
	return s.pending.Wait(participantID)
}
