package quiz

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quizforge/quizforge/internal/db"
)

var sqlTestSeq int

func newSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	sqlTestSeq++
	dsn := fmt.Sprintf("file:quiztest%d?mode=memory&cache=shared", sqlTestSeq)
	h, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return NewSQLStore(h, "sqlite")
}

func sqlFixture() Test {
	return Test{
		ID:              "t1",
		CreatorID:       "creator",
		Title:           "Biology 101",
		Description:     "intro",
		JoinCode:        "ABCDEFG",
		AcceptResponses: true,
		MaxAttempts:     2,
		CreatedAt:       100,
		Questions: []Question{
			{ID: "q1", TestID: "t1", Position: 0, Type: QuestionEssay, Text: "essay", MaxScore: 5,
				AnswerText: "key", ExactAnswer: true},
			{ID: "q2", TestID: "t1", Position: 1, Type: QuestionChoice, Text: "pick", MaxScore: 10,
				Choices: []Choice{
					{ID: "c1", QuestionID: "q2", Text: "right", IsCorrect: true},
					{ID: "c2", QuestionID: "q2", Text: "wrong"},
				}},
		},
	}
}

func TestSQLStoreTestRoundTrip(t *testing.T) {
	s := newSQLStore(t)
	ctx := context.Background()
	fixture := sqlFixture()
	require.NoError(t, s.PutTest(ctx, fixture))

	got, err := s.GetTest(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, fixture.Title, got.Title)
	require.Equal(t, fixture.JoinCode, got.JoinCode)
	require.True(t, got.AcceptResponses)
	require.Len(t, got.Questions, 2)
	require.Equal(t, QuestionEssay, got.Questions[0].Type)
	require.True(t, got.Questions[0].ExactAnswer)
	require.Len(t, got.Questions[1].Choices, 2)
	require.True(t, got.Questions[1].Choices[0].IsCorrect)

	byCode, err := s.GetTestByCode(ctx, "ABCDEFG")
	require.NoError(t, err)
	require.Equal(t, "t1", byCode.ID)

	_, err = s.GetTest(ctx, "missing")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestSQLStorePrerequisites(t *testing.T) {
	s := newSQLStore(t)
	ctx := context.Background()
	require.NoError(t, s.PutTest(ctx, sqlFixture()))

	advanced := Test{
		ID: "t2", CreatorID: "creator", Title: "Biology 201", JoinCode: "HJKLMNP",
		AcceptResponses: true, CreatedAt: 200,
		Prerequisites: []Prerequisite{{TestID: "t2", RequiredTestID: "t1", MinScore: 8}},
	}
	require.NoError(t, s.PutTest(ctx, advanced))

	got, err := s.GetTest(ctx, "t2")
	require.NoError(t, err)
	require.Len(t, got.Prerequisites, 1)
	require.Equal(t, "t1", got.Prerequisites[0].RequiredTestID)
	require.Equal(t, 8, got.Prerequisites[0].MinScore)
}

func TestSQLStoreListTests(t *testing.T) {
	s := newSQLStore(t)
	ctx := context.Background()
	require.NoError(t, s.PutTest(ctx, sqlFixture()))

	out, err := s.ListTests(ctx, "creator")
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, 2, out[0].QuestionCount)

	none, err := s.ListTests(ctx, "other")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestSQLStoreUpdateQuestionReplacesChoices(t *testing.T) {
	s := newSQLStore(t)
	ctx := context.Background()
	require.NoError(t, s.PutTest(ctx, sqlFixture()))

	q, err := s.GetQuestion(ctx, "q2")
	require.NoError(t, err)
	q.Text = "pick again"
	q.Choices = []Choice{
		{ID: "c3", QuestionID: "q2", Text: "new right", IsCorrect: true},
		{ID: "c4", QuestionID: "q2", Text: "new wrong"},
		{ID: "c5", QuestionID: "q2", Text: "also wrong"},
	}
	require.NoError(t, s.UpdateQuestion(ctx, q))

	got, err := s.GetQuestion(ctx, "q2")
	require.NoError(t, err)
	require.Equal(t, "pick again", got.Text)
	require.Len(t, got.Choices, 3)
	for _, c := range got.Choices {
		require.NotEqual(t, "c1", c.ID)
	}
}

func TestSQLStoreNextCodeSeq(t *testing.T) {
	s := newSQLStore(t)
	ctx := context.Background()
	a, err := s.NextCodeSeq(ctx)
	require.NoError(t, err)
	b, err := s.NextCodeSeq(ctx)
	require.NoError(t, err)
	require.Greater(t, b, a)
}

func TestSQLStoreParticipantsAndAnswers(t *testing.T) {
	s := newSQLStore(t)
	ctx := context.Background()
	require.NoError(t, s.PutTest(ctx, sqlFixture()))

	p := Participant{ID: "p1", TestID: "t1", GuestName: "ada", CreatedAt: 100}
	answers := []Answer{
		{ID: "a2", ParticipantID: "p1", QuestionID: "q2", Type: QuestionChoice},
		{ID: "a1", ParticipantID: "p1", QuestionID: "q1", Type: QuestionEssay},
	}
	require.NoError(t, s.CreateParticipant(ctx, p, answers))

	got, err := s.ListAnswers(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Ordered by question position, not insertion.
	require.Equal(t, "a1", got[0].ID)
	require.Equal(t, "a2", got[1].ID)

	a := got[1]
	a.SelectedChoiceID = "c1"
	a.Score = 10
	require.NoError(t, s.UpdateAnswer(ctx, a))
	back, err := s.GetAnswer(ctx, "a2")
	require.NoError(t, err)
	require.Equal(t, "c1", back.SelectedChoiceID)
	require.Equal(t, 10, back.Score)

	require.NoError(t, s.SetParticipantScore(ctx, "p1", 10))
	require.NoError(t, s.MarkCompleted(ctx, "p1"))
	pp, err := s.GetParticipant(ctx, "p1")
	require.NoError(t, err)
	require.True(t, pp.Completed)
	require.Equal(t, 10, pp.Score)
}

func TestSQLStoreMultiSelectIDsRoundTrip(t *testing.T) {
	s := newSQLStore(t)
	ctx := context.Background()
	require.NoError(t, s.PutTest(ctx, sqlFixture()))
	p := Participant{ID: "p1", TestID: "t1", GuestName: "ada", CreatedAt: 100}
	require.NoError(t, s.CreateParticipant(ctx, p, []Answer{
		{ID: "a1", ParticipantID: "p1", QuestionID: "q1", Type: QuestionMultiSelect},
	}))

	a, err := s.GetAnswer(ctx, "a1")
	require.NoError(t, err)
	a.SelectedChoiceIDs = []string{"c1", "c2"}
	require.NoError(t, s.UpdateAnswer(ctx, a))

	back, err := s.GetAnswer(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, []string{"c1", "c2"}, back.SelectedChoiceIDs)
}

func TestSQLStoreFindAttemptsAndBestScore(t *testing.T) {
	s := newSQLStore(t)
	ctx := context.Background()
	require.NoError(t, s.PutTest(ctx, sqlFixture()))

	require.NoError(t, s.CreateParticipant(ctx, Participant{ID: "p1", TestID: "t1", UserID: "u1", Score: 5, Completed: true, CreatedAt: 1}, nil))
	require.NoError(t, s.CreateParticipant(ctx, Participant{ID: "p2", TestID: "t1", UserID: "u1", Score: 9, Completed: true, CreatedAt: 2}, nil))
	require.NoError(t, s.CreateParticipant(ctx, Participant{ID: "p3", TestID: "t1", UserID: "u1", Score: 12, CreatedAt: 3}, nil)) // incomplete
	require.NoError(t, s.CreateParticipant(ctx, Participant{ID: "p4", TestID: "t1", GuestName: "ada", CreatedAt: 4}, nil))

	mine, err := s.FindAttempts(ctx, "t1", Identity{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, mine, 3)

	guest, err := s.FindAttempts(ctx, "t1", Identity{GuestName: "ada"})
	require.NoError(t, err)
	require.Len(t, guest, 1)
	require.Equal(t, "p4", guest[0].ID)

	best, ok, err := s.BestCompletedScore(ctx, "t1", "u1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 9, best) // incomplete p3 doesn't count

	_, ok, err = s.BestCompletedScore(ctx, "t1", "nobody")
	require.NoError(t, err)
	require.False(t, ok)
}
