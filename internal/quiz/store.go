package quiz

import "context"

// Store is the persistence gateway. It does plain reads and writes; all
// lifecycle rules (join preconditions, immutability after completion,
// ownership checks, grading) live in Service. Implementations: SQLStore for
// sqlite/postgres, MemStore for tests and dev.
type Store interface {
	// Tests. PutTest persists a fully-populated test (questions, choices,
	// prerequisites) whose IDs and join code the caller has already assigned.
	PutTest(ctx context.Context, t Test) error
	GetTest(ctx context.Context, id string) (Test, error) // full, with answer keys
	GetTestByCode(ctx context.Context, code string) (Test, error)
	ListTests(ctx context.Context, creatorID string) ([]TestSummary, error)
	GetQuestion(ctx context.Context, id string) (Question, error)
	// UpdateQuestion replaces the question row and its whole choice set.
	UpdateQuestion(ctx context.Context, q Question) error
	SetAcceptResponses(ctx context.Context, testID string, accept bool) error
	// NextCodeSeq allocates the next join-code sequence number.
	NextCodeSeq(ctx context.Context) (uint32, error)

	// Participants and answers. CreateParticipant inserts the participant and
	// its pre-created empty answer rows atomically.
	CreateParticipant(ctx context.Context, p Participant, answers []Answer) error
	GetParticipant(ctx context.Context, id string) (Participant, error)
	ListParticipants(ctx context.Context, testID string) ([]Participant, error)
	// FindAttempts returns all of one identity's attempts at a test.
	FindAttempts(ctx context.Context, testID string, who Identity) ([]Participant, error)
	// BestCompletedScore returns the identity's highest score among completed
	// attempts; ok=false when there is none.
	BestCompletedScore(ctx context.Context, testID, userID string) (score int, ok bool, err error)
	GetAnswer(ctx context.Context, id string) (Answer, error)
	ListAnswers(ctx context.Context, participantID string) ([]Answer, error)
	UpdateAnswer(ctx context.Context, a Answer) error
	SetParticipantScore(ctx context.Context, id string, score int) error
	MarkCompleted(ctx context.Context, id string) error
}
