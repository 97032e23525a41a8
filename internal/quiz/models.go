package quiz

// QuestionType discriminates the three question kinds. Every switch over it
// must handle all three cases.
type QuestionType string

const (
	QuestionEssay       QuestionType = "essay"
	QuestionChoice      QuestionType = "choice"
	QuestionMultiSelect QuestionType = "multiselect"
)

type Choice struct {
	ID         string `json:"id"`
	QuestionID string `json:"question_id,omitempty"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"is_correct,omitempty"`
}

type Question struct {
	ID       string       `json:"id"`
	TestID   string       `json:"test_id,omitempty"`
	Position int          `json:"position"`
	Type     QuestionType `json:"type"`
	Text     string       `json:"text"`
	MaxScore int          `json:"max_score"`

	// Essay key. ExactAnswer selects string-equality grading; otherwise the
	// answer is graded by the subjective (AI) grader.
	AnswerText  string `json:"answer_text,omitempty"`
	ExactAnswer bool   `json:"exact_answer,omitempty"`

	Choices []Choice `json:"choices,omitempty"`
}

// Prerequisite gates joining a test on the user's best completed score on
// another test.
type Prerequisite struct {
	TestID         string `json:"test_id,omitempty"`
	RequiredTestID string `json:"required_test_id"`
	MinScore       int    `json:"min_score"`
}

type Test struct {
	ID              string `json:"id"`
	CreatorID       string `json:"creator_id,omitempty"`
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	JoinCode        string `json:"join_code,omitempty"`
	AcceptResponses bool   `json:"accept_responses"`
	RequiresLogin   bool   `json:"requires_login"`
	StartTime       int64  `json:"start_time,omitempty"` // unix seconds, 0 = no lower bound
	EndTime         int64  `json:"end_time,omitempty"`   // unix seconds, 0 = no upper bound
	MaxAttempts     int    `json:"max_attempts,omitempty"` // 0 = unlimited
	CreatedAt       int64  `json:"created_at,omitempty"`

	Questions     []Question     `json:"questions,omitempty"`
	Prerequisites []Prerequisite `json:"prerequisites,omitempty"`
}

// TestSummary is the list view of a test (no questions, no keys).
type TestSummary struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	JoinCode        string `json:"join_code"`
	AcceptResponses bool   `json:"accept_responses"`
	QuestionCount   int    `json:"question_count"`
	CreatedAt       int64  `json:"created_at"`
}

// Participant is one attempt at a test. UserID is empty for guests.
// Once Completed is set, answers are immutable.
type Participant struct {
	ID        string `json:"id"`
	TestID    string `json:"test_id"`
	UserID    string `json:"user_id,omitempty"`
	GuestName string `json:"guest_name,omitempty"`
	Score     int    `json:"score"`
	Completed bool   `json:"completed"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

// Identity is who is joining or submitting: an authenticated user (UserID set)
// or a guest (GuestName set).
type Identity struct {
	UserID    string
	GuestName string
}

// Answer holds one participant's response to one question. Rows are created
// empty at join time and updated in place; they are never deleted. Exactly one
// of the content fields is meaningful, selected by Type.
type Answer struct {
	ID            string       `json:"id"`
	ParticipantID string       `json:"participant_id"`
	QuestionID    string       `json:"question_id"`
	Type          QuestionType `json:"type"`

	AnswerText        string   `json:"answer_text,omitempty"`
	SelectedChoiceID  string   `json:"selected_choice_id,omitempty"`
	SelectedChoiceIDs []string `json:"selected_choice_ids,omitempty"`

	Score       int    `json:"score"`
	Explanation string `json:"explanation,omitempty"` // AI grader rationale, essay only
}
