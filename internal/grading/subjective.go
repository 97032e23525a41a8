package grading

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/quizforge/quizforge/internal/llm"
)

// ErrAllProvidersFailed is returned when every credential in the pool was
// tried without producing a parseable, in-range score.
var ErrAllProvidersFailed = errors.New("all grading providers failed")

// SubjectiveResult is the outcome of one AI grading call.
type SubjectiveResult struct {
	Score       int
	Explanation string
}

// SubjectiveInput carries everything the model needs to judge an essay.
type SubjectiveInput struct {
	Question string
	Key      string
	Answer   string
	MinScore int
	MaxScore int
}

const subjectiveSystemPrompt = `You are grading a student's essay answer against the model answer.
Reply with exactly this format and nothing else:
Score: <integer between %d and %d> Explanation: <one or two sentences justifying the score>`

// scorePattern matches the fixed reply format. (?s) lets the explanation span
// lines.
var scorePattern = regexp.MustCompile(`(?s)Score:\s*(-?\d+)\s*Explanation:\s*(.+)`)

// Subjective grades essays by delegating to a chat-completion endpoint.
// Providers are tried in pool order; a response counts only if it parses to an
// integer inside [MinScore, MaxScore]. This is the only grader that can be
// slow or fail, so callers run it in the background and join on it before
// finalizing the attempt.
type Subjective struct {
	pool      []llm.Provider
	maxTokens int
}

func NewSubjective(pool []llm.Provider) *Subjective {
	return &Subjective{pool: pool, maxTokens: 512}
}

// Available reports whether any credential is configured.
func (s *Subjective) Available() bool { return len(s.pool) > 0 }

func (s *Subjective) Grade(ctx context.Context, in SubjectiveInput) (SubjectiveResult, error) {
	if len(s.pool) == 0 {
		return SubjectiveResult{}, ErrAllProvidersFailed
	}
	req := llm.Request{
		System:    fmt.Sprintf(subjectiveSystemPrompt, in.MinScore, in.MaxScore),
		User:      fmt.Sprintf("Question:\n%s\n\nModel answer:\n%s\n\nStudent answer:\n%s", in.Question, in.Key, in.Answer),
		MaxTokens: s.maxTokens,
	}

	var lastErr error
	for _, p := range s.pool {
		text, err := p.Complete(ctx, req)
		if err != nil {
			lastErr = err
			log.Printf("subjective grading: %v", err)
			continue
		}
		res, err := parseSubjective(text, in.MinScore, in.MaxScore)
		if err != nil {
			lastErr = err
			log.Printf("subjective grading: %s: %v", p.Name(), err)
			continue
		}
		return res, nil
	}
	return SubjectiveResult{}, fmt.Errorf("%w: %w", ErrAllProvidersFailed, lastErr)
}

func parseSubjective(text string, minScore, maxScore int) (SubjectiveResult, error) {
	m := scorePattern.FindStringSubmatch(text)
	if m == nil {
		return SubjectiveResult{}, fmt.Errorf("response does not match Score/Explanation format")
	}
	score, err := strconv.Atoi(m[1])
	if err != nil {
		return SubjectiveResult{}, fmt.Errorf("score %q is not an integer", m[1])
	}
	if score < minScore || score > maxScore {
		return SubjectiveResult{}, fmt.Errorf("score %d outside [%d, %d]", score, minScore, maxScore)
	}
	return SubjectiveResult{Score: score, Explanation: strings.TrimSpace(m[2])}, nil
}
