package grading

import (
	"context"
	"errors"
	"testing"

	"github.com/quizforge/quizforge/internal/llm"
)

func subjInput() SubjectiveInput {
	return SubjectiveInput{
		Question: "Explain photosynthesis.",
		Key:      "Plants convert light into chemical energy.",
		Answer:   "Plants use sunlight to make sugar.",
		MinScore: 0,
		MaxScore: 10,
	}
}

func TestSubjectiveParsesWellFormedReply(t *testing.T) {
	mock := llm.NewMockProvider("p0",
		llm.MockResponse{Content: "Score: 7 Explanation: Covers the core idea but omits chlorophyll."},
	)
	g := NewSubjective([]llm.Provider{mock})

	res, err := g.Grade(context.Background(), subjInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Score != 7 {
		t.Fatalf("score = %d, want 7", res.Score)
	}
	if res.Explanation != "Covers the core idea but omits chlorophyll." {
		t.Fatalf("explanation = %q", res.Explanation)
	}
}

func TestSubjectiveMultilineExplanation(t *testing.T) {
	mock := llm.NewMockProvider("p0",
		llm.MockResponse{Content: "Score: 3\nExplanation: Partially right.\nMisses the energy conversion."},
	)
	g := NewSubjective([]llm.Provider{mock})

	res, err := g.Grade(context.Background(), subjInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Score != 3 {
		t.Fatalf("score = %d, want 3", res.Score)
	}
}

func TestSubjectiveFallsThroughBadReplies(t *testing.T) {
	bad := llm.NewMockProvider("p0",
		llm.MockResponse{Content: "I would give this a 7 out of 10."}, // wrong format
	)
	outOfRange := llm.NewMockProvider("p1",
		llm.MockResponse{Content: "Score: 42 Explanation: Too generous."},
	)
	down := llm.NewMockProvider("p2",
		llm.MockResponse{Err: errors.New("rate limited")},
	)
	good := llm.NewMockProvider("p3",
		llm.MockResponse{Content: "Score: 5 Explanation: Half credit."},
	)
	g := NewSubjective([]llm.Provider{bad, outOfRange, down, good})

	res, err := g.Grade(context.Background(), subjInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Score != 5 {
		t.Fatalf("score = %d, want 5", res.Score)
	}
	for _, m := range []*llm.MockProvider{bad, outOfRange, down, good} {
		if m.CallCount() != 1 {
			t.Fatalf("%s called %d times, want 1", m.Name(), m.CallCount())
		}
	}
}

func TestSubjectiveStopsAtFirstValid(t *testing.T) {
	first := llm.NewMockProvider("p0",
		llm.MockResponse{Content: "Score: 9 Explanation: Strong answer."},
	)
	second := llm.NewMockProvider("p1",
		llm.MockResponse{Content: "Score: 1 Explanation: Should not be reached."},
	)
	g := NewSubjective([]llm.Provider{first, second})

	res, err := g.Grade(context.Background(), subjInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Score != 9 {
		t.Fatalf("score = %d, want 9", res.Score)
	}
	if second.CallCount() != 0 {
		t.Fatalf("second provider called %d times, want 0", second.CallCount())
	}
}

func TestSubjectiveAllProvidersExhausted(t *testing.T) {
	g := NewSubjective([]llm.Provider{
		llm.NewMockProvider("p0", llm.MockResponse{Err: errors.New("down")}),
		llm.NewMockProvider("p1", llm.MockResponse{Content: "nonsense"}),
	})

	_, err := g.Grade(context.Background(), subjInput())
	if !errors.Is(err, ErrAllProvidersFailed) {
		t.Fatalf("got %v, want ErrAllProvidersFailed", err)
	}
}

func TestSubjectiveEmptyPool(t *testing.T) {
	g := NewSubjective(nil)
	if g.Available() {
		t.Fatal("empty pool reports available")
	}
	_, err := g.Grade(context.Background(), subjInput())
	if !errors.Is(err, ErrAllProvidersFailed) {
		t.Fatalf("got %v, want ErrAllProvidersFailed", err)
	}
}

func TestParseSubjectiveRange(t *testing.T) {
	for _, tt := range []struct {
		text string
		ok   bool
	}{
		{"Score: 0 Explanation: floor", true},
		{"Score: 10 Explanation: ceiling", true},
		{"Score: -1 Explanation: below", false},
		{"Score: 11 Explanation: above", false},
		{"Score: ten Explanation: words", false},
		{"", false},
	} {
		_, err := parseSubjective(tt.text, 0, 10)
		if (err == nil) != tt.ok {
			t.Fatalf("parseSubjective(%q): err = %v, want ok=%v", tt.text, err, tt.ok)
		}
	}
}
