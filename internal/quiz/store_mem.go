package quiz

import (
	"context"
	"sort"
	"sync"
)

// MemStore is an in-memory Store for tests and single-process dev runs.
type MemStore struct {
	mu           sync.RWMutex
	tests        map[string]Test
	participants map[string]Participant
	answers      map[string]Answer
	codeSeq      uint32
}

func NewMemStore() *MemStore {
	return &MemStore{
		tests:        map[string]Test{},
		participants: map[string]Participant{},
		answers:      map[string]Answer{},
	}
}

func (m *MemStore) PutTest(_ context.Context, t Test) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tests[t.ID] = cloneTest(t)
	return nil
}

func (m *MemStore) GetTest(_ context.Context, id string) (Test, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tests[id]
	if !ok {
		return Test{}, &NotFoundError{Resource: "test"}
	}
	return cloneTest(t), nil
}

func (m *MemStore) GetTestByCode(_ context.Context, code string) (Test, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tests {
		if t.JoinCode == code {
			return cloneTest(t), nil
		}
	}
	return Test{}, &NotFoundError{Resource: "test"}
}

func (m *MemStore) ListTests(_ context.Context, creatorID string) ([]TestSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []TestSummary{}
	for _, t := range m.tests {
		if t.CreatorID != creatorID {
			continue
		}
		out = append(out, TestSummary{
			ID:              t.ID,
			Title:           t.Title,
			JoinCode:        t.JoinCode,
			AcceptResponses: t.AcceptResponses,
			QuestionCount:   len(t.Questions),
			CreatedAt:       t.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

func (m *MemStore) GetQuestion(_ context.Context, id string) (Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tests {
		for _, q := range t.Questions {
			if q.ID == id {
				return cloneQuestion(q), nil
			}
		}
	}
	return Question{}, &NotFoundError{Resource: "question"}
}

func (m *MemStore) UpdateQuestion(_ context.Context, q Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.tests {
		for i := range t.Questions {
			if t.Questions[i].ID == q.ID {
				q.TestID = t.Questions[i].TestID
				q.Type = t.Questions[i].Type
				t.Questions[i] = cloneQuestion(q)
				m.tests[id] = t
				return nil
			}
		}
	}
	return &NotFoundError{Resource: "question"}
}

func (m *MemStore) SetAcceptResponses(_ context.Context, testID string, accept bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tests[testID]
	if !ok {
		return &NotFoundError{Resource: "test"}
	}
	t.AcceptResponses = accept
	m.tests[testID] = t
	return nil
}

func (m *MemStore) NextCodeSeq(_ context.Context) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codeSeq++
	return m.codeSeq, nil
}

func (m *MemStore) CreateParticipant(_ context.Context, p Participant, answers []Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.participants[p.ID] = p
	for _, a := range answers {
		m.answers[a.ID] = cloneAnswer(a)
	}
	return nil
}

func (m *MemStore) GetParticipant(_ context.Context, id string) (Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.participants[id]
	if !ok {
		return Participant{}, &NotFoundError{Resource: "participant"}
	}
	return p, nil
}

func (m *MemStore) ListParticipants(_ context.Context, testID string) ([]Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Participant{}
	for _, p := range m.participants {
		if p.TestID == testID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func (m *MemStore) FindAttempts(_ context.Context, testID string, who Identity) ([]Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Participant{}
	for _, p := range m.participants {
		if p.TestID != testID {
			continue
		}
		if who.UserID != "" && p.UserID == who.UserID {
			out = append(out, p)
		} else if who.UserID == "" && p.UserID == "" && p.GuestName == who.GuestName {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func (m *MemStore) BestCompletedScore(_ context.Context, testID, userID string) (int, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	best, found := 0, false
	for _, p := range m.participants {
		if p.TestID == testID && p.UserID == userID && p.Completed {
			if !found || p.Score > best {
				best = p.Score
			}
			found = true
		}
	}
	return best, found, nil
}

func (m *MemStore) GetAnswer(_ context.Context, id string) (Answer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.answers[id]
	if !ok {
		return Answer{}, &NotFoundError{Resource: "answer"}
	}
	return cloneAnswer(a), nil
}

func (m *MemStore) ListAnswers(_ context.Context, participantID string) ([]Answer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pos := map[string]int{}
	for _, t := range m.tests {
		for _, q := range t.Questions {
			pos[q.ID] = q.Position
		}
	}
	out := []Answer{}
	for _, a := range m.answers {
		if a.ParticipantID == participantID {
			out = append(out, cloneAnswer(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return pos[out[i].QuestionID] < pos[out[j].QuestionID] })
	return out, nil
}

func (m *MemStore) UpdateAnswer(_ context.Context, a Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.answers[a.ID]; !ok {
		return &NotFoundError{Resource: "answer"}
	}
	m.answers[a.ID] = cloneAnswer(a)
	return nil
}

func (m *MemStore) SetParticipantScore(_ context.Context, id string, score int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[id]
	if !ok {
		return &NotFoundError{Resource: "participant"}
	}
	p.Score = score
	m.participants[id] = p
	return nil
}

func (m *MemStore) MarkCompleted(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[id]
	if !ok {
		return &NotFoundError{Resource: "participant"}
	}
	p.Completed = true
	m.participants[id] = p
	return nil
}

func cloneTest(t Test) Test {
	out := t
	out.Questions = make([]Question, len(t.Questions))
	for i, q := range t.Questions {
		out.Questions[i] = cloneQuestion(q)
	}
	out.Prerequisites = append([]Prerequisite(nil), t.Prerequisites...)
	return out
}

func cloneQuestion(q Question) Question {
	out := q
	out.Choices = append([]Choice(nil), q.Choices...)
	return out
}

func cloneAnswer(a Answer) Answer {
	out := a
	out.SelectedChoiceIDs = append([]string(nil), a.SelectedChoiceIDs...)
	return out
}
