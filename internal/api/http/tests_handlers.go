package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quizforge/quizforge/internal/auth"
	"github.com/quizforge/quizforge/internal/quiz"
)

// POST /tests
func CreateTestHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t quiz.Test
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			writeErr(w, &quiz.ValidationError{Msg: "bad json"})
			return
		}
		created, err := svc.CreateTest(r.Context(), auth.SubjectFromContext(r.Context()), t)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, map[string]any{"test": created})
	}
}

// GET /tests — creator's own tests
func ListTestsHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.ListTests(r.Context(), auth.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, map[string]any{"tests": out})
	}
}

// GET /tests/{testID} — full test with keys, creator only
func GetTestHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := svc.GetTestForCreator(r.Context(), auth.SubjectFromContext(r.Context()), chi.URLParam(r, "testID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, map[string]any{"test": t})
	}
}

// GET /join/{code} — participant-safe preview, keys stripped
func PreviewTestHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := svc.GetTestByCode(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, map[string]any{"test": t})
	}
}

// PUT /questions/{questionID}
func UpdateQuestionHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q quiz.Question
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			writeErr(w, &quiz.ValidationError{Msg: "bad json"})
			return
		}
		q.ID = chi.URLParam(r, "questionID")
		updated, err := svc.UpdateQuestion(r.Context(), auth.SubjectFromContext(r.Context()), q)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, map[string]any{"question": updated})
	}
}

// POST /tests/{testID}/accepting  { "accept_responses": bool }
func SetAcceptResponsesHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			AcceptResponses bool `json:"accept_responses"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, &quiz.ValidationError{Msg: "bad json"})
			return
		}
		err := svc.SetAcceptResponses(r.Context(), auth.SubjectFromContext(r.Context()),
			chi.URLParam(r, "testID"), req.AcceptResponses)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, map[string]any{"accept_responses": req.AcceptResponses})
	}
}

// GET /tests/{testID}/participants — creator review
func ListParticipantsHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.ListParticipants(r.Context(), auth.SubjectFromContext(r.Context()), chi.URLParam(r, "testID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, map[string]any{"participants": out})
	}
}

// GET /participants/{participantID}/review — creator's view of one attempt
func ReviewAnswersHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.ParticipantAnswers(r.Context(), auth.SubjectFromContext(r.Context()), chi.URLParam(r, "participantID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, map[string]any{"answers": out})
	}
}
