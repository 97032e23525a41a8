package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quizforge/quizforge/internal/quiz"
)

// The three submit endpoints share a shape: decode the typed submission, fill
// the answer ID from the path, let the service grade and persist. The service
// rejects mismatched answer types, so a choice payload against an essay slot
// fails with a 400 rather than silently writing garbage.

// PUT /answers/{answerID}/essay
func SubmitEssayHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in quiz.EssaySubmission
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeErr(w, &quiz.ValidationError{Msg: "bad json"})
			return
		}
		in.AnswerID = chi.URLParam(r, "answerID")
		a, err := svc.SubmitEssay(r.Context(), identityFromContext(r), in)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, map[string]any{"answer": a})
	}
}

// PUT /answers/{answerID}/choice
func SubmitChoiceHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in quiz.ChoiceSubmission
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeErr(w, &quiz.ValidationError{Msg: "bad json"})
			return
		}
		in.AnswerID = chi.URLParam(r, "answerID")
		a, err := svc.SubmitChoice(r.Context(), identityFromContext(r), in)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, map[string]any{"answer": a})
	}
}

// PUT /answers/{answerID}/multiselect
func SubmitMultiSelectHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in quiz.MultiSelectSubmission
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeErr(w, &quiz.ValidationError{Msg: "bad json"})
			return
		}
		in.AnswerID = chi.URLParam(r, "answerID")
		a, err := svc.SubmitMultiSelect(r.Context(), identityFromContext(r), in)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, map[string]any{"answer": a})
	}
}
