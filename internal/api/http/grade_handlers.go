package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quizforge/quizforge/internal/auth"
	"github.com/quizforge/quizforge/internal/quiz"
)

// PUT /answers/{answerID}/grade  { "score": n }
//
// Manual override for essay answers the model could not grade, or where the
// creator disagrees with the automatic score.
func GradeManuallyHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Score int `json:"score"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, &quiz.ValidationError{Msg: "bad json"})
			return
		}
		a, err := svc.GradeManually(r.Context(), auth.SubjectFromContext(r.Context()),
			chi.URLParam(r, "answerID"), req.Score)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, map[string]any{"answer": a})
	}
}
