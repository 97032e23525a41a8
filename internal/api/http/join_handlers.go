package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quizforge/quizforge/internal/quiz"
)

// POST /join/{code} — start (or resume) an attempt on the test behind the code.
func JoinHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, answers, err := svc.Join(r.Context(), chi.URLParam(r, "code"), identityFromContext(r))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, map[string]any{"participant": p, "answers": answers})
	}
}

// GET /session/{participantID} — reload an in-progress attempt.
func SessionHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, answers, err := svc.Session(r.Context(), chi.URLParam(r, "participantID"), identityFromContext(r))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, map[string]any{"participant": p, "answers": answers})
	}
}

// POST /session/{participantID}/complete — finish the attempt. Blocks on any
// pending grading before the final score is computed.
func CompleteHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Complete(r.Context(), chi.URLParam(r, "participantID"), identityFromContext(r))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, map[string]any{"participant": p})
	}
}
