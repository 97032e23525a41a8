package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/quizforge/quizforge/internal/auth"
	"github.com/quizforge/quizforge/internal/quiz"
)

// All responses share one envelope: {"success":true, ...payload} or
// {"success":false, "error":"..."}. Typed domain errors map to statuses here;
// anything unrecognized is a 500 with a generic message so SQL details never
// reach the client.
func writeOK(w http.ResponseWriter, payload map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	var (
		ve *quiz.ValidationError
		ae *quiz.AuthorizationError
		se *quiz.StateError
		nf *quiz.NotFoundError
		de *quiz.DataIntegrityError
		xe *quiz.ExternalServiceError
	)
	switch {
	case errors.As(err, &ve):
		status, msg = http.StatusBadRequest, ve.Error()
	case errors.As(err, &ae):
		status, msg = http.StatusForbidden, ae.Error()
	case errors.As(err, &se):
		status, msg = http.StatusConflict, se.Error()
	case errors.As(err, &nf):
		status, msg = http.StatusNotFound, nf.Error()
	case errors.As(err, &de):
		status, msg = http.StatusInternalServerError, de.Error()
	case errors.As(err, &xe):
		status, msg = http.StatusBadGateway, xe.Error()
	default:
		log.Printf("handler error: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}

// identityFromContext builds the caller's quiz identity from the token
// claims: guests are keyed by display name, users by subject.
func identityFromContext(r *http.Request) quiz.Identity {
	sub := auth.SubjectFromContext(r.Context())
	if auth.IsGuest(sub) {
		return quiz.Identity{GuestName: auth.NameFromContext(r.Context())}
	}
	return quiz.Identity{UserID: sub}
}
