package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAllowed(t *testing.T) {
	tests := []struct {
		role string
		perm string
		want bool
	}{
		{"creator", "test:create", true},
		{"creator", "answer:grade", true},
		{"participant", "test:join", true},
		{"participant", "answer:submit", true},
		{"participant", "test:create", false},
		{"participant", "answer:grade", false},
		{"admin", "test:create", true},
		{"admin", "anything:at-all", true},
		{"", "test:join", false},
		{"unknown-role", "test:join", false},
	}
	for _, tt := range tests {
		if got := Allowed(tt.role, tt.perm); got != tt.want {
			t.Errorf("Allowed(%q, %q) = %v, want %v", tt.role, tt.perm, got, tt.want)
		}
	}
}

func TestRequire(t *testing.T) {
	h := Require("test:create")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, tt := range []struct {
		name string
		role string
		want int
	}{
		{"no role", "", http.StatusForbidden},
		{"wrong role", "participant", http.StatusForbidden},
		{"granted", "creator", http.StatusOK},
		{"admin wildcard", "admin", http.StatusOK},
	} {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/tests", nil)
			if tt.role != "" {
				req = req.WithContext(WithRole(req.Context(), tt.role))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("role %q: status = %d, want %d", tt.role, rec.Code, tt.want)
			}
		})
	}
}
