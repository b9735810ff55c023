package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const sessionCookie = "cyberguard_session"

// session returns the request's session ID, issuing a new cookie when the
// request carries none. The session row is created on first sight.
func (a *API) session(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		if _, err := uuid.Parse(c.Value); err == nil {
			_ = a.sessions.EnsureSession(c.Value)
			return c.Value
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(time.Hour),
	})
	if err := a.sessions.EnsureSession(id); err != nil {
		a.logger.Error("ensure session failed", "error", err.Error())
	}
	return id
}
