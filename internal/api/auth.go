package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/desertthunder/checklists/internal/auth"
	"github.com/desertthunder/checklists/internal/models"
	"github.com/desertthunder/checklists/internal/server"
	"github.com/desertthunder/checklists/internal/shared"
	"github.com/desertthunder/checklists/internal/validation"
)

type contextKey struct{}

// UserFromContext returns the authenticated user stored by the session middleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(contextKey{}).(*models.User)
	return user, ok && user != nil
}

// authedHandler is a handler that runs with a resolved user.
type authedHandler func(w http.ResponseWriter, r *http.Request, user *models.User)

// requireUser resolves the session token before calling next. Missing, unknown and expired
// sessions all produce the same 401.
func (a *API) requireUser(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := auth.TokenFromRequest(r, a.cookie.Name)

		user, _, err := a.auth.Authenticate(r.Context(), token)
		if err != nil {
			a.writeError(w, r, err, "")
			return
		}

		ctx := context.WithValue(r.Context(), contextKey{}, user)
		next(w, r.WithContext(ctx), user)
	}
}

type loginResponse struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expiresAt"`
}

func (a *API) signup(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		a.writeError(w, r, err, "")
		return
	}

	payload, err := validation.ValidateSignup(body)
	if err != nil {
		a.writeError(w, r, err, "")
		return
	}

	user, err := a.auth.Signup(r.Context(), payload.Email, payload.Password, payload.Name)
	if err != nil {
		a.writeError(w, r, err, "")
		return
	}

	a.logger.Info("user signed up", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, user.Identity())
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		a.writeError(w, r, err, "")
		return
	}

	payload, err := validation.ValidateLogin(body)
	if err != nil {
		a.writeError(w, r, err, "")
		return
	}

	client := auth.Client{UserAgent: r.UserAgent(), IPAddress: server.ClientIP(r)}
	user, session, token, err := a.auth.Login(r.Context(), payload.Email, payload.Password, client)
	switch {
	case errors.Is(err, shared.ErrInvalidCredentials):
		a.metrics.RecordLogin(server.LoginInvalid)
		a.writeError(w, r, err, "")
		return
	case err != nil:
		a.metrics.RecordLogin(server.LoginError)
		a.writeError(w, r, err, "")
		return
	}
	a.metrics.RecordLogin(server.LoginSuccess)

	http.SetCookie(w, a.sessionCookie(token, session.ExpiresAt))
	writeJSON(w, http.StatusOK, loginResponse{
		User:      user,
		Token:     token,
		ExpiresAt: models.FormatTimestamp(session.ExpiresAt),
	})
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	if err := a.auth.Logout(r.Context(), auth.TokenFromRequest(r, a.cookie.Name)); err != nil {
		a.writeError(w, r, err, "")
		return
	}

	http.SetCookie(w, a.sessionCookie("", time.Unix(0, 0)))
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (a *API) session(w http.ResponseWriter, r *http.Request, user *models.User) {
	writeJSON(w, http.StatusOK, user)
}

func (a *API) sessionCookie(token string, expires time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     a.cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   a.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if token == "" {
		c.MaxAge = -1
	}
	return c
}
