package server

import (
	"net/http"

	"github.com/Dusk-Labs/dim-sub002/pkg/logger"
	"github.com/Dusk-Labs/dim-sub002/pkg/manager"
	"go.uber.org/zap"
)

// Login issues a token. A session cookie is set as well when cookies are enabled.
func (s Server) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req manager.Credentials
		if err := s.decode(r, &req); err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		token, err := s.manager.Login(r.Context(), req)
		if err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		s.setSession(w, r, token)
		respond(w, r, http.StatusOK, token, nil)
	}
}

// Register creates an account. Only the first account may register without an invite.
func (s Server) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req manager.RegisterRequest
		if err := s.decode(r, &req); err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		token, err := s.manager.Register(r.Context(), req)
		if err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		s.setSession(w, r, token)
		respond(w, r, http.StatusCreated, token, nil)
	}
}

func (s Server) setSession(w http.ResponseWriter, r *http.Request, token manager.Token) {
	authenticator := s.manager.Authenticator()
	if !authenticator.CookiesEnabled() {
		return
	}
	cookie, err := authenticator.SessionCookie(token.Token)
	if err != nil {
		logger.FromCtx(r.Context()).Warnw("failed to build session cookie", zap.Error(err))
		return
	}
	http.SetCookie(w, cookie)
}

func (s Server) ListInvites() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		invites, err := s.manager.ListInvites(r.Context(), claims(r))
		respond(w, r, http.StatusOK, invites, err)
	}
}

func (s Server) CreateInvite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		invite, err := s.manager.CreateInvite(r.Context(), claims(r))
		respond(w, r, http.StatusCreated, invite, err)
	}
}

func (s Server) UserSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := s.manager.UserSettings(r.Context(), userID(r))
		respond(w, r, http.StatusOK, settings, err)
	}
}

func (s Server) SetUserSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := readBody(r)
		if err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		settings, err := s.manager.SetUserSettings(r.Context(), userID(r), b)
		respond(w, r, http.StatusOK, settings, err)
	}
}

func (s Server) HostSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := s.manager.HostSettings(r.Context(), claims(r))
		respond(w, r, http.StatusOK, settings, err)
	}
}

func (s Server) SetHostSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := readBody(r)
		if err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		settings, err := s.manager.SetHostSettings(r.Context(), claims(r), b)
		respond(w, r, http.StatusOK, settings, err)
	}
}
