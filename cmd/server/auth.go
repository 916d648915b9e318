package main

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Simplici0/buffet/internal/auth"
)

const sessionCookieName = "buffet_session"

func isPublicPath(path string) bool {
	switch path {
	case "/login", "/login/demo", "/healthz", "/metrics", "/static":
		return true
	}
	return strings.HasPrefix(path, "/static/")
}

// authMiddleware resolves the session cookie into an identity on the request
// context and sends anonymous visitors to the login page.
func (s *server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := s.sessionIdentity(r); ok {
			r = r.WithContext(auth.WithIdentity(r.Context(), id))
			next.ServeHTTP(w, r)
			return
		}
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})
}

func (s *server) sessionIdentity(r *http.Request) (auth.Identity, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return auth.Identity{}, false
	}
	id, err := s.sessions.Verify(cookie.Value)
	if err != nil {
		slog.Debug("rejected session cookie", "error", err)
		return auth.Identity{}, false
	}
	return id, true
}

func (s *server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.IdentityFrom(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	s.renderTemplate(w, http.StatusOK, "login.html", s.loginView(r, "", ""))
}

func (s *server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	id, err := s.passwords.Authenticate(r.Context(), email, r.FormValue("password"))
	if errors.Is(err, auth.ErrInvalidCredentials) {
		slog.Info("login rejected", "email", email)
		s.renderTemplate(w, http.StatusUnauthorized, "login.html", s.loginView(r, email, msgBadLogin))
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.startSession(w, id); err != nil {
		s.fail(w, r, err)
		return
	}
	slog.Info("login succeeded", "user_id", id.UserID)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *server) handleDemoLogin(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.DemoEnabled {
		http.NotFound(w, r)
		return
	}
	if err := s.startSession(w, auth.DemoIdentity()); err != nil {
		s.fail(w, r, err)
		return
	}
	slog.Info("demo login")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *server) loginView(r *http.Request, email, message string) loginViewData {
	view := loginViewData{
		baseViewData: s.base(r, "Entrar", ""),
		Email:        email,
		DemoEnabled:  s.cfg.DemoEnabled,
	}
	view.Identity = nil
	if message != "" {
		view.ErrorMessage = message
	}
	return view
}

func (s *server) startSession(w http.ResponseWriter, id auth.Identity) error {
	token, err := s.sessions.Issue(id)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   !s.cfg.IsDev(),
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !s.cfg.IsDev(),
		SameSite: http.SameSiteLaxMode,
	})
}
