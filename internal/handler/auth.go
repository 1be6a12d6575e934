package handler

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/msomdec/inscripciones/internal/domain"
	"github.com/msomdec/inscripciones/internal/service"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	auth         *service.AuthService
	limiter      *service.TokenBucket
	cookieSecure bool
	log          *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. A nil limiter disables login
// rate limiting.
func NewAuthHandler(auth *service.AuthService, limiter *service.TokenBucket, cookieSecure bool, log *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, limiter: limiter, cookieSecure: cookieSecure, log: log.With("component", "auth")}
}

// HandleLogin processes a JSON login request.
// POST /api/auth/login
// Request:  {"email":"...","password":"..."}
// Response: {user fields}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if h.limiter != nil && !h.limiter.Allow(ip) {
		wait := h.limiter.RetryAfter(ip)
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		writeError(w, http.StatusTooManyRequests, "Demasiados intentos, intente más tarde")
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Email y contraseña son requeridos")
		return
	}

	user, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "Email y contraseña son requeridos")
		case errors.Is(err, domain.ErrUnauthorized):
			h.log.Info("login failed", "email", req.Email)
			writeError(w, http.StatusUnauthorized, "Credenciales inválidas")
		default:
			h.log.Error("login user", "error", err)
			writeError(w, http.StatusInternalServerError, msgInternal)
		}
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(h.auth.SessionTTL().Seconds()),
	})

	h.log.Info("login succeeded", "user_id", user.ID)
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// HandleLogout clears the session cookie.
// POST /api/auth/logout
// Response: {"success":true}
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleMe returns the currently authenticated user.
// GET /api/auth/me
// Response: {"authenticated":bool,"user":{...}}
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          toUserDTO(user),
	})
}
