package handler

import (
	"log/slog"
	"net/http"

	"github.com/msomdec/inscripciones/internal/domain"
	"github.com/msomdec/inscripciones/internal/logging"
	"github.com/msomdec/inscripciones/internal/service"
)

// Dependencies are the services the HTTP layer is built from.
type Dependencies struct {
	Auth          *service.AuthService
	Registrations *service.RegistrationService
	Files         *service.FileService
	Disciplines   *service.DisciplineCatalog
	Audit         domain.SystemLogRepository
	Logs          *logging.Buffer
	DB            Pinger
	LoginLimiter  *service.TokenBucket
	CookieSecure  bool
	Log           *slog.Logger
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	authH := NewAuthHandler(deps.Auth, deps.LoginLimiter, deps.CookieSecure, deps.Log)
	regH := NewRegistrationHandler(deps.Registrations, deps.Files, deps.Log)
	fileH := NewFileHandler(deps.Files, deps.Registrations, deps.Log)
	discH := NewDisciplineHandler(deps.Disciplines, deps.Log)
	logH := NewLogHandler(deps.Logs, deps.Audit, deps.Log)

	requireAuth := func(h http.HandlerFunc) http.Handler { return RequireAuth(deps.Auth, deps.Log, h) }

	mux.HandleFunc("GET /healthz", HandleHealthz)
	mux.Handle("GET /readyz", HandleReadyz(deps.DB, deps.Log))

	mux.HandleFunc("POST /api/auth/login", authH.HandleLogin)
	mux.HandleFunc("POST /api/auth/logout", authH.HandleLogout)
	mux.Handle("GET /api/auth/me", OptionalAuth(deps.Auth, deps.Log, http.HandlerFunc(authH.HandleMe)))

	mux.HandleFunc("GET /api/disciplinas", discH.HandleList)

	mux.Handle("POST /api/inscripciones", requireAuth(regH.HandleSubmit))
	mux.Handle("GET /api/inscripciones/listar", requireAuth(regH.HandleList))
	mux.Handle("GET /api/inscripciones/detalles/{id}", requireAuth(regH.HandleDetail))
	mux.Handle("POST /api/inscripciones/aprobar", requireAuth(regH.HandleApprove))
	mux.Handle("POST /api/inscripciones/rechazar", requireAuth(regH.HandleReject))

	mux.Handle("GET /api/archivos/{path}", requireAuth(fileH.HandleInscriptionFile))
	mux.Handle("GET /media/{path...}", requireAuth(fileH.HandleMedia))

	mux.Handle("GET /api/logs", requireAuth(logH.HandleRecent))
	mux.Handle("DELETE /api/logs", requireAuth(logH.HandleClear))
	mux.Handle("GET /api/logs/sistema", requireAuth(logH.HandleSystem))
}

// NewRouter returns the mux wrapped in the standard middleware chain.
func NewRouter(deps Dependencies) http.Handler {
	mux := http.NewServeMux()
	RegisterRoutes(mux, deps)
	return SecurityHeaders(RequestLogger(deps.Log, mux))
}
