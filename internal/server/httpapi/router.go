package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/acedema/acedema-back/internal/logging"
	"github.com/acedema/acedema-back/internal/server/models"
	"github.com/acedema/acedema-back/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
)

// AuthService is implemented by services.AuthService.
type AuthService interface {
	Register(ctx context.Context, candidate *models.Person, requesterIsAdmin bool) services.RegisterResult
	Login(ctx context.Context, email, password string) services.LoginResult
	UpdatePasswordAuthenticated(ctx context.Context, email, current, newPassword string) services.Result
	RequestPasswordReset(ctx context.Context, email string) services.ResetRequestResult
	ResetPasswordWithToken(ctx context.Context, token, newPassword string) services.Result
}

// ProfileService is implemented by services.ProfileService.
type ProfileService interface {
	GetProfile(ctx context.Context, caller *models.Person) services.ProfileResult
	GetPerson(ctx context.Context, caller *models.Person, id int64) services.ProfileResult
	UpdateProfile(ctx context.Context, caller *models.Person, upd *models.ProfileUpdate) services.ProfileResult
}

// Authorizer is implemented by authz.Gate.
type Authorizer interface {
	Authorize(ctx context.Context, token, ownerEmail string) (*models.Person, error)
	CheckOwner(p *models.Person, ownerEmail string) error
}

// Metrics is implemented by metrics.Collector.
type Metrics interface {
	RecordHTTP(route string, status int, d time.Duration)
	RecordRateLimited(route string)
}

type nopMetrics struct{}

func (nopMetrics) RecordHTTP(string, int, time.Duration) {}
func (nopMetrics) RecordRateLimited(string)              {}

// RouterDeps collects what NewRouter wires together. Metrics, MetricsHandler,
// RateLimiter and Health are optional.
type RouterDeps struct {
	Auth        AuthService
	Profiles    ProfileService
	Gate        Authorizer
	AdminRoleID int

	Logger         logging.Logger
	Metrics        Metrics
	MetricsHandler http.Handler
	RateLimiter    *RateLimiter
	Health         func(ctx context.Context) error

	CORSAllowedOrigins []string
}

// NewRouter builds the API:
//
//	POST /api/persona/registrarPersona        optional session, rate limited
//	POST /api/persona/login                   rate limited
//	POST /api/persona/solicitar-recuperacion  rate limited
//	POST /api/persona/restablecer-con-token   rate limited
//	POST /api/persona/actualizarContrasena    session
//	POST /api/persona/obtenerPersona          session
//	GET  /api/persona/perfil                  session
//	PUT  /api/persona/actualizarPerfil        session
//	GET  /healthz, GET /metrics
func NewRouter(d *RouterDeps) http.Handler {
	if d.Metrics == nil {
		d.Metrics = nopMetrics{}
	}

	r := chi.NewRouter()

	r.Use(recoverer(d.Logger))
	r.Use(accessLog(d.Logger, d.Metrics))
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   d.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler)

	h := &personaHandler{auth: d.Auth, profiles: d.Profiles, gate: d.Gate, adminRoleID: d.AdminRoleID}

	r.Get("/healthz", healthHandler(d.Health))
	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	limit := func(route string) func(http.Handler) http.Handler {
		return d.RateLimiter.Middleware(route, d.Metrics)
	}

	r.Route("/api/persona", func(r chi.Router) {
		r.With(limit("registrarPersona"), optionalSession(d.Gate)).Post("/registrarPersona", h.register)
		r.With(limit("login")).Post("/login", h.login)
		r.With(limit("solicitar-recuperacion")).Post("/solicitar-recuperacion", h.requestReset)
		r.With(limit("restablecer-con-token")).Post("/restablecer-con-token", h.resetWithToken)

		r.Group(func(r chi.Router) {
			r.Use(requireSession(d.Gate))
			r.Post("/actualizarContrasena", h.updatePassword)
			r.Post("/obtenerPersona", h.getPerson)
			r.Get("/perfil", h.profile)
			r.Put("/actualizarPerfil", h.updateProfile)
		})
	})

	return r
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
