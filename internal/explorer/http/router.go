package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/explorer/internal/explorer/domain"
	"github.com/aussiebroadwan/explorer/internal/explorer/service"
	"github.com/aussiebroadwan/explorer/internal/explorer/store"
	"github.com/aussiebroadwan/explorer/pkg/httpx"
	"github.com/aussiebroadwan/explorer/pkg/jwtx"
	"github.com/aussiebroadwan/explorer/pkg/slogx"

	_ "github.com/aussiebroadwan/explorer/api/explorer" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	// Metrics serves GET /metrics when set.
	Metrics http.Handler

	AuthService     *service.AuthService
	AppService      *service.AppService
	ReviewService   *service.ReviewService
	MediaService    *service.MediaService
	CategoryService *service.CategoryService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Request logging always runs first so later middleware sees the
	// request scoped logger.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Recover(),
	}

	return r
}

// Use appends global middleware. It runs after request logging and panic
// recovery, in the order given.
func (r *Router) Use(mws ...httpx.Middleware) {
	r.middlewares = append(r.middlewares, mws...)
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerApps()
	r.registerReviews()
	r.registerUploads()
	r.registerCategories()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			App Explorer API
//	@version		1.0.0
//	@description	Directory of Linux applications with user submitted listings, reviews and media.
//	@description
//	@description				Session tokens are HS256 signed JWTs returned by the login endpoint.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/explorer
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService}
	required := httpx.RequireAuth(r.verifier)

	// Credential endpoints share the strict profile. Login is keyed by IP
	// and email so one address cannot be sprayed from many IPs.
	r.Mux.Handle("POST /api/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)
	r.Mux.Handle("POST /api/auth/verify-email",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyEmail),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/forgot-password",
		httpx.Chain(http.HandlerFunc(h.HandleForgotPassword),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/reset-password",
		httpx.Chain(http.HandlerFunc(h.HandleResetPassword),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /api/auth/resend-verification",
		httpx.Chain(http.HandlerFunc(h.HandleResendVerification),
			required,
			httpx.RateLimitByUser(httpx.WriteLimit),
		),
	)
	r.Mux.Handle("GET /api/auth/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			required,
			httpx.RateLimitByUser(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("PUT /api/auth/me",
		httpx.Chain(http.HandlerFunc(h.HandleUpdateProfile),
			required,
			httpx.RateLimitByUser(httpx.WriteLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/change-password",
		httpx.Chain(http.HandlerFunc(h.HandleChangePassword),
			required,
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerApps() {
	h := &AppsHandler{AppService: r.AppService}
	optional := httpx.OptionalAuth(r.verifier)
	required := httpx.RequireAuth(r.verifier)

	r.Mux.Handle("GET /api/apps",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			optional,
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /api/apps/{slug}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			optional,
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	r.Mux.Handle("POST /api/apps",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			required,
			httpx.RateLimitByUser(httpx.WriteLimit),
		),
	)
	r.Mux.Handle("PUT /api/apps/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			required,
			httpx.RateLimitByUser(httpx.WriteLimit),
		),
	)
	r.Mux.Handle("DELETE /api/apps/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			required,
			httpx.RateLimitByUser(httpx.WriteLimit),
		),
	)

	// Moderation flags are admin only.
	r.Mux.Handle("POST /api/apps/{id}/featured",
		httpx.Chain(http.HandlerFunc(h.HandleSetFeatured),
			required,
			httpx.RequireRole(jwtx.RoleAdmin),
			httpx.RateLimitByUser(httpx.WriteLimit),
		),
	)
	r.Mux.Handle("POST /api/apps/{id}/verified",
		httpx.Chain(http.HandlerFunc(h.HandleSetVerified),
			required,
			httpx.RequireRole(jwtx.RoleAdmin),
			httpx.RateLimitByUser(httpx.WriteLimit),
		),
	)
}

func (r *Router) registerReviews() {
	h := &ReviewsHandler{ReviewService: r.ReviewService}
	required := httpx.RequireAuth(r.verifier)

	routes := []struct {
		pattern string
		handler http.HandlerFunc
	}{
		{"POST /api/apps/{id}/reviews", h.HandleCreate},
		{"POST /api/reviews/{id}/reply", h.HandleReply},
		{"POST /api/reviews/{id}/helpful", h.HandleHelpful},
		{"DELETE /api/reviews/{id}", h.HandleDelete},
		{"DELETE /api/replies/{id}", h.HandleDeleteReply},
	}
	for _, rt := range routes {
		r.Mux.Handle(rt.pattern,
			httpx.Chain(rt.handler,
				required,
				httpx.RateLimitByUser(httpx.WriteLimit),
			),
		)
	}
}

func (r *Router) registerUploads() {
	h := &UploadHandler{MediaService: r.MediaService}
	required := httpx.RequireAuth(r.verifier)

	r.Mux.Handle("POST /api/upload/icon",
		httpx.Chain(http.HandlerFunc(h.HandleIcon),
			required,
			httpx.RateLimitByUser(httpx.UploadLimit),
		),
	)
	r.Mux.Handle("POST /api/upload/screenshot",
		httpx.Chain(http.HandlerFunc(h.HandleScreenshot),
			required,
			httpx.RateLimitByUser(httpx.UploadLimit),
		),
	)
	r.Mux.Handle("DELETE /api/upload/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			required,
			httpx.RateLimitByUser(httpx.UploadLimit),
		),
	)

	// Blob passthrough for deployments without a public bucket domain.
	r.Mux.Handle("GET /r2/{key...}",
		httpx.Chain(http.HandlerFunc(h.HandleServe),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerCategories() {
	h := &CategoriesHandler{CategoryService: r.CategoryService}
	r.Mux.Handle("GET /api/categories",
		httpx.Chain(h,
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints share the public profile with catalogue reads.
	r.Mux.Handle("GET /{$}",
		httpx.Chain(RootHandler(r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	if r.Metrics != nil {
		r.Mux.Handle("GET /metrics", r.Metrics)
	}

	r.Mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteError(w, http.StatusNotFound, msgNotFound)
	})
}

// callerFrom builds the acting identity from the claims the Auth Guard
// attached. Anonymous requests yield the zero Caller.
func callerFrom(r *http.Request) domain.Caller {
	c, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		return domain.Caller{}
	}
	return domain.Caller{UserID: c.Subject, Role: c.Role}
}
