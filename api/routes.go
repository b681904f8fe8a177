package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/skillswap/swapd/internal/admin"
	"github.com/skillswap/swapd/internal/catalog"
	"github.com/skillswap/swapd/internal/chat"
	"github.com/skillswap/swapd/internal/config"
	"github.com/skillswap/swapd/internal/identity"
	"github.com/skillswap/swapd/internal/metrics"
	"github.com/skillswap/swapd/internal/notify"
	"github.com/skillswap/swapd/internal/rating"
	"github.com/skillswap/swapd/internal/repository/sqlite"
	"github.com/skillswap/swapd/internal/swap"
	"github.com/skillswap/swapd/internal/validate"
)

// Services bundles the domain components served over HTTP.
type Services struct {
	Gate      *identity.Gate
	Catalog   *catalog.Service
	Swaps     *swap.Engine
	Ratings   *rating.Ledger
	Chat      *chat.Channel
	Notify    *notify.Service
	Admin     *admin.Service
	Validator *validate.Validator
}

// NewServices wires every component onto repo.
func NewServices(repo *sqlite.SQLiteRepo, log *slog.Logger) (*Services, error) {
	v, err := validate.New()
	if err != nil {
		return nil, err
	}

	n := notify.New(repo, log)
	cat := catalog.New(repo, log)
	return &Services{
		Gate:      identity.New(repo, log),
		Catalog:   cat,
		Swaps:     swap.New(repo, cat, n, log),
		Ratings:   rating.New(repo, log),
		Chat:      chat.New(repo, log),
		Notify:    n,
		Admin:     admin.New(repo, n, log),
		Validator: v,
	}, nil
}

// Handler serves the v1 API.
type Handler struct {
	*Services
	defaultLimit int
	maxLimit     int
}

func NewHandler(svc *Services, p config.PaginationConfig) *Handler {
	return &Handler{Services: svc, defaultLimit: p.DefaultLimit, maxLimit: p.MaxLimit}
}

func SetupRoutes(cfg *config.Config, version, buildTime string, svc *Services) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)
	if cfg.Metrics.Enabled {
		r.Use(metrics.InstrumentHandler)
	}

	h := NewHandler(svc, cfg.Pagination)
	systemHandler := &SystemHandler{}

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	if cfg.Metrics.Enabled {
		r.Handle("/metrics", metrics.Handler()).Methods("GET")
	}

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))
	apiV1.Use(NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst).Middleware)

	user := IdentityMiddleware(svc.Gate, false)
	adminOnly := IdentityMiddleware(svc.Gate, true)
	known := func(f http.HandlerFunc) http.Handler { return user(f) }
	admins := func(f http.HandlerFunc) http.Handler { return adminOnly(f) }

	// Users. Profile sync is the only route open to callers without a user row.
	apiV1.HandleFunc("/users/profile", h.SyncProfile).Methods("POST")
	apiV1.Handle("/users/profile", known(h.GetProfile)).Methods("GET")
	apiV1.Handle("/users/profile", known(h.UpdateProfile)).Methods("PUT")
	apiV1.Handle("/users/search", known(h.SearchUsers)).Methods("GET")
	apiV1.Handle("/users/{id}/ratings", known(h.UserRatings)).Methods("GET")

	// Skills
	apiV1.Handle("/skills", known(h.ListSkills)).Methods("GET")
	apiV1.Handle("/skills", known(h.CreateSkill)).Methods("POST")
	apiV1.Handle("/skills/mine", known(h.ListMySkills)).Methods("GET")
	apiV1.Handle("/skills/mine", known(h.AddMySkill)).Methods("POST")
	apiV1.Handle("/skills/mine/{id:[0-9]+}", known(h.RemoveMySkill)).Methods("DELETE")

	// Swaps
	apiV1.Handle("/swaps", known(h.CreateSwap)).Methods("POST")
	apiV1.Handle("/swaps", known(h.ListSwaps)).Methods("GET")
	apiV1.Handle("/swaps/{id:[0-9]+}", known(h.GetSwap)).Methods("GET")
	apiV1.Handle("/swaps/{id:[0-9]+}", known(h.DeleteSwap)).Methods("DELETE")
	apiV1.Handle("/swaps/{id:[0-9]+}/accept", known(h.transition(svc.Swaps.Accept, "swap accepted"))).Methods("PUT")
	apiV1.Handle("/swaps/{id:[0-9]+}/reject", known(h.transition(svc.Swaps.Reject, "swap rejected"))).Methods("PUT")
	apiV1.Handle("/swaps/{id:[0-9]+}/complete", known(h.transition(svc.Swaps.Complete, "swap completed"))).Methods("PUT")
	apiV1.Handle("/swaps/{id:[0-9]+}/close", known(h.transition(svc.Swaps.Close, "swap closure recorded"))).Methods("PUT")
	apiV1.Handle("/swaps/{id:[0-9]+}/cancel", known(h.transition(svc.Swaps.Cancel, "swap cancelled"))).Methods("PUT")
	apiV1.Handle("/swaps/{id:[0-9]+}/rate", known(h.RateSwap)).Methods("POST")
	apiV1.Handle("/swaps/{id:[0-9]+}/feedback", known(h.SwapFeedback)).Methods("GET")
	apiV1.Handle("/swaps/{id:[0-9]+}/messages", known(h.ListMessages)).Methods("GET")
	apiV1.Handle("/swaps/{id:[0-9]+}/messages", known(h.PostMessage)).Methods("POST")

	// Notifications
	apiV1.Handle("/notifications", known(h.ListNotifications)).Methods("GET")
	apiV1.Handle("/notifications/unread-count", known(h.UnreadCount)).Methods("GET")
	apiV1.Handle("/notifications/platform-messages", known(h.PlatformMessages)).Methods("GET")
	apiV1.Handle("/notifications/{id:[0-9]+}/read", known(h.MarkNotificationRead)).Methods("PATCH")
	apiV1.Handle("/notifications/{id:[0-9]+}", known(h.DeleteNotification)).Methods("DELETE")

	// Admin
	apiV1.Handle("/admin/users", admins(h.AdminListUsers)).Methods("GET")
	apiV1.Handle("/admin/users/{id}/ban", admins(h.AdminBan)).Methods("PATCH")
	apiV1.Handle("/admin/users/{id}/unban", admins(h.AdminUnban)).Methods("PATCH")
	apiV1.Handle("/admin/swaps", admins(h.AdminListSwaps)).Methods("GET")
	apiV1.Handle("/admin/stats", admins(h.AdminStats)).Methods("GET")
	apiV1.Handle("/admin/platform-message", admins(h.AdminBroadcast)).Methods("POST")

	return r
}
