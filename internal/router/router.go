package router

import (
	"net/http"

	"agrolinq/internal/handler"
	"agrolinq/internal/middleware"
	"agrolinq/internal/model"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handlers groups the HTTP handlers served by the router.
type Handlers struct {
	Auth     *handler.AuthHandler
	Product  *handler.ProductHandler
	Producer *handler.ProducerHandler
	Order    *handler.OrderHandler
	Seal     *handler.SealHandler
	Proposal *handler.ProposalHandler
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, authn middleware.Authenticator, serviceName string, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	authed := middleware.RequireAuth(authn, logger)
	// only wraps fn behind authentication and a role check.
	only := func(fn http.HandlerFunc, roles ...model.Role) http.Handler {
		return authed(middleware.RequireRole(roles...)(fn))
	}
	anyone := func(fn http.HandlerFunc) http.Handler {
		return authed(fn)
	}

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Accounts
	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.Handle("POST /api/auth/logout", anyone(h.Auth.Logout))
	mux.Handle("GET /api/me", anyone(h.Auth.Me))

	// Catalog
	mux.HandleFunc("GET /api/products", h.Product.List)
	mux.HandleFunc("GET /api/products/{id}", h.Product.GetByID)
	mux.Handle("POST /api/products", only(h.Product.Create, model.RoleProducer))
	mux.Handle("PUT /api/products/{id}", only(h.Product.Update, model.RoleProducer))
	mux.Handle("POST /api/products/import", only(h.Product.Import, model.RoleProducer))

	mux.HandleFunc("GET /api/producers/nearby", h.Producer.Nearby)
	mux.HandleFunc("GET /api/producers/{id}", h.Producer.GetByID)

	// Orders
	mux.Handle("POST /api/orders", only(h.Order.Create, model.RoleConsumer))
	mux.Handle("GET /api/orders", anyone(h.Order.List))
	mux.Handle("GET /api/orders/{id}", anyone(h.Order.GetByID))
	mux.Handle("PATCH /api/orders/{id}/status", only(h.Order.AdvanceStatus, model.RoleProducer, model.RoleAdmin))
	mux.Handle("POST /api/orders/{id}/cancel", only(h.Order.Cancel, model.RoleConsumer, model.RoleProducer))
	mux.Handle("POST /api/orders/{id}/review", only(h.Order.Review, model.RoleConsumer))

	// Green seal
	mux.Handle("POST /api/green-seal/requests", only(h.Seal.Request, model.RoleProducer))
	mux.Handle("GET /api/green-seal/requests", only(h.Seal.List, model.RoleProducer, model.RoleAdmin))
	mux.Handle("POST /api/green-seal/requests/{id}/approve", only(h.Seal.Approve, model.RoleAdmin))
	mux.Handle("POST /api/green-seal/requests/{id}/reject", only(h.Seal.Reject, model.RoleAdmin))

	// Proposals
	mux.Handle("POST /api/proposals", only(h.Proposal.Create, model.RoleRestaurant))
	mux.Handle("GET /api/proposals", anyone(h.Proposal.List))
	mux.Handle("GET /api/proposals/{id}", anyone(h.Proposal.GetByID))
	mux.Handle("POST /api/proposals/{id}/responses", only(h.Proposal.Respond, model.RoleProducer))
	mux.Handle("POST /api/proposals/{id}/accept", only(h.Proposal.Accept, model.RoleRestaurant))
	mux.Handle("POST /api/proposals/{id}/decline", only(h.Proposal.Decline, model.RoleRestaurant))
	mux.Handle("POST /api/admin/proposals/expire", only(h.Proposal.Expire, model.RoleAdmin))

	// Apply middleware in order: RequestID -> Recovery -> Logging -> CORS
	var handler http.Handler = mux
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)
	handler = middleware.RequestID(handler)

	return otelhttp.NewHandler(handler, serviceName)
}
