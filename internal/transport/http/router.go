package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/invest-api/internal/application/album"
	"github.com/invest-api/internal/application/auth"
	fileapp "github.com/invest-api/internal/application/file"
	"github.com/invest-api/internal/application/payment"
	"github.com/invest-api/internal/application/product"
	"github.com/invest-api/internal/application/profile"
	"github.com/invest-api/internal/application/referral"
	"github.com/invest-api/internal/config"
	"github.com/invest-api/internal/domain"
	"github.com/invest-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/invest-api/internal/infrastructure/jwt"
	s3infra "github.com/invest-api/internal/infrastructure/s3"
	"github.com/invest-api/internal/infrastructure/smtp"
	"github.com/invest-api/internal/infrastructure/sns"
	"github.com/invest-api/internal/infrastructure/stripepay"
	"github.com/invest-api/internal/transport/http/handler"
	appmiddleware "github.com/invest-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo     *dynamo.UserRepo
	ProfileRepo  *dynamo.ProfileRepo
	ProductRepo  *dynamo.ProductRepo
	AlbumRepo    *dynamo.AlbumRepo
	ReferralRepo *dynamo.ReferralRepo
	AccessRepo   *dynamo.AccessRepo
	S3Store      *s3infra.Store
	Mailer       smtp.Mailer
	Alerts       sns.AlertPublisher
	StripeClient *stripepay.Client
	JWTProvider  *jwtinfra.Provider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Stripe-Signature"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)

	// 5 requests/second, burst of 10 — applied to the public auth endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	authSvc := auth.NewService(deps.UserRepo, deps.ProfileRepo, deps.ReferralRepo, deps.Mailer, deps.JWTProvider, cfg.FrontendVerifyURL)
	referralSvc := referral.NewService(deps.ReferralRepo, deps.UserRepo)
	paymentSvc := payment.NewService(deps.StripeClient, deps.AccessRepo, deps.Alerts,
		cfg.StripeWebhookSecret, cfg.StripeSuccessURL, cfg.StripeCancelURL)
	productSvc := product.NewService(deps.ProductRepo)
	albumSvc := album.NewService(deps.AlbumRepo, deps.ProductRepo, deps.AccessRepo)
	profileSvc := profile.NewService(deps.ProfileRepo)
	fileSvc := fileapp.NewService(deps.S3Store, deps.ProductRepo)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)
	referralH := handler.NewReferralHandler(referralSvc)
	paymentH := handler.NewPaymentHandler(paymentSvc)
	productH := handler.NewProductHandler(productSvc)
	albumH := handler.NewAlbumHandler(albumSvc)
	profileH := handler.NewProfileHandler(profileSvc)
	userH := handler.NewUserHandler(deps.UserRepo)
	fileH := handler.NewFileHandler(fileSvc)

	// The webhook lives outside /api: the provider signs the raw body, so no
	// auth middleware may touch it.
	r.Post("/webhook/stripe", paymentH.Webhook)

	r.Route("/api", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/auth/register", authH.Register)
		r.With(sensitiveRL.Limit).Post("/auth/login", authH.Login)
		r.With(sensitiveRL.Limit).Post("/auth/verify-otp", authH.VerifyOTP)
		r.With(sensitiveRL.Limit).Post("/auth/resend-otp", authH.ResendOTP)

		r.Get("/products", productH.List)
		r.Get("/products/{id}", productH.Get)
		r.Get("/albums", albumH.List)
		r.Get("/albums/{id}", albumH.Get)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/users/me", userH.Me)
			r.Get("/profile/me", profileH.GetMine)
			r.Put("/profile/me", profileH.UpdateMine)

			r.Post("/referral/generate", referralH.Generate)
			r.Get("/referral/me", referralH.Mine)

			r.Post("/payments/checkout", paymentH.Checkout)
			r.Get("/albums/{id}/access", albumH.Access)

			r.Get("/files", fileH.Download)

			// Catalog writes are for creators and admins.
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleImprenditore, domain.RoleAdmin))

				r.Post("/products", productH.Create)
				r.Put("/products/{id}", productH.Update)
				r.Post("/products/{id}/image", fileH.UploadProductImage)
				r.Post("/albums", albumH.Create)
				r.Put("/albums/{id}", albumH.Update)
			})

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Delete("/products/{id}", productH.Delete)
				r.Delete("/albums/{id}", albumH.Delete)

				r.Get("/profiles", profileH.List)
				r.Get("/profiles/{id}", profileH.Get)
				r.Put("/profiles/{id}", profileH.Update)
				r.Delete("/profiles/{id}", profileH.Delete)
			})
		})
	})

	return r
}
