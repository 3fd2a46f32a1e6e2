package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	appMiddleware "github.com/healthtrack/backend/internal/middleware"
	"github.com/healthtrack/backend/internal/services"
)

// RouterConfig carries the collaborators behind the HTTP surface.
type RouterConfig struct {
	Identity services.IdentityProvider
	Store    services.Store
	Captcha  services.CaptchaVerifier
	Cookies  *appMiddleware.SessionCookies
	Logger   *zap.Logger

	RequestTimeout     time.Duration
	CORSAllowedOrigins []string
	AccessLog          bool
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}

	authService := services.NewAuthService(cfg.Identity, cfg.Store, cfg.Logger.Named("auth"))
	profileService := services.NewProfileService(cfg.Identity, cfg.Store, cfg.Logger.Named("profile"))
	bookingService := services.NewBookingService(cfg.Store, cfg.Store, cfg.Logger.Named("booking"))

	authHandler := NewAuthHandler(authService, profileService, cfg.Cookies, cfg.Logger, cfg.RequestTimeout)
	profileHandler := NewProfileHandler(profileService, cfg.Logger, cfg.RequestTimeout)
	trainingHandler := NewTrainingHandler(profileService, cfg.Logger, cfg.RequestTimeout)
	bookingHandler := NewBookingHandler(bookingService, cfg.Logger, cfg.RequestTimeout)
	mealHandler := NewMealHandler(profileService, cfg.Logger, cfg.RequestTimeout)
	reviewHandler := NewReviewHandler(cfg.Store, cfg.Captcha, cfg.Logger, cfg.RequestTimeout)

	sessions := appMiddleware.NewSessions(cfg.Identity, cfg.Cookies, cfg.Logger.Named("session"))

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	if cfg.AccessLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	// An empty AllowedOrigins means "any origin" to cors, so without a
	// configured list the API stays same-origin.
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/", Root)
	r.Get("/health", Health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/google-login", authHandler.GoogleLogin)
		r.Post("/logout", authHandler.Logout)
		r.With(sessions.Require).Get("/profile", authHandler.GetProfile)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(sessions.Require)

		r.Post("/trainings", trainingHandler.LogWorkout)
		r.Get("/progress", trainingHandler.Progress)
		r.Put("/profile", profileHandler.UpdateProfile)
		r.Post("/book-training", bookingHandler.BookTraining)
		r.Get("/meals", mealHandler.ListMeals)
		r.Post("/meals", mealHandler.AddMeal)
	})

	r.Route("/public", func(r chi.Router) {
		r.Get("/reviews", reviewHandler.ListReviews)
		r.Post("/reviews", reviewHandler.CreateReview)
		r.With(sessions.Optional).Get("/meals", mealHandler.ListMeals)
	})

	return r
}
