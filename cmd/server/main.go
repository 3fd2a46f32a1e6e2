package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/healthtrack/backend/internal/config"
	"github.com/healthtrack/backend/internal/handlers"
	appMiddleware "github.com/healthtrack/backend/internal/middleware"
	"github.com/healthtrack/backend/internal/services"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var app *firebase.App
	if cfg.IdentityBackend == config.IdentityFirebase || cfg.StoreBackend == config.StoreFirestore {
		var err error
		app, err = newFirebaseApp(ctx, cfg)
		if err != nil {
			return fmt.Errorf("firebase: %w", err)
		}
	}

	identity, err := newIdentity(ctx, cfg, app, logger)
	if err != nil {
		return err
	}

	store, err := newStore(ctx, cfg, app)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Warn("close store", zap.Error(err))
		}
	}()

	if cfg.SessionHashKey == "" {
		logger.Warn("SESSION_HASH_KEY not set; session cookies will not survive a restart")
	}
	cookies := appMiddleware.NewSessionCookies(
		cfg.SessionCookieName,
		[]byte(cfg.SessionHashKey),
		[]byte(cfg.SessionBlockKey),
		cfg.CookieSecure,
		cfg.SessionTTL,
	)

	var captcha services.CaptchaVerifier
	if cfg.RecaptchaSecret != "" {
		captcha = services.NewRecaptchaVerifier(cfg.RecaptchaSecret)
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Identity:           identity,
		Store:              store,
		Captcha:            captcha,
		Cookies:            cookies,
		Logger:             logger,
		RequestTimeout:     cfg.RequestTimeout,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AccessLog:          true,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HealthTrack API server starting",
			zap.String("addr", cfg.ServerAddress),
			zap.String("identity", cfg.IdentityBackend),
			zap.String("store", cfg.StoreBackend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newFirebaseApp(ctx context.Context, cfg *config.Config) (*firebase.App, error) {
	var opts []option.ClientOption
	switch {
	case cfg.FirebaseCredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.FirebaseCredentialsJSON)))
	case cfg.FirebaseCredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentialsFile))
	}

	var fbCfg *firebase.Config
	if cfg.FirebaseProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}
	return firebase.NewApp(ctx, fbCfg, opts...)
}

func newIdentity(ctx context.Context, cfg *config.Config, app *firebase.App, logger *zap.Logger) (services.IdentityProvider, error) {
	if cfg.IdentityBackend == config.IdentityLocal {
		logger.Warn("using local identity backend; users are not persisted")
		return services.NewLocalIdentity(cfg.JWTSecret, cfg.SessionTTL), nil
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth: %w", err)
	}
	signIn := services.NewPasswordSignInClient(cfg.FirebaseAPIKey)
	if !signIn.Enabled() {
		logger.Warn("FIREBASE_API_KEY not set; register and login will fail")
	}
	return services.NewFirebaseIdentity(authClient, signIn), nil
}

func newStore(ctx context.Context, cfg *config.Config, app *firebase.App) (services.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreFirestore:
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("firestore: %w", err)
		}
		return services.NewFirestoreStore(client), nil
	case config.StoreMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		store, err := services.NewMongoStore(connectCtx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo: %w", err)
		}
		return store, nil
	default:
		if cfg.DataDir == "" {
			return services.NewMemoryStore(), nil
		}
		return services.NewPersistentMemoryStore(cfg.DataDir)
	}
}
