package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/gatherspace/backend/internal/auth"
	appconfig "github.com/gatherspace/backend/internal/config"
	"github.com/gatherspace/backend/internal/db"
	"github.com/gatherspace/backend/internal/googleauth"
	"github.com/gatherspace/backend/internal/httpapi"
	"github.com/gatherspace/backend/internal/identity"
	"github.com/gatherspace/backend/internal/session"
	"github.com/gatherspace/backend/internal/token"
	"github.com/gatherspace/backend/internal/user"
	"github.com/gatherspace/backend/pkg/blobstore"
	"github.com/gatherspace/backend/pkg/config"
	"github.com/gatherspace/backend/pkg/email"
	"github.com/gatherspace/backend/pkg/httpserver"
	"github.com/gatherspace/backend/pkg/logger"
	"github.com/gatherspace/backend/pkg/password"
	"github.com/gatherspace/backend/pkg/pg"
)

func main() {
	var appCfg appconfig.App
	config.MustLoad(&appCfg)

	log := logger.New(logger.WithEnvironment(appCfg.Environment, appCfg.ServiceName))
	logger.SetAsDefault(log)

	ctx := context.Background()
	if err := run(ctx, log); err != nil {
		log.ErrorContext(ctx, "server exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	var (
		pgCfg     pg.Config
		tokenCfg  token.Config
		emailCfg  email.Config
		googleCfg googleauth.Config
		blobCfg   blobstore.Config
		httpCfg   httpserver.Config
	)
	config.MustLoad(&pgCfg)
	config.MustLoad(&tokenCfg)
	config.MustLoad(&emailCfg)
	config.MustLoad(&googleCfg)
	config.MustLoad(&blobCfg)
	config.MustLoad(&httpCfg)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, db.Migrations, pgCfg, log); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	tokens, err := token.New(tokenCfg)
	if err != nil {
		return fmt.Errorf("failed to init token service: %w", err)
	}

	avatars, err := blobstore.New(ctx, blobCfg)
	if err != nil {
		return fmt.Errorf("failed to init blob storage: %w", err)
	}

	var mailer email.EmailSender
	if emailCfg.DevSenderDir != "" {
		mailer = email.NewDevSender(emailCfg.DevSenderDir)
	} else {
		if mailer, err = email.NewPostmarkClient(emailCfg); err != nil {
			return fmt.Errorf("failed to init mail client: %w", err)
		}
	}

	users := user.NewRepository(pool)
	sessions := session.NewStore(pool)

	svc := identity.NewService(
		users,
		sessions,
		tokens,
		password.New(password.DefaultCost),
		googleauth.New(googleCfg),
		avatars,
		mailer,
		emailCfg,
		log,
	)

	gate := auth.NewGate(tokens, sessions, users, log)
	handler := httpapi.NewHandler(svc, log)
	router := httpapi.NewRouter(handler, gate,
		httpserver.HealthCheckHandler(ctx, log, pg.Healthcheck(pool)))

	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))
	return srv.Run(ctx, router)
}
