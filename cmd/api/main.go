package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"

	"github.com/assetverse/assetverse-api/internal/application/auth"
	"github.com/assetverse/assetverse-api/internal/application/request"
	"github.com/assetverse/assetverse-api/internal/application/role"
	"github.com/assetverse/assetverse-api/internal/application/usecase"
	"github.com/assetverse/assetverse-api/internal/domain/access"
	"github.com/assetverse/assetverse-api/internal/domain/repository"
	"github.com/assetverse/assetverse-api/internal/infrastructure/cache"
	"github.com/assetverse/assetverse-api/internal/infrastructure/memstore"
	"github.com/assetverse/assetverse-api/internal/infrastructure/metrics"
	infrapdf "github.com/assetverse/assetverse-api/internal/infrastructure/pdf"
	"github.com/assetverse/assetverse-api/internal/infrastructure/postgres"
	httpRouter "github.com/assetverse/assetverse-api/internal/interfaces/http"
	"github.com/assetverse/assetverse-api/pkg/config"
	"github.com/assetverse/assetverse-api/pkg/logger"
)

// storage persistencia elegida por configuración.
type storage struct {
	repos  request.LifecycleRepos
	admins repository.AdminRepository
	roles  role.UserRoleSource
	tx     request.TxRunner
	close  func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.Storage).
		Msg("iniciando aplicación")

	ctx := context.Background()
	st := openStorage(ctx, cfg, log)
	defer st.close()

	m := metrics.New()
	resolverOpts := []role.Option{role.WithObserver(m), role.WithLogger(log)}
	if cfg.Redis.Enabled() {
		rc, err := cache.Connect(ctx, cfg.Redis)
		if err != nil {
			// Sin caché la resolución sigue funcionando contra la base de datos.
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible, caché de roles desactivada")
		} else {
			defer rc.Close()
			resolverOpts = append(resolverOpts, role.WithCache(rc, cfg.Role.CacheTTL))
		}
	}
	resolver := role.NewResolver(st.admins, st.roles, resolverOpts...)

	authUC := auth.NewAuthUseCase(st.repos.Users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	userUC := usecase.NewUserUseCase(st.repos, st.admins, st.tx, resolver)
	assetUC := usecase.NewAssetUseCase(st.repos.Assets, st.repos.Users)
	requestUC := request.NewUseCase(st.tx, st.repos, infrapdf.NewReceiptGenerator(), m)

	app := httpRouter.NewApp(httpRouter.RouterDeps{
		AuthUC:         authUC,
		UserUC:         userUC,
		AssetUC:        assetUC,
		RequestUC:      requestUC,
		Gate:           access.NewGate(resolver, cfg.Role.GateTimeout),
		JWTSecret:      cfg.JWT.Secret,
		Logger:         log.Component("http"),
		Observer:       m,
		MetricsHandler: m.Handler(),
	})

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(cfg.App.SwaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.App.SwaggerFile,
			Path:     "docs",
			Title:    "AssetVerse API",
		}))
	}

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) storage {
	if cfg.App.InMemory() {
		log.Warn().Msg("persistencia en memoria: los datos se pierden al reiniciar")
		store := memstore.New()
		return storage{
			repos:  store.Repos(),
			admins: store.Admins(),
			roles:  store.Users(),
			tx:     store,
			close:  func() {},
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	repos := postgres.Repos(pool)
	return storage{
		repos:  repos,
		admins: postgres.NewAdminRepository(pool),
		roles:  postgres.NewUserRepository(pool),
		tx:     postgres.NewTxRunner(pool),
		close:  pool.Close,
	}
}
