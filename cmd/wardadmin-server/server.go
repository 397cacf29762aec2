package main

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/ehr/wardadmin/internal/config"
	"github.com/ehr/wardadmin/internal/domain/account"
	"github.com/ehr/wardadmin/internal/domain/dashboard"
	"github.com/ehr/wardadmin/internal/domain/ward"
	"github.com/ehr/wardadmin/internal/platform/auth"
	"github.com/ehr/wardadmin/internal/platform/db"
	"github.com/ehr/wardadmin/internal/platform/middleware"
	"github.com/ehr/wardadmin/internal/platform/telemetry"
	"github.com/ehr/wardadmin/internal/platform/web"
)

// stores bundles the repositories of the configured driver.
type stores struct {
	driver   string
	patients ward.PatientRepository
	rooms    ward.RoomRepository
	users    account.UserRepository
	pinger   db.Pinger
	closeFn  func()
}

func (s *stores) Close() {
	if s.closeFn != nil {
		s.closeFn()
	}
}

func openStores(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*stores, error) {
	if cfg.StoreDriver == config.DriverSQLite {
		sqlDB, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return sqliteStores(sqlDB), nil
	}

	pool, err := db.NewPool(ctx, poolConfig(cfg), logger)
	if err != nil {
		return nil, err
	}
	return postgresStores(pool), nil
}

func poolConfig(cfg *config.Config) db.PoolConfig {
	return db.PoolConfig{
		URL:       cfg.DatabaseURL,
		MaxConns:  cfg.DBMaxConns,
		MinConns:  cfg.DBMinConns,
		SlowQuery: cfg.SlowQuery,
	}
}

func sqliteStores(sqlDB *sql.DB) *stores {
	return &stores{
		driver:   config.DriverSQLite,
		patients: ward.NewPatientRepoSQLite(sqlDB),
		rooms:    ward.NewRoomRepoSQLite(sqlDB),
		users:    account.NewUserRepoSQLite(sqlDB),
		pinger:   db.SQLPinger{DB: sqlDB},
		closeFn:  func() { sqlDB.Close() },
	}
}

func postgresStores(pool *pgxpool.Pool) *stores {
	return &stores{
		driver:   config.DriverPostgres,
		patients: ward.NewPatientRepoPG(pool),
		rooms:    ward.NewRoomRepoPG(pool),
		users:    account.NewUserRepoPG(pool),
		pinger:   pool,
		closeFn:  pool.Close,
	}
}

// newRevocationStore uses Redis when REDIS_URL is set so revoked sessions
// are shared between instances; otherwise revocations live in memory.
func newRevocationStore(ctx context.Context, cfg *config.Config) (auth.RevocationStore, func(), error) {
	if cfg.RedisURL == "" {
		mem := auth.NewMemoryRevocationStore()
		return mem, mem.Close, nil
	}
	client, err := auth.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return auth.NewRedisRevocationStore(client), func() { client.Close() }, nil
}

// buildServer wires middleware, templates and every route. metrics may be
// nil to disable /metrics and the domain counters.
func buildServer(cfg *config.Config, logger zerolog.Logger, st *stores, revoked auth.RevocationStore, metrics *telemetry.Provider) (*echo.Echo, error) {
	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.HTTPErrorHandler = web.HTTPErrorHandler(logger)

	// HTML forms tunnel PUT and DELETE through a _method field.
	e.Pre(echomw.MethodOverrideWithConfig(echomw.MethodOverrideConfig{
		Getter: echomw.MethodFromForm("_method"),
	}))

	sessions := auth.NewSessionManager(auth.SessionConfig{
		Secret: []byte(cfg.SessionSecret),
		TTL:    cfg.SessionTTL,
		Secure: cfg.IsProduction(),
	}, revoked)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(metrics.MetricsMiddleware())
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(auth.SessionMiddleware(sessions, logger))
	if cfg.AuthMode == config.AuthModeDevelopment {
		e.Use(auth.DevAuthMiddleware())
	}
	if cfg.CSRFEnabled {
		e.Use(echomw.CSRFWithConfig(echomw.CSRFConfig{
			Skipper:        auth.PublicSkipper,
			TokenLookup:    "form:_csrf",
			ContextKey:     web.CSRFContextKey,
			CookiePath:     "/",
			CookieHTTPOnly: true,
			CookieSecure:   cfg.IsProduction(),
			CookieSameSite: http.SameSiteLaxMode,
		}))
	}
	e.Use(middleware.Audit(logger, middleware.AuditRecorderFunc(func(a middleware.AuditEntry) error {
		metrics.ObserveAudit(a.Resource, a.Action, a.StatusCode)
		return nil
	})))

	e.GET("/health", db.HealthHandler(st.pinger, st.driver))
	e.GET("/metrics", metrics.Handler())

	throttleCfg := middleware.DefaultLoginThrottleConfig()
	if cfg.LoginPerMinute > 0 {
		throttleCfg.PerMinute = cfg.LoginPerMinute
	}

	wardSvc := ward.NewService(st.patients, st.rooms, metrics, logger)
	ward.NewHandler(wardSvc, logger).RegisterRoutes(e, auth.RequireLogin())

	accountSvc := account.NewService(st.users, logger)
	account.NewHandler(accountSvc, sessions, logger).RegisterRoutes(e, middleware.LoginThrottle(throttleCfg))

	dashboard.NewHandler(dashboard.NewService(st.patients, st.rooms), logger).RegisterRoutes(e)

	return e, nil
}
