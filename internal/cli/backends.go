package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"study-portal/internal/app"
	"study-portal/internal/auth"
	"study-portal/internal/config"
	"study-portal/internal/infra/memory"
	"study-portal/internal/infra/postgres"
	redisinfra "study-portal/internal/infra/redis"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// portalStore is what both the memory and Postgres stores provide.
type portalStore interface {
	app.Store
	auth.UserRepository
	GrantAdmin(ctx context.Context, userID, role string) error
}

// backends holds the storage chosen by config: Postgres and Redis when
// configured, in-memory otherwise.
type backends struct {
	store    portalStore
	quizzes  app.QuizRepository
	attempts app.AttemptRepository
	denylist auth.TokenDenylist
	cache    app.LeaderboardCache

	pool        *pgxpool.Pool
	redisClient *redis.Client
	closers     []func()
}

func openBackends(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backends, error) {
	b := &backends{}

	if cfg.Redis.Addr != "" {
		b.redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = b.redisClient.Close() })
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(app.DailyQuiz())
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.close()
			return nil, fmt.Errorf("connect postgres pool: %w", err)
		}
		b.pool = pool
		b.closers = append(b.closers, pool.Close)

		db := openBunDB(cfg.Postgres.URL)
		b.closers = append(b.closers, func() { _ = db.Close() })

		b.store = postgres.NewStore(db, postgres.NewProcedures(pool))
		loader = memory.NewFallbackLoader(postgres.NewQuizLoader(pool), loader)
		logger.Info("using postgres store")
	} else {
		b.store = memory.NewStore()
		logger.Warn("postgres not configured, data is kept in memory")
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	attemptTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)
	if b.redisClient != nil {
		b.quizzes = redisinfra.NewQuizRepository(b.redisClient, loader, quizTTL)
		b.attempts = redisinfra.NewAttemptStore(b.redisClient, attemptTTL)
		b.denylist = redisinfra.NewDenylist(b.redisClient)
		b.cache = redisinfra.NewLeaderboardCache(b.redisClient)
		logger.Info("using redis caches", slog.String("addr", cfg.Redis.Addr))
	} else {
		b.quizzes = memory.NewQuizRepository(loader, quizTTL)
		b.attempts = memory.NewAttemptStore()
		b.denylist = memory.NewDenylist()
	}
	return b, nil
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBunDB(url string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(url)))
	return bun.NewDB(sqldb, pgdialect.New())
}
