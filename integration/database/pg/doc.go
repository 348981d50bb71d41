// Package pg provides PostgreSQL connection management and a transactional
// handler scope for the mediator.
//
// It wraps the pgx driver with retry logic on connect, a health check, error
// classification helpers, and TxScope, which runs every handler invocation in
// its own transaction.
//
// # Configuration
//
//	type Config struct {
//		ConnectionString  string        `env:"PG_CONN_URL,required"`
//		MaxOpenConns      int32         `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
//		MaxIdleConns      int32         `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`
//		HealthCheckPeriod time.Duration `env:"PG_HEALTHCHECK_PERIOD" envDefault:"1m"`
//		MaxConnIdleTime   time.Duration `env:"PG_MAX_CONN_IDLE_TIME" envDefault:"10m"`
//		MaxConnLifetime   time.Duration `env:"PG_MAX_CONN_LIFETIME" envDefault:"30m"`
//		RetryAttempts     int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval     time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"5s"`
//	}
//
// # Usage
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pool.Close()
//
//	m := mediator.New(mediator.WithScopeFactory(pg.TxScope(pool)))
//
// Handlers find their transaction in the context:
//
//	func saveOrder(ctx context.Context, o OrderPlaced) error {
//		tx, _ := pg.TxFromContext(ctx)
//		_, err := tx.Exec(ctx, "INSERT INTO orders (id, total) VALUES ($1, $2)", o.ID, o.Total)
//		return err
//	}
//
// The transaction commits when the handler succeeds, retries included, and
// rolls back on a terminal failure. A commit error fails the invocation.
//
// # Error Handling
//
//	pg.IsNotFoundError(err)            // pgx.ErrNoRows
//	pg.IsDuplicateKeyError(err)        // unique constraint violation
//	pg.IsForeignKeyViolationError(err) // referential integrity violation
//	pg.IsSerializationFailure(err)     // worth retrying the handler
//	pg.IsTxClosedError(err)            // committed or rolled back transaction
//
// IsSerializationFailure pairs with a handler error policy:
//
//	h := lane.WithRecovery(saveOrderHandler, func(ctx context.Context, f lane.Failure[OrderPlaced]) lane.Outcome {
//		if pg.IsSerializationFailure(f.Err) && f.Attempt < 3 {
//			return lane.RetryNow(f.Retry)
//		}
//		return lane.Stop()
//	})
//
// Retries run inside the same transaction; to restart the transaction, let the
// invocation fail and republish.
package pg
