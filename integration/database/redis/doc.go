// Package redis provides Redis client initialization, health checking, and a
// durable dead-letter store for the mediator.
//
// # Configuration
//
//	type Config struct {
//		ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"`
//		RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
//		ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
//		DeadLetterKey  string        `env:"REDIS_DEAD_LETTER_KEY" envDefault:"mediator:dead_letters"`
//		DeadLetterMax  int64         `env:"REDIS_DEAD_LETTER_MAX" envDefault:"10000"`
//	}
//
// Only redis:// and rediss:// (TLS) URLs are accepted.
//
// # Usage
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	store := redis.NewDeadLetterStoreFromConfig(client, cfg, redis.WithLogger(logger))
//	m := mediator.New(mediator.WithDeadLetter(store.Sink()))
//
// Every terminal failure on a background path (queueing lanes, Publish on
// direct lanes, fire-and-forget handlers) is appended to the list as JSON.
// Inspect it with List:
//
//	letters, err := store.List(ctx, 100)
//
// # Errors
//
//   - ErrFailedToParseRedisConnString: the connection URL is malformed
//   - ErrRedisNotReady: Redis did not answer a ping before the retries ran out
//   - ErrEmptyConnectionURL: no connection URL was provided
//   - ErrHealthcheckFailed: the health check ping failed
//   - ErrFailedToStoreDeadLetter: a dead letter could not be written
package redis
