package redis

import "time"

// Config holds Redis connection settings and the dead-letter list layout.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
	DeadLetterKey  string        `env:"REDIS_DEAD_LETTER_KEY" envDefault:"mediator:dead_letters"`
	DeadLetterMax  int64         `env:"REDIS_DEAD_LETTER_MAX" envDefault:"10000"`
}
