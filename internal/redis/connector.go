package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/qrcard/internal/logger"
)

// ConnectOptions configures the code/profile store client and how long
// startup waits for Redis before giving up.
type ConnectOptions struct {
	Addr         string
	User         string
	Password     string
	RedisDB      int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int

	ConnectTimeout time.Duration // overall startup budget
	RetryInterval  time.Duration // first backoff step, doubled per attempt
	MaxWait        time.Duration // backoff ceiling
	PingTimeout    time.Duration
	WarnThreshold  int // attempts logged as warnings before switching to errors
}

func (o ConnectOptions) validate() error {
	var errs []error
	if o.ConnectTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ConnectTimeout must be > 0, got %v", o.ConnectTimeout))
	}
	if o.RetryInterval <= 0 {
		errs = append(errs, fmt.Errorf("RetryInterval must be > 0, got %v", o.RetryInterval))
	}
	if o.MaxWait <= 0 {
		errs = append(errs, fmt.Errorf("MaxWait must be > 0, got %v", o.MaxWait))
	}
	if o.PingTimeout <= 0 {
		errs = append(errs, fmt.Errorf("PingTimeout must be > 0, got %v", o.PingTimeout))
	}
	if o.WarnThreshold < 0 {
		errs = append(errs, fmt.Errorf("WarnThreshold must be >= 0, got %d", o.WarnThreshold))
	}
	return errors.Join(errs...)
}

func clientOptions(opts ConnectOptions) *redis.Options {
	return &redis.Options{
		Addr:         opts.Addr,
		Username:     opts.User,
		Password:     opts.Password,
		DB:           opts.RedisDB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
	}
}

// New returns a client once Redis answers PING. Codes, profiles and pending
// actions all live in Redis, so the service does not start without it.
func New(ctx context.Context, opts ConnectOptions, log logger.Logger) (*redis.Client, error) {
	if err := opts.validate(); err != nil {
		log.Error("invalid redis connect options", logger.Error(err))
		return nil, err
	}

	client := redis.NewClient(clientOptions(opts))
	d := dialer{client: client, opts: opts, log: log}
	if err := d.waitReady(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

type dialer struct {
	client *redis.Client
	opts   ConnectOptions
	log    logger.Logger
}

func (d dialer) waitReady(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, d.opts.ConnectTimeout)
	defer cancel()

	d.log.Info("waiting for redis",
		logger.String("addr", d.opts.Addr),
		logger.Duration("timeout", d.opts.ConnectTimeout))

	start := time.Now()
	wait := d.opts.RetryInterval
	for attempt := 1; ; attempt++ {
		err := d.ping(ctx)
		if err == nil {
			d.ready(attempt, time.Since(start))
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			d.log.Error("redis unavailable, giving up",
				logger.String("addr", d.opts.Addr),
				logger.Int("attempts", attempt),
				logger.Error(err))
			return fmt.Errorf("redis unavailable at %s after %d attempts (timeout: %v): %w",
				d.opts.Addr, attempt, d.opts.ConnectTimeout, err)
		case <-timer.C:
			d.retrying(ctx, attempt, wait, err)
			wait = nextWait(wait, d.opts.MaxWait)
		}
	}
}

func (d dialer) ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, d.opts.PingTimeout)
	defer cancel()
	return d.client.Ping(pingCtx).Err()
}

func (d dialer) ready(attempts int, elapsed time.Duration) {
	if attempts == 1 {
		d.log.Info("redis ready", logger.String("addr", d.opts.Addr))
		return
	}
	d.log.Warn("redis ready after retries",
		logger.String("addr", d.opts.Addr),
		logger.Int("attempts", attempts),
		logger.Duration("elapsed", elapsed))
}

func (d dialer) retrying(ctx context.Context, attempt int, waited time.Duration, err error) {
	fields := []logger.Field{
		logger.String("addr", d.opts.Addr),
		logger.Int("attempt", attempt),
		logger.Duration("waited", waited),
		logger.Error(err),
	}
	if attempt <= d.opts.WarnThreshold {
		d.log.Warn("redis not ready, retrying", fields...)
		return
	}
	if deadline, ok := ctx.Deadline(); ok {
		fields = append(fields, logger.Duration("remaining", time.Until(deadline)))
	}
	d.log.Error("redis still not ready", fields...)
}

// nextWait doubles the backoff up to ceiling.
func nextWait(wait, ceiling time.Duration) time.Duration {
	wait *= 2
	if wait > ceiling {
		return ceiling
	}
	return wait
}
