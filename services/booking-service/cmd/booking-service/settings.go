package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/carefinder/libs/config"
)

type settings struct {
	Service            string
	Port               string
	DatabaseURL        string
	Location           *time.Location
	StoreTimeout       time.Duration
	CancellationNotice time.Duration
	JWTSecret          string

	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	FacilityCacheTTL time.Duration
	RateLimitPerMin  int

	KafkaBrokers   string
	OutboxPoll     time.Duration
	OutboxBatch    int
	RequestTimeout time.Duration
	BodyLimit      int64
}

func loadSettings() (settings, error) {
	var (
		s    settings
		errs []error
		err  error
	)
	collect := func(e error) {
		if e != nil {
			errs = append(errs, e)
		}
	}

	s.Service = config.String("SERVICE_NAME", "booking-service")
	s.Port, err = config.Port("PORT", "8083")
	collect(err)
	s.DatabaseURL = config.String("DATABASE_URL", "")
	s.JWTSecret, err = config.RequiredString("JWT_SECRET")
	collect(err)

	tz := config.String("TIMEZONE", "UTC")
	s.Location, err = time.LoadLocation(tz)
	if err != nil {
		collect(fmt.Errorf("TIMEZONE %q: %w", tz, err))
	}
	s.StoreTimeout, err = config.Duration("STORE_TIMEOUT", 5*time.Second)
	collect(err)
	s.CancellationNotice, err = config.Duration("CANCELLATION_NOTICE", 24*time.Hour)
	collect(err)

	s.RedisAddr = config.String("REDIS_ADDR", "")
	s.RedisPassword = config.String("REDIS_PASSWORD", "")
	s.RedisDB, err = config.Int("REDIS_DB", 0)
	collect(err)
	s.FacilityCacheTTL, err = config.Duration("FACILITY_CACHE_TTL", time.Minute)
	collect(err)
	s.RateLimitPerMin, err = config.Int("RATE_LIMIT_PER_MINUTE", 120)
	collect(err)

	s.KafkaBrokers = config.String("KAFKA_BROKERS", "")
	s.OutboxPoll, err = config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second)
	collect(err)
	s.OutboxBatch, err = config.Int("OUTBOX_BATCH_SIZE", 50)
	collect(err)
	s.RequestTimeout, err = config.Duration("REQUEST_TIMEOUT", 10*time.Second)
	collect(err)
	limit, err := config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20)
	collect(err)
	s.BodyLimit = int64(limit)

	return s, errors.Join(errs...)
}
