package repository

import (
	"context"
	"fmt"
	"time"

	"gluco_watch/internal/models"

	"github.com/redis/go-redis/v9"
)

type RedisOpts struct {
	Addr, Password string
	DB             int
	Timeout        time.Duration
}

// keySetter is the part of *redis.Client the sink uses.
type keySetter interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// KeyPathSink overwrites users/{identity}/latest in Redis with the record JSON.
type KeyPathSink struct {
	rdb    keySetter
	closer func() error
}

func NewKeyPathSink(o RedisOpts) *KeyPathSink {
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         o.Addr,
		Password:     o.Password,
		DB:           o.DB,
		DialTimeout:  o.Timeout,
		ReadTimeout:  o.Timeout,
		WriteTimeout: o.Timeout,
	})
	return &KeyPathSink{rdb: rdb, closer: rdb.Close}
}

var _ Sink = (*KeyPathSink)(nil)

func (s *KeyPathSink) Name() string { return "keypath" }

func (s *KeyPathSink) Persist(ctx context.Context, rec models.Record) error {
	body, err := rec.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	key := UserLatestPath(rec.Identity)
	if err := s.rdb.Set(ctx, key, body, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *KeyPathSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
