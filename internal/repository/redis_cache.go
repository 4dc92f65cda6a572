package repository

import (
	"time"

	"github.com/garyburd/redigo/redis"
	"go.uber.org/zap"

	"trapcam/internal/config"
)

const resultsKey = "trapcam:results"

// ResultCache holds the encoded results.json of the latest processing run.
type ResultCache interface {
	// Get returns ok == false on a miss.
	Get() (data []byte, ok bool, err error)
	Set(data []byte) error
	Invalidate() error
	Close() error
}

type noopCache struct{}

func (noopCache) Get() ([]byte, bool, error) { return nil, false, nil }
func (noopCache) Set([]byte) error           { return nil }
func (noopCache) Invalidate() error          { return nil }
func (noopCache) Close() error               { return nil }

func NoopCache() ResultCache { return noopCache{} }

type redisCache struct {
	pool *redis.Pool
	ttl  time.Duration
	log  *zap.Logger
}

func NewRedisCache(cfg *config.RedisConfig, log *zap.Logger) ResultCache {
	pool := &redis.Pool{
		MaxIdle:     cfg.MaxIdle,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", cfg.Address)
		},
	}

	return &redisCache{pool: pool, ttl: cfg.TTL, log: log}
}

func (c *redisCache) Get() ([]byte, bool, error) {
	conn := c.pool.Get()
	defer conn.Close()

	data, err := redis.Bytes(conn.Do("GET", resultsKey))
	if err == redis.ErrNil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *redisCache) Set(data []byte) error {
	conn := c.pool.Get()
	defer conn.Close()

	ttl := int(c.ttl.Seconds())
	if ttl <= 0 {
		_, err := conn.Do("SET", resultsKey, data)
		return err
	}
	_, err := conn.Do("SETEX", resultsKey, ttl, data)
	return err
}

func (c *redisCache) Invalidate() error {
	conn := c.pool.Get()
	defer conn.Close()

	_, err := conn.Do("DEL", resultsKey)
	return err
}

func (c *redisCache) Close() error {
	return c.pool.Close()
}
