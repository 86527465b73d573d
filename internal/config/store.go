package config

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/aretw0/strata/internal/adapters/file"
	"github.com/aretw0/strata/pkg/adapters/memory"
	"github.com/aretw0/strata/pkg/adapters/redis"
	"github.com/aretw0/strata/pkg/adapters/sqlite"
	"github.com/aretw0/strata/pkg/persistence/middleware"
	"github.com/aretw0/strata/pkg/ports"
)

// Backend is an opened FixedStore with its optional locker.
type Backend struct {
	Store  ports.FixedStore
	Locker ports.Locker
	close  func() error
}

// Close releases the connections held by the backend.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// OpenStore opens the configured FixedStore and wraps it with the redaction
// and encryption middleware when those are configured. Redaction runs first
// so masked values are what gets encrypted.
func (c *Config) OpenStore(ctx context.Context) (*Backend, error) {
	b := &Backend{}
	switch c.Store {
	case "memory":
		b.Store = memory.NewStore()
	case "file":
		b.Store = file.New(c.FileDir)
	case "sqlite":
		s, err := sqlite.Open(c.SQLitePath)
		if err != nil {
			return nil, err
		}
		b.Store, b.close = s, s.Close
	case "redis":
		s := redis.New(c.Redis.Addr, c.Redis.Password, c.Redis.DB, redis.WithPrefix(c.Redis.Prefix))
		if err := s.Client().Ping(ctx).Err(); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", c.Redis.Addr, err)
		}
		b.Store, b.close = s, s.Close
		b.Locker = redis.NewLocker(s.Client(), s.Prefix())
	default:
		return nil, fmt.Errorf("unknown store %q", c.Store)
	}

	var mws []middleware.Middleware
	if len(c.RedactFields) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(c.RedactFields))
	}
	if c.EncryptionKey != "" {
		key, err := base64.StdEncoding.DecodeString(c.EncryptionKey)
		if err != nil || len(key) != 32 {
			_ = b.Close()
			return nil, fmt.Errorf("encryption key must be 32 bytes of base64")
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}
	b.Store = middleware.Chain(b.Store, mws...)
	return b, nil
}
