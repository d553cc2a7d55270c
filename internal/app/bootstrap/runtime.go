package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/turnos/internal/config"
	"github.com/wolfman30/turnos/internal/directory"
	"github.com/wolfman30/turnos/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, directory overrides disabled", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BaseDirectory returns the configured table: DIRECTORY_FILE when set,
// otherwise the named built-in revision.
func BaseDirectory(cfg *appconfig.Config) (*directory.Directory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if path := strings.TrimSpace(cfg.DirectoryFile); path != "" {
		dir, err := directory.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load directory file: %w", err)
		}
		return dir, nil
	}
	revision := strings.TrimSpace(cfg.DirectoryRevision)
	if revision == "" {
		revision = directory.DefaultRevision
	}
	dir, err := directory.Builtin(revision)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return dir, nil
}

// BuildDirectorySource layers the Redis override store over the base table
// when a client is available.
func BuildDirectorySource(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) (directory.Source, error) {
	if logger == nil {
		logger = logging.Default()
	}
	base, err := BaseDirectory(cfg)
	if err != nil {
		return nil, err
	}
	if redisClient == nil {
		logger.Info("directory ready", "especialidades", len(base.Especialidades()), "overrides", false)
		return directory.NewStatic(base), nil
	}
	logger.Info("directory ready", "especialidades", len(base.Especialidades()), "overrides", true)
	return directory.NewStore(redisClient, base, logger), nil
}
