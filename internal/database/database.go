// Package database opens the connections to the backing services.
package database

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/gocql/gocql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var keyspacePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,47}$`)

type ScyllaConfig struct {
	Hosts    []string
	Keyspace string
	Username string
	Password string
	Timeout  time.Duration
	NumConns int
}

func newScyllaCluster(cfg ScyllaConfig) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = cfg.Timeout
	if cluster.Timeout <= 0 {
		cluster.Timeout = 5 * time.Second
	}
	cluster.NumConns = cfg.NumConns
	if cluster.NumConns <= 0 {
		cluster.NumConns = 20
	}
	cluster.MaxWaitSchemaAgreement = 30 * time.Second
	cluster.ReconnectInterval = time.Second
	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	return cluster
}

// ConnectScylla creates the keyspace when missing and returns a session bound to it.
func ConnectScylla(cfg ScyllaConfig, logger *zap.Logger) (*gocql.Session, error) {
	if !keyspacePattern.MatchString(cfg.Keyspace) {
		return nil, fmt.Errorf("invalid scylla keyspace %q", cfg.Keyspace)
	}

	bootstrap, err := newScyllaCluster(cfg).CreateSession()
	if err != nil {
		return nil, fmt.Errorf("scylla bootstrap session: %w", err)
	}
	err = bootstrap.Query(fmt.Sprintf(
		`CREATE KEYSPACE IF NOT EXISTS %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}`,
		cfg.Keyspace)).Exec()
	bootstrap.Close()
	if err != nil {
		return nil, fmt.Errorf("create keyspace %s: %w", cfg.Keyspace, err)
	}

	cluster := newScyllaCluster(cfg)
	cluster.Keyspace = cfg.Keyspace
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("scylla session for %s: %w", cfg.Keyspace, err)
	}
	logger.Info("✅ connected to ScyllaDB", zap.String("keyspace", cfg.Keyspace), zap.Strings("hosts", cfg.Hosts))
	return session, nil
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func ConnectRedis(ctx context.Context, cfg RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	logger.Info("✅ connected to Redis", zap.String("addr", cfg.Addr))
	return rdb, nil
}
