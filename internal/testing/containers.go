package testing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	redisOnce sync.Once
	redisAddr string
	redisErr  error

	pgOnce sync.Once
	pgDSN  string
	pgErr  error
)

/*
 * GetRedisAddress returns host:port of a shared Redis container.
 * Tests are skipped when the container cannot be started.
 */
func GetRedisAddress(t *testing.T) string {
	t.Helper()
	redisOnce.Do(func() {
		redisAddr, redisErr = startRedis()
	})
	if redisErr != nil {
		t.Skipf("skipping Redis tests: %v", redisErr)
	}
	return redisAddr
}

/*
 * GetPostgresDSN returns a DSN for a shared PostgreSQL container.
 * Tests are skipped when the container cannot be started.
 */
func GetPostgresDSN(t *testing.T) string {
	t.Helper()
	pgOnce.Do(func() {
		pgDSN, pgErr = startPostgres()
	})
	if pgErr != nil {
		t.Skipf("skipping PostgreSQL tests: %v", pgErr)
	}
	return pgDSN
}

func startRedis() (addr string, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	/* Testcontainers panics when no Docker host can be found */
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("starting Redis testcontainer panicked: %v", r)
		}
	}()

	redisC, err := testcontainers.Run(
		ctx, "redis:7",
		testcontainers.WithExposedPorts("6379/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("6379/tcp"),
			wait.ForLog("Ready to accept connections"),
		),
	)
	if err != nil {
		return "", fmt.Errorf("failed to start Redis testcontainer: %w", err)
	}

	endpoint, err := redisC.Endpoint(ctx, "")
	if err != nil {
		_ = redisC.Terminate(context.Background())
		return "", err
	}
	return endpoint, nil
}

func startPostgres() (dsn string, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("starting PostgreSQL testcontainer panicked: %v", r)
		}
	}()

	postgresC, err := testcontainers.Run(
		ctx, "postgres:16",
		testcontainers.WithExposedPorts("5432/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("ready to accept connections"),
				wait.ForSQL("5432/tcp", "pgx", func(host string, port nat.Port) string {
					return fmt.Sprintf("postgres://neuronflow:neuronflow@%s:%s/neuronflow_test?sslmode=disable", host, port.Port())
				}).WithQuery("SELECT 1"),
			).WithDeadline(2*time.Minute),
		),
		testcontainers.WithEnv(map[string]string{
			"POSTGRES_USER":     "neuronflow",
			"POSTGRES_PASSWORD": "neuronflow",
			"POSTGRES_DB":       "neuronflow_test",
		}),
	)
	if err != nil {
		return "", fmt.Errorf("failed to start PostgreSQL testcontainer: %w", err)
	}

	endpoint, err := postgresC.Endpoint(ctx, "")
	if err != nil {
		_ = postgresC.Terminate(context.Background())
		return "", err
	}
	return fmt.Sprintf("postgres://neuronflow:neuronflow@%s/neuronflow_test?sslmode=disable", endpoint), nil
}
