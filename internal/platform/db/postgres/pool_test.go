package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ogurasousui/grpc-hr-clean-arch/internal/platform/config"
	"go.uber.org/zap/zaptest"
)

func TestBuildPoolConfig(t *testing.T) {
	t.Parallel()

	dbCfg := config.DatabaseConfig{
		Host:            "localhost",
		Port:            15432,
		User:            "user",
		Password:        "pass",
		Name:            "hr",
		SSLMode:         "disable",
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 10 * time.Minute,
	}

	poolCfg, err := BuildPoolConfig(dbCfg)
	if err != nil {
		t.Fatalf("BuildPoolConfig returned error: %v", err)
	}

	if poolCfg.MaxConns != 20 {
		t.Errorf("expected MaxConns 20, got %d", poolCfg.MaxConns)
	}

	if poolCfg.MinConns != 5 {
		t.Errorf("expected MinConns 5, got %d", poolCfg.MinConns)
	}

	if poolCfg.MaxConnLifetime != 30*time.Minute {
		t.Errorf("unexpected MaxConnLifetime: %v", poolCfg.MaxConnLifetime)
	}

	if poolCfg.MaxConnIdleTime != 10*time.Minute {
		t.Errorf("unexpected MaxConnIdleTime: %v", poolCfg.MaxConnIdleTime)
	}

	if poolCfg.ConnConfig.Database != "hr" {
		t.Errorf("expected database hr, got %s", poolCfg.ConnConfig.Database)
	}
}

func TestWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	t.Parallel()

	attempts := 0
	got, err := withRetry(context.Background(),
		config.DatabaseConfig{ConnectMaxRetries: 5, ConnectTimeout: time.Second},
		backoff.NewConstantBackOff(time.Millisecond),
		zaptest.NewLogger(t),
		func() (string, error) {
			attempts++
			if attempts < 3 {
				return "", errors.New("connection refused")
			}
			return "pool", nil
		},
	)
	if err != nil {
		t.Fatalf("withRetry returned error: %v", err)
	}
	if got != "pool" || attempts != 3 {
		t.Fatalf("expected success on third attempt, got %q after %d", got, attempts)
	}
}

func TestWithRetry_StopsAtMaxTries(t *testing.T) {
	t.Parallel()

	attempts := 0
	_, err := withRetry(context.Background(),
		config.DatabaseConfig{ConnectMaxRetries: 2, ConnectTimeout: time.Second},
		backoff.NewConstantBackOff(time.Millisecond),
		nil,
		func() (int, error) {
			attempts++
			return 0, errors.New("connection refused")
		},
	)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestWithRetry_PermanentError(t *testing.T) {
	t.Parallel()

	attempts := 0
	permanent := errors.New("invalid dsn")
	_, err := withRetry(context.Background(),
		config.DatabaseConfig{ConnectMaxRetries: 5, ConnectTimeout: time.Second},
		backoff.NewConstantBackOff(time.Millisecond),
		nil,
		func() (int, error) {
			attempts++
			return 0, backoff.Permanent(permanent)
		},
	)
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}
