package infra

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestPingWithRetryRecovers(t *testing.T) {
	calls := 0
	err := pingWithRetry(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestPingWithRetryGivesUp(t *testing.T) {
	calls := 0
	err := pingWithRetry(context.Background(), func(context.Context) error {
		calls++
		return errors.New("connection refused")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != connectAttempts {
		t.Fatalf("expected %d attempts, got %d", connectAttempts, calls)
	}
}

func TestNewRedisClient(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	if _, err := NewRedisClient(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty url")
	}
}
