//go:build integration

package storage

import (
	"context"
	"testing"

	"evoting/pkg/platform/sentinel"
	"evoting/pkg/testutil/containers"

	"github.com/stretchr/testify/suite"
)

func TestRedisSlotStore(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	suite.Run(t, &SlotStoreSuite{newStore: func() SlotStore {
		if err := rc.FlushAll(context.Background()); err != nil {
			t.Fatalf("flush redis: %v", err)
		}
		return NewRedisSlotStore(rc.Client)
	}})
}

func TestRedisSlotStore_KeyPrefix(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	a := NewRedisSlotStore(rc.Client, WithKeyPrefix("console-a:"))
	b := NewRedisSlotStore(rc.Client, WithKeyPrefix("console-b:"))

	if err := a.Set(ctx, "voter-credential", "a-token"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := b.Get(ctx, "voter-credential"); err != sentinel.ErrNotFound {
		t.Fatalf("expected prefixes to isolate slots, got %v", err)
	}
	raw, err := rc.Client.Get(ctx, "console-a:voter-credential").Result()
	if err != nil || raw != "a-token" {
		t.Fatalf("expected prefixed key in redis, got %q (%v)", raw, err)
	}
}
