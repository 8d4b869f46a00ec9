package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/iwvelando/invoice-roi/internal/config"
	"github.com/iwvelando/invoice-roi/pkg/scenario"
)

func newTestRedisStore(t *testing.T, opts ...Option) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStoreWithClient(client, "test", nil, opts...)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStore(t *testing.T) {
	s, _ := newTestRedisStore(t, WithClock(steppingClock()))
	exerciseStore(t, s)
}

func TestRedisStoreKeyLayout(t *testing.T) {
	s, mr := newTestRedisStore(t, WithClock(steppingClock()), WithIDGenerator(sequentialIDs()))

	id, err := s.Insert(context.Background(), sampleRecord("layout"))
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	if got := mr.HGet("test:scenario:"+id, scenario.ColumnName); got != "layout" {
		t.Errorf("hash field %s = %q", scenario.ColumnName, got)
	}
	if got := mr.HGet("test:scenario:"+id, scenario.ColumnInvoiceVolume); got != "1000" {
		t.Errorf("hash field %s = %q, expected 1000", scenario.ColumnInvoiceVolume, got)
	}
	members, err := mr.ZMembers("test:scenarios")
	if err != nil || len(members) != 1 || members[0] != id {
		t.Errorf("index members = %v, %v", members, err)
	}
}

func TestRedisStoreOrdersSameInstantInserts(t *testing.T) {
	frozen := func() time.Time { return baseTime }
	s, mr := newTestRedisStore(t, WithClock(frozen))
	ctx := context.Background()

	var ids []string
	for i := 0; i < 20; i++ {
		id, err := s.Insert(ctx, sampleRecord(fmt.Sprintf("same-instant-%d", i)))
		if err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
		ids = append(ids, id)
	}

	records, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != len(ids) {
		t.Fatalf("List() returned %d records, expected %d", len(records), len(ids))
	}
	for i, rec := range records {
		if expected := ids[len(ids)-1-i]; rec[scenario.ColumnID] != expected {
			t.Errorf("records[%d] = %v, expected %s", i, rec[scenario.ColumnID], expected)
		}
	}

	if got := mr.HGet("test:scenario:"+ids[0], scenario.ColumnCreatedAt); got != baseTime.Format(time.RFC3339Nano) {
		t.Errorf("created_at = %q", got)
	}
}

func TestRedisStoreSkipsDanglingIndexEntries(t *testing.T) {
	s, mr := newTestRedisStore(t, WithClock(steppingClock()))
	ctx := context.Background()

	id, err := s.Insert(ctx, sampleRecord("kept"))
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if _, err := mr.ZAdd("test:scenarios", 1, "ghost"); err != nil {
		t.Fatalf("ZAdd() error = %v", err)
	}

	records, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 1 || records[0][scenario.ColumnID] != id {
		t.Errorf("expected only %s, got %v", id, records)
	}
}

func TestRedisStoreGetMissing(t *testing.T) {
	s, _ := newTestRedisStore(t)
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, scenario.ErrNotFound) {
		t.Errorf("Get() expected ErrNotFound, got %v", err)
	}
}

func TestRedisStoreConnectionFailure(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run() error = %v", err)
	}
	addr := mr.Addr()
	mr.Close()

	if _, err := NewRedisStore(context.Background(), config.RedisConfig{Addr: addr}, nil); err == nil {
		t.Error("NewRedisStore() expected error for closed server")
	}
}

func TestRedisStoreFailureIsReported(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run() error = %v", err)
	}
	s := NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}), "test", nil)
	defer s.Close()
	mr.Close()

	if _, err := s.Insert(context.Background(), sampleRecord("down")); err == nil {
		t.Error("Insert() expected error when redis is down")
	}
	if _, err := s.List(context.Background()); err == nil {
		t.Error("List() expected error when redis is down")
	}
}
