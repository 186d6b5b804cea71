package cache

import (
	"context"
	"reflect"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisSet(t *testing.T) (*RedisSet, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return NewRedis(rdb, "stockdb:"), mr
}

func TestFailureSets(t *testing.T) {
	redisSet, _ := newRedisSet(t)

	sets := map[string]FailureSet{
		"redis":  redisSet,
		"memory": NewMemory(),
	}

	for name, fs := range sets {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := fs.Add(ctx, "daily", "2330", "1101", "2330"); err != nil {
				t.Fatalf("Add() error = %v", err)
			}
			if err := fs.Add(ctx, "quarterly", "2317"); err != nil {
				t.Fatalf("Add() error = %v", err)
			}

			got, err := fs.Members(ctx, "daily")
			if err != nil {
				t.Fatalf("Members() error = %v", err)
			}
			if want := []string{"1101", "2330"}; !reflect.DeepEqual(got, want) {
				t.Errorf("Members(daily) = %v, want %v", got, want)
			}

			if err := fs.Remove(ctx, "daily", "1101"); err != nil {
				t.Fatalf("Remove() error = %v", err)
			}
			got, _ = fs.Members(ctx, "daily")
			if want := []string{"2330"}; !reflect.DeepEqual(got, want) {
				t.Errorf("after Remove = %v, want %v", got, want)
			}

			if err := fs.Remove(ctx, "daily", "2330"); err != nil {
				t.Fatalf("Remove() error = %v", err)
			}
			got, _ = fs.Members(ctx, "daily")
			if len(got) != 0 {
				t.Errorf("after removing all = %v, want empty", got)
			}

			// Kinds are independent.
			got, _ = fs.Members(ctx, "quarterly")
			if want := []string{"2317"}; !reflect.DeepEqual(got, want) {
				t.Errorf("Members(quarterly) = %v, want %v", got, want)
			}

			if err := fs.Add(ctx, "daily"); err != nil {
				t.Errorf("Add() with no ids error = %v", err)
			}
			if err := fs.Remove(ctx, "daily"); err != nil {
				t.Errorf("Remove() with no ids error = %v", err)
			}
		})
	}
}

func TestRedisSet_KeyLayout(t *testing.T) {
	fs, mr := newRedisSet(t)

	if err := fs.Add(context.Background(), "advanced", "2024-01-15"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if !mr.Exists("stockdb:failed:advanced") {
		t.Fatalf("keys = %v, want stockdb:failed:advanced", mr.Keys())
	}
	members, err := mr.Members("stockdb:failed:advanced")
	if err != nil {
		t.Fatalf("Members() error = %v", err)
	}
	if len(members) != 1 || members[0] != "2024-01-15" {
		t.Errorf("members = %v", members)
	}
}

func TestRedisSet_Unavailable(t *testing.T) {
	fs, mr := newRedisSet(t)
	mr.Close()

	if err := fs.Add(context.Background(), "daily", "2330"); err == nil {
		t.Error("expected error when redis is down")
	}
}
