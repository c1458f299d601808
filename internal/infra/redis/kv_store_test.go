package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestKVStoreNamespacesKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	kv := NewKVStore(newClient(mr), "learner-1:")

	if _, found, err := kv.Get(ctx, "casper-learning-language"); found || err != nil {
		t.Fatalf("expected missing key, found=%v err=%v", found, err)
	}
	if err := kv.Set(ctx, "casper-learning-language", "fr"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, _ := mr.Get("learner-1:casper-learning-language"); v != "fr" {
		t.Fatalf("expected namespaced key, got %q", v)
	}
	if v, found, _ := kv.Get(ctx, "casper-learning-language"); !found || v != "fr" {
		t.Fatalf("expected fr, got %q", v)
	}
	if err := kv.Delete(ctx, "casper-learning-language"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("learner-1:casper-learning-language") {
		t.Fatalf("expected key removed")
	}
}

func TestKVStoreReportsOutage(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	kv := NewKVStore(newClient(mr), "")
	mr.Close()

	if _, _, err := kv.Get(context.Background(), "k"); err == nil {
		t.Fatalf("expected error when redis is down")
	}
}
