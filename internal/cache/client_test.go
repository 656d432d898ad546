package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func testClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := New(mr.Addr())
	if !c.Connect(context.Background()) {
		t.Fatal("connect to miniredis failed")
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestClientRoundTrip(t *testing.T) {
	c, _ := testClient(t)
	ctx := context.Background()

	type payload struct {
		Name  string  `json:"name"`
		Score float64 `json:"score"`
	}
	in := payload{Name: "run-1", Score: 87.5}

	if !c.Set(ctx, "simulation:abc", in, time.Minute) {
		t.Fatal("set failed")
	}
	var out payload
	if !c.Get(ctx, "simulation:abc", &out) {
		t.Fatal("get missed a just-written key")
	}
	if out != in {
		t.Fatalf("round trip: got %+v, want %+v", out, in)
	}
	if !c.Exists(ctx, "simulation:abc") {
		t.Fatal("exists false for present key")
	}

	if !c.Del(ctx, "simulation:abc") {
		t.Fatal("del failed")
	}
	if c.Get(ctx, "simulation:abc", &out) {
		t.Fatal("get hit a deleted key")
	}
}

func TestClientTTLExpiry(t *testing.T) {
	c, mr := testClient(t)
	ctx := context.Background()

	if !c.Set(ctx, "simulation:ttl", "v", 30*time.Second) {
		t.Fatal("set failed")
	}
	mr.FastForward(31 * time.Second)

	var out string
	if c.Get(ctx, "simulation:ttl", &out) {
		t.Fatal("expired entry still served")
	}
}

func TestClientKeysAndFlush(t *testing.T) {
	c, _ := testClient(t)
	ctx := context.Background()

	c.Set(ctx, "simulation:a", 1, 0)
	c.Set(ctx, "simulation:b", 2, 0)
	c.Set(ctx, "list:simulations:x", 3, 0)

	if got := c.Keys(ctx, "simulation:*"); len(got) != 2 {
		t.Fatalf("simulation keys: got %v", got)
	}
	if got := c.Keys(ctx, "list:*"); len(got) != 1 {
		t.Fatalf("list keys: got %v", got)
	}

	if !c.FlushAll(ctx) {
		t.Fatal("flush failed")
	}
	if got := c.Keys(ctx, "*"); len(got) != 0 {
		t.Fatalf("keys after flush: %v", got)
	}
}

func TestClientDegradesWhenUnconnected(t *testing.T) {
	// Never connected: every operation returns its safe default without
	// touching the network.
	c := New("127.0.0.1:1")
	ctx := context.Background()

	if c.Ready() {
		t.Fatal("unconnected client reports ready")
	}
	var out string
	if c.Get(ctx, "k", &out) {
		t.Fatal("get succeeded while disconnected")
	}
	if c.Set(ctx, "k", "v", time.Minute) {
		t.Fatal("set succeeded while disconnected")
	}
	if c.Del(ctx, "k") || c.Exists(ctx, "k") || c.FlushAll(ctx) {
		t.Fatal("write ops succeeded while disconnected")
	}
	if got := c.Keys(ctx, "*"); len(got) != 0 {
		t.Fatalf("keys while disconnected: %v", got)
	}
}
