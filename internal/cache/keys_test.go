package cache

import (
	"strings"
	"testing"
)

func TestBuildKeyScalar(t *testing.T) {
	if got := BuildKey("simulation", "latest"); got != "simulation:latest" {
		t.Fatalf("string scalar: %q", got)
	}
	if got := BuildKey("simulation", 42); got != "simulation:42" {
		t.Fatalf("int scalar: %q", got)
	}
}

func TestBuildKeyFieldOrderIrrelevant(t *testing.T) {
	type ab struct {
		A int `json:"a"`
		B int `json:"b"`
	}
	type ba struct {
		B int `json:"b"`
		A int `json:"a"`
	}
	k1 := BuildKey("simulation", ab{A: 1, B: 2})
	k2 := BuildKey("simulation", ba{B: 2, A: 1})
	if k1 != k2 {
		t.Fatalf("semantically equal params produced different keys: %q vs %q", k1, k2)
	}
	if !strings.HasPrefix(k1, "simulation:") {
		t.Fatalf("missing namespace prefix: %q", k1)
	}
}

func TestBuildKeyValueSensitive(t *testing.T) {
	type p struct {
		A int `json:"a"`
	}
	if BuildKey("simulation", p{A: 1}) == BuildKey("simulation", p{A: 2}) {
		t.Fatal("different values produced the same key")
	}
}

func TestBuildKeyStableAcrossCalls(t *testing.T) {
	params := map[string]any{"numDrivers": 3, "startTime": "09:00", "maxHoursPerDriver": 8.0}
	first := BuildKey("simulation", params)
	for i := 0; i < 20; i++ {
		if got := BuildKey("simulation", params); got != first {
			t.Fatalf("key changed between calls: %q vs %q", got, first)
		}
	}
}
