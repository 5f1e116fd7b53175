package redisx

import (
	"testing"
	"time"
)

func TestNewAppliesTimeouts(t *testing.T) {
	r := New("localhost:6379")
	defer r.Close()

	opts := r.Options()
	if opts.Addr != "localhost:6379" {
		t.Fatalf("addr = %q", opts.Addr)
	}
	for name, d := range map[string]time.Duration{
		"dial":  opts.DialTimeout,
		"read":  opts.ReadTimeout,
		"write": opts.WriteTimeout,
	} {
		if d != 2*time.Second {
			t.Fatalf("%s timeout = %v, want 2s", name, d)
		}
	}
}
