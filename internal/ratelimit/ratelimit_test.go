package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinRate(t *testing.T) {
	l := New(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Allow() {
			t.Fatalf("request %d denied within rate", i+1)
		}
	}
	if l.Allow() {
		t.Error("request over the rate allowed")
	}
}

func TestWindowResets(t *testing.T) {
	l := New(1, 10*time.Millisecond)

	if !l.Allow() {
		t.Fatal("first request denied")
	}
	if l.Allow() {
		t.Fatal("second request in window allowed")
	}

	time.Sleep(15 * time.Millisecond)
	if !l.Allow() {
		t.Error("request after window reset denied")
	}
}

func TestIdleFor(t *testing.T) {
	l := New(10, time.Minute)
	l.Allow()

	if l.IdleFor(time.Hour) {
		t.Error("limiter idle immediately after a request")
	}
	if !l.IdleFor(0) {
		t.Error("IdleFor(0) = false")
	}
}
