package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestRecordAndLookup(t *testing.T) {
	s := NewWithInterval(0)
	defer s.Stop()
	ctx := context.Background()

	if err := s.Record(ctx, "tok-1", "client-a", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Record() error: %v", err)
	}

	subject, valid, err := s.Lookup(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if !valid {
		t.Fatal("expected token to be valid")
	}
	if subject != "client-a" {
		t.Errorf("subject = %q, want %q", subject, "client-a")
	}
}

func TestLookupUnknownToken(t *testing.T) {
	s := NewWithInterval(0)
	defer s.Stop()

	subject, valid, err := s.Lookup(context.Background(), "never-issued")
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if valid {
		t.Error("unknown token must not be valid")
	}
	if subject != "" {
		t.Errorf("unknown token must carry no subject, got %q", subject)
	}
}

func TestLookupExpiredToken(t *testing.T) {
	s := NewWithInterval(0)
	defer s.Stop()
	ctx := context.Background()

	// Already expired; lazy expiry must reject it even without a sweep
	if err := s.Record(ctx, "tok-old", "client-a", time.Now().Add(-time.Second)); err != nil {
		t.Fatalf("Record() error: %v", err)
	}

	_, valid, err := s.Lookup(ctx, "tok-old")
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if valid {
		t.Error("expired token must not be valid")
	}
	if s.Count() != 1 {
		t.Error("lazy expiry must not remove the record")
	}
}

func TestRecordOverwrite(t *testing.T) {
	s := NewWithInterval(0)
	defer s.Stop()
	ctx := context.Background()

	_ = s.Record(ctx, "tok-1", "client-a", time.Now().Add(-time.Minute))
	_ = s.Record(ctx, "tok-1", "client-b", time.Now().Add(time.Hour))

	subject, valid, _ := s.Lookup(ctx, "tok-1")
	if !valid || subject != "client-b" {
		t.Errorf("overwrite failed: valid=%v subject=%q", valid, subject)
	}
	if s.Count() != 1 {
		t.Errorf("Count() = %d, want 1", s.Count())
	}
}

func TestSweepRemovesExpired(t *testing.T) {
	s := NewWithInterval(0)
	defer s.Stop()
	ctx := context.Background()

	_ = s.Record(ctx, "tok-live", "client-a", time.Now().Add(time.Hour))
	_ = s.Record(ctx, "tok-dead", "client-a", time.Now().Add(-time.Second))

	s.sweep()

	if s.Count() != 1 {
		t.Errorf("Count() after sweep = %d, want 1", s.Count())
	}
	if _, valid, _ := s.Lookup(ctx, "tok-live"); !valid {
		t.Error("live token must survive the sweep")
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := NewWithInterval(0)
	defer s.Stop()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = s.Record(ctx, fmt.Sprintf("tok-%d", i), "client-a", time.Now().Add(time.Hour))
		}(i)
		go func(i int) {
			defer wg.Done()
			_, _, _ = s.Lookup(ctx, fmt.Sprintf("tok-%d", i))
		}(i)
	}
	wg.Wait()

	if s.Count() != 50 {
		t.Errorf("Count() = %d, want 50", s.Count())
	}
}
