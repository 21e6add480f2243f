package syncutil

import (
	"context"
	"testing"
	"time"
)

func TestAddressMutex_BasicLockUnlock(t *testing.T) {
	m := NewAddressMutex()

	unlock, err := m.Lock(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	unlock()

	unlock, err = m.Lock(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("relock after unlock: %v", err)
	}
	unlock()
}

func TestAddressMutex_MutualExclusion(t *testing.T) {
	m := NewAddressMutex()

	unlock, err := m.Lock(context.Background(), "0xabc")
	if err != nil {
		t.Fatal(err)
	}

	acquired := make(chan struct{})
	go func() {
		u, err := m.Lock(context.Background(), "0xabc")
		if err != nil {
			t.Error(err)
			return
		}
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second Lock succeeded while first was held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second Lock never acquired after unlock")
	}
}

// Mixed-case forms of the same address must contend on one lock.
func TestAddressMutex_CaseInsensitive(t *testing.T) {
	m := NewAddressMutex()

	unlock, err := m.Lock(context.Background(), "0xABCDEF")
	if err != nil {
		t.Fatal(err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := m.Lock(ctx, "0xabcdef"); err == nil {
		t.Fatal("lowercase form should contend with uppercase form")
	}
}

func TestAddressMutex_ContextCancelled(t *testing.T) {
	m := NewAddressMutex()

	unlock, err := m.Lock(context.Background(), "0xabc")
	if err != nil {
		t.Fatal(err)
	}
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Lock(ctx, "0xabc"); err != context.Canceled {
		t.Errorf("Lock on cancelled context = %v, want context.Canceled", err)
	}
}
