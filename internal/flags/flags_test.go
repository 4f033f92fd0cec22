package flags

import (
	"context"
	"testing"
)

type memStore map[string]string

func (m memStore) key(owner, device, name string) string {
	return owner + "|" + device + "|" + name
}

func (m memStore) GetClientFlag(_ context.Context, owner, device, name string) (string, error) {
	return m[m.key(owner, device, name)], nil
}

func (m memStore) SetClientFlag(_ context.Context, owner, device, name, value string) error {
	m[m.key(owner, device, name)] = value
	return nil
}

func TestGreetingMonthRoundTrip(t *testing.T) {
	svc := NewService(memStore{})
	ctx := context.Background()

	got, err := svc.GreetingMonth(ctx, "u1", "d1")
	if err != nil || got != "" {
		t.Fatalf("unset flag should read empty: %q, %v", got, err)
	}

	if err := svc.SetGreetingMonth(ctx, "u1", "d1", "2025-3"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err = svc.GreetingMonth(ctx, "u1", "d1")
	if err != nil || got != "2025-3" {
		t.Fatalf("got %q, %v", got, err)
	}

	// Device-scoped: another device still reads empty.
	got, _ = svc.GreetingMonth(ctx, "u1", "d2")
	if got != "" {
		t.Fatalf("flag leaked across devices: %q", got)
	}
}

func TestRecapSeenIndependentOfGreeting(t *testing.T) {
	svc := NewService(memStore{})
	ctx := context.Background()

	if err := svc.SetGreetingMonth(ctx, "u1", "d1", "2025-3"); err != nil {
		t.Fatal(err)
	}
	got, _ := svc.RecapSeen(ctx, "u1", "d1")
	if got != "" {
		t.Fatalf("recap flag must be independent, got %q", got)
	}

	if err := svc.SetRecapSeen(ctx, "u1", "d1", "2025-2"); err != nil {
		t.Fatal(err)
	}
	got, _ = svc.RecapSeen(ctx, "u1", "d1")
	if got != "2025-2" {
		t.Fatalf("recap seen = %q", got)
	}
}

func TestTourSeen(t *testing.T) {
	svc := NewService(memStore{})
	ctx := context.Background()

	seen, err := svc.TourSeen(ctx, "u1", "d1")
	if err != nil || seen {
		t.Fatalf("tour should start unseen: %v, %v", seen, err)
	}
	if err := svc.MarkTourSeen(ctx, "u1", "d1"); err != nil {
		t.Fatal(err)
	}
	seen, err = svc.TourSeen(ctx, "u1", "d1")
	if err != nil || !seen {
		t.Fatalf("tour should be seen: %v, %v", seen, err)
	}
}
