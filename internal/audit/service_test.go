package audit

import (
	"context"
	"errors"
	"testing"

	"storefront-client/pkg/logger"
)

func TestService_AppendRequiresType(t *testing.T) {
	svc := NewService(NewMemoryRepo(0), "default", logger.Discard())

	if err := svc.Append(context.Background(), Event{UserID: "1"}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}

func TestService_FillsIDNamespaceAndTime(t *testing.T) {
	repo := NewMemoryRepo(0)
	svc := NewService(repo, "tab-1", logger.Discard())

	svc.Record(context.Background(), Event{Type: EventRefresh, Trigger: "periodic", UserID: "7"})

	evs, _ := repo.List(context.Background(), 0)
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evs))
	}
	e := evs[0]
	if e.ID == "" || e.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp, got %+v", e)
	}
	if e.Namespace != "tab-1" || e.Trigger != "periodic" {
		t.Fatalf("unexpected event %+v", e)
	}
}

func TestMemoryRepo_NewestFirstAndBounded(t *testing.T) {
	repo := NewMemoryRepo(2)
	svc := NewService(repo, "", logger.Discard())
	ctx := context.Background()

	svc.Record(ctx, Event{Type: EventLogin})
	svc.Record(ctx, Event{Type: EventRefresh})
	svc.Record(ctx, Event{Type: EventLogout})

	evs, _ := svc.Recent(ctx, 10)
	if len(evs) != 2 {
		t.Fatalf("expected capacity to bound events, got %d", len(evs))
	}
	if evs[0].Type != EventLogout || evs[1].Type != EventRefresh {
		t.Fatalf("expected newest first, got %v, %v", evs[0].Type, evs[1].Type)
	}

	evs, _ = svc.Recent(ctx, 1)
	if len(evs) != 1 || evs[0].Type != EventLogout {
		t.Fatalf("expected limit to apply")
	}
}

func TestService_NilIsNoop(t *testing.T) {
	var svc *Service
	svc.Record(context.Background(), Event{Type: EventLogin})
	if evs, err := svc.Recent(context.Background(), 5); err != nil || evs != nil {
		t.Fatalf("expected empty result from nil service")
	}
}
