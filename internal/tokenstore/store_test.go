package tokenstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"storefront-client/pkg/logger"
)

// exerciseStore runs the store contract against a backend.
func exerciseStore(t *testing.T, newBackend func(t *testing.T) Backend) {
	t.Helper()

	t.Run("partial update keeps refresh token", func(t *testing.T) {
		ctx := context.Background()
		s := New(newBackend(t), logger.Discard())
		if err := s.SetTokens(ctx, "a1", "r1"); err != nil {
			t.Fatalf("set: %v", err)
		}
		if err := s.SetTokens(ctx, "a2", ""); err != nil {
			t.Fatalf("set: %v", err)
		}
		if got, _ := s.RefreshToken(ctx); got != "r1" {
			t.Fatalf("expected r1, got %q", got)
		}
		if got, _ := s.AccessToken(ctx); got != "a2" {
			t.Fatalf("expected a2, got %q", got)
		}
	})

	t.Run("partial update keeps access token", func(t *testing.T) {
		ctx := context.Background()
		s := New(newBackend(t), logger.Discard())
		_ = s.SetTokens(ctx, "a1", "r1")
		if err := s.SetTokens(ctx, "", "r2"); err != nil {
			t.Fatalf("set: %v", err)
		}
		if got, _ := s.AccessToken(ctx); got != "a1" {
			t.Fatalf("expected a1, got %q", got)
		}
		if got, _ := s.RefreshToken(ctx); got != "r2" {
			t.Fatalf("expected r2, got %q", got)
		}
	})

	t.Run("clear removes everything and is idempotent", func(t *testing.T) {
		ctx := context.Background()
		s := New(newBackend(t), logger.Discard())
		_ = s.SetTokens(ctx, "a", "r")
		_ = s.SetUser(ctx, &Profile{PhoneNumber: "1"})

		for i := 0; i < 2; i++ {
			if err := s.Clear(ctx); err != nil {
				t.Fatalf("clear #%d: %v", i+1, err)
			}
			a, _ := s.AccessToken(ctx)
			r, _ := s.RefreshToken(ctx)
			u, _ := s.User(ctx)
			if a != "" || r != "" || u != nil {
				t.Fatalf("expected empty store after clear #%d, got %q %q %v", i+1, a, r, u)
			}
		}
	})

	t.Run("user round trip", func(t *testing.T) {
		ctx := context.Background()
		s := New(newBackend(t), logger.Discard())
		want := &Profile{PhoneNumber: "+998901112233", FirstName: "Aziz", LastName: "Karimov", Email: "a@example.com"}
		if err := s.SetUser(ctx, want); err != nil {
			t.Fatalf("set user: %v", err)
		}
		got, err := s.User(ctx)
		if err != nil {
			t.Fatalf("get user: %v", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("expected %+v, got %+v", want, got)
		}
	})

	t.Run("corrupt user reads as absent", func(t *testing.T) {
		ctx := context.Background()
		b := newBackend(t)
		_ = b.Put(ctx, map[string]string{KeyUser: "{not json"})
		u, err := New(b, logger.Discard()).User(ctx)
		if err != nil || u != nil {
			t.Fatalf("expected nil user and nil error, got %v %v", u, err)
		}
	})
}

func TestMemoryBackend(t *testing.T) {
	exerciseStore(t, func(t *testing.T) Backend { return NewMemoryBackend() })
}

func TestFileBackend(t *testing.T) {
	exerciseStore(t, func(t *testing.T) Backend {
		b, err := NewFileBackend(filepath.Join(t.TempDir(), "nested", "session.json"))
		if err != nil {
			t.Fatalf("file backend: %v", err)
		}
		return b
	})
}

func TestFileBackend_SharedBetweenInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	b1, _ := NewFileBackend(path)
	if err := New(b1, nil).SetTokens(ctx, "a", "r"); err != nil {
		t.Fatalf("set: %v", err)
	}

	b2, _ := NewFileBackend(path)
	if got, _ := New(b2, nil).RefreshToken(ctx); got != "r" {
		t.Fatalf("expected second instance to read r, got %q", got)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 permissions, got %v", info.Mode().Perm())
	}
}

func TestFileBackend_CorruptDocumentErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("garbage"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, _ := NewFileBackend(path)
	if _, err := New(b, nil).AccessToken(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestSetTokens_BothEmptyIsNoop(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryBackend(), nil)
	_ = s.SetTokens(ctx, "a", "r")
	if err := s.SetTokens(ctx, "", ""); err != nil {
		t.Fatalf("set: %v", err)
	}
	if a, _ := s.AccessToken(ctx); a != "a" {
		t.Fatalf("expected a, got %q", a)
	}
}

func TestSetTokensIfCurrent_DroppedAfterClear(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryBackend(), logger.Discard())
	_ = s.SetTokens(ctx, "a1", "r1")

	gen := s.Generation()
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := s.SetTokensIfCurrent(ctx, gen, "a2", "r2"); !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale, got %v", err)
	}
	if a, _ := s.AccessToken(ctx); a != "" {
		t.Fatalf("cleared store must stay empty, got %q", a)
	}
}

func TestSetTokensIfCurrent_DroppedAfterNewLogin(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryBackend(), logger.Discard())
	_ = s.SetTokens(ctx, "a1", "r1")

	gen := s.Generation()
	_ = s.SetTokens(ctx, "login-a", "login-r")
	if err := s.SetTokensIfCurrent(ctx, gen, "a2", "r2"); !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale, got %v", err)
	}
	if r, _ := s.RefreshToken(ctx); r != "login-r" {
		t.Fatalf("expected newer login to win, got %q", r)
	}
}

func TestSetTokensIfCurrent_WritesWhenUnchanged(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryBackend(), logger.Discard())
	_ = s.SetTokens(ctx, "a1", "r1")

	gen := s.Generation()
	if err := s.SetTokensIfCurrent(ctx, gen, "a2", "r2"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if s.Generation() == gen {
		t.Fatalf("expected generation to advance")
	}
	if a, _ := s.AccessToken(ctx); a != "a2" {
		t.Fatalf("expected a2, got %q", a)
	}
}
