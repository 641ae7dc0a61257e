package store

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rentdesk/client-go/internal/core/domain"
	"github.com/rentdesk/client-go/internal/core/ports"
)

func sampleUser() domain.User {
	return domain.User{
		ID:          1,
		Email:       "a@b.com",
		FirstName:   "Ada",
		LastName:    "Byron",
		Role:        domain.RoleTenant,
		PhoneNumber: "555-1234",
		City:        "Austin",
	}
}

// stores under test share one behavioural contract; the file store gets
// a fresh path per run.
func testStores(t *testing.T) map[string]ports.TokenStore {
	t.Helper()
	return map[string]ports.TokenStore{
		"memory": NewMemory(),
		"file":   NewFile(filepath.Join(t.TempDir(), "session.json")),
	}
}

func TestStore_RoundTrip(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			user := sampleUser()

			if err := s.Save(ctx, "abc", user); err != nil {
				t.Fatalf("Save: %v", err)
			}

			sess, err := s.Read(ctx)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if sess.Token != "Bearer abc" {
				t.Fatalf("expected normalized token %q, got %q", "Bearer abc", sess.Token)
			}
			if sess.User == nil || !reflect.DeepEqual(*sess.User, user) {
				t.Fatalf("user round-trip mismatch: %+v", sess.User)
			}
			if sess.Role != domain.RoleTenant {
				t.Fatalf("expected derived role TENANT, got %q", sess.Role)
			}
		})
	}
}

func TestStore_TokenPrefixNotDoubled(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.Save(ctx, "Bearer Bearer xyz", sampleUser()); err != nil {
				t.Fatalf("Save: %v", err)
			}
			sess, _ := s.Read(ctx)
			if sess.Token != "Bearer xyz" {
				t.Fatalf("expected single prefix, got %q", sess.Token)
			}
		})
	}
}

func TestStore_LastWriteWins(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			first := sampleUser()
			second := sampleUser()
			second.Email = "second@b.com"
			second.Role = domain.RoleLandlord

			if err := s.Save(ctx, "one", first); err != nil {
				t.Fatalf("Save: %v", err)
			}
			if err := s.Save(ctx, "two", second); err != nil {
				t.Fatalf("Save: %v", err)
			}

			sess, _ := s.Read(ctx)
			if sess.Token != "Bearer two" {
				t.Fatalf("expected last token, got %q", sess.Token)
			}
			if sess.User.Email != "second@b.com" || sess.Role != domain.RoleLandlord {
				t.Fatalf("expected last user, got %+v role %q", sess.User, sess.Role)
			}
		})
	}
}

func TestStore_ClearIdempotent(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.Save(ctx, "abc", sampleUser()); err != nil {
				t.Fatalf("Save: %v", err)
			}
			if err := s.Clear(ctx); err != nil {
				t.Fatalf("first Clear: %v", err)
			}
			if err := s.Clear(ctx); err != nil {
				t.Fatalf("second Clear: %v", err)
			}
			sess, err := s.Read(ctx)
			if err != nil {
				t.Fatalf("Read after Clear: %v", err)
			}
			if sess.Authenticated() || sess.User != nil || sess.Role != "" {
				t.Fatalf("expected empty session, got %+v", sess)
			}
		})
	}
}

func TestFileStore_MalformedDataReadsAsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	s := NewFile(path)
	sess, err := s.Read(context.Background())
	if err != nil {
		t.Fatalf("Read must not fail on malformed data: %v", err)
	}
	if sess.Authenticated() || sess.User != nil {
		t.Fatalf("expected empty session, got %+v", sess)
	}
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	ctx := context.Background()

	if err := NewFile(path).Save(ctx, "abc", sampleUser()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// A new handle on the same path sees the persisted session.
	sess, err := NewFile(path).Read(ctx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if sess.Token != "Bearer abc" || sess.User == nil {
		t.Fatalf("session not persisted: %+v", sess)
	}
}

func TestFileStore_NoPartialWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.json")
	ctx := context.Background()

	s := NewFile(path)
	if err := s.Save(ctx, "abc", sampleUser()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "session.json" {
		t.Fatalf("expected only session.json, got %v", entries)
	}
}
