package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/checklists/internal/models"
	"github.com/desertthunder/checklists/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if _, err := shared.RunMigrations(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func createUser(t *testing.T, db *sql.DB, email string) *models.User {
	t.Helper()

	user, err := NewUserRepository(db).Create(context.Background(), email, "hash", nil)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		name := "Test User"

		user, err := repo.Create(ctx, "test@example.com", "hash", &name)
		if err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		if user.ID == "" {
			t.Error("user ID should be set after creation")
		}
		if user.Sequence != 1 {
			t.Errorf("expected sequence 1, got %d", user.Sequence)
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := createUser(t, db, "test@example.com")

		retrieved, err := repo.Get(ctx, user.ID)
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}

		if retrieved.Email != user.Email {
			t.Errorf("expected email %s, got %s", user.Email, retrieved.Email)
		}
		if retrieved.Name != nil {
			t.Errorf("expected nil name, got %q", *retrieved.Name)
		}
		if retrieved.PasswordHash != "hash" {
			t.Errorf("expected stored hash, got %q", retrieved.PasswordHash)
		}
	})

	t.Run("GetByEmail", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := createUser(t, db, "test@example.com")

		retrieved, err := repo.GetByEmail(ctx, "test@example.com")
		if err != nil {
			t.Fatalf("failed to get user by email: %v", err)
		}
		if retrieved.ID != user.ID {
			t.Errorf("expected ID %s, got %s", user.ID, retrieved.ID)
		}

		if _, err := repo.GetByEmail(ctx, "TEST@example.com"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("email lookup should be exact, got %v", err)
		}
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		createUser(t, db, "test@example.com")

		_, err := NewUserRepository(db).Create(ctx, "test@example.com", "hash", nil)
		if !errors.Is(err, shared.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		createUser(t, db, "a@example.com")
		createUser(t, db, "b@example.com")

		users, err := NewUserRepository(db).List(ctx)
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(users) != 2 {
			t.Fatalf("expected 2 users, got %d", len(users))
		}
		if users[0].Email != "a@example.com" || users[1].Email != "b@example.com" {
			t.Errorf("users not ordered by sequence: %s, %s", users[0].Email, users[1].Email)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if _, err := NewUserRepository(db).Get(ctx, "nonexistent-id"); !errors.Is(err, shared.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestChecklistRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		owner := createUser(t, db, "owner@example.com")
		checklist, err := NewChecklistRepository(db).Create(ctx, owner.ID, "Groceries")
		if err != nil {
			t.Fatalf("failed to create checklist: %v", err)
		}

		if checklist.ID == "" || checklist.UserID != owner.ID || checklist.Title != "Groceries" {
			t.Errorf("unexpected checklist %+v", checklist)
		}
		if checklist.Items == nil || len(checklist.Items) != 0 {
			t.Errorf("expected empty items, got %v", checklist.Items)
		}
		if checklist.CreatedAt.Location() != time.UTC {
			t.Errorf("expected UTC timestamp, got %v", checklist.CreatedAt.Location())
		}
	})

	t.Run("CreateForMissingUser", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		_, err := NewChecklistRepository(db).Create(ctx, "missing", "Groceries")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListOrdering", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		owner := createUser(t, db, "owner@example.com")
		repo := NewChecklistRepository(db)
		items := NewItemRepository(db)

		first, err := repo.Create(ctx, owner.ID, "First")
		if err != nil {
			t.Fatalf("failed to create checklist: %v", err)
		}
		second, err := repo.Create(ctx, owner.ID, "Second")
		if err != nil {
			t.Fatalf("failed to create checklist: %v", err)
		}

		for _, content := range []string{"a", "b", "c"} {
			if _, err := items.Create(ctx, owner.ID, first.ID, content); err != nil {
				t.Fatalf("failed to create item: %v", err)
			}
		}

		lists, err := repo.List(ctx, owner.ID)
		if err != nil {
			t.Fatalf("failed to list checklists: %v", err)
		}
		if len(lists) != 2 {
			t.Fatalf("expected 2 checklists, got %d", len(lists))
		}
		if lists[0].ID != second.ID || lists[1].ID != first.ID {
			t.Errorf("expected newest first, got %s then %s", lists[0].Title, lists[1].Title)
		}
		if len(lists[0].Items) != 0 {
			t.Errorf("expected second checklist to be empty, got %d items", len(lists[0].Items))
		}

		var got []string
		for _, item := range lists[1].Items {
			got = append(got, item.Content)
		}
		if strings.Join(got, ",") != "a,b,c" {
			t.Errorf("expected items in insertion order, got %v", got)
		}
	})

	t.Run("ListIsOwnerScoped", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		u1 := createUser(t, db, "u1@example.com")
		u2 := createUser(t, db, "u2@example.com")
		repo := NewChecklistRepository(db)

		c, err := repo.Create(ctx, u1.ID, "Private")
		if err != nil {
			t.Fatalf("failed to create checklist: %v", err)
		}
		if _, err := NewItemRepository(db).Create(ctx, u1.ID, c.ID, "secret"); err != nil {
			t.Fatalf("failed to create item: %v", err)
		}

		lists, err := repo.List(ctx, u2.ID)
		if err != nil {
			t.Fatalf("failed to list checklists: %v", err)
		}
		if len(lists) != 0 {
			t.Errorf("expected no checklists for other user, got %d", len(lists))
		}
	})

	t.Run("CrossUserAccess", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		u1 := createUser(t, db, "u1@example.com")
		u2 := createUser(t, db, "u2@example.com")
		repo := NewChecklistRepository(db)

		c, err := repo.Create(ctx, u1.ID, "Mine")
		if err != nil {
			t.Fatalf("failed to create checklist: %v", err)
		}

		if _, err := repo.Get(ctx, u2.ID, c.ID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("Get: expected ErrNotFound, got %v", err)
		}
		if _, err := repo.Rename(ctx, u2.ID, c.ID, "Stolen"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("Rename: expected ErrNotFound, got %v", err)
		}
		if err := repo.Delete(ctx, u2.ID, c.ID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("Delete: expected ErrNotFound, got %v", err)
		}

		still, err := repo.Get(ctx, u1.ID, c.ID)
		if err != nil {
			t.Fatalf("owner lost access: %v", err)
		}
		if still.Title != "Mine" {
			t.Errorf("title changed by other user: %s", still.Title)
		}
	})

	t.Run("Rename", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		owner := createUser(t, db, "owner@example.com")
		repo := NewChecklistRepository(db)

		c, err := repo.Create(ctx, owner.ID, "Old")
		if err != nil {
			t.Fatalf("failed to create checklist: %v", err)
		}

		renamed, err := repo.Rename(ctx, owner.ID, c.ID, "New")
		if err != nil {
			t.Fatalf("failed to rename checklist: %v", err)
		}
		if renamed.Title != "New" || renamed.ID != c.ID {
			t.Errorf("unexpected rename result %+v", renamed)
		}

		if _, err := repo.Rename(ctx, owner.ID, "missing", "New"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound for missing checklist, got %v", err)
		}
	})

	t.Run("DeleteCascades", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		owner := createUser(t, db, "owner@example.com")
		repo := NewChecklistRepository(db)
		items := NewItemRepository(db)

		c, err := repo.Create(ctx, owner.ID, "Doomed")
		if err != nil {
			t.Fatalf("failed to create checklist: %v", err)
		}
		item, err := items.Create(ctx, owner.ID, c.ID, "gone")
		if err != nil {
			t.Fatalf("failed to create item: %v", err)
		}

		if err := repo.Delete(ctx, owner.ID, c.ID); err != nil {
			t.Fatalf("failed to delete checklist: %v", err)
		}

		if _, err := repo.Get(ctx, owner.ID, c.ID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM checklist_items WHERE checklist_id = ?", c.ID).Scan(&count); err != nil {
			t.Fatalf("failed to count items: %v", err)
		}
		if count != 0 {
			t.Errorf("expected items to be deleted, found %d", count)
		}

		done := true
		if _, err := items.Update(ctx, owner.ID, item.ID, models.ItemPatch{Completed: &done}); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound for orphaned item, got %v", err)
		}

		if err := repo.Delete(ctx, owner.ID, c.ID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("second delete: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DeleteUserCascades", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		owner := createUser(t, db, "owner@example.com")
		if _, err := NewChecklistRepository(db).Create(ctx, owner.ID, "x"); err != nil {
			t.Fatalf("failed to create checklist: %v", err)
		}

		if _, err := db.Exec("DELETE FROM users WHERE id = ?", owner.ID); err != nil {
			t.Fatalf("failed to delete user: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM checklists").Scan(&count); err != nil {
			t.Fatalf("failed to count checklists: %v", err)
		}
		if count != 0 {
			t.Errorf("expected checklists removed with owner, found %d", count)
		}
	})
}

func TestItemRepository(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*sql.DB, *models.User, *models.Checklist) {
		t.Helper()
		db := setupTestDB(t)
		owner := createUser(t, db, "owner@example.com")
		c, err := NewChecklistRepository(db).Create(ctx, owner.ID, "Groceries")
		if err != nil {
			t.Fatalf("failed to create checklist: %v", err)
		}
		return db, owner, c
	}

	t.Run("Create", func(t *testing.T) {
		db, owner, c := setup(t)
		defer db.Close()

		item, err := NewItemRepository(db).Create(ctx, owner.ID, c.ID, "Milk")
		if err != nil {
			t.Fatalf("failed to create item: %v", err)
		}
		if item.Completed {
			t.Error("new items should not be completed")
		}
		if item.ChecklistID != c.ID || item.Content != "Milk" {
			t.Errorf("unexpected item %+v", item)
		}
	})

	t.Run("CreateOnForeignChecklist", func(t *testing.T) {
		db, _, c := setup(t)
		defer db.Close()

		other := createUser(t, db, "other@example.com")
		repo := NewItemRepository(db)

		if _, err := repo.Create(ctx, other.ID, c.ID, "Sneaky"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound for foreign checklist, got %v", err)
		}
		if _, err := repo.Create(ctx, other.ID, "missing", "Sneaky"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound for missing checklist, got %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM checklist_items").Scan(&count); err != nil {
			t.Fatalf("failed to count items: %v", err)
		}
		if count != 0 {
			t.Errorf("expected no items inserted, found %d", count)
		}
	})

	t.Run("UpdateRoundTrip", func(t *testing.T) {
		db, owner, c := setup(t)
		defer db.Close()

		repo := NewItemRepository(db)
		item, err := repo.Create(ctx, owner.ID, c.ID, "Buy milk")
		if err != nil {
			t.Fatalf("failed to create item: %v", err)
		}

		done := true
		updated, err := repo.Update(ctx, owner.ID, item.ID, models.ItemPatch{Completed: &done})
		if err != nil {
			t.Fatalf("failed to update item: %v", err)
		}
		if !updated.Completed || updated.Content != "Buy milk" {
			t.Errorf("unexpected update result %+v", updated)
		}

		got, err := NewChecklistRepository(db).Get(ctx, owner.ID, c.ID)
		if err != nil {
			t.Fatalf("failed to get checklist: %v", err)
		}
		if len(got.Items) != 1 || !got.Items[0].Completed || got.Items[0].Content != "Buy milk" {
			t.Errorf("round trip mismatch: %+v", got.Items)
		}
	})

	t.Run("UpdateContentKeepsCompleted", func(t *testing.T) {
		db, owner, c := setup(t)
		defer db.Close()

		repo := NewItemRepository(db)
		item, err := repo.Create(ctx, owner.ID, c.ID, "Milk")
		if err != nil {
			t.Fatalf("failed to create item: %v", err)
		}

		done := true
		if _, err := repo.Update(ctx, owner.ID, item.ID, models.ItemPatch{Completed: &done}); err != nil {
			t.Fatalf("failed to complete item: %v", err)
		}

		content := "Oat milk"
		updated, err := repo.Update(ctx, owner.ID, item.ID, models.ItemPatch{Content: &content})
		if err != nil {
			t.Fatalf("failed to update content: %v", err)
		}
		if updated.Content != "Oat milk" || !updated.Completed {
			t.Errorf("unexpected update result %+v", updated)
		}

		undone := false
		updated, err = repo.Update(ctx, owner.ID, item.ID, models.ItemPatch{Completed: &undone})
		if err != nil {
			t.Fatalf("failed to uncomplete item: %v", err)
		}
		if updated.Completed {
			t.Error("expected completed=false after update")
		}
	})

	t.Run("EmptyPatch", func(t *testing.T) {
		db, owner, c := setup(t)
		defer db.Close()

		repo := NewItemRepository(db)
		item, err := repo.Create(ctx, owner.ID, c.ID, "Milk")
		if err != nil {
			t.Fatalf("failed to create item: %v", err)
		}

		got, err := repo.Update(ctx, owner.ID, item.ID, models.ItemPatch{})
		if err != nil {
			t.Fatalf("empty patch failed: %v", err)
		}
		if got.Content != "Milk" || got.Completed {
			t.Errorf("empty patch changed item: %+v", got)
		}

		if _, err := repo.Update(ctx, owner.ID, "missing", models.ItemPatch{}); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound for missing item, got %v", err)
		}
	})

	t.Run("ForeignItem", func(t *testing.T) {
		db, owner, c := setup(t)
		defer db.Close()

		repo := NewItemRepository(db)
		item, err := repo.Create(ctx, owner.ID, c.ID, "Milk")
		if err != nil {
			t.Fatalf("failed to create item: %v", err)
		}

		other := createUser(t, db, "other@example.com")
		content := "Hijacked"

		if _, err := repo.Update(ctx, other.ID, item.ID, models.ItemPatch{Content: &content}); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("Update: expected ErrNotFound, got %v", err)
		}
		if err := repo.Delete(ctx, other.ID, item.ID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("Delete: expected ErrNotFound, got %v", err)
		}

		got, err := repo.Update(ctx, owner.ID, item.ID, models.ItemPatch{})
		if err != nil {
			t.Fatalf("owner lost access: %v", err)
		}
		if got.Content != "Milk" {
			t.Errorf("content changed by other user: %s", got.Content)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db, owner, c := setup(t)
		defer db.Close()

		repo := NewItemRepository(db)
		a, _ := repo.Create(ctx, owner.ID, c.ID, "a")
		b, _ := repo.Create(ctx, owner.ID, c.ID, "b")

		if err := repo.Delete(ctx, owner.ID, a.ID); err != nil {
			t.Fatalf("failed to delete item: %v", err)
		}
		if err := repo.Delete(ctx, owner.ID, a.ID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("second delete: expected ErrNotFound, got %v", err)
		}

		got, err := NewChecklistRepository(db).Get(ctx, owner.ID, c.ID)
		if err != nil {
			t.Fatalf("failed to get checklist: %v", err)
		}
		if len(got.Items) != 1 || got.Items[0].ID != b.ID {
			t.Errorf("expected only item b to remain, got %+v", got.Items)
		}
	})
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateAndGet", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := createUser(t, db, "owner@example.com")
		repo := NewSessionRepository(db)

		session, err := repo.Create(ctx, user.ID, "token-hash", "test-agent", "127.0.0.1", time.Hour)
		if err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		got, err := repo.GetByTokenHash(ctx, "token-hash")
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}
		if got.ID != session.ID || got.UserID != user.ID || got.UserAgent != "test-agent" {
			t.Errorf("unexpected session %+v", got)
		}
		if !got.ExpiresAt.Equal(session.ExpiresAt) {
			t.Errorf("expected expiry %v, got %v", session.ExpiresAt, got.ExpiresAt)
		}

		if err := repo.Touch(ctx, session.ID); err != nil {
			t.Fatalf("failed to touch session: %v", err)
		}
	})

	t.Run("UnknownToken", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if _, err := NewSessionRepository(db).GetByTokenHash(ctx, "nope"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := createUser(t, db, "owner@example.com")
		repo := NewSessionRepository(db)

		session, err := repo.Create(ctx, user.ID, "token-hash", "", "", time.Hour)
		if err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		if err := repo.Delete(ctx, session.ID); err != nil {
			t.Fatalf("failed to delete session: %v", err)
		}
		if _, err := repo.GetByTokenHash(ctx, "token-hash"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		if err := repo.Delete(ctx, session.ID); err != nil {
			t.Errorf("deleting a missing session should succeed, got %v", err)
		}
	})

	t.Run("DeleteExpired", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := createUser(t, db, "owner@example.com")
		repo := NewSessionRepository(db)

		if _, err := repo.Create(ctx, user.ID, "expired", "", "", -time.Minute); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}
		if _, err := repo.Create(ctx, user.ID, "live", "", "", time.Hour); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		removed, err := repo.DeleteExpired(ctx, time.Now())
		if err != nil {
			t.Fatalf("failed to delete expired sessions: %v", err)
		}
		if removed != 1 {
			t.Errorf("expected 1 removed session, got %d", removed)
		}
		if _, err := repo.GetByTokenHash(ctx, "live"); err != nil {
			t.Errorf("live session should remain: %v", err)
		}
	})

	t.Run("MissingUser", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		_, err := NewSessionRepository(db).Create(ctx, "missing", "h", "", "", time.Hour)
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	for want := 1; want <= 3; want++ {
		err := withTx(ctx, db, func(tx *sql.Tx) error {
			got, err := NextSequence(ctx, tx, "checklists")
			if err != nil {
				return err
			}
			if got != want {
				t.Errorf("expected sequence %d, got %d", want, got)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("NextSequence failed: %v", err)
		}
	}
}

func TestWithTxRollsBack(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	boom := errors.New("boom")

	err := withTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := NextSequence(ctx, tx, "users"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	var value int
	if err := db.QueryRow("SELECT value FROM users_sequence WHERE id = 1").Scan(&value); err != nil {
		t.Fatalf("failed to read sequence: %v", err)
	}
	if value != 0 {
		t.Errorf("expected rolled back sequence 0, got %d", value)
	}
}
