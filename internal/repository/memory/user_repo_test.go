package memory

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/repository"
)

func seedUser(t *testing.T, repos *repository.Repositories, username string, role domain.Role) *domain.User {
	t.Helper()
	user := domain.NewUser(username, username+"@example.com", "")
	user.Role = role
	if err := repos.User.Create(context.Background(), user); err != nil {
		t.Fatalf("Create user %s: %v", username, err)
	}
	return user
}

func TestUserRepositoryCreateMintsIDs(t *testing.T) {
	repos := NewRepositories(NewStore())

	first := seedUser(t, repos, "first", domain.RoleUser)
	second := seedUser(t, repos, "second", domain.RoleUser)

	if first.ID != 1 || second.ID != 2 {
		t.Errorf("expected sequential IDs 1 and 2, got %d and %d", first.ID, second.ID)
	}
	if first.CreatedAt.IsZero() || first.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be stamped on create")
	}
}

func TestUserRepositoryGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(NewStore())
	user := seedUser(t, repos, "jordan", domain.RoleUser)

	got, err := repos.User.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	got.Username = "mutated"

	again, err := repos.User.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if again.Username != "jordan" {
		t.Error("expected stored record to be isolated from caller mutation")
	}
}

func TestUserRepositoryUpdateKeepsStoredID(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(NewStore())
	user := seedUser(t, repos, "jordan", domain.RoleUser)

	patch := *user
	patch.Username = "renamed"
	if err := repos.User.Update(ctx, &patch); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repos.User.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Username != "renamed" {
		t.Errorf("expected username renamed, got %s", got.Username)
	}
	if !got.CreatedAt.Equal(user.CreatedAt) {
		t.Error("expected CreatedAt to be preserved across updates")
	}

	missing := *user
	missing.ID = 999
	if err := repos.User.Update(ctx, &missing); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound for absent user, got %v", err)
	}
}

func TestUserRepositoryDeleteCascades(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repos := NewRepositories(store)

	user := seedUser(t, repos, "donor", domain.RoleDonor)
	other := seedUser(t, repos, "other", domain.RoleDonor)

	profile := domain.NewDonorProfile(user.ID)
	if err := repos.DonorProfile.Create(ctx, profile); err != nil {
		t.Fatalf("Create profile: %v", err)
	}
	otherProfile := domain.NewDonorProfile(other.ID)
	if err := repos.DonorProfile.Create(ctx, otherProfile); err != nil {
		t.Fatalf("Create profile: %v", err)
	}

	doc := &domain.Document{UserID: user.ID, Type: domain.DocumentTypeID, FileName: "id.png"}
	if err := repos.Document.Create(ctx, doc); err != nil {
		t.Fatalf("Create document: %v", err)
	}

	donation := &domain.DonationRecord{DonorID: user.ID, BloodType: domain.BloodOPositive, VolumeML: 450}
	if err := repos.Donation.Create(ctx, donation); err != nil {
		t.Fatalf("Create donation: %v", err)
	}

	if err := repos.User.Delete(ctx, user.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := repos.User.GetByID(ctx, user.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected user gone, got %v", err)
	}
	if _, err := repos.DonorProfile.GetByUserID(ctx, user.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected donor profile cascade, got %v", err)
	}
	docs, err := repos.Document.ListByUserID(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListByUserID: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("expected documents cascade, got %d left", len(docs))
	}

	// Donation records survive the owner's deletion
	count, err := repos.Donation.CountByDonorID(ctx, user.ID)
	if err != nil {
		t.Fatalf("CountByDonorID: %v", err)
	}
	if count != 1 {
		t.Errorf("expected donation record to survive, got count %d", count)
	}

	// Unrelated records are untouched
	if _, err := repos.DonorProfile.GetByUserID(ctx, other.ID); err != nil {
		t.Errorf("expected other donor profile intact, got %v", err)
	}
}

func TestUserRepositoryListFiltersAndPaginates(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(NewStore())

	seedUser(t, repos, "alice", domain.RoleDonor)
	seedUser(t, repos, "bob", domain.RoleDonor)
	seedUser(t, repos, "carol", domain.RoleAdmin)
	seedUser(t, repos, "dave", domain.RoleUser)

	t.Run("role filter", func(t *testing.T) {
		result, err := repos.User.List(ctx, repository.UserListOptions{Role: domain.RoleDonor})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if result.Total != 2 || len(result.Items) != 2 {
			t.Errorf("expected 2 donors, got total %d items %d", result.Total, len(result.Items))
		}
	})

	t.Run("exclude roles", func(t *testing.T) {
		result, err := repos.User.List(ctx, repository.UserListOptions{
			ExcludeRoles: []domain.Role{domain.RoleAdmin},
		})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if result.Total != 3 {
			t.Errorf("expected 3 non-admins, got %d", result.Total)
		}
	})

	t.Run("pagination is 1-indexed", func(t *testing.T) {
		page1, err := repos.User.List(ctx, repository.UserListOptions{Page: 1, Limit: 3})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		page2, err := repos.User.List(ctx, repository.UserListOptions{Page: 2, Limit: 3})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(page1.Items) != 3 || len(page2.Items) != 1 {
			t.Errorf("expected pages of 3 and 1, got %d and %d", len(page1.Items), len(page2.Items))
		}
		if page1.Total != 4 || page2.Total != 4 {
			t.Errorf("expected total 4 on every page, got %d and %d", page1.Total, page2.Total)
		}
	})

	t.Run("page past the end is empty, not an error", func(t *testing.T) {
		result, err := repos.User.List(ctx, repository.UserListOptions{Page: 9, Limit: 3})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(result.Items) != 0 {
			t.Errorf("expected empty page, got %d items", len(result.Items))
		}
	})

	t.Run("zero page disables pagination", func(t *testing.T) {
		result, err := repos.User.List(ctx, repository.UserListOptions{})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(result.Items) != 4 {
			t.Errorf("expected all 4 users, got %d", len(result.Items))
		}
	})
}

func TestNotificationRepositoryMarkAllRead(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(NewStore())

	for i := 0; i < 3; i++ {
		n := domain.NewNotification(1, domain.NotificationSystem, "t", "m")
		if err := repos.Notification.Create(ctx, n); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	other := domain.NewNotification(2, domain.NotificationSystem, "t", "m")
	if err := repos.Notification.Create(ctx, other); err != nil {
		t.Fatalf("Create: %v", err)
	}

	changed, err := repos.Notification.MarkAllRead(ctx, 1)
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if changed != 3 {
		t.Errorf("expected 3 marked, got %d", changed)
	}

	// A second call is an idempotent no-op
	changed, err = repos.Notification.MarkAllRead(ctx, 1)
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if changed != 0 {
		t.Errorf("expected 0 marked on repeat, got %d", changed)
	}

	count, err := repos.Notification.UnreadCount(ctx, 2)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 1 {
		t.Errorf("expected other user's notification untouched, got unread %d", count)
	}
}

func TestDeletionRepositoryListRedactsSummaries(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(NewStore())

	requester := domain.NewUser("admin", "admin@example.com", "bcrypt-hash")
	requester.Role = domain.RoleAdmin
	if err := repos.User.Create(ctx, requester); err != nil {
		t.Fatalf("Create: %v", err)
	}
	target := seedUser(t, repos, "target", domain.RoleUser)

	req := domain.NewDeletionRequest(requester.ID, target.ID, "requested by user")
	if err := repos.DeletionRequest.Create(ctx, req); err != nil {
		t.Fatalf("Create deletion request: %v", err)
	}

	result, err := repos.DeletionRequest.List(ctx, repository.DeletionListOptions{
		IncludeRequester: true,
		IncludeTarget:    true,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 deletion request, got %d", len(result.Items))
	}

	detail := result.Items[0]
	if detail.Requester == nil || detail.Requester.Username != "admin" {
		t.Fatal("expected requester summary to be joined")
	}
	if detail.Target == nil || detail.Target.Username != "target" {
		t.Fatal("expected target summary to be joined")
	}

	// The joined summaries go out over the wire. No credential field
	// may survive serialization, whatever gets added to User later.
	raw, err := json.Marshal(detail)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	serialized := strings.ToLower(string(raw))
	for _, forbidden := range []string{"password", "passwordhash", "firebaseuid"} {
		if strings.Contains(serialized, forbidden) {
			t.Errorf("serialized deletion detail leaks %q: %s", forbidden, raw)
		}
	}
}
