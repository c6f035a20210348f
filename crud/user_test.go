package crud

import (
	"context"
	"testing"

	"wtfSocial/domain"
	"wtfSocial/errs"
)

func TestCreateUser(t *testing.T) {
	env := newTestServices(t)

	user := &domain.User{Username: "alice", Name: "Alice", Email: "alice@example.com"}
	if err := env.User.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if user.ID == "" {
		t.Error("expected a generated id")
	}

	found, err := env.User.FindUserByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if found.ID != user.ID || found.Email != "alice@example.com" {
		t.Errorf("unexpected user: %+v", found)
	}
}

func TestCreateUserUsernameValidation(t *testing.T) {
	env := newTestServices(t)

	tests := []struct {
		name     string
		username string
		wantCode string
	}{
		{"empty", "", errs.EINVALID},
		{"spaces", "has space", errs.EINVALID},
		{"punctuation", "al.ice", errs.EINVALID},
		{"too long", "abcdefghijklmnopqrstuvwxyz01234", errs.EINVALID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.User.CreateUser(context.Background(), &domain.User{Username: tt.username})
			if errs.ErrorCode(err) != tt.wantCode {
				t.Errorf("username %q: expected %s, got %v", tt.username, tt.wantCode, err)
			}
		})
	}
}

func TestCreateUserUsernameTaken(t *testing.T) {
	env := newTestServices(t)
	createTestUser(t, env, "alice")

	err := env.User.CreateUser(context.Background(), &domain.User{Username: "alice"})
	if errs.ErrorCode(err) != errs.ECONFLICT {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestFindUserMissing(t *testing.T) {
	env := newTestServices(t)

	if _, err := env.User.FindUserByID(context.Background(), "nope"); errs.ErrorCode(err) != errs.ENOTFOUND {
		t.Errorf("expected not found by id, got %v", err)
	}
	if _, err := env.User.FindUserByUsername(context.Background(), "nobody"); errs.ErrorCode(err) != errs.ENOTFOUND {
		t.Errorf("expected not found by username, got %v", err)
	}
}

func TestBumpFollowCountsFloorsAtZero(t *testing.T) {
	env := newTestServices(t)
	a := createTestUser(t, env, "alice")
	b := createTestUser(t, env, "bob")

	err := env.User.BumpFollowCounts(context.Background(), a.ID, b.ID, -1)
	if err != nil {
		t.Fatalf("bump failed: %v", err)
	}
	alice, _ := env.User.FindUserByID(context.Background(), a.ID)
	bob, _ := env.User.FindUserByID(context.Background(), b.ID)
	if alice.FollowingCount != 0 || bob.FollowerCount != 0 {
		t.Errorf("counters must floor at zero, got %d/%d", alice.FollowingCount, bob.FollowerCount)
	}
}
