package store

import (
	"context"
	"errors"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	return s
}

func TestUserRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	created, err := s.CreateUser(ctx, "Alice", "host")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if created.ID == "" {
		t.Error("user id not assigned")
	}

	got, err := s.GetUser(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Name != "Alice" || got.Role != "host" {
		t.Errorf("got %+v", got)
	}
}

func TestUserRoleDefaultsToParticipant(t *testing.T) {
	s := openTestStore(t)
	user, err := s.CreateUser(context.Background(), "Bob", "")
	if err != nil {
		t.Fatal(err)
	}
	if user.Role != "participant" {
		t.Errorf("role = %q, want participant", user.Role)
	}
}

func TestGetUserNotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.GetUser(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRoomLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	room, err := s.CreateRoom(ctx, "room-1", "ABC123", "host-user")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if room.Code != "ABC123" {
		t.Errorf("code = %q", room.Code)
	}

	if _, err := s.CreateRoom(ctx, "room-1", "XYZ789", "other"); !errors.Is(err, ErrRoomExists) {
		t.Errorf("duplicate create err = %v, want ErrRoomExists", err)
	}

	if _, err := s.AddParticipant(ctx, "room-1", "user-a"); err != nil {
		t.Fatalf("AddParticipant: %v", err)
	}
	got, err := s.AddParticipant(ctx, "room-1", "user-b")
	if err != nil {
		t.Fatalf("AddParticipant: %v", err)
	}
	if len(got.Participants) != 2 {
		t.Errorf("participants = %d, want 2", len(got.Participants))
	}

	if _, err := s.AddParticipant(ctx, "no-such-room", "user-c"); !errors.Is(err, ErrNotFound) {
		t.Errorf("join missing room err = %v, want ErrNotFound", err)
	}

	if err := s.DeleteRoom(ctx, "room-1"); err != nil {
		t.Fatalf("DeleteRoom: %v", err)
	}
	if _, err := s.GetRoom(ctx, "room-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete err = %v, want ErrNotFound", err)
	}
}
