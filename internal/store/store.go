// Package store persists user and room records in SQLite via GORM. These are
// durable identities; live session membership never touches this layer.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Ramanand1101/webRtc-backend/internal/models"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrRoomExists = errors.New("room already exists")
)

type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the SQLite database at path and migrates the
// schema. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.RoomRecord{}, &models.RoomParticipant{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Store{db: db}, nil
}

// CreateUser records a new user. Role defaults to participant.
func (s *Store) CreateUser(ctx context.Context, name, role string) (*models.User, error) {
	if role == "" {
		role = "participant"
	}
	user := &models.User{
		ID:        uuid.New().String(),
		Name:      name,
		Role:      role,
		CreatedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUser looks up a user record by id.
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// CreateRoom records a new room with its host and join code. Creating a room
// id that already exists fails with ErrRoomExists.
func (s *Store) CreateRoom(ctx context.Context, roomID, code, hostID string) (*models.RoomRecord, error) {
	var existing models.RoomRecord
	err := s.db.WithContext(ctx).First(&existing, "room_id = ?", roomID).Error
	if err == nil {
		return nil, ErrRoomExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check room: %w", err)
	}

	room := &models.RoomRecord{
		RoomID:    roomID,
		Code:      code,
		HostID:    hostID,
		CreatedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(room).Error; err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	return room, nil
}

// GetRoom loads a room record with its participants.
func (s *Store) GetRoom(ctx context.Context, roomID string) (*models.RoomRecord, error) {
	var room models.RoomRecord
	err := s.db.WithContext(ctx).Preload("Participants").First(&room, "room_id = ?", roomID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return &room, nil
}

// AddParticipant appends a participant to a room record.
func (s *Store) AddParticipant(ctx context.Context, roomID, userID string) (*models.RoomRecord, error) {
	if _, err := s.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	p := &models.RoomParticipant{RoomID: roomID, UserID: userID}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, fmt.Errorf("failed to add participant: %w", err)
	}
	return s.GetRoom(ctx, roomID)
}

// DeleteRoom removes a room record and its participant links.
func (s *Store) DeleteRoom(ctx context.Context, roomID string) error {
	if err := s.db.WithContext(ctx).Delete(&models.RoomParticipant{}, "room_id = ?", roomID).Error; err != nil {
		return fmt.Errorf("failed to delete participants: %w", err)
	}
	if err := s.db.WithContext(ctx).Delete(&models.RoomRecord{}, "room_id = ?", roomID).Error; err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	return nil
}
