// Package redis holds the ephemeral side of room records: short join codes
// with a TTL and the live peer set per room, mirrored from the signaling hub.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Ramanand1101/webRtc-backend/config"
)

// ErrCodeNotFound is returned when a join code does not resolve to a room.
var ErrCodeNotFound = errors.New("room code not found")

// roomTTL bounds how long codes and peer sets outlive their last update.
const roomTTL = 24 * time.Hour

type Client struct {
	rdb *goredis.Client
}

// New connects to Redis and verifies the connection with a ping.
func New(cfg config.RedisConfig) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// SaveRoomCode maps a short join code to a room id for roomTTL.
func (c *Client) SaveRoomCode(ctx context.Context, code, roomID string) error {
	if err := c.rdb.Set(ctx, "code:"+code, roomID, roomTTL).Err(); err != nil {
		return fmt.Errorf("failed to store room code: %w", err)
	}
	return nil
}

// ResolveRoomCode returns the room id a join code maps to.
func (c *Client) ResolveRoomCode(ctx context.Context, code string) (string, error) {
	roomID, err := c.rdb.Get(ctx, "code:"+code).Result()
	if errors.Is(err, goredis.Nil) {
		return "", ErrCodeNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve room code: %w", err)
	}
	return roomID, nil
}

// PeerCount reports how many live connections are currently in the room.
func (c *Client) PeerCount(ctx context.Context, roomID string) (int64, error) {
	return c.rdb.SCard(ctx, "room:"+roomID+":peers").Result()
}

// PurgeRoom drops the code mapping and peer set for a deleted room record.
func (c *Client) PurgeRoom(ctx context.Context, roomID, code string) error {
	c.rdb.Del(ctx, "room:"+roomID+":peers")
	if code != "" {
		c.rdb.Del(ctx, "code:"+code)
	}
	return nil
}

// PeerJoined and PeerLeft implement signaling.PresenceSink, keeping the peer
// set in step with live membership. Failures are logged and ignored; the set
// is advisory, the hub's registry stays authoritative.

func (c *Client) PeerJoined(roomID, connID string) {
	ctx := context.Background()
	key := "room:" + roomID + ":peers"
	if err := c.rdb.SAdd(ctx, key, connID).Err(); err != nil {
		log.Printf("Failed to mirror join of %s into Redis: %v", connID, err)
		return
	}
	c.rdb.Expire(ctx, key, roomTTL)
}

func (c *Client) PeerLeft(roomID, connID string) {
	if err := c.rdb.SRem(context.Background(), "room:"+roomID+":peers", connID).Err(); err != nil {
		log.Printf("Failed to mirror leave of %s from Redis: %v", connID, err)
	}
}
