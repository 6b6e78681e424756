package services

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"slotswap-server/storage"

	"github.com/go-redis/redis/v8"
)

const userChannelPrefix = "slotswap:user:"

// UserChannel is the pub/sub channel carrying change notifications scoped to
// a single user's events and requests.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// RealtimeEvent is the payload pushed over the live-update channel. It only
// names what changed; clients re-fetch the entity. Delivery is best effort;
// every mutation response already carries the committed state, so a dropped
// message costs a refresh, not correctness.
type RealtimeEvent struct {
	Type    string    `json:"type"`
	RefType string    `json:"refType"`
	RefID   uint      `json:"refID"`
	At      time.Time `json:"at"`
}

func PublishRealtimeEvent(userID uint, event RealtimeEvent) {
	if storage.Redis == nil {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("realtime: failed to marshal event for user %d: %v", userID, err)
		return
	}
	if err := storage.Redis.Publish(context.Background(), UserChannel(userID), payload).Err(); err != nil {
		log.Printf("realtime: failed to publish to user %d: %v", userID, err)
	}
}

// SubscribeRealtimeEvents opens the per-user subscription. The caller owns
// the returned PubSub and must Close it when the stream ends.
func SubscribeRealtimeEvents(ctx context.Context, userID uint) *redis.PubSub {
	return storage.Redis.Subscribe(ctx, UserChannel(userID))
}
