package player

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// Notifier publishes player-created events onto the change feed consumed by
// the welcome worker.
type Notifier struct {
	redis   *redis.Client
	channel string
}

func NewNotifier(client *redis.Client, channel string) *Notifier {
	if channel == "" {
		channel = "players:created"
	}
	return &Notifier{redis: client, channel: channel}
}

type createdEvent struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// PlayerCreated announces a freshly registered player.
func (n *Notifier) PlayerCreated(ctx context.Context, p Player) error {
	payload, err := json.Marshal(createdEvent{ID: p.ID, Username: p.Username})
	if err != nil {
		return err
	}
	return n.redis.Publish(ctx, n.channel, payload).Err()
}
