package notifier

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/yakoovad/capstone-tracker/internal/model"
)

const channelPrefix = "notifications:"

// Channel is the redis pub/sub channel a user's live clients subscribe to.
func Channel(userID string) string {
	return channelPrefix + userID
}

// RedisPublisher pushes notifications to connected clients. It keeps no state:
// a user with no subscriber simply misses the live push and reads the stored copy.
type RedisPublisher struct {
	client redis.UniversalClient
}

func NewRedisPublisher(client redis.UniversalClient) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Notify(ctx context.Context, n *model.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return errors.Wrap(err, "encode notification")
	}

	if err = p.client.Publish(ctx, Channel(n.RecipientID), body).Err(); err != nil {
		return errors.Wrapf(err, "publish notification for %s", n.RecipientID)
	}
	return nil
}
