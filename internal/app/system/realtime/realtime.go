// Package realtime pushes member-scoped events (new mention notifications)
// over Redis pub/sub so any API instance can deliver them to connected
// clients.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Bas3L3ss/slackzz-clone/internal/domain/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// EventNotificationCreated is the only event type published today.
const EventNotificationCreated = "notification.created"

// Event is the JSON payload published on a member's channel.
type Event struct {
	ID           string               `json:"id"`
	Type         string               `json:"type"`
	WorkspaceID  string               `json:"workspace_id"`
	MemberID     string               `json:"member_id"`
	Notification *models.Notification `json:"notification,omitempty"`
	SentAt       time.Time            `json:"sent_at"`
}

// NotificationEvent wraps n for its recipient.
func NotificationEvent(n models.Notification) Event {
	return Event{
		ID:           uuid.NewString(),
		Type:         EventNotificationCreated,
		WorkspaceID:  n.WorkspaceID.Hex(),
		MemberID:     n.MemberID.Hex(),
		Notification: &n,
		SentAt:       time.Now().UTC(),
	}
}

// Publisher delivers events to a member.
type Publisher interface {
	Publish(ctx context.Context, memberID primitive.ObjectID, ev Event) error
}

// NopPublisher drops every event. Used when Redis is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, primitive.ObjectID, Event) error { return nil }

// Channel is the pub/sub channel of one member.
func Channel(memberID primitive.ObjectID) string {
	return "slackzz:notifications:" + memberID.Hex()
}

// Bus publishes and subscribes through Redis.
type Bus struct {
	client *redis.Client
	log    *zap.Logger
}

// NewBus connects to redisURL and verifies the connection.
func NewBus(ctx context.Context, redisURL string, log *zap.Logger) (*Bus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &Bus{client: client, log: log}, nil
}

// NewBusWithClient wraps an existing client.
func NewBusWithClient(client *redis.Client, log *zap.Logger) *Bus {
	return &Bus{client: client, log: log}
}

// Publish sends ev to the member's channel. Having no subscribers is not an
// error.
func (b *Bus) Publish(ctx context.Context, memberID primitive.ObjectID, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return b.client.Publish(ctx, Channel(memberID), payload).Err()
}

// Subscription is a live feed of one member's events.
type Subscription struct {
	ps     *redis.PubSub
	events chan Event
	done   chan struct{}
	once   sync.Once
}

// Events yields decoded events until the subscription is closed.
func (s *Subscription) Events() <-chan Event { return s.events }

// Close ends the subscription.
func (s *Subscription) Close() error {
	s.once.Do(func() { close(s.done) })
	return s.ps.Close()
}

// Subscribe opens a feed of memberID's events. The subscription is confirmed
// before it is returned, so events published afterwards are not missed.
func (b *Bus) Subscribe(ctx context.Context, memberID primitive.ObjectID) (*Subscription, error) {
	ps := b.client.Subscribe(ctx, Channel(memberID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	sub := &Subscription{ps: ps, events: make(chan Event, 16), done: make(chan struct{})}
	go func() {
		defer close(sub.events)
		for msg := range ps.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.log.Warn("dropping undecodable realtime event",
					zap.String("channel", msg.Channel),
					zap.Error(err))
				continue
			}
			select {
			case sub.events <- ev:
			case <-sub.done:
				return
			}
		}
	}()
	return sub, nil
}

// Ping checks the Redis connection.
func (b *Bus) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Close releases the Redis client.
func (b *Bus) Close() error {
	return b.client.Close()
}
