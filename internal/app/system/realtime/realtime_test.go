package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/Bas3L3ss/slackzz-clone/internal/domain/models"
	"github.com/alicebob/miniredis/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func setupTestBus(t *testing.T) (*Bus, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	bus, err := NewBus(context.Background(), "redis://"+s.Addr(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}
	t.Cleanup(func() { _ = bus.Close() })
	return bus, s
}

func TestNewBus_BadURL(t *testing.T) {
	if _, err := NewBus(context.Background(), "not a url", zap.NewNop()); err == nil {
		t.Fatal("expected error for bad redis url")
	}
}

func TestNewBus_Ping(t *testing.T) {
	bus, _ := setupTestBus(t)
	if err := bus.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestPublishSubscribe(t *testing.T) {
	bus, _ := setupTestBus(t)
	ctx := context.Background()

	recipient := primitive.NewObjectID()
	sub, err := bus.Subscribe(ctx, recipient)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	n := models.Notification{
		ID:          primitive.NewObjectID(),
		WorkspaceID: primitive.NewObjectID(),
		MemberID:    recipient,
		MessageID:   primitive.NewObjectID(),
		Kind:        models.NotificationMention,
	}
	ev := NotificationEvent(n)
	if err := bus.Publish(ctx, recipient, ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case got := <-sub.Events():
		if got.ID != ev.ID || got.Type != EventNotificationCreated {
			t.Errorf("got event %+v, want id %s", got, ev.ID)
		}
		if got.Notification == nil || got.Notification.MessageID != n.MessageID {
			t.Errorf("notification payload not carried: %+v", got.Notification)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestPublish_OtherMemberNotDelivered(t *testing.T) {
	bus, _ := setupTestBus(t)
	ctx := context.Background()

	listener := primitive.NewObjectID()
	sub, err := bus.Subscribe(ctx, listener)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	other := primitive.NewObjectID()
	if err := bus.Publish(ctx, other, Event{ID: "x", Type: EventNotificationCreated}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestPublish_NoSubscribersIsFine(t *testing.T) {
	bus, _ := setupTestBus(t)
	if err := bus.Publish(context.Background(), primitive.NewObjectID(), Event{ID: "x"}); err != nil {
		t.Errorf("Publish without subscribers: %v", err)
	}
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	if err := p.Publish(context.Background(), primitive.NewObjectID(), Event{}); err != nil {
		t.Errorf("NopPublisher.Publish: %v", err)
	}
}
