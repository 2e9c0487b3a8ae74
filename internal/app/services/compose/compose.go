// Package compose turns a submitted rich-text document into a stored message
// and delivers mention notifications for it.
package compose

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	channelstore "github.com/Bas3L3ss/slackzz-clone/internal/app/store/channels"
	conversationstore "github.com/Bas3L3ss/slackzz-clone/internal/app/store/conversations"
	memberstore "github.com/Bas3L3ss/slackzz-clone/internal/app/store/members"
	messagestore "github.com/Bas3L3ss/slackzz-clone/internal/app/store/messages"
	notificationstore "github.com/Bas3L3ss/slackzz-clone/internal/app/store/notifications"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/apperr"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/authz"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/htmlsanitize"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/realtime"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/richtext"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/search"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/workers"
	"github.com/Bas3L3ss/slackzz-clone/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Input is one message submission.
type Input struct {
	WorkspaceID     primitive.ObjectID
	ChannelID       *primitive.ObjectID
	ConversationID  *primitive.ObjectID
	ParentMessageID *primitive.ObjectID
	Body            string
	Attachments     []string

	// Location is the URL the author composed from. Profile links for
	// mentioned members are built from it. Empty means the canonical page
	// of the target under Options.BaseURL.
	Location string
}

// Result reports what Send did. With asynchronous fan-out the counters are
// zero and Queued is set.
type Result struct {
	Message  models.Message `json:"message"`
	Notified int            `json:"notified"`
	Skipped  int            `json:"skipped"`
	Failed   int            `json:"failed"`
	Queued   bool           `json:"queued,omitempty"`
}

// Options tunes the pipeline.
type Options struct {
	// BaseURL prefixes default composing locations, e.g. "https://app.example".
	BaseURL string
}

type Service struct {
	members       *memberstore.Store
	channels      *channelstore.Store
	conversations *conversationstore.Store
	messages      *messagestore.Store
	notifications *notificationstore.Store
	gate          *authz.Gate
	publisher     realtime.Publisher
	indexer       search.Indexer
	dispatcher    *workers.FanoutDispatcher
	opts          Options
	log           *zap.Logger
}

// New wires the pipeline. publisher and indexer may be nil. A nil dispatcher
// delivers notifications before Send returns.
func New(db *mongo.Database, gate *authz.Gate, publisher realtime.Publisher, indexer search.Indexer, dispatcher *workers.FanoutDispatcher, opts Options, log *zap.Logger) *Service {
	if publisher == nil {
		publisher = realtime.NopPublisher{}
	}
	return &Service{
		members:       memberstore.New(db),
		channels:      channelstore.New(db),
		conversations: conversationstore.New(db),
		messages:      messagestore.New(db),
		notifications: notificationstore.New(db),
		gate:          gate,
		publisher:     publisher,
		indexer:       indexer,
		dispatcher:    dispatcher,
		opts:          opts,
		log:           log,
	}
}

// Send validates, rewrites and stores a message, then fans out mention
// notifications. Nothing is delivered if the message insert fails.
func (s *Service) Send(ctx context.Context, caller authz.Caller, in Input) (Result, error) {
	author, err := s.gate.RequireMember(ctx, caller, in.WorkspaceID)
	if err != nil {
		return Result{}, err
	}
	if err := s.checkTarget(ctx, author, in); err != nil {
		return Result{}, err
	}

	doc, err := richtext.Parse(in.Body)
	if err != nil {
		return Result{}, err
	}
	loc, err := s.location(in)
	if err != nil {
		return Result{}, err
	}
	rewritten, recipients := richtext.Rewrite(doc, richtext.Scope{
		WorkspaceID: in.WorkspaceID.Hex(),
		Location:    loc,
	})
	body, err := richtext.Marshal(rewritten)
	if err != nil {
		return Result{}, fmt.Errorf("serialize message body: %w", err)
	}

	msg, err := s.messages.Create(ctx, models.Message{
		WorkspaceID:     in.WorkspaceID,
		MemberID:        author.ID,
		ChannelID:       in.ChannelID,
		ConversationID:  in.ConversationID,
		ParentMessageID: in.ParentMessageID,
		Body:            body,
		Text:            richtext.PlainText(rewritten),
		Attachments:     in.Attachments,
	})
	if err != nil {
		return Result{}, fmt.Errorf("insert message: %w", err)
	}

	res := Result{Message: msg}
	if s.dispatcher != nil {
		job := workers.Job{
			Name: "fanout " + msg.ID.Hex(),
			Run: func(ctx context.Context) {
				s.deliver(ctx, msg, recipients)
			},
		}
		if s.dispatcher.Submit(job) {
			res.Queued = true
			return res, nil
		}
		s.log.Warn("fanout queue unavailable, delivering inline",
			zap.String("message_id", msg.ID.Hex()))
	}

	d := s.deliver(ctx, msg, recipients)
	res.Notified, res.Skipped, res.Failed = d.notified, d.skipped, d.failed
	return res, nil
}

// checkTarget enforces that exactly one stream is addressed, that it belongs
// to the workspace, and that a parent lives in the same stream.
func (s *Service) checkTarget(ctx context.Context, author models.Member, in Input) error {
	switch {
	case in.ChannelID != nil && in.ConversationID != nil:
		return fmt.Errorf("%w: message targets both a channel and a conversation", apperr.ErrInvalidInput)
	case in.ChannelID != nil:
		ch, err := s.channels.GetByID(ctx, *in.ChannelID)
		if errors.Is(err, channelstore.ErrNotFound) {
			return apperr.ErrNotFound
		}
		if err != nil {
			return err
		}
		if ch.WorkspaceID != in.WorkspaceID {
			return apperr.ErrNotFound
		}
	case in.ConversationID != nil:
		conv, err := s.conversations.GetByID(ctx, *in.ConversationID)
		if errors.Is(err, conversationstore.ErrNotFound) {
			return apperr.ErrNotFound
		}
		if err != nil {
			return err
		}
		if conv.WorkspaceID != in.WorkspaceID {
			return apperr.ErrNotFound
		}
		if !conv.HasParticipant(author.ID) {
			return apperr.ErrUnauthorized
		}
	default:
		return fmt.Errorf("%w: message has no channel or conversation", apperr.ErrInvalidInput)
	}

	if in.ParentMessageID == nil {
		return nil
	}
	parent, err := s.messages.GetByID(ctx, *in.ParentMessageID)
	if errors.Is(err, messagestore.ErrNotFound) {
		return apperr.ErrNotFound
	}
	if err != nil {
		return err
	}
	if parent.WorkspaceID != in.WorkspaceID ||
		!sameID(parent.ChannelID, in.ChannelID) ||
		!sameID(parent.ConversationID, in.ConversationID) {
		return apperr.ErrNotFound
	}
	return nil
}

func sameID(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *Service) location(in Input) (*url.URL, error) {
	if in.Location != "" {
		u, err := url.Parse(in.Location)
		if err != nil {
			return nil, fmt.Errorf("%w: location: %v", apperr.ErrInvalidInput, err)
		}
		if !safeLocation(u) {
			return nil, fmt.Errorf("%w: location must be an http(s) URL or a relative path", apperr.ErrInvalidInput)
		}
		return u, nil
	}
	base := strings.TrimRight(s.opts.BaseURL, "/")
	path := "/workspace/" + in.WorkspaceID.Hex()
	if in.ChannelID != nil {
		path += "/channel/" + in.ChannelID.Hex()
	} else {
		path += "/conversation/" + in.ConversationID.Hex()
	}
	return url.Parse(base + path)
}

// safeLocation accepts absolute http(s) URLs with a host, and paths
// without a scheme or host.
func safeLocation(u *url.URL) bool {
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	case "":
		return u.Host == "" && u.Opaque == ""
	}
	return false
}

type delivery struct {
	notified, skipped, failed int
}

// deliver writes one notification per eligible recipient. Failures are
// logged and counted; they never undo the message.
func (s *Service) deliver(ctx context.Context, msg models.Message, recipients []string) delivery {
	var d delivery
	defer s.index(ctx, msg)

	ids := make([]primitive.ObjectID, 0, len(recipients))
	for _, r := range recipients {
		id, err := primitive.ObjectIDFromHex(r)
		if err != nil || id == msg.MemberID {
			d.skipped++
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return d
	}

	eligible, err := s.members.InWorkspace(ctx, msg.WorkspaceID, ids)
	if err != nil {
		s.log.Error("mention eligibility lookup failed",
			zap.String("message_id", msg.ID.Hex()), zap.Error(err))
		d.failed += len(ids)
		return d
	}

	preview := htmlsanitize.Preview(msg.Text, htmlsanitize.PreviewLength)
	for _, id := range ids {
		if !eligible[id] {
			d.skipped++
			continue
		}
		n, err := s.notifications.Create(ctx, models.Notification{
			WorkspaceID: msg.WorkspaceID,
			MemberID:    id,
			MessageID:   msg.ID,
			ChannelID:   msg.ChannelID,
			Kind:        models.NotificationMention,
			Metadata: models.NotificationMetadata{
				WorkspaceID:    msg.WorkspaceID,
				AuthorMemberID: msg.MemberID,
				ConversationID: msg.ConversationID,
				Preview:        preview,
			},
		})
		if err != nil {
			d.failed++
			s.log.Warn("notification insert failed",
				zap.String("message_id", msg.ID.Hex()),
				zap.String("member_id", id.Hex()),
				zap.Error(err))
			continue
		}
		d.notified++
		if err := s.publisher.Publish(ctx, id, realtime.NotificationEvent(n)); err != nil {
			s.log.Debug("notification publish failed",
				zap.String("member_id", id.Hex()), zap.Error(err))
		}
	}

	if d.failed > 0 || d.skipped > 0 {
		s.log.Info("mention fanout incomplete",
			zap.String("message_id", msg.ID.Hex()),
			zap.Int("notified", d.notified),
			zap.Int("skipped", d.skipped),
			zap.Int("failed", d.failed))
	}
	return d
}

func (s *Service) index(ctx context.Context, msg models.Message) {
	if s.indexer == nil {
		return
	}
	rec, ok := search.RecordFor(msg)
	if !ok {
		return
	}
	if err := s.indexer.IndexMessage(ctx, rec); err != nil {
		s.log.Warn("search index write failed",
			zap.String("message_id", msg.ID.Hex()), zap.Error(err))
	}
}
