// Package lifecycle creates, updates and deletes workspaces, channels,
// conversations and reactions. Deletes cascade through system/cascade.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	channelstore "github.com/Bas3L3ss/slackzz-clone/internal/app/store/channels"
	conversationstore "github.com/Bas3L3ss/slackzz-clone/internal/app/store/conversations"
	memberstore "github.com/Bas3L3ss/slackzz-clone/internal/app/store/members"
	messagestore "github.com/Bas3L3ss/slackzz-clone/internal/app/store/messages"
	reactionstore "github.com/Bas3L3ss/slackzz-clone/internal/app/store/reactions"
	workspacestore "github.com/Bas3L3ss/slackzz-clone/internal/app/store/workspaces"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/apperr"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/authz"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/cascade"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/joincode"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/normalize"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/timeouts"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/txn"
	"github.com/Bas3L3ss/slackzz-clone/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// SearchIndex is the part of the search index that deletes touch.
type SearchIndex interface {
	DeleteMessages(ctx context.Context, ids []string) error
}

type Service struct {
	db            *mongo.Database
	workspaces    *workspacestore.Store
	members       *memberstore.Store
	channels      *channelstore.Store
	conversations *conversationstore.Store
	messages      *messagestore.Store
	reactions     *reactionstore.Store
	purger        cascade.Purger
	index         SearchIndex
	gate          *authz.Gate
	log           *zap.Logger
}

// New wires the service. index may be nil when search is disabled.
func New(db *mongo.Database, gate *authz.Gate, index SearchIndex, log *zap.Logger) *Service {
	return &Service{
		db:            db,
		workspaces:    workspacestore.New(db),
		members:       memberstore.New(db),
		channels:      channelstore.New(db),
		conversations: conversationstore.New(db),
		messages:      messagestore.New(db),
		reactions:     reactionstore.New(db),
		purger:        cascade.NewMongoPurger(db),
		index:         index,
		gate:          gate,
		log:           log,
	}
}

/* -------------------------------------------------------------------------- */
/* Workspaces                                                                 */
/* -------------------------------------------------------------------------- */

// Created is everything CreateWorkspace inserts.
type Created struct {
	Workspace models.Workspace `json:"workspace"`
	Member    models.Member    `json:"member"`
	Channel   models.Channel   `json:"channel"`
}

// CreateWorkspace creates a workspace owned by the caller together with the
// caller's admin membership and the default channel. The three inserts share
// a transaction where the deployment supports one.
func (s *Service) CreateWorkspace(ctx context.Context, caller authz.Caller, name string, imageURL *string) (Created, error) {
	if !caller.Authenticated() {
		return Created{}, apperr.ErrUnauthorized
	}
	name = normalize.Name(name)
	if name == "" {
		return Created{}, fmt.Errorf("%w: workspace name is empty", apperr.ErrInvalidInput)
	}
	code, err := joincode.Generate()
	if err != nil {
		return Created{}, err
	}

	var out Created
	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		ws, err := s.workspaces.Create(ctx, models.Workspace{
			Name:     name,
			UserID:   caller.UserID,
			JoinCode: code,
			ImageURL: imageURL,
		})
		if err != nil {
			return fmt.Errorf("insert workspace: %w", err)
		}
		m, err := s.members.Add(ctx, ws.ID, caller.UserID, models.RoleAdmin)
		if err != nil {
			return fmt.Errorf("insert owner member: %w", err)
		}
		ch, err := s.channels.Create(ctx, ws.ID, models.DefaultChannelName)
		if err != nil {
			return fmt.Errorf("insert default channel: %w", err)
		}
		out = Created{Workspace: ws, Member: m, Channel: ch}
		return nil
	})
	if err != nil {
		return Created{}, err
	}

	s.log.Info("workspace created",
		zap.String("workspace_id", out.Workspace.ID.Hex()),
		zap.String("user_id", caller.UserID))
	return out, nil
}

// UpdateWorkspace renames the workspace and sets or clears its image.
func (s *Service) UpdateWorkspace(ctx context.Context, caller authz.Caller, workspaceID primitive.ObjectID, name string, imageURL *string) (models.Workspace, error) {
	if _, err := s.gate.RequireAdmin(ctx, caller, workspaceID); err != nil {
		return models.Workspace{}, err
	}
	name = normalize.Name(name)
	if name == "" {
		return models.Workspace{}, fmt.Errorf("%w: workspace name is empty", apperr.ErrInvalidInput)
	}
	if err := s.workspaces.Update(ctx, workspaceID, name, imageURL); err != nil {
		if errors.Is(err, workspacestore.ErrNotFound) {
			return models.Workspace{}, apperr.ErrNotFound
		}
		return models.Workspace{}, err
	}
	return s.workspaces.GetByID(ctx, workspaceID)
}

// DeleteWorkspace removes the workspace and everything scoped to it. Child
// rows go first and the workspace row last, so once the workspace is gone no
// child describing it remains. The cascade runs to completion even if the
// caller goes away.
func (s *Service) DeleteWorkspace(ctx context.Context, caller authz.Caller, workspaceID primitive.ObjectID) error {
	if _, err := s.gate.RequireAdmin(ctx, caller, workspaceID); err != nil {
		return err
	}

	ctx, cancel := timeouts.WithTimeout(context.WithoutCancel(ctx), timeouts.Long(), s.log, "delete workspace")
	defer cancel()

	res, err := cascade.Run(ctx, s.purger, s.log, cascade.WorkspaceEdges, workspaceID)
	if err != nil {
		return fmt.Errorf("cascade workspace %s: %w", workspaceID.Hex(), err)
	}
	if _, err := s.workspaces.Delete(ctx, workspaceID); err != nil {
		return fmt.Errorf("delete workspace row: %w", err)
	}
	if _, err := cascade.Sweep(ctx, s.purger, s.log, cascade.WorkspaceEdges, workspaceID); err != nil {
		s.log.Error("workspace sweep failed", zap.String("workspace_id", workspaceID.Hex()), zap.Error(err))
	}
	s.purgeIndex(ctx, res.Collected[messagestore.Collection])

	s.log.Info("workspace deleted",
		zap.String("workspace_id", workspaceID.Hex()),
		zap.String("user_id", caller.UserID),
		zap.Int64("rows", res.Total()))
	return nil
}

/* -------------------------------------------------------------------------- */
/* Channels                                                                   */
/* -------------------------------------------------------------------------- */

func channelName(raw string) (string, error) {
	name := normalize.ChannelName(raw)
	if name == "" {
		return "", fmt.Errorf("%w: channel name is empty", apperr.ErrInvalidInput)
	}
	return name, nil
}

// CreateChannel adds a channel with a normalized name.
func (s *Service) CreateChannel(ctx context.Context, caller authz.Caller, workspaceID primitive.ObjectID, rawName string) (models.Channel, error) {
	if _, err := s.gate.RequireAdmin(ctx, caller, workspaceID); err != nil {
		return models.Channel{}, err
	}
	name, err := channelName(rawName)
	if err != nil {
		return models.Channel{}, err
	}
	return s.channels.Create(ctx, workspaceID, name)
}

// adminChannel loads a channel and requires admin in its workspace.
// A missing channel is reported as unauthorized.
func (s *Service) adminChannel(ctx context.Context, caller authz.Caller, channelID primitive.ObjectID) (models.Channel, error) {
	if !caller.Authenticated() {
		return models.Channel{}, apperr.ErrUnauthorized
	}
	ch, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		if errors.Is(err, channelstore.ErrNotFound) {
			return models.Channel{}, apperr.ErrUnauthorized
		}
		return models.Channel{}, err
	}
	if _, err := s.gate.RequireAdmin(ctx, caller, ch.WorkspaceID); err != nil {
		return models.Channel{}, err
	}
	return ch, nil
}

// RenameChannel applies a normalized name to an existing channel.
func (s *Service) RenameChannel(ctx context.Context, caller authz.Caller, channelID primitive.ObjectID, rawName string) (models.Channel, error) {
	ch, err := s.adminChannel(ctx, caller, channelID)
	if err != nil {
		return models.Channel{}, err
	}
	name, err := channelName(rawName)
	if err != nil {
		return models.Channel{}, err
	}
	if err := s.channels.Rename(ctx, channelID, name); err != nil {
		if errors.Is(err, channelstore.ErrNotFound) {
			return models.Channel{}, apperr.ErrNotFound
		}
		return models.Channel{}, err
	}
	ch.Name = name
	return ch, nil
}

// DeleteChannel removes the channel's messages, then the channel.
func (s *Service) DeleteChannel(ctx context.Context, caller authz.Caller, channelID primitive.ObjectID) error {
	ch, err := s.adminChannel(ctx, caller, channelID)
	if err != nil {
		return err
	}

	ctx, cancel := timeouts.WithTimeout(context.WithoutCancel(ctx), timeouts.Long(), s.log, "delete channel")
	defer cancel()

	res, err := cascade.Run(ctx, s.purger, s.log, cascade.ChannelEdges, ch.ID)
	if err != nil {
		return fmt.Errorf("cascade channel %s: %w", ch.ID.Hex(), err)
	}
	if _, err := s.channels.Delete(ctx, ch.ID); err != nil {
		return fmt.Errorf("delete channel row: %w", err)
	}
	if _, err := cascade.Sweep(ctx, s.purger, s.log, cascade.ChannelEdges, ch.ID); err != nil {
		s.log.Error("channel sweep failed", zap.String("channel_id", ch.ID.Hex()), zap.Error(err))
	}
	s.purgeIndex(ctx, res.Collected[messagestore.Collection])

	s.log.Info("channel deleted",
		zap.String("workspace_id", ch.WorkspaceID.Hex()),
		zap.String("channel_id", ch.ID.Hex()),
		zap.Int64("messages", res.Deleted[messagestore.Collection]))
	return nil
}

func (s *Service) purgeIndex(ctx context.Context, ids []primitive.ObjectID) {
	if s.index == nil || len(ids) == 0 {
		return
	}
	hex := make([]string, len(ids))
	for i, id := range ids {
		hex[i] = id.Hex()
	}
	if err := s.index.DeleteMessages(ctx, hex); err != nil {
		s.log.Warn("search index purge failed", zap.Int("messages", len(ids)), zap.Error(err))
	}
}

/* -------------------------------------------------------------------------- */
/* Conversations and reactions                                                */
/* -------------------------------------------------------------------------- */

// CreateOrGetConversation returns the caller's direct conversation with
// otherMemberID, creating it on first use.
func (s *Service) CreateOrGetConversation(ctx context.Context, caller authz.Caller, workspaceID, otherMemberID primitive.ObjectID) (models.Conversation, error) {
	me, err := s.gate.RequireMember(ctx, caller, workspaceID)
	if err != nil {
		return models.Conversation{}, err
	}
	other, err := s.members.GetByID(ctx, otherMemberID)
	if err != nil {
		if errors.Is(err, memberstore.ErrNotFound) {
			return models.Conversation{}, apperr.ErrNotFound
		}
		return models.Conversation{}, err
	}
	if other.WorkspaceID != workspaceID {
		return models.Conversation{}, apperr.ErrNotFound
	}

	conv, created, err := s.conversations.CreateOrGet(ctx, workspaceID, me.ID, other.ID)
	if err != nil {
		return models.Conversation{}, err
	}
	if created {
		s.log.Debug("conversation created",
			zap.String("workspace_id", workspaceID.Hex()),
			zap.String("conversation_id", conv.ID.Hex()))
	}
	return conv, nil
}

// ToggleReaction adds the caller's reaction to a message, or removes it if
// already present. It reports whether the reaction exists afterwards.
// Conversation messages accept reactions from the two participants only. A
// missing message is reported as unauthorized.
func (s *Service) ToggleReaction(ctx context.Context, caller authz.Caller, messageID primitive.ObjectID, value string) (bool, error) {
	if !caller.Authenticated() {
		return false, apperr.ErrUnauthorized
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return false, fmt.Errorf("%w: reaction value is empty", apperr.ErrInvalidInput)
	}
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, messagestore.ErrNotFound) {
			return false, apperr.ErrUnauthorized
		}
		return false, err
	}
	me, err := s.gate.RequireMember(ctx, caller, msg.WorkspaceID)
	if err != nil {
		return false, err
	}
	if msg.ConversationID != nil {
		conv, err := s.conversations.GetByID(ctx, *msg.ConversationID)
		if err != nil {
			if errors.Is(err, conversationstore.ErrNotFound) {
				return false, apperr.ErrUnauthorized
			}
			return false, err
		}
		if !conv.HasParticipant(me.ID) {
			return false, apperr.ErrUnauthorized
		}
	}
	return s.reactions.Toggle(ctx, msg.WorkspaceID, msg.ID, me.ID, value)
}
