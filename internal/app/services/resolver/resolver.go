// Package resolver answers read queries. Every query degrades to an empty
// result when the caller is not a member of the workspace involved.
package resolver

import (
	"context"
	"errors"
	"sort"

	channelstore "github.com/Bas3L3ss/slackzz-clone/internal/app/store/channels"
	conversationstore "github.com/Bas3L3ss/slackzz-clone/internal/app/store/conversations"
	memberstore "github.com/Bas3L3ss/slackzz-clone/internal/app/store/members"
	messagestore "github.com/Bas3L3ss/slackzz-clone/internal/app/store/messages"
	notificationstore "github.com/Bas3L3ss/slackzz-clone/internal/app/store/notifications"
	reactionstore "github.com/Bas3L3ss/slackzz-clone/internal/app/store/reactions"
	workspacestore "github.com/Bas3L3ss/slackzz-clone/internal/app/store/workspaces"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/apperr"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/authz"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/htmlsanitize"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/paging"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/search"
	"github.com/Bas3L3ss/slackzz-clone/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Searcher runs text queries over channel messages.
type Searcher interface {
	Search(ctx context.Context, q search.Query) ([]search.Hit, error)
}

type Service struct {
	workspaces    *workspacestore.Store
	members       *memberstore.Store
	channels      *channelstore.Store
	conversations *conversationstore.Store
	messages      *messagestore.Store
	reactions     *reactionstore.Store
	notifications *notificationstore.Store
	gate          *authz.Gate
	searcher      Searcher
	log           *zap.Logger
}

// New wires the resolver. searcher may be nil, in which case search returns
// nothing.
func New(db *mongo.Database, gate *authz.Gate, searcher Searcher, log *zap.Logger) *Service {
	return &Service{
		workspaces:    workspacestore.New(db),
		members:       memberstore.New(db),
		channels:      channelstore.New(db),
		conversations: conversationstore.New(db),
		messages:      messagestore.New(db),
		reactions:     reactionstore.New(db),
		notifications: notificationstore.New(db),
		gate:          gate,
		searcher:      searcher,
		log:           log,
	}
}

// redact hides the join code from non-admins.
func redact(ws models.Workspace, m models.Member) models.Workspace {
	if !m.IsAdmin() {
		ws.JoinCode = ""
	}
	return ws
}

/* -------------------------------------------------------------------------- */
/* Workspaces and members                                                     */
/* -------------------------------------------------------------------------- */

// ListWorkspaces returns the workspaces the caller belongs to, ordered by
// name. Memberships whose workspace is already gone are skipped.
func (s *Service) ListWorkspaces(ctx context.Context, caller authz.Caller) ([]models.Workspace, error) {
	if !caller.Authenticated() {
		return []models.Workspace{}, nil
	}
	memberships, err := s.members.ListByUser(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	byWS := make(map[primitive.ObjectID]models.Member, len(memberships))
	ids := make([]primitive.ObjectID, 0, len(memberships))
	for _, m := range memberships {
		byWS[m.WorkspaceID] = m
		ids = append(ids, m.WorkspaceID)
	}
	list, err := s.workspaces.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i] = redact(list[i], byWS[list[i].ID])
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

// GetWorkspace returns the workspace, or nil when the caller is not a member
// or it no longer exists.
func (s *Service) GetWorkspace(ctx context.Context, caller authz.Caller, workspaceID primitive.ObjectID) (*models.Workspace, error) {
	me, err := s.gate.RequireMember(ctx, caller, workspaceID)
	if err != nil {
		return nil, apperr.DegradeRead(err)
	}
	ws, err := s.workspaces.GetByID(ctx, workspaceID)
	if errors.Is(err, workspacestore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ws = redact(ws, me)
	return &ws, nil
}

// CurrentMember returns the caller's membership in the workspace, or nil.
func (s *Service) CurrentMember(ctx context.Context, caller authz.Caller, workspaceID primitive.ObjectID) (*models.Member, error) {
	me, err := s.gate.RequireMember(ctx, caller, workspaceID)
	if err != nil {
		return nil, apperr.DegradeRead(err)
	}
	return &me, nil
}

// ListMembers returns every member of the workspace.
func (s *Service) ListMembers(ctx context.Context, caller authz.Caller, workspaceID primitive.ObjectID) ([]models.Member, error) {
	if _, err := s.gate.RequireMember(ctx, caller, workspaceID); err != nil {
		return []models.Member{}, apperr.DegradeRead(err)
	}
	return s.members.ListByWorkspace(ctx, workspaceID)
}

/* -------------------------------------------------------------------------- */
/* Channels                                                                   */
/* -------------------------------------------------------------------------- */

func (s *Service) ListChannels(ctx context.Context, caller authz.Caller, workspaceID primitive.ObjectID) ([]models.Channel, error) {
	if _, err := s.gate.RequireMember(ctx, caller, workspaceID); err != nil {
		return []models.Channel{}, apperr.DegradeRead(err)
	}
	return s.channels.ListByWorkspace(ctx, workspaceID)
}

// GetChannel returns nil when the channel is gone or the caller is not a
// member of its workspace.
func (s *Service) GetChannel(ctx context.Context, caller authz.Caller, channelID primitive.ObjectID) (*models.Channel, error) {
	if !caller.Authenticated() {
		return nil, nil
	}
	ch, err := s.channels.GetByID(ctx, channelID)
	if errors.Is(err, channelstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if _, err := s.gate.RequireMember(ctx, caller, ch.WorkspaceID); err != nil {
		return nil, apperr.DegradeRead(err)
	}
	return &ch, nil
}

/* -------------------------------------------------------------------------- */
/* Messages                                                                   */
/* -------------------------------------------------------------------------- */

// Target names one message stream of a workspace.
type Target struct {
	WorkspaceID     primitive.ObjectID
	ChannelID       *primitive.ObjectID
	ConversationID  *primitive.ObjectID
	ParentMessageID *primitive.ObjectID
}

// ReactionCount groups the reactions with one value.
type ReactionCount struct {
	Value     string               `json:"value"`
	Count     int                  `json:"count"`
	MemberIDs []primitive.ObjectID `json:"member_ids"`
}

// MessageView is a message with its reactions grouped by value.
type MessageView struct {
	models.Message
	Reactions []ReactionCount `json:"reactions"`
}

func emptyPage() paging.Page[MessageView] {
	return paging.Page[MessageView]{Items: []MessageView{}, Status: paging.Exhausted}
}

// streamVisible reports whether member may read the target stream.
// Conversations are visible to their two participants only.
func (s *Service) streamVisible(ctx context.Context, me models.Member, t Target) (bool, error) {
	switch {
	case t.ChannelID != nil && t.ConversationID == nil:
		ch, err := s.channels.GetByID(ctx, *t.ChannelID)
		if errors.Is(err, channelstore.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return ch.WorkspaceID == t.WorkspaceID, nil
	case t.ConversationID != nil && t.ChannelID == nil:
		conv, err := s.conversations.GetByID(ctx, *t.ConversationID)
		if errors.Is(err, conversationstore.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return conv.WorkspaceID == t.WorkspaceID && conv.HasParticipant(me.ID), nil
	default:
		return false, apperr.ErrInvalidInput
	}
}

// ListMessages returns one reverse-chronological page of the target stream,
// starting before cursor.
func (s *Service) ListMessages(ctx context.Context, caller authz.Caller, t Target, cursor string, size int) (paging.Page[MessageView], error) {
	me, err := s.gate.RequireMember(ctx, caller, t.WorkspaceID)
	if err != nil {
		return emptyPage(), apperr.DegradeRead(err)
	}
	ok, err := s.streamVisible(ctx, me, t)
	if err != nil || !ok {
		return emptyPage(), err
	}

	page, err := s.messages.ListPage(ctx, messagestore.Stream{
		ChannelID:       t.ChannelID,
		ConversationID:  t.ConversationID,
		ParentMessageID: t.ParentMessageID,
	}, cursor, size)
	if err != nil {
		return emptyPage(), err
	}
	views, err := s.withReactions(ctx, page.Items)
	if err != nil {
		return emptyPage(), err
	}
	return paging.Page[MessageView]{Items: views, Cursor: page.Cursor, Status: page.Status}, nil
}

// Feed returns a client-side pager over ListMessages.
func (s *Service) Feed(caller authz.Caller, t Target, size int) *paging.Feed[MessageView] {
	return paging.NewFeed(func(ctx context.Context, cursor string) (paging.Page[MessageView], error) {
		return s.ListMessages(ctx, caller, t, cursor, size)
	})
}

// GetMessage returns the message, or nil when it is gone or not visible.
func (s *Service) GetMessage(ctx context.Context, caller authz.Caller, messageID primitive.ObjectID) (*MessageView, error) {
	if !caller.Authenticated() {
		return nil, nil
	}
	msg, err := s.messages.GetByID(ctx, messageID)
	if errors.Is(err, messagestore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	me, err := s.gate.RequireMember(ctx, caller, msg.WorkspaceID)
	if err != nil {
		return nil, apperr.DegradeRead(err)
	}
	if msg.ConversationID != nil {
		ok, err := s.streamVisible(ctx, me, Target{WorkspaceID: msg.WorkspaceID, ConversationID: msg.ConversationID})
		if err != nil || !ok {
			return nil, err
		}
	}
	views, err := s.withReactions(ctx, []models.Message{msg})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *Service) withReactions(ctx context.Context, msgs []models.Message) ([]MessageView, error) {
	ids := make([]primitive.ObjectID, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
	}
	rs, err := s.reactions.ListByMessages(ctx, ids)
	if err != nil {
		return nil, err
	}

	type key struct {
		msg   primitive.ObjectID
		value string
	}
	groups := make(map[key]*ReactionCount)
	order := make(map[primitive.ObjectID][]string)
	for _, r := range rs {
		k := key{r.MessageID, r.Value}
		g, ok := groups[k]
		if !ok {
			g = &ReactionCount{Value: r.Value, MemberIDs: []primitive.ObjectID{}}
			groups[k] = g
			order[r.MessageID] = append(order[r.MessageID], r.Value)
		}
		g.Count++
		g.MemberIDs = append(g.MemberIDs, r.MemberID)
	}

	views := make([]MessageView, len(msgs))
	for i, m := range msgs {
		v := MessageView{Message: m, Reactions: []ReactionCount{}}
		for _, value := range order[m.ID] {
			v.Reactions = append(v.Reactions, *groups[key{m.ID, value}])
		}
		views[i] = v
	}
	return views, nil
}

/* -------------------------------------------------------------------------- */
/* Notifications and search                                                   */
/* -------------------------------------------------------------------------- */

// ListNotifications returns the caller's notifications in the workspace,
// newest first.
func (s *Service) ListNotifications(ctx context.Context, caller authz.Caller, workspaceID primitive.ObjectID) ([]models.Notification, error) {
	me, err := s.gate.RequireMember(ctx, caller, workspaceID)
	if err != nil {
		return []models.Notification{}, apperr.DegradeRead(err)
	}
	return s.notifications.ListForMember(ctx, me.ID)
}

// SearchMessages finds channel messages of the workspace containing text.
// Hits whose message was deleted after indexing are dropped.
func (s *Service) SearchMessages(ctx context.Context, caller authz.Caller, workspaceID primitive.ObjectID, text string, limit int) ([]search.Hit, error) {
	if _, err := s.gate.RequireMember(ctx, caller, workspaceID); err != nil {
		return []search.Hit{}, apperr.DegradeRead(err)
	}
	if s.searcher == nil {
		return []search.Hit{}, nil
	}
	hits, err := s.searcher.Search(ctx, search.Query{WorkspaceID: workspaceID.Hex(), Text: text, Limit: limit})
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(hits))
	for _, h := range hits {
		if id, err := primitive.ObjectIDFromHex(h.MessageID); err == nil {
			ids = append(ids, id)
		}
	}
	live, err := s.messages.ExistingIDs(ctx, workspaceID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]search.Hit, 0, len(hits))
	for _, h := range hits {
		id, err := primitive.ObjectIDFromHex(h.MessageID)
		if err != nil || !live[id] {
			continue
		}
		h.Snippet = htmlsanitize.Snippet(h.Snippet)
		out = append(out, h)
	}
	return out, nil
}
