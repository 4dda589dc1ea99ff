package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/trustcircle/internal/model"
)

func (s *stack) conversationService() ConversationService {
	return NewConversationService(s.conversations, s.communities, s.events, s.links)
}

func TestConversationService_CreateValidates(t *testing.T) {
	s := newStack(t)
	svc := s.conversationService()
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, CreateConversationInput{})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.Create(ctx, 1, CreateConversationInput{Title: "x", Privacy: "friends"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.Create(ctx, 0, CreateConversationInput{Title: "x"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	missing := int64(404)
	_, err = svc.Create(ctx, 1, CreateConversationInput{Title: "x", CommunityID: &missing})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConversationService_CreateJoinsPublicCommunity(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	c := s.community(t, 5, model.PrivacyPublic)

	conv, err := s.conversationService().Create(ctx, 1, CreateConversationInput{Title: "hi", CommunityID: &c.ID})
	require.NoError(t, err)
	assert.Equal(t, model.PrivacyPublic, conv.Privacy)
	assert.Nil(t, conv.UpdatedAt)

	ok, err := s.communities.IsActiveMember(ctx, c.ID, 1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConversationService_CreateInPrivateRequiresMembership(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	c := s.community(t, 5, model.PrivacyPrivate)
	svc := s.conversationService()

	_, err := svc.Create(ctx, 1, CreateConversationInput{Title: "hi", CommunityID: &c.ID})
	assert.ErrorIs(t, err, ErrNotMember)

	// 创建者是 host
	_, err = svc.Create(ctx, 5, CreateConversationInput{Title: "hi", CommunityID: &c.ID})
	assert.NoError(t, err)
}

func TestConversationService_CreateInheritsEventCommunity(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	c := s.community(t, 5, model.PrivacyPublic)
	ev := &model.Event{Title: "meetup", AuthorID: 5, CommunityID: &c.ID, StartsAt: t0}
	require.NoError(t, s.events.Create(ctx, ev))

	conv, err := s.conversationService().Create(ctx, 1, CreateConversationInput{Title: "see you", EventID: &ev.ID})
	require.NoError(t, err)
	require.NotNil(t, conv.CommunityID)
	assert.Equal(t, c.ID, *conv.CommunityID)
}

func TestConversationService_ReplyLinksAndJoins(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	c := s.community(t, 5, model.PrivacyPublic)
	svc := s.conversationService()
	conv, err := svc.Create(ctx, 5, CreateConversationInput{Title: "welcome", CommunityID: &c.ID})
	require.NoError(t, err)

	reply, err := svc.Reply(ctx, 1, conv.ID, "thanks")
	require.NoError(t, err)
	assert.NotZero(t, reply.ID)

	peers, err := s.links.DirectPeers(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, peers)

	ok, err := s.communities.IsActiveMember(ctx, c.ID, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.conversations.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ReplyCount)
	assert.NotNil(t, got.UpdatedAt)

	// 回复者进入了作者的 inner 圈
	cc, err := s.graph.BuildContext(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, cc.Inner)
}

func TestConversationService_ReplyToOwnConversation(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	svc := s.conversationService()
	conv, err := svc.Create(ctx, 1, CreateConversationInput{Title: "notes"})
	require.NoError(t, err)

	_, err = svc.Reply(ctx, 1, conv.ID, "more notes")
	require.NoError(t, err)

	peers, err := s.links.DirectPeers(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, peers)
}

func TestConversationService_ReplyErrors(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	svc := s.conversationService()
	private := s.community(t, 5, model.PrivacyPrivate)
	conv, err := svc.Create(ctx, 5, CreateConversationInput{Title: "members only", CommunityID: &private.ID})
	require.NoError(t, err)

	_, err = svc.Reply(ctx, 1, 999, "hello")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Reply(ctx, 1, conv.ID, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.Reply(ctx, 1, conv.ID, "let me in")
	assert.ErrorIs(t, err, ErrNotMember)

	peers, err := s.links.DirectPeers(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, peers)
}
