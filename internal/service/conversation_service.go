package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/trustcircle/internal/model"
	"github.com/d60-Lab/trustcircle/internal/repository"
	"github.com/d60-Lab/trustcircle/pkg/logger"
)

// CreateConversationInput 发起会话
type CreateConversationInput struct {
	Title       string `json:"title" validate:"required,max=255"`
	Content     string `json:"content" validate:"max=20000"`
	CommunityID *int64 `json:"community_id" validate:"omitempty,gt=0"`
	EventID     *int64 `json:"event_id" validate:"omitempty,gt=0"`
	Privacy     string `json:"privacy" validate:"omitempty,oneof=public private"`
}

// ConversationService 发帖与回复。回复即加入：在公开社区里回复会成为成员，
// 并与会话作者建立双向关系。
type ConversationService interface {
	Create(ctx context.Context, authorID int64, in CreateConversationInput) (*model.Conversation, error)
	Reply(ctx context.Context, authorID, conversationID int64, content string) (*model.Reply, error)
}

type conversationService struct {
	conversations repository.ConversationRepository
	communities   repository.CommunityRepository
	events        repository.EventRepository
	links         LinkService
	now           func() time.Time
}

func NewConversationService(
	conversations repository.ConversationRepository,
	communities repository.CommunityRepository,
	events repository.EventRepository,
	links LinkService,
) ConversationService {
	return &conversationService{
		conversations: conversations,
		communities:   communities,
		events:        events,
		links:         links,
		now:           time.Now,
	}
}

func (s *conversationService) Create(ctx context.Context, authorID int64, in CreateConversationInput) (*model.Conversation, error) {
	if authorID <= 0 {
		return nil, fmt.Errorf("%w: author id must be positive", ErrInvalidArgument)
	}
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	communityID := in.CommunityID
	if in.EventID != nil {
		ev, err := s.events.GetByID(ctx, *in.EventID)
		if err != nil {
			return nil, fmt.Errorf("%w: load event %d: %v", ErrStoreFailure, *in.EventID, err)
		}
		if ev == nil {
			return nil, fmt.Errorf("%w: event %d", ErrNotFound, *in.EventID)
		}
		if communityID == nil {
			communityID = ev.CommunityID
		}
	}
	if communityID != nil {
		if err := s.join(ctx, *communityID, authorID); err != nil {
			return nil, err
		}
	}

	privacy := in.Privacy
	if privacy == "" {
		privacy = model.PrivacyPublic
	}
	c := &model.Conversation{
		AuthorID:    authorID,
		CommunityID: communityID,
		EventID:     in.EventID,
		Title:       in.Title,
		Content:     in.Content,
		Privacy:     privacy,
		CreatedAt:   s.now(),
	}
	if err := s.conversations.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("%w: create conversation: %v", ErrStoreFailure, err)
	}
	return c, nil
}

func (s *conversationService) Reply(ctx context.Context, authorID, conversationID int64, content string) (*model.Reply, error) {
	if authorID <= 0 || conversationID <= 0 {
		return nil, fmt.Errorf("%w: ids must be positive", ErrInvalidArgument)
	}
	if err := validate.Var(content, "required,max=20000"); err != nil {
		return nil, fmt.Errorf("%w: content: %v", ErrInvalidArgument, err)
	}

	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("%w: load conversation %d: %v", ErrStoreFailure, conversationID, err)
	}
	if conv == nil {
		return nil, fmt.Errorf("%w: conversation %d", ErrNotFound, conversationID)
	}
	if conv.CommunityID != nil {
		if err := s.join(ctx, *conv.CommunityID, authorID); err != nil {
			return nil, err
		}
	}

	reply := &model.Reply{ConversationID: conversationID, AuthorID: authorID, Content: content, CreatedAt: s.now()}
	if err := s.conversations.AddReply(ctx, reply); err != nil {
		return nil, fmt.Errorf("%w: add reply: %v", ErrStoreFailure, err)
	}

	if authorID != conv.AuthorID {
		ok, err := s.links.CreateLink(ctx, authorID, conv.AuthorID)
		if err != nil || !ok {
			logger.Warn("reply did not produce peer link",
				zap.Int64("replier", authorID), zap.Int64("author", conv.AuthorID), zap.Error(err))
		}
	}
	return reply, nil
}

// join 公开社区里发言即成为成员；私有社区要求已是 active 成员
func (s *conversationService) join(ctx context.Context, communityID, userID int64) error {
	community, err := s.communities.GetByID(ctx, communityID)
	if err != nil {
		return fmt.Errorf("%w: load community %d: %v", ErrStoreFailure, communityID, err)
	}
	if community == nil {
		return fmt.Errorf("%w: community %d", ErrNotFound, communityID)
	}
	if community.Privacy == model.PrivacyPublic {
		if err := s.communities.EnsureMember(ctx, communityID, userID, model.MemberRoleMember); err != nil {
			return fmt.Errorf("%w: join community %d: %v", ErrStoreFailure, communityID, err)
		}
		return nil
	}
	ok, err := s.communities.IsActiveMember(ctx, communityID, userID)
	if err != nil {
		return fmt.Errorf("%w: membership of %d in %d: %v", ErrStoreFailure, userID, communityID, err)
	}
	if !ok {
		return fmt.Errorf("%w: user %d, community %d", ErrNotMember, userID, communityID)
	}
	return nil
}
