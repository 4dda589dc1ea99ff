package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/d60-Lab/trustcircle/internal/model"
	"github.com/d60-Lab/trustcircle/internal/repository"
	"github.com/d60-Lab/trustcircle/pkg/logger"
)

// FeedOptions 全局 feed 参数
type FeedOptions struct {
	PageOptions
	Filter repository.FeedFilter `json:"filter" form:"filter" validate:"omitempty,oneof=my_events all_events communities"`
}

// AuthorSummary feed 条目上展示的作者信息
type AuthorSummary struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// FeedItem 会话 + 作者
type FeedItem struct {
	*model.Conversation
	Author *AuthorSummary `json:"author,omitempty"`
}

// FeedPage 返回给 HTTP 层的 {conversations, pagination}
type FeedPage struct {
	Conversations []FeedItem `json:"conversations"`
	Pagination    Pagination `json:"pagination"`
}

// FeedAssembler 组装分页、按隐私过滤的会话流
type FeedAssembler interface {
	// GlobalFeed 作者限定在信任圈内（总是包含自己），社区需公开或 viewer 为成员
	GlobalFeed(ctx context.Context, viewerID int64, circle model.Circle, opts FeedOptions) (*FeedPage, error)
	// CommunityFeed 社区内全部会话，不看作者所在圈；私有社区仅成员可见
	CommunityFeed(ctx context.Context, viewerID, communityID int64, opts PageOptions) (*FeedPage, error)
	// PersonalFeed viewer 自己发布的会话，仍做隐私过滤
	PersonalFeed(ctx context.Context, viewerID int64, opts PageOptions) (*FeedPage, error)
}

type feedService struct {
	graph         CircleGraph
	communities   repository.CommunityRepository
	conversations repository.ConversationRepository
	users         repository.UserRepository
	limits        PageLimits
}

func NewFeedService(
	graph CircleGraph,
	communities repository.CommunityRepository,
	conversations repository.ConversationRepository,
	users repository.UserRepository,
	limits PageLimits,
) FeedAssembler {
	return &feedService{
		graph:         graph,
		communities:   communities,
		conversations: conversations,
		users:         users,
		limits:        limits,
	}
}

func (s *feedService) GlobalFeed(ctx context.Context, viewerID int64, circle model.Circle, opts FeedOptions) (*FeedPage, error) {
	if !opts.Filter.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, opts.Filter)
	}
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if !circle.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCircle, circle)
	}
	page, perPage := s.limits.normalize(opts.PageOptions)

	ctx, span := tracer.Start(ctx, "FeedAssembler.GlobalFeed")
	defer span.End()
	span.SetAttributes(attribute.Int64("viewer_id", viewerID), attribute.String("circle", string(circle)))

	cc, err := s.graph.BuildContext(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	allowed, restricted, err := s.graph.ResolveUsersForCircle(cc, circle)
	if err != nil {
		return nil, err
	}
	if restricted {
		if viewerID > 0 {
			allowed = sortedUnique(append(allowed, viewerID))
		}
		if len(allowed) == 0 {
			return emptyFeed(page, perPage), nil
		}
	}

	member, err := s.memberCommunities(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	q := repository.FeedQuery{
		ViewerID:           viewerID,
		ApplyPrivacy:       true,
		MemberCommunityIDs: member,
		Filter:             opts.Filter,
		Offset:             offsetOf(page, perPage),
		Limit:              perPage + 1,
	}
	if restricted {
		q.AuthorIDs = allowed
	}
	return s.fetch(ctx, q, page, perPage)
}

func (s *feedService) CommunityFeed(ctx context.Context, viewerID, communityID int64, opts PageOptions) (*FeedPage, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	page, perPage := s.limits.normalize(opts)
	if communityID <= 0 {
		return emptyFeed(page, perPage), nil
	}

	community, err := s.communities.GetByID(ctx, communityID)
	if err != nil {
		return nil, fmt.Errorf("%w: load community %d: %v", ErrStoreFailure, communityID, err)
	}
	if community == nil {
		return emptyFeed(page, perPage), nil
	}
	if community.Privacy != model.PrivacyPublic {
		if viewerID <= 0 {
			return emptyFeed(page, perPage), nil
		}
		ok, err := s.communities.IsActiveMember(ctx, communityID, viewerID)
		if err != nil {
			return nil, fmt.Errorf("%w: membership of %d in %d: %v", ErrStoreFailure, viewerID, communityID, err)
		}
		if !ok {
			return emptyFeed(page, perPage), nil
		}
	}

	q := repository.FeedQuery{
		ViewerID:    viewerID,
		CommunityID: communityID,
		Offset:      offsetOf(page, perPage),
		Limit:       perPage + 1,
	}
	return s.fetch(ctx, q, page, perPage)
}

func (s *feedService) PersonalFeed(ctx context.Context, viewerID int64, opts PageOptions) (*FeedPage, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	page, perPage := s.limits.normalize(opts)
	if viewerID <= 0 {
		return emptyFeed(page, perPage), nil
	}

	member, err := s.memberCommunities(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	q := repository.FeedQuery{
		ViewerID:           viewerID,
		AuthorIDs:          []int64{viewerID},
		ApplyPrivacy:       true,
		MemberCommunityIDs: member,
		Offset:             offsetOf(page, perPage),
		Limit:              perPage + 1,
	}
	return s.fetch(ctx, q, page, perPage)
}

func (s *feedService) memberCommunities(ctx context.Context, viewerID int64) ([]int64, error) {
	if viewerID <= 0 {
		return nil, nil
	}
	ids, err := s.communities.MemberCommunityIDs(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("%w: member communities of %d: %v", ErrStoreFailure, viewerID, err)
	}
	return ids, nil
}

func (s *feedService) fetch(ctx context.Context, q repository.FeedQuery, page, perPage int) (*FeedPage, error) {
	rows, err := s.conversations.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: list conversations: %v", ErrStoreFailure, err)
	}
	rows, p := trimPage(rows, page, perPage)
	return &FeedPage{Conversations: s.enrich(ctx, rows), Pagination: p}, nil
}

// enrich 批量补作者信息；查询失败时降级为不带作者
func (s *feedService) enrich(ctx context.Context, rows []*model.Conversation) []FeedItem {
	items := make([]FeedItem, len(rows))
	if len(rows) == 0 {
		return items
	}
	authorIDs := make([]int64, 0, len(rows))
	for _, r := range rows {
		authorIDs = append(authorIDs, r.AuthorID)
	}
	users, err := s.users.FindByIDs(ctx, sortedUnique(authorIDs))
	if err != nil {
		logger.Warn("feed author lookup failed", zap.Error(err))
		users = nil
	}
	for i, r := range rows {
		items[i] = FeedItem{Conversation: r}
		if u, ok := users[r.AuthorID]; ok {
			items[i].Author = &AuthorSummary{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName}
		}
	}
	return items
}

func emptyFeed(page, perPage int) *FeedPage {
	return &FeedPage{Conversations: []FeedItem{}, Pagination: Pagination{Page: page, PerPage: perPage}}
}
