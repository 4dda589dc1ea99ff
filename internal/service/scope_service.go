package service

import (
	"context"
	"fmt"

	"github.com/d60-Lab/trustcircle/internal/model"
	"github.com/d60-Lab/trustcircle/internal/repository"
)

// CommunityScopeResolver 把信任圈映射为可见社区集合。
// inner ⊆ trusted ⊆ extended，逐层累加求并集。
type CommunityScopeResolver interface {
	// GetCommunityScope restricted=false 表示不限制（all）
	GetCommunityScope(ctx context.Context, viewerID int64, circle model.Circle) (ids []int64, restricted bool, err error)
	ListCommunities(ctx context.Context, viewerID int64, circle model.Circle, opts PageOptions) (*CommunityPage, error)
}

// CommunityPage 社区目录分页结果
type CommunityPage struct {
	Communities []*model.Community `json:"communities"`
	Pagination  Pagination         `json:"pagination"`
}

type scopeService struct {
	graph       CircleGraph
	communities repository.CommunityRepository
	limits      PageLimits
}

func NewScopeService(graph CircleGraph, communities repository.CommunityRepository, limits PageLimits) CommunityScopeResolver {
	return &scopeService{graph: graph, communities: communities, limits: limits}
}

func (s *scopeService) GetCommunityScope(ctx context.Context, viewerID int64, circle model.Circle) ([]int64, bool, error) {
	if circle == model.CircleAll {
		return nil, false, nil
	}
	if !circle.Valid() {
		return nil, false, fmt.Errorf("%w: %q", ErrUnknownCircle, circle)
	}
	if viewerID <= 0 {
		return []int64{}, true, nil
	}

	scope := make([]int64, 0)

	// inner：自己创建的 + 自己作为 active host 的
	created, err := s.communities.CreatedBy(ctx, []int64{viewerID})
	if err != nil {
		return nil, false, fmt.Errorf("%w: communities created by %d: %v", ErrStoreFailure, viewerID, err)
	}
	hosted, err := s.communities.HostedBy(ctx, viewerID)
	if err != nil {
		return nil, false, fmt.Errorf("%w: communities hosted by %d: %v", ErrStoreFailure, viewerID, err)
	}
	scope = append(scope, created...)
	scope = append(scope, hosted...)
	if circle == model.CircleInner {
		return sortedUnique(scope), true, nil
	}

	cc, err := s.graph.BuildContext(ctx, viewerID)
	if err != nil {
		return nil, false, err
	}

	// 更外层只叠加新进入创建者集合的那部分用户；host 身份不随层级扩展
	deltas := []struct {
		tier     model.Circle
		creators []int64
	}{
		{model.CircleTrusted, cc.Inner},
		{model.CircleExtended, cc.Trusted},
	}
	for _, d := range deltas {
		if len(d.creators) > 0 {
			ids, err := s.communities.CreatedBy(ctx, d.creators)
			if err != nil {
				return nil, false, fmt.Errorf("%w: communities created in %s tier: %v", ErrStoreFailure, d.tier, err)
			}
			scope = append(scope, ids...)
		}
		if d.tier == circle {
			break
		}
	}
	return sortedUnique(scope), true, nil
}

func (s *scopeService) ListCommunities(ctx context.Context, viewerID int64, circle model.Circle, opts PageOptions) (*CommunityPage, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	page, perPage := s.limits.normalize(opts)

	scope, restricted, err := s.GetCommunityScope(ctx, viewerID, circle)
	if err != nil {
		return nil, err
	}
	if restricted && len(scope) == 0 {
		_, p := trimPage([]*model.Community{}, page, perPage)
		return &CommunityPage{Communities: []*model.Community{}, Pagination: p}, nil
	}

	var member []int64
	if viewerID > 0 {
		member, err = s.communities.MemberCommunityIDs(ctx, viewerID)
		if err != nil {
			return nil, fmt.Errorf("%w: member communities of %d: %v", ErrStoreFailure, viewerID, err)
		}
	}

	q := repository.CommunityQuery{MemberIDs: member, Offset: offsetOf(page, perPage), Limit: perPage + 1}
	if restricted {
		q.IDs = scope
	}
	rows, err := s.communities.ListVisible(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: list communities: %v", ErrStoreFailure, err)
	}
	rows, p := trimPage(rows, page, perPage)
	if rows == nil {
		rows = []*model.Community{}
	}
	return &CommunityPage{Communities: rows, Pagination: p}, nil
}
