package service

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/d60-Lab/trustcircle/internal/model"
	"github.com/d60-Lab/trustcircle/pkg/logger"
)

const DefaultMaxHops = 3

var tracer = otel.Tracer("github.com/d60-Lab/trustcircle/internal/service")

// PeerLister 按层 BFS 需要的邻接查询
type PeerLister interface {
	ListPeersOf(ctx context.Context, userIDs []int64) (map[int64][]int64, error)
}

// CircleGraph 信任圈计算与缓存
type CircleGraph interface {
	// ComputeHops 从 userID 出发 BFS，返回每个可达用户的最短跳数（不含自己），
	// 恰好在 maxHops 处发现的用户包含在内，但不再继续扩展
	ComputeHops(ctx context.Context, userID int64, maxHops int) (map[int64]int, error)
	// BuildContext 优先读缓存；未命中时计算三层并写回。viewerID<=0 返回空上下文
	BuildContext(ctx context.Context, viewerID int64) (*model.CircleContext, error)
	// ResolveUsersForCircle 返回圈内用户；restricted=false 表示不限制（all）
	ResolveUsersForCircle(cc *model.CircleContext, circle model.Circle) (ids []int64, restricted bool, err error)
	// RefreshCache 强制失效并重算
	RefreshCache(ctx context.Context, userID int64) (*model.CircleContext, error)
}

type circleService struct {
	peers   PeerLister
	cache   ContextCache
	maxHops int
}

func NewCircleService(peers PeerLister, cache ContextCache, maxHops int) CircleGraph {
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}
	return &circleService{peers: peers, cache: cache, maxHops: maxHops}
}

func (s *circleService) ComputeHops(ctx context.Context, userID int64, maxHops int) (map[int64]int, error) {
	hops := make(map[int64]int)
	if userID <= 0 || maxHops <= 0 {
		return hops, nil
	}

	visited := map[int64]struct{}{userID: {}}
	frontier := []int64{userID}
	for depth := 1; depth <= maxHops && len(frontier) > 0; depth++ {
		adj, err := s.peers.ListPeersOf(ctx, frontier)
		if err != nil {
			return nil, fmt.Errorf("%w: expand hop %d from %d: %v", ErrStoreFailure, depth, userID, err)
		}
		next := make([]int64, 0, len(frontier))
		for _, u := range frontier {
			for _, p := range adj[u] {
				if _, seen := visited[p]; seen {
					continue
				}
				visited[p] = struct{}{}
				hops[p] = depth
				next = append(next, p)
			}
		}
		frontier = next
	}
	return hops, nil
}

func (s *circleService) BuildContext(ctx context.Context, viewerID int64) (*model.CircleContext, error) {
	if viewerID <= 0 {
		return model.EmptyCircleContext(), nil
	}
	ctx, span := tracer.Start(ctx, "CircleGraph.BuildContext")
	defer span.End()
	span.SetAttributes(attribute.Int64("viewer_id", viewerID))

	cached, found, err := s.cache.Get(ctx, viewerID)
	if err != nil {
		logger.Warn("circle cache read failed, recomputing", zap.Int64("user_id", viewerID), zap.Error(err))
	} else if found {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return cached, nil
	}
	span.SetAttributes(attribute.Bool("cache_hit", false))

	cc, err := s.compute(ctx, viewerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	s.store(ctx, viewerID, cc)
	return cc, nil
}

func (s *circleService) RefreshCache(ctx context.Context, userID int64) (*model.CircleContext, error) {
	if userID <= 0 {
		return model.EmptyCircleContext(), nil
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		logger.Warn("circle cache invalidate failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	cc, err := s.compute(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.store(ctx, userID, cc)
	return cc, nil
}

func (s *circleService) ResolveUsersForCircle(cc *model.CircleContext, circle model.Circle) ([]int64, bool, error) {
	if cc == nil {
		cc = model.EmptyCircleContext()
	}
	var tiers [][]int64
	switch circle {
	case model.CircleAll:
		return nil, false, nil
	case model.CircleInner:
		tiers = [][]int64{cc.Inner}
	case model.CircleTrusted:
		tiers = [][]int64{cc.Inner, cc.Trusted}
	case model.CircleExtended:
		tiers = [][]int64{cc.Inner, cc.Trusted, cc.Extended}
	default:
		return nil, false, fmt.Errorf("%w: %q", ErrUnknownCircle, circle)
	}
	out := make([]int64, 0)
	for _, t := range tiers {
		out = append(out, t...)
	}
	return sortedUnique(out), true, nil
}

func (s *circleService) compute(ctx context.Context, userID int64) (*model.CircleContext, error) {
	hops, err := s.ComputeHops(ctx, userID, s.maxHops)
	if err != nil {
		return nil, err
	}
	cc := model.EmptyCircleContext()
	for id, d := range hops {
		switch d {
		case 1:
			cc.Inner = append(cc.Inner, id)
		case 2:
			cc.Trusted = append(cc.Trusted, id)
		case 3:
			cc.Extended = append(cc.Extended, id)
		}
	}
	cc.Inner = sortedUnique(cc.Inner)
	cc.Trusted = sortedUnique(cc.Trusted)
	cc.Extended = sortedUnique(cc.Extended)
	return cc, nil
}

func (s *circleService) store(ctx context.Context, userID int64, cc *model.CircleContext) {
	if err := s.cache.Put(ctx, userID, cc); err != nil {
		logger.Warn("circle cache write failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// ParseCircle 解析圈名，空串视为 all
func ParseCircle(s string) (model.Circle, error) {
	if s == "" {
		return model.CircleAll, nil
	}
	c := model.Circle(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCircle, s)
	}
	return c, nil
}

func sortedUnique(ids []int64) []int64 {
	if len(ids) == 0 {
		return []int64{}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := ids[:1]
	for _, id := range ids[1:] {
		if id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return out
}
