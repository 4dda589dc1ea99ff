package service

import (
	"context"
	"fmt"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/d60-Lab/trustcircle/internal/model"
	"github.com/d60-Lab/trustcircle/internal/repository"
	"github.com/d60-Lab/trustcircle/pkg/logger"
)

// ContextCache 信任圈缓存；db 与 redis 两种实现
type ContextCache interface {
	Get(ctx context.Context, userID int64) (*model.CircleContext, bool, error)
	Put(ctx context.Context, userID int64, c *model.CircleContext) error
	Invalidate(ctx context.Context, userIDs ...int64) error
}

// Refresher 在批量变更后重建指定用户的信任圈缓存
type Refresher interface {
	Refresh(ctx context.Context, userIDs ...int64)
}

// LinkService 双向关系的唯一写入口。任何增删都会使两端用户的缓存失效。
type LinkService interface {
	// CreateLink 已存在则直接成功；a==b 或 id<=0 返回 ErrInvalidArgument；
	// 存储失败回滚并返回 false，不返回错误
	CreateLink(ctx context.Context, a, b int64) (bool, error)
	// RemoveLink 不论关系是否存在都删除两行
	RemoveLink(ctx context.Context, a, b int64) (bool, error)
	DirectPeers(ctx context.Context, userID int64) ([]int64, error)
	// ImportLinks 批量建立关系并为涉及的用户重建缓存
	ImportLinks(ctx context.Context, pairs []model.LinkPair) (*ImportResult, error)
}

// ImportResult 批量导入统计
type ImportResult struct {
	Created  int `json:"created"`
	Existing int `json:"existing"`
	Failed   int `json:"failed"`
	Touched  int `json:"touched"`
}

type linkService struct {
	links     repository.PeerLinkRepository
	cache     ContextCache
	refresher Refresher
}

func NewLinkService(links repository.PeerLinkRepository, cache ContextCache, refresher Refresher) LinkService {
	return &linkService{links: links, cache: cache, refresher: refresher}
}

func validatePair(a, b int64) error {
	if a <= 0 || b <= 0 {
		return fmt.Errorf("%w: user ids must be positive (got %d, %d)", ErrInvalidArgument, a, b)
	}
	if a == b {
		return fmt.Errorf("%w: cannot link user %d to itself", ErrInvalidArgument, a)
	}
	return nil
}

type linkOutcome int

const (
	linkFailed linkOutcome = iota
	linkExisted
	linkCreated
)

func (s *linkService) CreateLink(ctx context.Context, a, b int64) (bool, error) {
	if err := validatePair(a, b); err != nil {
		return false, err
	}
	return s.createLink(ctx, a, b) != linkFailed, nil
}

func (s *linkService) createLink(ctx context.Context, a, b int64) linkOutcome {
	exists, err := s.links.Exists(ctx, a, b)
	if err != nil {
		s.storeFailure("peer link lookup failed", a, b, err)
		return linkFailed
	}
	if exists {
		return linkExisted
	}
	if err := s.links.CreatePair(ctx, a, b); err != nil {
		s.storeFailure("peer link create failed, rolled back", a, b, err)
		return linkFailed
	}
	s.invalidate(ctx, a, b)
	return linkCreated
}

func (s *linkService) RemoveLink(ctx context.Context, a, b int64) (bool, error) {
	if err := validatePair(a, b); err != nil {
		return false, err
	}
	if err := s.links.DeletePair(ctx, a, b); err != nil {
		s.storeFailure("peer link remove failed, rolled back", a, b, err)
		return false, nil
	}
	s.invalidate(ctx, a, b)
	return true, nil
}

func (s *linkService) DirectPeers(ctx context.Context, userID int64) ([]int64, error) {
	if userID <= 0 {
		return []int64{}, nil
	}
	peers, err := s.links.ListPeers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list peers of %d: %v", ErrStoreFailure, userID, err)
	}
	if peers == nil {
		peers = []int64{}
	}
	return peers, nil
}

func (s *linkService) ImportLinks(ctx context.Context, pairs []model.LinkPair) (*ImportResult, error) {
	for i := range pairs {
		if err := validate.Struct(pairs[i]); err != nil {
			return nil, fmt.Errorf("%w: pair %d: %v", ErrInvalidArgument, i, err)
		}
	}

	res := &ImportResult{}
	touched := make(map[int64]struct{})
	order := make([]int64, 0, len(pairs)*2)
	for _, p := range pairs {
		switch s.createLink(ctx, p.UserA, p.UserB) {
		case linkCreated:
			res.Created++
			for _, id := range []int64{p.UserA, p.UserB} {
				if _, ok := touched[id]; !ok {
					touched[id] = struct{}{}
					order = append(order, id)
				}
			}
		case linkExisted:
			res.Existing++
		default:
			res.Failed++
		}
	}
	res.Touched = len(order)
	if s.refresher != nil && len(order) > 0 {
		s.refresher.Refresh(ctx, order...)
	}
	logger.Info("peer links imported",
		zap.Int("created", res.Created), zap.Int("existing", res.Existing),
		zap.Int("failed", res.Failed), zap.Int("touched", res.Touched))
	return res, nil
}

// invalidate 在关系事务提交之后执行；两条语句之间存在短暂窗口，
// 并发读者可能写回旧的上下文，下一次变更时自愈
func (s *linkService) invalidate(ctx context.Context, a, b int64) {
	if err := s.cache.Invalidate(ctx, a, b); err != nil {
		logger.Warn("circle cache invalidate failed",
			zap.Int64("user_a", a), zap.Int64("user_b", b), zap.Error(err))
	}
}

func (s *linkService) storeFailure(msg string, a, b int64, err error) {
	logger.Error(msg, zap.Int64("user_a", a), zap.Int64("user_b", b), zap.Error(err))
	sentry.CaptureException(fmt.Errorf("%w: %s (%d, %d): %v", ErrStoreFailure, msg, a, b, err))
}
