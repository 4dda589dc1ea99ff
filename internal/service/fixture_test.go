package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/trustcircle/internal/model"
	"github.com/d60-Lab/trustcircle/internal/repository"
	"github.com/d60-Lab/trustcircle/internal/testutil"
)

var errBoom = errors.New("boom")

// stack 按 cmd/server 的顺序装配：peers -> graph -> links
type stack struct {
	db            *gorm.DB
	peers         repository.PeerLinkRepository
	cache         repository.CircleCacheRepository
	graph         CircleGraph
	links         LinkService
	communities   repository.CommunityRepository
	conversations repository.ConversationRepository
	events        repository.EventRepository
	users         repository.UserRepository
	limits        PageLimits
}

func newStack(t *testing.T) *stack {
	t.Helper()
	db := testutil.NewDB(t)
	s := &stack{
		db:            db,
		peers:         repository.NewPeerLinkRepository(db),
		cache:         repository.NewCircleCacheRepository(db),
		communities:   repository.NewCommunityRepository(db),
		conversations: repository.NewConversationRepository(db),
		events:        repository.NewEventRepository(db),
		users:         repository.NewUserRepository(db),
		limits:        PageLimits{Default: 20, Max: 100},
	}
	s.graph = NewCircleService(s.peers, s.cache, DefaultMaxHops)
	s.links = NewLinkService(s.peers, s.cache, SyncRefresher{Graph: s.graph})
	return s
}

func (s *stack) link(t *testing.T, pairs ...[2]int64) {
	t.Helper()
	for _, p := range pairs {
		ok, err := s.links.CreateLink(context.Background(), p[0], p[1])
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func (s *stack) community(t *testing.T, creator int64, privacy string) *model.Community {
	t.Helper()
	c := &model.Community{Name: "c", CreatorID: creator, Privacy: privacy}
	require.NoError(t, s.communities.Create(context.Background(), c))
	return c
}

func (s *stack) feed() FeedAssembler {
	return NewFeedService(s.graph, s.communities, s.conversations, s.users, s.limits)
}

func (s *stack) scope() CommunityScopeResolver {
	return NewScopeService(s.graph, s.communities, s.limits)
}

// spyCache 记录失效调用
type spyCache struct {
	ContextCache
	mu          sync.Mutex
	invalidated []int64
	getErr      error
}

func (c *spyCache) Get(ctx context.Context, userID int64) (*model.CircleContext, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	return c.ContextCache.Get(ctx, userID)
}

func (c *spyCache) Invalidate(ctx context.Context, userIDs ...int64) error {
	c.mu.Lock()
	c.invalidated = append(c.invalidated, userIDs...)
	c.mu.Unlock()
	return c.ContextCache.Invalidate(ctx, userIDs...)
}

// failingLinks 写入失败的关系仓储
type failingLinks struct {
	repository.PeerLinkRepository
}

func (failingLinks) CreatePair(context.Context, int64, int64) error { return errBoom }
func (failingLinks) DeletePair(context.Context, int64, int64) error { return errBoom }

// countingCommunities 统计 CreatedBy 调用
type countingCommunities struct {
	repository.CommunityRepository
	createdByCalls [][]int64
}

func (c *countingCommunities) CreatedBy(ctx context.Context, creatorIDs []int64) ([]int64, error) {
	c.createdByCalls = append(c.createdByCalls, creatorIDs)
	return c.CommunityRepository.CreatedBy(ctx, creatorIDs)
}

// recordingRefresher 记录请求重建的用户
type recordingRefresher struct {
	ids []int64
}

func (r *recordingRefresher) Refresh(_ context.Context, userIDs ...int64) {
	r.ids = append(r.ids, userIDs...)
}
