package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/trustcircle/internal/model"
	"github.com/d60-Lab/trustcircle/internal/testutil"
)

func withBatchSize(t *testing.T, n int) {
	t.Helper()
	prev := inBatchSize
	inBatchSize = n
	t.Cleanup(func() { inBatchSize = prev })
}

// seedHub 直接批量写入 hub 与 leaves 的双向边
func seedHub(t *testing.T, db *gorm.DB, hub int64, leaves []int64) {
	t.Helper()
	rows := make([]model.PeerLink, 0, len(leaves)*2)
	for _, l := range leaves {
		rows = append(rows, model.PeerLink{UserID: hub, PeerID: l}, model.PeerLink{UserID: l, PeerID: hub})
	}
	require.NoError(t, db.CreateInBatches(rows, 500).Error)
}

func idRange(from, n int64) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = from + int64(i)
	}
	return out
}

func TestChunkIDs(t *testing.T) {
	withBatchSize(t, 2)
	assert.Equal(t, [][]int64{{1, 2}, {3, 4}, {5}}, chunkIDs([]int64{1, 2, 3, 4, 5}))
	assert.Equal(t, [][]int64{{1, 2}}, chunkIDs([]int64{1, 2}))
	assert.Empty(t, chunkIDs(nil))
}

func TestPeerLinkRepository_ListPeersOfWideFrontier(t *testing.T) {
	withBatchSize(t, 100)
	db := testutil.NewDB(t)
	repo := NewPeerLinkRepository(db)
	ctx := context.Background()
	leaves := idRange(10, 1200)
	seedHub(t, db, 1, leaves)

	adj, err := repo.ListPeersOf(ctx, leaves)
	require.NoError(t, err)
	require.Len(t, adj, len(leaves))
	for _, l := range leaves {
		assert.Equal(t, []int64{1}, adj[l])
	}

	adj, err = repo.ListPeersOf(ctx, []int64{1})
	require.NoError(t, err)
	assert.Equal(t, leaves, adj[1])
}

func TestCommunityRepository_CreatedByManyCreators(t *testing.T) {
	withBatchSize(t, 2)
	db := testutil.NewDB(t)
	repo := NewCommunityRepository(db)
	ctx := context.Background()

	want := make([]int64, 0, 5)
	for creator := int64(1); creator <= 5; creator++ {
		c := &model.Community{Name: "c", CreatorID: creator}
		require.NoError(t, repo.Create(ctx, c))
		want = append(want, c.ID)
	}

	got, err := repo.CreatedBy(ctx, []int64{5, 4, 3, 2, 1, 9})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCommunityRepository_ListVisibleManyIDs(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCommunityRepository(db)
	ctx := context.Background()

	all := make([]int64, 0, 6)
	for i := 0; i < 6; i++ {
		c := &model.Community{Name: "c", CreatorID: 1, CreatedAt: base.Add(time.Duration(i%3) * time.Hour)}
		require.NoError(t, repo.Create(ctx, c))
		all = append(all, c.ID)
	}
	q := CommunityQuery{IDs: all[1:], Offset: 1, Limit: 3}
	single, err := repo.ListVisible(ctx, q)
	require.NoError(t, err)

	withBatchSize(t, 2)
	batched, err := repo.ListVisible(ctx, q)
	require.NoError(t, err)
	require.Len(t, batched, 3)
	for i := range single {
		assert.Equal(t, single[i].ID, batched[i].ID)
	}
}

func TestConversationRepository_ListManyAuthors(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewConversationRepository(db)
	ctx := context.Background()

	// 相同时间的会话按 id 倒序
	for author := int64(1); author <= 7; author++ {
		seedConversation(t, repo, &model.Conversation{AuthorID: author, CreatedAt: base.Add(time.Duration(author%3) * time.Minute)})
	}
	q := FeedQuery{ViewerID: 1, AuthorIDs: idRange(1, 6), ApplyPrivacy: true, Offset: 1, Limit: 4}
	single, err := repo.List(ctx, q)
	require.NoError(t, err)
	require.Len(t, single, 4)

	withBatchSize(t, 2)
	batched, err := repo.List(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, ids(single), ids(batched))

	q.Offset = 10
	rest, err := repo.List(ctx, q)
	require.NoError(t, err)
	assert.Empty(t, rest)
}
