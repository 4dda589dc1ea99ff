package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/trustcircle/internal/model"
)

func TestLinkService_CreateIsSymmetricAndIdempotent(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	ok, err := s.links.CreateLink(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.links.CreateLink(ctx, 2, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	var rows int64
	require.NoError(t, s.db.Model(&model.PeerLink{}).Count(&rows).Error)
	assert.EqualValues(t, 2, rows)

	p1, err := s.links.DirectPeers(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, p1)
	p2, err := s.links.DirectPeers(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, p2)
}

func TestLinkService_RejectsInvalidPairs(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	for _, tc := range []struct {
		name string
		a, b int64
	}{
		{"self", 3, 3},
		{"zero", 0, 3},
		{"negative", 3, -1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := s.links.CreateLink(ctx, tc.a, tc.b)
			assert.False(t, ok)
			assert.ErrorIs(t, err, ErrInvalidArgument)

			ok, err = s.links.RemoveLink(ctx, tc.a, tc.b)
			assert.False(t, ok)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestLinkService_InvalidatesBothEnds(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	spy := &spyCache{ContextCache: s.cache}
	links := NewLinkService(s.peers, spy, nil)

	_, err := links.CreateLink(ctx, 1, 2)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, spy.invalidated)

	// 已存在的关系不会再次失效
	spy.invalidated = nil
	_, err = links.CreateLink(ctx, 1, 2)
	require.NoError(t, err)
	assert.Empty(t, spy.invalidated)

	_, err = links.RemoveLink(ctx, 2, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, spy.invalidated)
}

func TestLinkService_RemoveIsNoopWhenMissing(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	s.link(t, [2]int64{1, 2})

	ok, err := s.links.RemoveLink(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.links.RemoveLink(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	peers, err := s.links.DirectPeers(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, peers)
}

func TestLinkService_StoreFailureReturnsFalse(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	spy := &spyCache{ContextCache: s.cache}
	links := NewLinkService(failingLinks{PeerLinkRepository: s.peers}, spy, nil)

	ok, err := links.CreateLink(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = links.RemoveLink(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Empty(t, spy.invalidated)
}

func TestLinkService_DirectPeersGuest(t *testing.T) {
	s := newStack(t)
	peers, err := s.links.DirectPeers(context.Background(), 0)
	require.NoError(t, err)
	assert.NotNil(t, peers)
	assert.Empty(t, peers)
}

func TestLinkService_ImportLinks(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	s.link(t, [2]int64{1, 2})
	rec := &recordingRefresher{}
	links := NewLinkService(s.peers, s.cache, rec)

	res, err := links.ImportLinks(ctx, []model.LinkPair{
		{UserA: 1, UserB: 2},
		{UserA: 2, UserB: 3},
		{UserA: 3, UserB: 4},
		{UserA: 4, UserB: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, &ImportResult{Created: 2, Existing: 2, Touched: 3}, res)
	assert.Equal(t, []int64{2, 3, 4}, rec.ids)
}

func TestLinkService_ImportLinksValidatesFirst(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	_, err := s.links.ImportLinks(ctx, []model.LinkPair{
		{UserA: 1, UserB: 2},
		{UserA: 5, UserB: 5},
	})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	// 校验失败时不写入任何关系
	peers, err := s.links.DirectPeers(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, peers)
}
