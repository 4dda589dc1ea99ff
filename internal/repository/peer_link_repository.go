package repository

import (
	"context"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/trustcircle/internal/model"
)

// PeerLinkRepository 双向关系存储。每条无向边落两行。
type PeerLinkRepository interface {
	// CreatePair 事务内写入 (a→b)、(b→a)，已存在的行忽略
	CreatePair(ctx context.Context, a, b int64) error
	// DeletePair 事务内删除两行，不存在也不报错
	DeletePair(ctx context.Context, a, b int64) error
	Exists(ctx context.Context, a, b int64) (bool, error)
	ListPeers(ctx context.Context, userID int64) ([]int64, error)
	// ListPeersOf 一次查询返回多个用户的邻接表，用于按层 BFS
	ListPeersOf(ctx context.Context, userIDs []int64) (map[int64][]int64, error)
}

type peerLinkRepository struct {
	db *gorm.DB
}

func NewPeerLinkRepository(db *gorm.DB) PeerLinkRepository { return &peerLinkRepository{db: db} }

func (r *peerLinkRepository) CreatePair(ctx context.Context, a, b int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows := []model.PeerLink{{UserID: a, PeerID: b}, {UserID: b, PeerID: a}}
		// 幂等：重复建立不报错
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	})
}

func (r *peerLinkRepository) DeletePair(ctx context.Context, a, b int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND peer_id = ?", a, b).Delete(&model.PeerLink{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ? AND peer_id = ?", b, a).Delete(&model.PeerLink{}).Error
	})
}

func (r *peerLinkRepository) Exists(ctx context.Context, a, b int64) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.PeerLink{}).
		Where("user_id = ? AND peer_id = ?", a, b).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *peerLinkRepository) ListPeers(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&model.PeerLink{}).
		Where("user_id = ?", userID).
		Order("peer_id").
		Pluck("peer_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *peerLinkRepository) ListPeersOf(ctx context.Context, userIDs []int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	for _, batch := range chunkIDs(userIDs) {
		var rows []model.PeerLink
		if err := r.db.WithContext(ctx).
			Select("user_id", "peer_id").
			Where("user_id IN ?", batch).
			Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			out[row.UserID] = append(out[row.UserID], row.PeerID)
		}
	}
	for _, peers := range out {
		sort.Slice(peers, func(i, j int) bool { return peers[i] < peers[j] })
	}
	return out, nil
}
