package repository

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/trustcircle/internal/model"
)

// CommunityRepository 社区与成员关系（信任圈子系统只读为主）
type CommunityRepository interface {
	// Create 创建社区并把创建者登记为 host
	Create(ctx context.Context, c *model.Community) error
	GetByID(ctx context.Context, id int64) (*model.Community, error)
	// CreatedBy 创建者在给定集合内的社区 id
	CreatedBy(ctx context.Context, creatorIDs []int64) ([]int64, error)
	// HostedBy 用户以 host 身份且状态 active 的社区 id
	HostedBy(ctx context.Context, userID int64) ([]int64, error)
	// MemberCommunityIDs 用户当前 active 的全部社区
	MemberCommunityIDs(ctx context.Context, userID int64) ([]int64, error)
	IsActiveMember(ctx context.Context, communityID, userID int64) (bool, error)
	// EnsureMember 不存在则以 role 加入；已存在则仅恢复为 active，不改角色
	EnsureMember(ctx context.Context, communityID, userID int64, role string) error
	ListVisible(ctx context.Context, q CommunityQuery) ([]*model.Community, error)
}

// CommunityQuery 社区目录查询
type CommunityQuery struct {
	// IDs 为 nil 表示不限制；非 nil 的空切片表示无结果
	IDs []int64
	// MemberIDs 私有社区只有在此集合内才可见
	MemberIDs []int64
	Offset    int
	Limit     int
}

type communityRepository struct{ db *gorm.DB }

func NewCommunityRepository(db *gorm.DB) CommunityRepository { return &communityRepository{db: db} }

func (r *communityRepository) Create(ctx context.Context, c *model.Community) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		m := &model.CommunityMember{
			CommunityID: c.ID,
			UserID:      c.CreatorID,
			Role:        model.MemberRoleHost,
			Status:      model.MemberStatusActive,
		}
		return tx.Create(m).Error
	})
}

func (r *communityRepository) GetByID(ctx context.Context, id int64) (*model.Community, error) {
	var c model.Community
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *communityRepository) CreatedBy(ctx context.Context, creatorIDs []int64) ([]int64, error) {
	if len(creatorIDs) == 0 {
		return []int64{}, nil
	}
	ids := make([]int64, 0)
	for _, batch := range chunkIDs(creatorIDs) {
		var part []int64
		if err := r.db.WithContext(ctx).
			Model(&model.Community{}).
			Where("creator_id IN ?", batch).
			Pluck("id", &part).Error; err != nil {
			return nil, err
		}
		ids = append(ids, part...)
	}
	// 每个社区只有一个创建者，分批结果互不重复
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *communityRepository) HostedBy(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&model.CommunityMember{}).
		Where("user_id = ? AND role = ? AND status = ?", userID, model.MemberRoleHost, model.MemberStatusActive).
		Order("community_id").
		Pluck("community_id", &ids).Error
	return ids, err
}

func (r *communityRepository) MemberCommunityIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&model.CommunityMember{}).
		Where("user_id = ? AND status = ?", userID, model.MemberStatusActive).
		Order("community_id").
		Pluck("community_id", &ids).Error
	return ids, err
}

func (r *communityRepository) IsActiveMember(ctx context.Context, communityID, userID int64) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.CommunityMember{}).
		Where("community_id = ? AND user_id = ? AND status = ?", communityID, userID, model.MemberStatusActive).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *communityRepository) EnsureMember(ctx context.Context, communityID, userID int64, role string) error {
	m := &model.CommunityMember{CommunityID: communityID, UserID: userID, Role: role, Status: model.MemberStatusActive}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "community_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(m).Error
}

func (r *communityRepository) ListVisible(ctx context.Context, q CommunityQuery) ([]*model.Community, error) {
	var res []*model.Community
	if q.IDs != nil && len(q.IDs) == 0 {
		return res, nil
	}
	if len(q.IDs) <= inBatchSize {
		err := r.visibleQuery(ctx, q, q.IDs).Offset(q.Offset).Limit(q.Limit).Find(&res).Error
		return res, err
	}

	for _, batch := range chunkIDs(q.IDs) {
		var part []*model.Community
		tx := r.visibleQuery(ctx, q, batch)
		if q.Limit > 0 {
			tx = tx.Limit(q.Offset + q.Limit)
		}
		if err := tx.Find(&part).Error; err != nil {
			return nil, err
		}
		res = append(res, part...)
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].CreatedAt.After(res[j].CreatedAt)
		}
		return res[i].ID > res[j].ID
	})
	return pageSlice(res, q.Offset, q.Limit), nil
}

func (r *communityRepository) visibleQuery(ctx context.Context, q CommunityQuery, ids []int64) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&model.Community{})
	if ids != nil {
		tx = tx.Where("id IN ?", ids)
	}
	if len(q.MemberIDs) > 0 {
		tx = tx.Where("privacy = ? OR id IN ?", model.PrivacyPublic, q.MemberIDs)
	} else {
		tx = tx.Where("privacy = ?", model.PrivacyPublic)
	}
	return tx.Order("created_at DESC, id DESC")
}
