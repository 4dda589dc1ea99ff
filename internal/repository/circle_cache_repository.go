package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/trustcircle/internal/model"
	"github.com/d60-Lab/trustcircle/pkg/logger"
)

// CircleCacheRepository 以 circle_cache 表实现的信任圈缓存
type CircleCacheRepository interface {
	Get(ctx context.Context, userID int64) (*model.CircleContext, bool, error)
	Put(ctx context.Context, userID int64, c *model.CircleContext) error
	Invalidate(ctx context.Context, userIDs ...int64) error
}

type circleCacheRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewCircleCacheRepository(db *gorm.DB) CircleCacheRepository {
	return &circleCacheRepository{db: db, now: time.Now}
}

func (r *circleCacheRepository) Get(ctx context.Context, userID int64) (*model.CircleContext, bool, error) {
	var row model.CircleCache
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var c model.CircleContext
	if err := json.Unmarshal(row.Payload, &c); err != nil {
		// 损坏的缓存按未命中处理，下次写入覆盖
		logger.Warn("circle cache payload corrupt, treating as miss", zap.Int64("user_id", userID), zap.Error(err))
		return nil, false, nil
	}
	return &c, true, nil
}

func (r *circleCacheRepository) Put(ctx context.Context, userID int64, c *model.CircleContext) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	row := model.CircleCache{UserID: userID, Payload: payload, UpdatedAt: r.now()}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&row).Error
}

func (r *circleCacheRepository) Invalidate(ctx context.Context, userIDs ...int64) error {
	if len(userIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Delete(&model.CircleCache{}).Error
}
