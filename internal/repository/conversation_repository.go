package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/trustcircle/internal/model"
)

// FeedFilter 全局 feed 的可选收窄条件
type FeedFilter string

const (
	FilterNone        FeedFilter = ""
	FilterMyEvents    FeedFilter = "my_events"   // 当前用户创建的活动下的会话
	FilterAllEvents   FeedFilter = "all_events"  // 任意活动下的会话
	FilterCommunities FeedFilter = "communities" // 挂在社区下的会话
)

func (f FeedFilter) Valid() bool {
	switch f {
	case FilterNone, FilterMyEvents, FilterAllEvents, FilterCommunities:
		return true
	}
	return false
}

// FeedQuery 会话分页查询条件
type FeedQuery struct {
	ViewerID int64
	// AuthorIDs 为 nil 表示不限制作者
	AuthorIDs []int64
	// CommunityID > 0 时只查该社区
	CommunityID int64
	// ApplyPrivacy 为 true 时要求社区公开或 viewer 为成员
	ApplyPrivacy       bool
	MemberCommunityIDs []int64
	Filter             FeedFilter
	Offset             int
	Limit              int
}

type ConversationRepository interface {
	Create(ctx context.Context, c *model.Conversation) error
	GetByID(ctx context.Context, id int64) (*model.Conversation, error)
	// AddReply 写入回复并把会话的 updated_at 顶到回复时间
	AddReply(ctx context.Context, reply *model.Reply) error
	List(ctx context.Context, q FeedQuery) ([]*model.Conversation, error)
}

type conversationRepository struct{ db *gorm.DB }

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) Create(ctx context.Context, c *model.Conversation) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *conversationRepository) GetByID(ctx context.Context, id int64) (*model.Conversation, error) {
	var c model.Conversation
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *conversationRepository) AddReply(ctx context.Context, reply *model.Reply) error {
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(reply).Error; err != nil {
			return err
		}
		return tx.Model(&model.Conversation{}).
			Where("id = ?", reply.ConversationID).
			Updates(map[string]any{
				"updated_at":  reply.CreatedAt,
				"reply_count": gorm.Expr("reply_count + 1"),
			}).Error
	})
}

func (r *conversationRepository) List(ctx context.Context, q FeedQuery) ([]*model.Conversation, error) {
	var res []*model.Conversation
	if q.AuthorIDs != nil && len(q.AuthorIDs) == 0 {
		return res, nil
	}
	if len(q.AuthorIDs) <= inBatchSize {
		err := r.feedQuery(ctx, q, q.AuthorIDs).Offset(q.Offset).Limit(q.Limit).Find(&res).Error
		return res, err
	}

	// 作者集合超过单条语句的参数上限：每批取前 offset+limit 条，合并后再分页
	for _, batch := range chunkIDs(q.AuthorIDs) {
		var part []*model.Conversation
		tx := r.feedQuery(ctx, q, batch)
		if q.Limit > 0 {
			tx = tx.Limit(q.Offset + q.Limit)
		}
		if err := tx.Find(&part).Error; err != nil {
			return nil, err
		}
		res = append(res, part...)
	}
	sort.Slice(res, func(i, j int) bool {
		ai, aj := res[i].LastActivity(), res[j].LastActivity()
		if !ai.Equal(aj) {
			return ai.After(aj)
		}
		return res[i].ID > res[j].ID
	})
	return pageSlice(res, q.Offset, q.Limit), nil
}

func (r *conversationRepository) feedQuery(ctx context.Context, q FeedQuery, authorIDs []int64) *gorm.DB {
	tx := r.db.WithContext(ctx).
		Model(&model.Conversation{}).
		Select("conversations.*").
		Joins("LEFT JOIN communities ON communities.id = conversations.community_id")

	if authorIDs != nil {
		tx = tx.Where("conversations.author_id IN ?", authorIDs)
	}
	if q.CommunityID > 0 {
		tx = tx.Where("conversations.community_id = ?", q.CommunityID)
	}
	if q.ApplyPrivacy {
		sql, args := privacyCondition(q.ViewerID, q.MemberCommunityIDs)
		tx = tx.Where(sql, args...)
	}
	switch q.Filter {
	case FilterMyEvents:
		tx = tx.Where("conversations.event_id IN (?)",
			r.db.Model(&model.Event{}).Select("id").Where("author_id = ?", q.ViewerID))
	case FilterAllEvents:
		tx = tx.Where("conversations.event_id IS NOT NULL")
	case FilterCommunities:
		tx = tx.Where("conversations.community_id IS NOT NULL")
	}
	return tx.
		Order("COALESCE(conversations.updated_at, conversations.created_at) DESC").
		Order("conversations.id DESC")
}

// privacyCondition 社区公开或 viewer 为成员；不挂社区的会话按自身 privacy，作者本人总可见
func privacyCondition(viewerID int64, memberIDs []int64) (string, []any) {
	parts := []string{
		"(conversations.community_id IS NULL AND (conversations.privacy = ? OR conversations.author_id = ?))",
		"communities.privacy = ?",
	}
	args := []any{model.PrivacyPublic, viewerID, model.PrivacyPublic}
	if len(memberIDs) > 0 {
		parts = append(parts, "conversations.community_id IN ?")
		args = append(args, memberIDs)
	}
	return strings.Join(parts, " OR "), args
}
