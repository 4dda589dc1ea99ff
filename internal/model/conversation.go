package model

import "time"

// Conversation 会话（feed 的内容主体）。
// UpdatedAt 为空表示从未被回复，排序按 coalesce(updated_at, created_at)。
type Conversation struct {
	ID          int64      `json:"id" gorm:"primaryKey"`
	AuthorID    int64      `json:"author_id" gorm:"index:idx_conv_author;not null"`
	CommunityID *int64     `json:"community_id,omitempty" gorm:"index:idx_conv_community"`
	EventID     *int64     `json:"event_id,omitempty" gorm:"index:idx_conv_event"`
	Title       string     `json:"title" gorm:"type:varchar(255);not null"`
	Content     string     `json:"content" gorm:"type:text"`
	Privacy     string     `json:"privacy" gorm:"type:varchar(16);not null;default:public"`
	ReplyCount  int        `json:"reply_count" gorm:"not null;default:0"`
	CreatedAt   time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" gorm:"autoUpdateTime:false"`
}

func (Conversation) TableName() string { return "conversations" }

// LastActivity 最近活跃时间
func (c *Conversation) LastActivity() time.Time {
	if c.UpdatedAt != nil {
		return *c.UpdatedAt
	}
	return c.CreatedAt
}

// Reply 会话回复
type Reply struct {
	ID             int64     `json:"id" gorm:"primaryKey"`
	ConversationID int64     `json:"conversation_id" gorm:"index:idx_reply_conv;not null"`
	AuthorID       int64     `json:"author_id" gorm:"index;not null"`
	Content        string    `json:"content" gorm:"type:text;not null"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Reply) TableName() string { return "replies" }
