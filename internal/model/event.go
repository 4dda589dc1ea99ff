package model

import "time"

// Event 活动，可挂在社区下
type Event struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"type:varchar(255);not null"`
	AuthorID    int64     `json:"author_id" gorm:"index:idx_event_author;not null"`
	CommunityID *int64    `json:"community_id,omitempty" gorm:"index"`
	Privacy     string    `json:"privacy" gorm:"type:varchar(16);not null;default:public"`
	StartsAt    time.Time `json:"starts_at"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Event) TableName() string { return "events" }
