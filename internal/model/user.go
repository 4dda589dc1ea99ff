package model

import "time"

// User 用户（仅信任圈与 feed 展示所需字段）
type User struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Username    string    `json:"username" gorm:"type:varchar(64);uniqueIndex;not null"`
	DisplayName string    `json:"display_name" gorm:"type:varchar(128)"`
	Email       string    `json:"-" gorm:"type:varchar(255);index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }
