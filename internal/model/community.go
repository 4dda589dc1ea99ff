package model

import "time"

const (
	PrivacyPublic  = "public"
	PrivacyPrivate = "private"
)

const (
	MemberRoleHost   = "host"
	MemberRoleMember = "member"

	MemberStatusActive  = "active"
	MemberStatusPending = "pending"
	MemberStatusLeft    = "left"
)

// Community 社区
type Community struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(128);not null"`
	CreatorID int64     `json:"creator_id" gorm:"index:idx_community_creator;not null"`
	Privacy   string    `json:"privacy" gorm:"type:varchar(16);not null;default:public"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Community) TableName() string { return "communities" }

// CommunityMember 社区成员关系
type CommunityMember struct {
	ID          int64     `gorm:"primaryKey"`
	CommunityID int64     `gorm:"not null;uniqueIndex:ux_member_pair"`
	UserID      int64     `gorm:"not null;uniqueIndex:ux_member_pair;index:idx_member_user"`
	Role        string    `gorm:"type:varchar(16);not null;default:member"`
	Status      string    `gorm:"type:varchar(16);not null;default:active"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (CommunityMember) TableName() string { return "community_members" }
