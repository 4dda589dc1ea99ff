package model

import "time"

// PeerLink 双向信任关系的一条有向记录。
// A-B 之间的关系总是以 (A→B) 与 (B→A) 两行同时存在。
type PeerLink struct {
	ID        int64     `gorm:"primaryKey"`
	// ux_peer_pair = (user_id, peer_id)，避免重复边
	UserID    int64     `gorm:"not null;index:idx_peer_user;uniqueIndex:ux_peer_pair"`
	PeerID    int64     `gorm:"not null;uniqueIndex:ux_peer_pair"`
	CreatedAt time.Time
}

func (PeerLink) TableName() string { return "peer_links" }

// LinkPair 一条待建立的无向边
type LinkPair struct {
	UserA int64 `json:"user_a" validate:"required,gt=0"`
	UserB int64 `json:"user_b" validate:"required,gt=0,nefield=UserA"`
}
