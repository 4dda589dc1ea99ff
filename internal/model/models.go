package model

// All 需要迁移的全部模型
func All() []any {
	return []any{
		&User{},
		&PeerLink{},
		&CircleCache{},
		&Community{},
		&CommunityMember{},
		&Event{},
		&Conversation{},
		&Reply{},
	}
}
