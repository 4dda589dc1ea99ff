package model

import (
	"time"

	"gorm.io/datatypes"
)

// Circle 信任圈名称
type Circle string

const (
	CircleInner    Circle = "inner"    // 1 跳
	CircleTrusted  Circle = "trusted"  // 1-2 跳
	CircleExtended Circle = "extended" // 1-3 跳
	CircleAll      Circle = "all"      // 不限制
)

// Valid 是否为已知的圈名
func (c Circle) Valid() bool {
	switch c {
	case CircleInner, CircleTrusted, CircleExtended, CircleAll:
		return true
	}
	return false
}

// CircleContext 某个用户的三层信任圈，各层按 id 升序且互不相交
type CircleContext struct {
	Inner    []int64 `json:"inner"`
	Trusted  []int64 `json:"trusted"`
	Extended []int64 `json:"extended"`
}

// EmptyCircleContext 游客/无效用户使用的空上下文
func EmptyCircleContext() *CircleContext {
	return &CircleContext{Inner: []int64{}, Trusted: []int64{}, Extended: []int64{}}
}

// Size 三层成员总数
func (c *CircleContext) Size() int {
	return len(c.Inner) + len(c.Trusted) + len(c.Extended)
}

// CircleCache 信任圈缓存表，按 user_id upsert
type CircleCache struct {
	UserID    int64          `gorm:"primaryKey;autoIncrement:false"`
	Payload   datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}

func (CircleCache) TableName() string { return "circle_cache" }
