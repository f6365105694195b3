package entities

import "time"

// BaseModel 所有自增主键实体共用的字段。
// 本服务的删除均为物理删除 (级联由服务层在事务内完成)，因此不包含 DeletedAt。
type BaseModel struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}
