package mysql

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Xushengqwer/community_service/myErrors"
)

// translateError 把 GORM/驱动错误转换为仓库层通用错误。
// 未找到 -> myErrors.ErrRepoNotFound；唯一约束冲突 -> myErrors.ErrRepoDuplicate；其余原样返回。
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return myErrors.ErrRepoNotFound
	}
	if IsDuplicateKey(err) {
		return myErrors.ErrRepoDuplicate
	}
	return err
}

// IsDuplicateKey 判断是否为唯一约束冲突，兼容 MySQL / Postgres / SQLite
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, myErrors.ErrRepoDuplicate) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "Error 1062") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// forUpdate 为查询加 SELECT ... FOR UPDATE 行锁。
// SQLite 不支持该语法，且其写事务本身是串行的，直接跳过。
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector != nil && db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// notBlockedBy 排除 viewer 拉黑的作者，viewer 为空时不过滤
func notBlockedBy(viewerID, column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if viewerID == "" {
			return db
		}
		return db.Where(column+" NOT IN (SELECT blocked_id FROM user_blocks WHERE blocker_id = ?)", viewerID)
	}
}

// postNotHiddenBy 排除 viewer 个人隐藏的帖子
func postNotHiddenBy(viewerID, column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if viewerID == "" {
			return db
		}
		return db.Where(column+" NOT IN (SELECT post_id FROM hidden_posts WHERE user_id = ?)", viewerID)
	}
}

// messageNotHiddenBy 排除 viewer 个人隐藏的消息
func messageNotHiddenBy(viewerID, column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if viewerID == "" {
			return db
		}
		return db.Where(column+" NOT IN (SELECT message_id FROM hidden_messages WHERE user_id = ?)", viewerID)
	}
}
