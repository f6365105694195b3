package myErrors

import (
	"errors"
	"fmt"
)

// ErrCacheMiss 表示在缓存层未找到对应的键值
var ErrCacheMiss = errors.New("cache: key not found (miss)")

// 仓库层通用错误，服务层据此转换为业务错误
var (
	ErrRepoNotFound  = errors.New("repo: record not found")
	ErrRepoDuplicate = errors.New("repo: duplicate key")
)

// Kind 是对外暴露的稳定错误类别
type Kind string

const (
	KindNotFound             Kind = "NOT_FOUND"
	KindForbidden            Kind = "FORBIDDEN"
	KindUnauthorized         Kind = "UNAUTHORIZED"
	KindEmptyContent         Kind = "EMPTY_CONTENT"
	KindInvalidInput         Kind = "INVALID_INPUT"
	KindAlreadyVoted         Kind = "ALREADY_VOTED"
	KindAlreadyFollowing     Kind = "ALREADY_FOLLOWING"
	KindAlreadyBlocked       Kind = "ALREADY_BLOCKED"
	KindAlreadyReported      Kind = "ALREADY_REPORTED"
	KindAlreadyHidden        Kind = "ALREADY_HIDDEN"
	KindNoExistingVote       Kind = "NO_EXISTING_VOTE"
	KindNotFollowing         Kind = "NOT_FOLLOWING"
	KindNotBlocked           Kind = "NOT_BLOCKED"
	KindNotHidden            Kind = "NOT_HIDDEN"
	KindCommunityNotApproved Kind = "COMMUNITY_NOT_APPROVED"
	KindMissingParent        Kind = "MISSING_PARENT"
	KindInvalidActionToken   Kind = "INVALID_ACTION_TOKEN"
	KindInternal             Kind = "INTERNAL"
)

// DomainError 携带错误类别和可展示给调用方的消息。
// Err 为内部原因，仅用于日志，不会返回给客户端。
type DomainError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *DomainError) Unwrap() error { return e.Err }

// Is 按类别匹配，使 errors.Is(err, ErrNotFound) 对任意消息的 NotFound 都成立
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// New 创建一个业务错误
func New(kind Kind, message string) *DomainError {
	return &DomainError{Kind: kind, Message: message}
}

// Wrap 创建一个带内部原因的业务错误
func Wrap(kind Kind, message string, err error) *DomainError {
	return &DomainError{Kind: kind, Message: message, Err: err}
}

// 哨兵错误，仅用于 errors.Is 比较
var (
	ErrNotFound             = New(KindNotFound, "资源不存在")
	ErrForbidden            = New(KindForbidden, "无权执行该操作")
	ErrUnauthorized         = New(KindUnauthorized, "用户未登录")
	ErrEmptyContent         = New(KindEmptyContent, "内容不能为空")
	ErrInvalidInput         = New(KindInvalidInput, "请求参数无效")
	ErrAlreadyVoted         = New(KindAlreadyVoted, "已经投过相同的票")
	ErrAlreadyFollowing     = New(KindAlreadyFollowing, "已关注该社区")
	ErrAlreadyBlocked       = New(KindAlreadyBlocked, "已拉黑该用户")
	ErrAlreadyReported      = New(KindAlreadyReported, "已举报过该帖子")
	ErrAlreadyHidden        = New(KindAlreadyHidden, "已隐藏该帖子")
	ErrNoExistingVote       = New(KindNoExistingVote, "尚未投票")
	ErrNotFollowing         = New(KindNotFollowing, "未关注该社区")
	ErrNotBlocked           = New(KindNotBlocked, "未拉黑该用户")
	ErrNotHidden            = New(KindNotHidden, "未隐藏该帖子")
	ErrCommunityNotApproved = New(KindCommunityNotApproved, "社区尚未通过审核")
	ErrMissingParent        = New(KindMissingParent, "回复必须指定父消息")
	ErrInvalidActionToken   = New(KindInvalidActionToken, "操作令牌无效或已过期")
)

// KindOf 返回错误的类别，非 DomainError 一律视为内部错误
func KindOf(err error) Kind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// MessageOf 返回可以展示给调用方的消息
func MessageOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return "服务器内部错误"
}
