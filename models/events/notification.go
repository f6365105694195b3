package events

import (
	"fmt"
	"strings"
	"time"
)

// NotificationType 通知种类，同时决定 Kafka 投递的主题
type NotificationType string

const (
	NotificationReply           NotificationType = "reply"
	NotificationReport          NotificationType = "report"
	NotificationApprovalRequest NotificationType = "approval_request"
)

// Rendered 是通知渲染后的投递内容
type Rendered struct {
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
}

// Notification 是核心向外发出的通知，投递方式由 Notifier 实现决定
type Notification interface {
	Type() NotificationType
	Render() Rendered
}

// ReplyNotification 帖子收到顶层回应时通知作者
type ReplyNotification struct {
	PostID         uint64 `json:"postID"`
	PostSlug       string `json:"postSlug"`
	PostTitle      string `json:"postTitle"`
	AuthorEmail    string `json:"authorEmail"`
	AuthorUsername string `json:"authorUsername"`
	ResponderName  string `json:"responderName"`
	MessageID      uint64 `json:"messageID"`
	MessageExcerpt string `json:"messageExcerpt"`
	PostURL        string `json:"postURL"`
}

func (n ReplyNotification) Type() NotificationType { return NotificationReply }

func (n ReplyNotification) Render() Rendered {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", n.AuthorUsername)
	fmt.Fprintf(&b, "%s responded to your post \"%s\":\n\n", n.ResponderName, n.PostTitle)
	fmt.Fprintf(&b, "%s\n\n", n.MessageExcerpt)
	if n.PostURL != "" {
		fmt.Fprintf(&b, "View the conversation: %s\n", n.PostURL)
	}
	return Rendered{
		Recipients: []string{n.AuthorEmail},
		Subject:    fmt.Sprintf("New response to your post: %s", n.PostTitle),
		Body:       b.String(),
	}
}

// ReportNotification 帖子被举报时通知版主，附带一次性封禁/解封链接
type ReportNotification struct {
	PostID           uint64   `json:"postID"`
	PostSlug         string   `json:"postSlug"`
	PostTitle        string   `json:"postTitle"`
	ReporterUsername string   `json:"reporterUsername"`
	BanURL           string   `json:"banURL"`
	UnbanURL         string   `json:"unbanURL"`
	Recipients       []string `json:"recipients"`
}

func (n ReportNotification) Type() NotificationType { return NotificationReport }

func (n ReportNotification) Render() Rendered {
	var b strings.Builder
	fmt.Fprintf(&b, "Post \"%s\" (%s) was reported by %s.\n\n", n.PostTitle, n.PostSlug, n.ReporterUsername)
	fmt.Fprintf(&b, "Ban the post: %s\n", n.BanURL)
	fmt.Fprintf(&b, "Unban the post: %s\n", n.UnbanURL)
	return Rendered{
		Recipients: n.Recipients,
		Subject:    fmt.Sprintf("Post reported: %s", n.PostTitle),
		Body:       b.String(),
	}
}

// ApprovalRequestNotification 版主申请社区审核时通知管理员
type ApprovalRequestNotification struct {
	CommunityID       uint64   `json:"communityID"`
	CommunitySlug     string   `json:"communitySlug"`
	CommunityTitle    string   `json:"communityTitle"`
	ModeratorUsername string   `json:"moderatorUsername"`
	ApproveURL        string   `json:"approveURL"`
	Recipients        []string `json:"recipients"`
}

func (n ApprovalRequestNotification) Type() NotificationType { return NotificationApprovalRequest }

func (n ApprovalRequestNotification) Render() Rendered {
	var b strings.Builder
	fmt.Fprintf(&b, "%s requested approval for community \"%s\" (%s).\n\n", n.ModeratorUsername, n.CommunityTitle, n.CommunitySlug)
	fmt.Fprintf(&b, "Approve the community: %s\n", n.ApproveURL)
	return Rendered{
		Recipients: n.Recipients,
		Subject:    fmt.Sprintf("Community approval request: %s", n.CommunityTitle),
		Body:       b.String(),
	}
}

// NotificationEvent 是通知在 Kafka / Webhook 上的统一载荷
type NotificationEvent struct {
	EventID   string           `json:"eventID"`
	Timestamp time.Time        `json:"timestamp"`
	Type      NotificationType `json:"type"`
	Rendered
	Payload Notification `json:"payload"`
}
