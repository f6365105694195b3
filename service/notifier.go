package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/metrics"
	"github.com/Xushengqwer/community_service/models/events"
)

// Notifier 是通知投递的唯一出口。
// 实现只负责"尽力送达"，调用方不会因为投递失败而回滚主操作。
type Notifier interface {
	Notify(ctx context.Context, n events.Notification) error
}

// NewNotificationEvent 把通知包装成带 EventID/Timestamp 的投递载荷
func NewNotificationEvent(n events.Notification) events.NotificationEvent {
	return events.NotificationEvent{
		EventID:   uuid.NewString(),
		Timestamp: time.Now(),
		Type:      n.Type(),
		Rendered:  n.Render(),
		Payload:   n,
	}
}

// LogNotifier 只把通知写进日志，未配置 Kafka 和 Webhook 时使用
type LogNotifier struct {
	logger *core.ZapLogger
}

func NewLogNotifier(logger *core.ZapLogger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(_ context.Context, n events.Notification) error {
	r := n.Render()
	l.logger.Info("通知 (仅记录日志)",
		zap.String("type", string(n.Type())),
		zap.Strings("recipients", r.Recipients),
		zap.String("subject", r.Subject),
	)
	return nil
}

// WebhookNotifier 以 JSON POST 的方式把通知推给外部投递服务 (邮件网关等)
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *core.ZapLogger
}

// NewWebhookNotifier 使用 otelhttp 包装的 Transport，出站请求会带上追踪上下文
func NewWebhookNotifier(url string, timeout time.Duration, logger *core.ZapLogger) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{
		url: url,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

func (w *WebhookNotifier) Notify(ctx context.Context, n events.Notification) error {
	body, err := json.Marshal(NewNotificationEvent(n))
	if err != nil {
		return fmt.Errorf("序列化通知失败: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("构造 webhook 请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("调用通知 webhook 失败: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("通知 webhook 返回状态码 %d: %s", resp.StatusCode, string(msg))
	}
	w.logger.Debug("通知已推送到 webhook", zap.String("type", string(n.Type())))
	return nil
}

// MultiNotifier 依次投递给所有下游，汇总全部错误
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, n events.Notification) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ErrNotifierClosed 表示 AsyncNotifier 已进入关停流程，不再接收新通知
var ErrNotifierClosed = errors.New("通知出口已关闭")

// AsyncNotifier 在后台 goroutine 中投递通知，Notify 立即返回。
// 所有投递都被计入 WaitGroup，关停时先 Drain 再关闭下游的 Kafka 生产者。
type AsyncNotifier struct {
	next    Notifier
	logger  *core.ZapLogger
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewAsyncNotifier(next Notifier, logger *core.ZapLogger) *AsyncNotifier {
	return &AsyncNotifier{next: next, logger: logger, timeout: 30 * time.Second}
}

func (a *AsyncNotifier) Notify(_ context.Context, n events.Notification) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrNotifierClosed
	}
	a.wg.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.wg.Done()
		// 请求 context 会随响应结束而取消，这里使用独立的后台 context
		bgCtx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		if err := a.next.Notify(bgCtx, n); err != nil {
			metrics.NotificationFailures.WithLabelValues(string(n.Type())).Inc()
			a.logger.Error("发送通知失败",
				zap.String("type", string(n.Type())),
				zap.Error(err),
			)
		}
	}()
	return nil
}

// Drain 拒绝新的通知并等待在途投递完成，ctx 到期时返回其错误
func (a *AsyncNotifier) Drain(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// dispatch 把通知交给投递出口，失败只记录日志和指标，不影响主流程。
// 服务端装配时传入的是 AsyncNotifier，这里不会阻塞请求。
func dispatch(logger *core.ZapLogger, notifier Notifier, n events.Notification) {
	if notifier == nil {
		return
	}
	if err := notifier.Notify(context.Background(), n); err != nil {
		metrics.NotificationFailures.WithLabelValues(string(n.Type())).Inc()
		logger.Error("发送通知失败",
			zap.String("type", string(n.Type())),
			zap.Error(err),
		)
	}
}

// NotifyOptions 通知内容需要的站点信息和收件人
type NotifyOptions struct {
	// PublicBaseURL 用于拼接帖子链接和一键审核链接，例如 https://example.com
	PublicBaseURL       string
	ModeratorRecipients []string
	AdminRecipients     []string
}

func (o NotifyOptions) postURL(slug string) string {
	if o.PublicBaseURL == "" {
		return ""
	}
	return strings.TrimRight(o.PublicBaseURL, "/") + "/posts/" + slug
}
