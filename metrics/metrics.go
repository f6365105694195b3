package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "community"

var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP 请求耗时",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// VotesTotal 按目标 (post/message) 与动作 (up/down/switch/remove) 统计投票
	VotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "votes_total",
		Help:      "投票操作次数",
	}, []string{"target", "action"})

	// MessagesCreatedTotal 按类型统计新消息，kind 取值 chain_root / reply
	MessagesCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_created_total",
		Help:      "新建消息数量",
	}, []string{"kind"})

	// NotificationFailures 统计投递失败的通知，type 为通知种类
	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_failures_total",
		Help:      "通知投递失败次数",
	}, []string{"type"})

	// SideEffectFailures 统计缓存失效、媒体清理等旁路操作的失败
	SideEffectFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "side_effect_failures_total",
		Help:      "旁路操作失败次数",
	}, []string{"op"})

	ModerationActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "moderation_actions_total",
		Help:      "审核动作执行次数",
	}, []string{"action", "source"})

	// CounterDrift 记录校准任务修正的计数漂移条数
	CounterDrift = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "counter_drift_corrected_total",
		Help:      "校准任务修正的计数漂移",
	}, []string{"counter"})

	FeedCacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_cache_results_total",
		Help:      "公共信息流缓存命中情况",
	}, []string{"result"})
)
