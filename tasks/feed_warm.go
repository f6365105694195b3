package tasks

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Xushengqwer/community_service/constant"
	"github.com/Xushengqwer/community_service/core"
)

// feedWarmer 由 service.FeedService 满足
type feedWarmer interface {
	WarmPublicFeed(ctx context.Context) (int, error)
}

// PublicFeedWarmTask 定时重建公共信息流缓存，使未登录用户的首屏总是命中缓存
type PublicFeedWarmTask struct {
	warmer   feedWarmer
	schedule string
	cron     *cron.Cron
	logger   *core.ZapLogger
}

// NewPublicFeedWarmTask 初始化并启动预热任务，启动时先执行一次
func NewPublicFeedWarmTask(warmer feedWarmer, schedule string, logger *core.ZapLogger) *PublicFeedWarmTask {
	if schedule == "" {
		schedule = constant.PublicFeedWarmCronSpec
	}
	task := &PublicFeedWarmTask{warmer: warmer, schedule: schedule, cron: cron.New(), logger: logger}
	task.RunOnce(context.Background())
	task.startCronJob()
	return task
}

func (t *PublicFeedWarmTask) startCronJob() {
	entryID, err := t.cron.AddFunc(t.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		t.RunOnce(ctx)
	})
	if err != nil {
		t.logger.Fatal("添加公共信息流预热 cron 作业失败", zap.Error(err), zap.String("schedule", t.schedule))
	}
	t.cron.Start()
	t.logger.Info("公共信息流预热定时任务已启动", zap.String("schedule", t.schedule), zap.Uint("cronEntryID", uint(entryID)))
}

// RunOnce 执行一次预热，失败只记录日志
func (t *PublicFeedWarmTask) RunOnce(ctx context.Context) {
	n, err := t.warmer.WarmPublicFeed(ctx)
	if err != nil {
		t.logger.Error("预热公共信息流失败", zap.Error(err))
		return
	}
	t.logger.Debug("公共信息流已预热", zap.Int("posts", n))
}

func (t *PublicFeedWarmTask) Stop() context.Context {
	t.logger.Info("正在停止公共信息流预热任务...")
	return t.cron.Stop()
}
