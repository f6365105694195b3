package tasks

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Xushengqwer/community_service/config"
	"github.com/Xushengqwer/community_service/constant"
	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/metrics"
	"github.com/Xushengqwer/community_service/repo/mysql"
)

// CounterReconcileTask 定时校准 vote_count / hidden_count。
// 投票和隐藏在事务内维护计数，这里负责发现并修正意外的漂移 (手工改库、历史数据等)。
type CounterReconcileTask struct {
	repo      mysql.CounterReconcileRepository
	counters  []mysql.CounterKind
	batchSize int
	schedule  string
	cron      *cron.Cron
	logger    *core.ZapLogger
}

// NewCounterReconcileTask 初始化并启动计数器校准定时任务。
func NewCounterReconcileTask(repo mysql.CounterReconcileRepository, taskCfg config.TaskConfig, logger *core.ZapLogger) *CounterReconcileTask {
	task := newCounterReconcileTask(repo, taskCfg, logger)
	task.startCronJob()
	return task
}

func newCounterReconcileTask(repo mysql.CounterReconcileRepository, taskCfg config.TaskConfig, logger *core.ZapLogger) *CounterReconcileTask {
	batchSize := taskCfg.BatchSize
	if batchSize <= 0 {
		batchSize = constant.DefaultReconcileBatchSize
	}
	schedule := taskCfg.ReconcileCron
	if schedule == "" {
		schedule = constant.CounterReconcileCronSpec
	}
	return &CounterReconcileTask{
		repo:      repo,
		counters:  []mysql.CounterKind{mysql.PostVoteCounter, mysql.PostHiddenCounter, mysql.MessageVoteCounter},
		batchSize: batchSize,
		schedule:  schedule,
		cron:      cron.New(),
		logger:    logger,
	}
}

func (t *CounterReconcileTask) startCronJob() {
	t.logger.Info("准备启动计数器校准定时任务", zap.String("schedule", t.schedule))

	entryID, err := t.cron.AddFunc(t.schedule, func() {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		fixed := t.RunOnce(ctx)
		t.logger.Info("计数器校准任务执行完毕", zap.Int("fixed", fixed), zap.Duration("duration", time.Since(startTime)))
	})
	if err != nil {
		t.logger.Fatal("添加计数器校准 cron 作业失败", zap.Error(err), zap.String("schedule", t.schedule))
	}

	t.cron.Start()
	t.logger.Info("计数器校准定时任务已启动", zap.Uint("cronEntryID", uint(entryID)))
}

// RunOnce 依次扫描每种计数器并修正漂移，返回修正的记录数。
// 单个计数器失败不影响其他计数器。
func (t *CounterReconcileTask) RunOnce(ctx context.Context) int {
	fixed := 0
	for _, kind := range t.counters {
		fixed += t.reconcile(ctx, kind)
	}
	return fixed
}

func (t *CounterReconcileTask) reconcile(ctx context.Context, kind mysql.CounterKind) int {
	var (
		afterID uint64
		fixed   int
	)
	for {
		if ctx.Err() != nil {
			t.logger.Warn("计数器校准被取消", zap.String("counter", kind.Name), zap.Uint64("afterID", afterID))
			return fixed
		}
		drifts, lastID, err := t.repo.FindDrift(ctx, kind, afterID, t.batchSize)
		if err != nil {
			t.logger.Error("扫描计数器漂移失败，中止该计数器的本轮校准", zap.String("counter", kind.Name), zap.Error(err))
			return fixed
		}
		if lastID == 0 {
			return fixed
		}
		if len(drifts) > 0 {
			for _, d := range drifts {
				t.logger.Warn("发现计数器漂移",
					zap.String("counter", kind.Name),
					zap.Uint64("id", d.ID),
					zap.Int64("stored", d.Stored),
					zap.Int64("actual", d.Actual),
				)
			}
			if err := t.repo.BatchFixCounters(ctx, kind, drifts); err != nil {
				t.logger.Error("修正计数器漂移部分失败", zap.String("counter", kind.Name), zap.Error(err))
			} else {
				fixed += len(drifts)
				metrics.CounterDrift.WithLabelValues(kind.Name).Add(float64(len(drifts)))
			}
		}
		afterID = lastID
	}
}

// Stop 停止调度，返回的 context 在正在执行的任务完成后关闭
func (t *CounterReconcileTask) Stop() context.Context {
	t.logger.Info("正在停止计数器校准定时任务...")
	return t.cron.Stop()
}
