package mysql

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/community_service/config"
	"github.com/Xushengqwer/community_service/constant"
	"github.com/Xushengqwer/community_service/core"
)

// CounterKind 标识一个缓存计数器: 所在表、列，以及从明细表重新计算它的子查询
type CounterKind struct {
	Name   string
	Table  string
	Column string
	// Actual 是以外层表行 (别名为表名) 为上下文的聚合子查询
	Actual string
}

var (
	PostVoteCounter = CounterKind{
		Name:   "post_vote_count",
		Table:  "posts",
		Column: "vote_count",
		Actual: "SELECT COALESCE(SUM(post_votes.value), 0) FROM post_votes WHERE post_votes.post_id = posts.id",
	}
	PostHiddenCounter = CounterKind{
		Name:   "post_hidden_count",
		Table:  "posts",
		Column: "hidden_count",
		Actual: "SELECT COUNT(*) FROM hidden_posts WHERE hidden_posts.post_id = posts.id",
	}
	MessageVoteCounter = CounterKind{
		Name:   "message_vote_count",
		Table:  "messages",
		Column: "vote_count",
		Actual: "SELECT COALESCE(SUM(message_votes.value), 0) FROM message_votes WHERE message_votes.message_id = messages.id",
	}
)

// CounterDrift 是一条存储值与明细聚合值不一致的记录
type CounterDrift struct {
	ID     uint64
	Stored int64
	Actual int64
}

// CounterReconcileRepository 定义计数器校准所需的批量数据库操作。
// 由后台定时任务调用，发现并修正 vote_count / hidden_count 与明细表之间的漂移。
type CounterReconcileRepository interface {
	// FindDrift 扫描 id > afterID 的 limit 行，返回其中发生漂移的记录以及本批最后一行的 ID。
	// lastID 为 0 表示已扫描完毕。
	FindDrift(ctx context.Context, kind CounterKind, afterID uint64, limit int) (drifts []CounterDrift, lastID uint64, err error)

	// BatchFixCounters 分批、并发地把漂移记录的计数重算为明细聚合值。
	// 允许部分批次失败，错误会被聚合后返回。
	BatchFixCounters(ctx context.Context, kind CounterKind, drifts []CounterDrift) error
}

type counterReconcileRepository struct {
	db      *gorm.DB
	logger  *core.ZapLogger
	taskCfg config.TaskConfig
}

// NewCounterReconcileRepository creates a new instance of CounterReconcileRepository.
func NewCounterReconcileRepository(db *gorm.DB, logger *core.ZapLogger, taskCfg config.TaskConfig) CounterReconcileRepository {
	return &counterReconcileRepository{db: db, logger: logger, taskCfg: taskCfg}
}

func (r *counterReconcileRepository) FindDrift(ctx context.Context, kind CounterKind, afterID uint64, limit int) ([]CounterDrift, uint64, error) {
	var rows []CounterDrift
	selectSQL := fmt.Sprintf("%s.id AS id, %s.%s AS stored, (%s) AS actual", kind.Table, kind.Table, kind.Column, kind.Actual)
	err := r.db.WithContext(ctx).Table(kind.Table).
		Select(selectSQL).
		Where(kind.Table+".id > ?", afterID).
		Order(kind.Table + ".id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		r.logger.Error("FindDrift: 扫描计数器失败", zap.String("counter", kind.Name), zap.Uint64("afterID", afterID), zap.Error(err))
		return nil, 0, err
	}
	if len(rows) == 0 {
		return nil, 0, nil
	}

	var drifts []CounterDrift
	for _, row := range rows {
		if row.Stored != row.Actual {
			drifts = append(drifts, row)
		}
	}
	return drifts, rows[len(rows)-1].ID, nil
}

// BatchFixCounters 实现了计数器批量修正的核心逻辑。
//
// 核心机制:
// 1. 数据分批: 根据配置 `taskCfg.BatchSize` 将漂移记录分割成小批次。
// 2. 并发处理: 根据配置 `taskCfg.ConcurrencyLevel` 启动 worker goroutine 池处理这些批次。
// 3. 数据库更新: 每个 worker 用一条 UPDATE ... SET col = (聚合子查询) WHERE id IN (...) 修正整批。
//    写入的是执行时刻的聚合值而非扫描时的快照，扫描与修正之间发生的投票不会被覆盖。
func (r *counterReconcileRepository) BatchFixCounters(ctx context.Context, kind CounterKind, drifts []CounterDrift) error {
	total := len(drifts)
	if total == 0 {
		r.logger.Debug("BatchFixCounters: 没有需要修正的计数", zap.String("counter", kind.Name))
		return nil
	}

	// --- 1. 加载并验证配置 ---
	batchSize := r.taskCfg.BatchSize
	if batchSize <= 0 {
		batchSize = constant.DefaultReconcileBatchSize
	}
	concurrencyLevel := r.taskCfg.ConcurrencyLevel
	if concurrencyLevel <= 0 {
		concurrencyLevel = 1 // 顺序执行
	}

	totalBatches := (total + batchSize - 1) / batchSize
	r.logger.Info("BatchFixCounters: 开始并发修正计数",
		zap.String("counter", kind.Name),
		zap.Int("总数", total),
		zap.Int("批大小", batchSize),
		zap.Int("并发数", concurrencyLevel),
		zap.Int("批次数", totalBatches),
	)

	// --- 2. 设置并发工作池 ---
	var wg sync.WaitGroup
	jobs := make(chan []uint64, concurrencyLevel)
	results := make(chan error, totalBatches)
	overallStartTime := time.Now()

	for i := 0; i < concurrencyLevel; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for batch := range jobs {
				select {
				case <-ctx.Done():
					results <- fmt.Errorf("worker %d: context cancelled: %w", workerID, ctx.Err())
					continue
				default:
				}
				results <- r.processBatch(ctx, kind, batch, workerID)
			}
		}(i)
	}

	// --- 3. 分发任务 ---
	go func() {
		defer close(jobs)
		for i := 0; i < total; i += batchSize {
			end := i + batchSize
			if end > total {
				end = total
			}
			ids := make([]uint64, 0, end-i)
			for _, d := range drifts[i:end] {
				ids = append(ids, d.ID)
			}
			select {
			case <-ctx.Done():
				r.logger.Warn("上下文取消，停止分发更多批次任务。", zap.Error(ctx.Err()))
				return
			case jobs <- ids:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// --- 4. 收集并聚合结果 ---
	var aggregatedErrors []string
	for err := range results {
		if err != nil {
			aggregatedErrors = append(aggregatedErrors, err.Error())
		}
	}

	r.logger.Info("BatchFixCounters: 修正完成",
		zap.String("counter", kind.Name),
		zap.Duration("总耗时", time.Since(overallStartTime)),
		zap.Int("失败批次数", len(aggregatedErrors)),
	)
	if len(aggregatedErrors) > 0 {
		return fmt.Errorf("计数修正过程中发生错误 (%d / %d 个批次失败): %s", len(aggregatedErrors), totalBatches, strings.Join(aggregatedErrors, "; "))
	}
	return nil
}

// processBatch 负责处理单个批次的数据库更新。
func (r *counterReconcileRepository) processBatch(ctx context.Context, kind CounterKind, ids []uint64, workerID int) error {
	start := time.Now()
	err := r.db.WithContext(ctx).Table(kind.Table).
		Where("id IN ?", ids).
		UpdateColumn(kind.Column, gorm.Expr("("+kind.Actual+")")).Error
	if err != nil {
		r.logger.Error("processBatch: 数据库更新批次失败",
			zap.String("counter", kind.Name),
			zap.Int("workerID", workerID),
			zap.Int("batchSize", len(ids)),
			zap.Duration("db耗时", time.Since(start)),
			zap.Error(err),
		)
		return fmt.Errorf("worker %d 处理批次 (大小 %d) 失败: %w", workerID, len(ids), err)
	}
	return nil
}
