package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	appConfig "github.com/Xushengqwer/community_service/config"
	"github.com/Xushengqwer/community_service/constant"
	"github.com/Xushengqwer/community_service/controller"
	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/core/tracing"
	"github.com/Xushengqwer/community_service/dependencies"
	"github.com/Xushengqwer/community_service/middleware"
	"github.com/Xushengqwer/community_service/mq/consumer"
	"github.com/Xushengqwer/community_service/mq/producer"
	"github.com/Xushengqwer/community_service/repo/mysql"
	redisrepo "github.com/Xushengqwer/community_service/repo/redis"
	"github.com/Xushengqwer/community_service/router"
	"github.com/Xushengqwer/community_service/service"
	"github.com/Xushengqwer/community_service/tasks"
)

// @title           Community Service API
// @version         1.0
// @description     社区讨论服务：社区、帖子、讨论链、投票、屏蔽/隐藏以及举报审核。
// @host            localhost:8082
// @schemes http https
func main() {
	var configFile string
	flag.StringVar(&configFile, "config", "config/config.development.yaml", "Path to configuration file")
	flag.Parse()

	// 1. 加载配置
	var cfg appConfig.CommunityConfig
	if err := core.LoadConfig(configFile, &cfg); err != nil {
		log.Fatalf("FATAL: 加载配置失败 (%s): %v", configFile, err)
	}

	// 2. 初始化 Logger
	logger, loggerErr := core.NewZapLogger(cfg.ZapConfig)
	if loggerErr != nil {
		log.Fatalf("FATAL: 初始化 ZapLogger 失败: %v", loggerErr)
	}
	defer func() {
		if err := logger.Logger().Sync(); err != nil {
			log.Printf("WARN: ZapLogger Sync 失败: %v\n", err)
		}
	}()
	logger.Info("Logger 初始化成功", zap.String("config", configFile))

	// 3. 初始化 TracerProvider
	if cfg.TracerConfig.Enabled {
		tracerShutdown, err := tracing.InitTracerProvider(constant.ServiceName, constant.ServiceVersion, cfg.TracerConfig)
		if err != nil {
			logger.Fatal("初始化 TracerProvider 失败", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerShutdown(ctx); err != nil {
				logger.Error("关闭 TracerProvider 失败", zap.Error(err))
			}
		}()
		logger.Info("分布式追踪已初始化")
	} else {
		logger.Info("分布式追踪已禁用")
	}

	// 4. 初始化核心依赖
	db, dbErr := dependencies.InitDatabase(&cfg, logger)
	if dbErr != nil {
		logger.Fatal("初始化数据库失败", zap.Error(dbErr))
	}

	rdb, redisErr := dependencies.InitRedis(&cfg.RedisConfig, logger)
	if redisErr != nil {
		logger.Fatal("初始化 Redis 失败", zap.Error(redisErr))
	}

	mediaStore, mediaErr := dependencies.InitMediaStore(&cfg.MediaConfig, logger)
	if mediaErr != nil {
		logger.Fatal("初始化媒体存储失败", zap.Error(mediaErr))
	}

	// 4.1 通知投递：Kafka、Webhook 均未配置时只写日志
	var notifiers service.MultiNotifier
	var kafkaNotifier *producer.KafkaNotifier
	if len(cfg.KafkaConfig.Brokers) > 0 {
		kafkaNotifier = producer.NewKafkaNotifier(cfg.KafkaConfig, logger)
		notifiers = append(notifiers, kafkaNotifier)
	}
	if cfg.NotifierConfig.WebhookURL != "" {
		timeout := time.Duration(cfg.NotifierConfig.TimeoutSeconds) * time.Second
		notifiers = append(notifiers, service.NewWebhookNotifier(cfg.NotifierConfig.WebhookURL, timeout, logger))
	}
	var sink service.Notifier = service.NewLogNotifier(logger)
	if len(notifiers) > 0 {
		sink = notifiers
	}
	notifier := service.NewAsyncNotifier(sink, logger)
	notifyOpts := service.NotifyOptions{
		PublicBaseURL:       cfg.ServerConfig.PublicBaseURL,
		ModeratorRecipients: cfg.NotifierConfig.ModeratorRecipients,
		AdminRecipients:     cfg.NotifierConfig.AdminRecipients,
	}

	signer, signerErr := service.NewActionTokenSigner(cfg.ActionTokenConfig)
	if signerErr != nil {
		logger.Fatal("初始化审核令牌签名器失败", zap.Error(signerErr))
	}

	// 5. 仓库层
	postRepo := mysql.NewPostRepository(db, logger)
	communityRepo := mysql.NewCommunityRepository(db, logger)
	threadRepo := mysql.NewThreadRepository(db, logger)
	voteRepo := mysql.NewVoteRepository(db, logger)
	relationRepo := mysql.NewRelationRepository(db, logger)
	userRepo := mysql.NewUserRepository(db, logger)
	reconcileRepo := mysql.NewCounterReconcileRepository(db, logger, cfg.TaskConfig)

	feedTTL := time.Duration(cfg.FeedCacheConfig.TTLSeconds) * time.Second
	feedCache := redisrepo.NewFeedCache(rdb, logger, feedTTL)
	nonceStore := redisrepo.NewActionNonceStore(rdb, logger)

	// 6. 服务层
	maxUpload := cfg.MediaConfig.MaxUploadBytes
	identityService := service.NewIdentityService(userRepo, communityRepo, relationRepo, mediaStore, maxUpload, logger)
	communityService := service.NewCommunityService(communityRepo, postRepo, userRepo, signer, notifier, notifyOpts, logger)
	postService := service.NewPostService(db, postRepo, communityRepo, userRepo, voteRepo, relationRepo, feedCache, mediaStore, maxUpload, logger)
	threadService := service.NewThreadService(db, postRepo, threadRepo, userRepo, relationRepo, notifier, notifyOpts, logger)
	voteService := service.NewVoteService(db, postRepo, threadRepo, voteRepo, relationRepo, logger)
	feedService := service.NewFeedService(postRepo, userRepo, feedCache, logger)
	moderationService := service.NewModerationService(postRepo, relationRepo, userRepo, communityService, signer, nonceStore, feedCache, notifier, notifyOpts, logger)

	// 7. 控制器层
	controllers := router.Controllers{
		Community:  controller.NewCommunityController(communityService, identityService, logger),
		Post:       controller.NewPostController(postService, voteService, threadService, moderationService, logger),
		Message:    controller.NewMessageController(threadService, voteService, logger),
		Feed:       controller.NewFeedController(feedService, logger),
		User:       controller.NewUserController(identityService, logger),
		Moderation: controller.NewModerationController(moderationService, logger),
	}

	// 8. Kafka 消费者：管理后台下发的处置结果
	var consumers []*consumer.Consumer
	var consumerWg sync.WaitGroup
	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()

	if topic := cfg.KafkaConfig.Topics.ModerationDecision; len(cfg.KafkaConfig.Brokers) > 0 && topic != "" {
		groupID := cfg.KafkaConfig.ConsumerGroupID
		if groupID == "" {
			groupID = "community_service_group"
			logger.Warn("Kafka ConsumerGroupID 未配置，使用默认值", zap.String("groupID", groupID))
		}
		handler := consumer.NewModerationDecisionHandler(logger, moderationService)
		decisionConsumer, err := consumer.NewConsumer(&cfg.KafkaConfig, groupID, topic, handler, logger)
		if err != nil {
			logger.Fatal("初始化处置结果消费者失败", zap.Error(err))
		}
		consumers = append(consumers, decisionConsumer)
	} else {
		logger.Warn("未配置 Kafka brokers 或处置结果 topic，跳过消费者初始化")
	}
	for _, c := range consumers {
		consumerWg.Add(1)
		go func(cons *consumer.Consumer) {
			defer consumerWg.Done()
			cons.Start(consumerCtx)
		}(c)
	}

	// 9. 定时任务
	reconcileTask := tasks.NewCounterReconcileTask(reconcileRepo, cfg.TaskConfig, logger)
	feedWarmSchedule := cfg.TaskConfig.FeedWarmCron
	if feedWarmSchedule == "" {
		feedWarmSchedule = constant.PublicFeedWarmCronSpec
	}
	feedWarmTask := tasks.NewPublicFeedWarmTask(feedService, feedWarmSchedule, logger)
	logger.Info("后台定时任务已启动")

	// 10. 路由
	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitConfig.Enabled {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimitConfig.RPS, cfg.RateLimitConfig.Burst)
		go func() {
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-consumerCtx.Done():
					return
				case <-ticker.C:
					rateLimiter.Cleanup(10 * time.Minute)
				}
			}
		}()
	}
	ginRouter := router.SetupRouter(logger, &cfg, controllers, rateLimiter)

	// 11. 启动 HTTP 服务器
	serverAddr := fmt.Sprintf(":%s", cfg.ServerConfig.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: ginRouter,
	}
	go func() {
		logger.Info("HTTP 服务器开始监听", zap.String("address", serverAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器启动失败", zap.Error(err))
		}
	}()

	// 12. 优雅关停
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quit
	logger.Info("收到关停信号，开始优雅退出...", zap.String("signal", receivedSignal.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// a. HTTP 服务器
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("关闭 HTTP 服务器失败", zap.Error(err))
	}

	// b. Kafka 消费者
	consumerCancel()
	consumerWg.Wait()
	for _, c := range consumers {
		if err := c.Close(); err != nil {
			logger.Error("关闭 Kafka 消费者时出错", zap.Error(err))
		}
	}
	// 等待在途通知写完再关闭生产者
	if err := notifier.Drain(shutdownCtx); err != nil {
		logger.Error("等待在途通知超时，部分通知可能丢失", zap.Error(err))
	}
	if kafkaNotifier != nil {
		if err := kafkaNotifier.Close(); err != nil {
			logger.Error("关闭 Kafka 生产者时出错", zap.Error(err))
		}
	}

	// c. 定时任务，等待正在执行的作业结束
	for name, stopCtx := range map[string]context.Context{
		"counter_reconcile": reconcileTask.Stop(),
		"public_feed_warm":  feedWarmTask.Stop(),
	} {
		select {
		case <-stopCtx.Done():
			logger.Info("定时任务已停止", zap.String("task", name))
		case <-shutdownCtx.Done():
			logger.Error("等待定时任务停止超时", zap.String("task", name), zap.Error(shutdownCtx.Err()))
		}
	}

	if err := rdb.Close(); err != nil {
		logger.Warn("关闭 Redis 连接失败", zap.Error(err))
	}
	logger.Info("服务已成功关闭")
}
