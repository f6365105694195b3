package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"

	appConfig "github.com/Xushengqwer/community_service/config"
	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/dependencies"
	"github.com/Xushengqwer/community_service/repo/mysql"
	redisRepo "github.com/Xushengqwer/community_service/repo/redis"
	"github.com/Xushengqwer/community_service/service"
)

func main() {
	var configFile string
	var opts SeedOptions
	flag.StringVar(&configFile, "config", "config/config.development.yaml", "配置文件路径")
	flag.IntVar(&opts.Users, "users", 20, "要生成的用户数量")
	flag.IntVar(&opts.Communities, "communities", 5, "要生成的社区数量")
	flag.IntVar(&opts.Posts, "n", 50, "要生成的帖子数量")
	flag.IntVar(&opts.MaxResponses, "responses", 5, "每个帖子最多生成的回应数量")
	flag.Int64Var(&opts.RandSeed, "seed", 0, "gofakeit 随机种子，0 表示随机")
	flag.Parse()

	absConfigFile, err := filepath.Abs(configFile)
	if err != nil {
		absConfigFile = configFile
	}
	if opts.Users <= 0 || opts.Communities <= 0 || opts.Posts < 0 {
		fmt.Println("错误: 用户数和社区数必须大于 0，帖子数不能为负")
		os.Exit(1)
	}

	// --- 1. 加载配置 ---
	var cfg appConfig.CommunityConfig
	if err := core.LoadConfig(absConfigFile, &cfg); err != nil {
		fmt.Printf("加载配置失败 (%s): %v\n", absConfigFile, err)
		os.Exit(1)
	}

	// --- 2. 日志 ---
	logger, loggerErr := core.NewZapLogger(cfg.ZapConfig)
	if loggerErr != nil {
		fmt.Printf("初始化 ZapLogger 失败: %v\n", loggerErr)
		os.Exit(1)
	}
	defer func() { _ = logger.Logger().Sync() }()

	// --- 3. 数据库，建表由 InitDatabase 完成 ---
	db, dbErr := dependencies.InitDatabase(&cfg, logger)
	if dbErr != nil {
		logger.Fatal("初始化数据库失败 (Seeder)", zap.Error(dbErr))
	}

	// Redis 可选，只用于在填充后失效公共信息流缓存
	var feedCache redisRepo.FeedCache
	if rdb, redisErr := dependencies.InitRedis(&cfg.RedisConfig, logger); redisErr != nil {
		logger.Warn("初始化 Redis 失败 (Seeder)，跳过缓存失效", zap.Error(redisErr))
	} else {
		feedCache = redisRepo.NewFeedCache(rdb, logger, 0)
	}

	// 填充数据不发送真实通知
	notifier := service.NewLogNotifier(logger)
	if cfg.ActionTokenConfig.Secret == "" {
		cfg.ActionTokenConfig.Secret = gofakeit.Password(true, true, true, false, false, 32)
	}
	signer, err := service.NewActionTokenSigner(cfg.ActionTokenConfig)
	if err != nil {
		logger.Fatal("初始化审核令牌签名器失败 (Seeder)", zap.Error(err))
	}

	// --- 4. 仓库和服务 ---
	postRepo := mysql.NewPostRepository(db, logger)
	communityRepo := mysql.NewCommunityRepository(db, logger)
	threadRepo := mysql.NewThreadRepository(db, logger)
	voteRepo := mysql.NewVoteRepository(db, logger)
	relationRepo := mysql.NewRelationRepository(db, logger)
	userRepo := mysql.NewUserRepository(db, logger)

	svcs := Services{
		Identity:  service.NewIdentityService(userRepo, communityRepo, relationRepo, nil, 0, logger),
		Community: service.NewCommunityService(communityRepo, postRepo, userRepo, signer, notifier, service.NotifyOptions{}, logger),
		Post:      service.NewPostService(db, postRepo, communityRepo, userRepo, voteRepo, relationRepo, feedCache, nil, 0, logger),
		Thread:    service.NewThreadService(db, postRepo, threadRepo, userRepo, relationRepo, notifier, service.NotifyOptions{}, logger),
		Vote:      service.NewVoteService(db, postRepo, threadRepo, voteRepo, relationRepo, logger),
	}

	// --- 5. 填充 ---
	startTime := time.Now()
	summary, err := Seed(context.Background(), svcs, logger, opts)
	if err != nil {
		logger.Fatal("数据填充失败", zap.Error(err))
	}
	logger.Info("数据填充完成",
		zap.Int("users", summary.Users),
		zap.Int("communities", summary.Communities),
		zap.Int("posts", summary.Posts),
		zap.Int("messages", summary.Messages),
		zap.Int("votes", summary.Votes),
		zap.Duration("耗时", time.Since(startTime)))
}
