package dependencies

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	appConfig "github.com/Xushengqwer/community_service/config"
	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/models/entities"
)

// openDialector 按 DSN 前缀选择驱动:
//   - postgres:// 或 postgresql:// -> Postgres (保留完整 URL)
//   - sqlite://                    -> SQLite (去掉前缀后为文件路径或 :memory:)
//   - mysql:// 或无前缀            -> MySQL
func openDialector(dsn string) (gorm.Dialector, string) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return postgres.Open(dsn), "postgres"
	case strings.HasPrefix(dsn, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite://")), "sqlite"
	default:
		return mysql.Open(strings.TrimPrefix(dsn, "mysql://")), "mysql"
	}
}

// InitDatabase 初始化数据库连接，并配置读写分离 (如果配置了从库)
func InitDatabase(cfg *appConfig.CommunityConfig, logger *core.ZapLogger) (*gorm.DB, error) {
	dbCfg := cfg.DatabaseConfig

	// --- 主库连接 ---
	if dbCfg.Write.DSN == "" {
		return nil, fmt.Errorf("主数据库 DSN (databaseConfig.write.dsn) 未配置")
	}
	gormConfig := &gorm.Config{
		Logger:         core.NewGormLogger(logger, cfg.GormLogConfig),
		TranslateError: true,
	}

	var db *gorm.DB
	var err error
	maxRetries := 5
	retryInterval := 2 * time.Second

	writeDialector, driverName := openDialector(dbCfg.Write.DSN)
	logger.Info("开始连接主数据库...", zap.String("driver", driverName))
	for i := 0; i < maxRetries; i++ {
		db, err = gorm.Open(writeDialector, gormConfig)
		if err == nil {
			var sqlDB *sql.DB
			sqlDB, err = db.DB()
			if err == nil {
				if err = sqlDB.Ping(); err == nil {
					break
				}
			}
		}
		logger.Warn("无法连接到主数据库，尝试重试", zap.Int("retry", i+1), zap.Int("maxRetries", maxRetries), zap.Error(err))
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
		}
	}
	if err != nil {
		logger.Error("无法连接到主数据库", zap.Error(err))
		return nil, fmt.Errorf("无法连接到主数据库: %w", err)
	}
	logger.Info("成功连接到主数据库")

	// --- 配置读写分离 (dbresolver) ---
	readReplicas := make([]gorm.Dialector, 0, len(dbCfg.Read))
	for i, replicaCfg := range dbCfg.Read {
		if replicaCfg.DSN == "" {
			logger.Warn("发现空的从库 DSN 配置，已跳过", zap.Int("index", i))
			continue
		}
		replica, _ := openDialector(replicaCfg.DSN)
		readReplicas = append(readReplicas, replica)
	}
	if len(readReplicas) > 0 {
		source, _ := openDialector(dbCfg.Write.DSN)
		err = db.Use(dbresolver.Register(dbresolver.Config{
			Sources:  []gorm.Dialector{source},
			Replicas: readReplicas,
			Policy:   dbresolver.StrictRoundRobinPolicy(),
		}))
		if err != nil {
			logger.Error("配置 GORM 读写分离插件失败", zap.Error(err))
			return nil, fmt.Errorf("配置 GORM 读写分离失败: %w", err)
		}
		logger.Info("成功配置 GORM 读写分离插件", zap.Int("从库数量", len(readReplicas)))
	} else {
		logger.Info("未配置有效的从数据库，不启用读写分离")
	}

	// --- 配置连接池 ---
	sqlDB, dbErr := db.DB()
	if dbErr != nil {
		return nil, fmt.Errorf("无法获取数据库对象: %w", dbErr)
	}
	maxIdle := dbCfg.SharedMaxIdleConns
	maxOpen := dbCfg.SharedMaxOpenConns
	maxLife := dbCfg.SharedConnMaxLifetime
	if dbCfg.Write.MaxIdleConns != nil {
		maxIdle = *dbCfg.Write.MaxIdleConns
	}
	if dbCfg.Write.MaxOpenConns != nil {
		maxOpen = *dbCfg.Write.MaxOpenConns
	}
	if dbCfg.Write.ConnMaxLifetime != nil {
		maxLife = *dbCfg.Write.ConnMaxLifetime
	}
	if driverName == "sqlite" {
		// SQLite 只允许单写连接，:memory: 库在多连接下也互不可见
		maxOpen = 1
	}
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetConnMaxLifetime(time.Duration(maxLife) * time.Second)
	logger.Info("配置数据库连接池",
		zap.Int("最大空闲连接数", maxIdle),
		zap.Int("最大打开连接数", maxOpen),
		zap.Int("连接最大生命周期(秒)", maxLife),
	)

	if err := Migrate(db); err != nil {
		logger.Error("数据库自动迁移失败", zap.Error(err))
		return nil, err
	}
	logger.Info("数据库自动迁移完成")
	return db, nil
}

// Migrate 创建或更新全部表结构，生产和测试共用
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&entities.User{},
		&entities.Community{},
		&entities.CommunityFollow{},
		&entities.Post{},
		&entities.Chain{},
		&entities.Message{},
		&entities.PostVote{},
		&entities.MessageVote{},
		&entities.UserBlock{},
		&entities.HiddenPost{},
		&entities.HiddenMessage{},
		&entities.PostReport{},
	); err != nil {
		return fmt.Errorf("数据库自动迁移失败: %w", err)
	}
	return nil
}
