package model

import (
	"fmt"
	"imagestudio/internal/config"
	"imagestudio/internal/model/file"
	"imagestudio/internal/model/memory"
	"imagestudio/internal/model/sql"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendMySQL    = "mysql"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// StoreFactory 根据配置创建对应的历史存储实现
type StoreFactory struct{}

// NewStoreFactory 创建新的存储工厂
func NewStoreFactory() *StoreFactory {
	return &StoreFactory{}
}

// InitHistoryStore 初始化历史存储的辅助函数
func InitHistoryStore(cfg *config.Config) (HistoryStore, error) {
	return NewStoreFactory().CreateHistoryStore(cfg)
}

// CreateHistoryStore 根据 HISTORY_BACKEND 创建对应的存储实现
func (f *StoreFactory) CreateHistoryStore(cfg *config.Config) (HistoryStore, error) {
	limit := historyLimit(cfg.HistoryMaxRecords)

	switch strings.ToLower(strings.TrimSpace(cfg.HistoryBackend)) {
	case BackendFile, "":
		return file.NewStore(cfg.HistoryPath, limit)
	case BackendMemory:
		return memory.NewStore(limit), nil
	case BackendMySQL:
		return f.createMySQLStore(cfg, limit)
	case BackendSQLite:
		return f.createSQLiteStore(cfg, limit)
	case BackendPostgres:
		return f.createPostgresStore(cfg, limit)
	default:
		return nil, fmt.Errorf("unsupported history backend: %s", cfg.HistoryBackend)
	}
}

// historyLimit 负数按默认值处理，0 表示不限制
func historyLimit(value int) int {
	if value < 0 {
		return DefaultHistoryLimit
	}
	return value
}

// createMySQLStore 创建 MySQL 存储
func (f *StoreFactory) createMySQLStore(cfg *config.Config, limit int) (HistoryStore, error) {
	dsn := cfg.DSNURL
	if dsn == "" {
		// 从各个配置项构建 DSN
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.DBUser, cfg.DBPassword, cfg.DBAddr, cfg.DBPort, cfg.DBName)
	}

	db, err := f.openGormDB(mysql.Open(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}
	return f.migrated(db, limit)
}

// createSQLiteStore 创建 SQLite 存储
func (f *StoreFactory) createSQLiteStore(cfg *config.Config, limit int) (HistoryStore, error) {
	filePath := strings.TrimSpace(cfg.DBPath)
	if filePath == "" {
		filePath = "~/.imagestudio/history.db"
	}
	filePath, err := homedir.Expand(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to expand %q: %w", cfg.DBPath, err)
	}

	// SQLite 会在连接时自动创建 .db 文件，但前提是目录已存在
	if dir := filepath.Dir(filePath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}

	db, err := f.openGormDB(sqlite.Open(filePath + "?_busy_timeout=5000"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}
	return f.migrated(db, limit)
}

// createPostgresStore 创建 PostgreSQL 存储
func (f *StoreFactory) createPostgresStore(cfg *config.Config, limit int) (HistoryStore, error) {
	dsn := cfg.DSNURL
	if dsn == "" {
		// 从各个配置项构建 DSN
		dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			cfg.DBAddr, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
	}

	db, err := f.openGormDB(postgres.Open(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	return f.migrated(db, limit)
}

func (f *StoreFactory) migrated(db *gorm.DB, limit int) (HistoryStore, error) {
	store := sql.NewGormHistoryStore(db, limit)
	// 自动迁移数据库表结构
	if err := store.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return store, nil
}

func (f *StoreFactory) openGormDB(dialector gorm.Dialector) (*gorm.DB, error) {
	// 配置 GORM 日志
	gormLogger := logger.New(
		log.New(log.Writer(), "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second * 5,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   gormLogger,
		DisableForeignKeyConstraintWhenMigrating: true,
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	})
	if err != nil {
		return nil, err
	}

	// 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}
