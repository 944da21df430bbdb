// persistence/interface.go
package persistence

import (
	"context"
	"fmt"

	"github.com/wfunc/gamehub/config"
	"github.com/wfunc/gamehub/models"
)

// Database 对局记录存储接口
type Database interface {
	SaveGameRecord(ctx context.Context, record *models.GameRecord) error
	ListPlayerRecords(ctx context.Context, name string, limit int) ([]models.GameRecord, error)
	GetPlayerStats(ctx context.Context, name string) (*models.PlayerStats, error)
	Close() error
}

const DefaultHistoryLimit = 20

// 错误定义
var (
	ErrRecordNotFound  = fmt.Errorf("record not found")
	ErrDuplicateRecord = fmt.Errorf("record already exists")
)

// Open 根据配置选择存储实现
func Open(cfg config.DatabaseConfig) (Database, error) {
	pg := cfg.Postgres
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(), nil
	case "gorm":
		return NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case "postgres":
		return NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return DefaultHistoryLimit
	}
	return limit
}
