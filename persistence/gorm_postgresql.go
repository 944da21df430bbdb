// persistence/gorm_postgresql.go
package persistence

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/wfunc/gamehub/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return NewGormWithDB(db)
}

// NewGormWithDB wraps an already opened gorm connection and migrates it.
func NewGormWithDB(db *gorm.DB) (*GormPostgreSQL, error) {
	if err := autoMigrate(db); err != nil {
		return nil, err
	}
	return &GormPostgreSQL{db: db}, nil
}

// autoMigrate 自动迁移表结构
func autoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.GormGameRecord{},
		&models.GormParticipant{},
	); err != nil {
		return err
	}
	// 旧表按 session_id 单列唯一，同一房间的后续回合会写不进去
	if m := db.Migrator(); m.HasIndex(&models.GormGameRecord{}, "idx_game_records_session_id") {
		return m.DropIndex(&models.GormGameRecord{}, "idx_game_records_session_id")
	}
	return nil
}

// SaveGameRecord 保存对局记录及参与者
func (p *GormPostgreSQL) SaveGameRecord(ctx context.Context, record *models.GameRecord) error {
	row := models.NewGormGameRecord(record)
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.GormGameRecord{}).Where("session_id = ? AND round = ?", row.SessionID, row.Round).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateRecord
		}
		// 关联的参与者随记录一起写入
		return tx.Create(row).Error
	})
	if err != nil {
		return err
	}
	record.ID = row.ID
	record.CreatedAt = row.CreatedAt
	return nil
}

// ListPlayerRecords 按时间倒序查询玩家参与的对局
func (p *GormPostgreSQL) ListPlayerRecords(ctx context.Context, name string, limit int) ([]models.GameRecord, error) {
	var rows []models.GormGameRecord
	err := p.db.WithContext(ctx).
		Where("id IN (?)", p.db.Model(&models.GormParticipant{}).Select("record_id").Where("name = ?", name)).
		Order("ended_at DESC, id DESC").
		Limit(clampLimit(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	records := make([]models.GameRecord, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].Record())
	}
	return records, nil
}

type statsRow struct {
	TotalGames int
	Wins       int
	Losses     int
	Draws      int
	BestScore  int
	PlayTime   int
}

type typeCount struct {
	GameType string
	Games    int
}

// GetPlayerStats 汇总玩家统计
func (p *GormPostgreSQL) GetPlayerStats(ctx context.Context, name string) (*models.PlayerStats, error) {
	db := p.db.WithContext(ctx)

	var row statsRow
	err := db.Raw(`
        SELECT
            COUNT(*) AS total_games,
            COALESCE(SUM(CASE WHEN gp.outcome = ? THEN 1 ELSE 0 END), 0) AS wins,
            COALESCE(SUM(CASE WHEN gp.outcome = ? THEN 1 ELSE 0 END), 0) AS losses,
            COALESCE(SUM(CASE WHEN gp.outcome = ? THEN 1 ELSE 0 END), 0) AS draws,
            COALESCE(MAX(gp.score), 0) AS best_score,
            COALESCE(SUM(gr.duration_seconds), 0) AS play_time
        FROM game_participants gp
        JOIN game_records gr ON gr.id = gp.record_id AND gr.deleted_at IS NULL
        WHERE gp.name = ?`,
		models.OutcomeWin, models.OutcomeLose, models.OutcomeDraw, name,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.TotalGames == 0 {
		return nil, ErrRecordNotFound
	}

	var counts []typeCount
	err = db.Table("game_participants AS gp").
		Select("gr.game_type AS game_type, COUNT(*) AS games").
		Joins("JOIN game_records gr ON gr.id = gp.record_id AND gr.deleted_at IS NULL").
		Where("gp.name = ?", name).
		Group("gr.game_type").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	stats := &models.PlayerStats{
		Name:       name,
		TotalGames: row.TotalGames,
		Wins:       row.Wins,
		Losses:     row.Losses,
		Draws:      row.Draws,
		BestScore:  row.BestScore,
		PlayTime:   row.PlayTime,
		ByType:     make(map[string]int, len(counts)),
	}
	for _, c := range counts {
		stats.ByType[c.GameType] = c.Games
	}
	return stats, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
