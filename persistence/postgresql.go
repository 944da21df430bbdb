// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/wfunc/gamehub/models"
)

// PostgreSQL 基于 database/sql + lib/pq 的实现
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化表结构，与 GORM 迁移出的结构兼容
func initTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS game_records (
            id BIGSERIAL PRIMARY KEY,
            created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            deleted_at TIMESTAMPTZ,
            session_id TEXT NOT NULL,
            round BIGINT NOT NULL DEFAULT 1,
            game_type TEXT NOT NULL,
            winner_id TEXT DEFAULT '',
            winner_name TEXT DEFAULT '',
            players JSONB NOT NULL,
            moves BIGINT DEFAULT 0,
            duration_seconds BIGINT DEFAULT 0,
            started_at TIMESTAMPTZ,
            ended_at TIMESTAMPTZ
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS game_participants (
            id BIGSERIAL PRIMARY KEY,
            record_id BIGINT NOT NULL REFERENCES game_records(id) ON DELETE CASCADE,
            player_id TEXT NOT NULL,
            name TEXT NOT NULL,
            rank BIGINT,
            score BIGINT,
            outcome TEXT NOT NULL
        )
    `)
	if err != nil {
		return err
	}

	// 旧表升级：每个房间的每一回合各存一条
	_, err = db.ExecContext(ctx, `
        ALTER TABLE game_records ADD COLUMN IF NOT EXISTS round BIGINT NOT NULL DEFAULT 1;
        ALTER TABLE game_records DROP CONSTRAINT IF EXISTS game_records_session_id_key;
        DROP INDEX IF EXISTS idx_game_records_session_id;
    `)
	if err != nil {
		return err
	}

	// 创建索引以提高查询性能
	_, err = db.ExecContext(ctx, `
        CREATE UNIQUE INDEX IF NOT EXISTS idx_session_round ON game_records(session_id, round);
        CREATE INDEX IF NOT EXISTS idx_game_records_game_type ON game_records(game_type);
        CREATE INDEX IF NOT EXISTS idx_game_records_deleted_at ON game_records(deleted_at);
        CREATE INDEX IF NOT EXISTS idx_game_participants_name ON game_participants(name);
        CREATE INDEX IF NOT EXISTS idx_game_participants_record_id ON game_participants(record_id);
    `)
	return err
}

// SaveGameRecord 保存对局记录
func (p *PostgreSQL) SaveGameRecord(ctx context.Context, record *models.GameRecord) error {
	players, err := json.Marshal(record.Players)
	if err != nil {
		return err
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
        INSERT INTO game_records
            (session_id, round, game_type, winner_id, winner_name, players, moves, duration_seconds, started_at, ended_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id, created_at`,
		record.SessionID, record.Round, record.GameType, record.WinnerID, record.WinnerName, players,
		record.Moves, record.DurationSeconds, record.StartedAt, record.EndedAt,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateRecord
		}
		return err
	}

	for _, pl := range record.Players {
		_, err := tx.ExecContext(ctx, `
            INSERT INTO game_participants (record_id, player_id, name, rank, score, outcome)
            VALUES ($1, $2, $3, $4, $5, $6)`,
			record.ID, pl.PlayerID, pl.Name, pl.Rank, pl.Score, pl.Outcome)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListPlayerRecords 查询玩家参与的对局
func (p *PostgreSQL) ListPlayerRecords(ctx context.Context, name string, limit int) ([]models.GameRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
        SELECT id, session_id, round, game_type, winner_id, winner_name, players, moves,
               duration_seconds, started_at, ended_at, created_at
        FROM game_records
        WHERE deleted_at IS NULL
          AND id IN (SELECT record_id FROM game_participants WHERE name = $1)
        ORDER BY ended_at DESC, id DESC
        LIMIT $2`, name, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]models.GameRecord, 0)
	for rows.Next() {
		var (
			r       models.GameRecord
			players []byte
			started pq.NullTime
			ended   pq.NullTime
		)
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Round, &r.GameType, &r.WinnerID, &r.WinnerName, &players,
			&r.Moves, &r.DurationSeconds, &started, &ended, &r.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(players, &r.Players); err != nil {
			return nil, err
		}
		r.StartedAt, r.EndedAt = started.Time, ended.Time
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetPlayerStats 汇总玩家统计
func (p *PostgreSQL) GetPlayerStats(ctx context.Context, name string) (*models.PlayerStats, error) {
	rows, err := p.db.QueryContext(ctx, `
        SELECT gr.game_type, gp.outcome, gp.score, gr.duration_seconds
        FROM game_participants gp
        JOIN game_records gr ON gr.id = gp.record_id AND gr.deleted_at IS NULL
        WHERE gp.name = $1`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.GameRecord
	for rows.Next() {
		var (
			r  models.GameRecord
			pl = models.PlayerInfo{Name: name}
		)
		if err := rows.Scan(&r.GameType, &pl.Outcome, &pl.Score, &r.DurationSeconds); err != nil {
			return nil, err
		}
		r.Players = []models.PlayerInfo{pl}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrRecordNotFound
	}
	return models.Tally(name, records), nil
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
