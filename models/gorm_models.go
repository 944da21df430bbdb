// models/gorm_models.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// GormGameRecord 对局记录模型
type GormGameRecord struct {
	gorm.Model
	SessionID       string       `gorm:"uniqueIndex:idx_session_round;not null"`
	Round           int          `gorm:"uniqueIndex:idx_session_round;not null;default:1"`
	GameType        string       `gorm:"index;not null"`
	WinnerID        string       `gorm:"default:''"`
	WinnerName      string       `gorm:"default:''"`
	Players         []PlayerInfo `gorm:"serializer:json;type:jsonb;not null"`
	Moves           int          `gorm:"default:0"`
	DurationSeconds int          `gorm:"default:0"` // 游戏时长(秒)
	StartedAt       time.Time
	EndedAt         time.Time
	Participants    []GormParticipant `gorm:"foreignKey:RecordID;constraint:OnDelete:CASCADE"`
}

func (GormGameRecord) TableName() string { return "game_records" }

// GormParticipant 参与者，按名字建索引便于查询历史
type GormParticipant struct {
	ID       uint   `gorm:"primaryKey"`
	RecordID uint   `gorm:"index;not null"`
	PlayerID string `gorm:"not null"`
	Name     string `gorm:"index;not null"`
	Rank     int
	Score    int
	Outcome  string `gorm:"not null"`
}

func (GormParticipant) TableName() string { return "game_participants" }

// NewGormGameRecord converts a record for storage.
func NewGormGameRecord(r *GameRecord) *GormGameRecord {
	g := &GormGameRecord{
		SessionID:       r.SessionID,
		Round:           r.Round,
		GameType:        r.GameType,
		WinnerID:        r.WinnerID,
		WinnerName:      r.WinnerName,
		Players:         r.Players,
		Moves:           r.Moves,
		DurationSeconds: r.DurationSeconds,
		StartedAt:       r.StartedAt,
		EndedAt:         r.EndedAt,
	}
	for _, p := range r.Players {
		g.Participants = append(g.Participants, GormParticipant{
			PlayerID: p.PlayerID,
			Name:     p.Name,
			Rank:     p.Rank,
			Score:    p.Score,
			Outcome:  p.Outcome,
		})
	}
	return g
}

// Record converts back to the API shape.
func (g *GormGameRecord) Record() GameRecord {
	return GameRecord{
		ID:              g.ID,
		SessionID:       g.SessionID,
		Round:           g.Round,
		GameType:        g.GameType,
		WinnerID:        g.WinnerID,
		WinnerName:      g.WinnerName,
		Players:         g.Players,
		Moves:           g.Moves,
		DurationSeconds: g.DurationSeconds,
		StartedAt:       g.StartedAt,
		EndedAt:         g.EndedAt,
		CreatedAt:       g.CreatedAt,
	}
}
