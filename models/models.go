// models/models.go
package models

import (
	"time"
)

// Outcomes recorded per participant.
const (
	OutcomeWin  = "win"
	OutcomeLose = "lose"
	OutcomeDraw = "draw"
)

// GameRecord 对局记录
type GameRecord struct {
	ID              uint         `json:"id,omitempty"`
	SessionID       string       `json:"session_id"`
	Round           int          `json:"round"`
	GameType        string       `json:"game_type"`
	WinnerID        string       `json:"winner_id,omitempty"`
	WinnerName      string       `json:"winner_name,omitempty"`
	Players         []PlayerInfo `json:"players"`
	Moves           int          `json:"moves"`
	DurationSeconds int          `json:"duration_seconds"`
	StartedAt       time.Time    `json:"started_at"`
	EndedAt         time.Time    `json:"ended_at"`
	CreatedAt       time.Time    `json:"created_at"`
}

// PlayerInfo 玩家信息（用于对局记录）
type PlayerInfo struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Rank     int    `json:"rank"`
	Score    int    `json:"score"`
	Outcome  string `json:"outcome"` // win/lose/draw
}

// Participant returns the entry for name, if it played.
func (r *GameRecord) Participant(name string) (PlayerInfo, bool) {
	for _, p := range r.Players {
		if p.Name == name {
			return p, true
		}
	}
	return PlayerInfo{}, false
}

// PlayerStats 玩家统计信息
type PlayerStats struct {
	Name       string         `json:"name"`
	TotalGames int            `json:"total_games"`
	Wins       int            `json:"wins"`
	Losses     int            `json:"losses"`
	Draws      int            `json:"draws"`
	BestScore  int            `json:"best_score"`
	PlayTime   int            `json:"play_time"` // 总游戏时长(秒)
	ByType     map[string]int `json:"by_type"`
}

// Tally folds the records name took part in into stats.
func Tally(name string, records []GameRecord) *PlayerStats {
	stats := &PlayerStats{Name: name, ByType: make(map[string]int)}
	for i := range records {
		p, ok := records[i].Participant(name)
		if !ok {
			continue
		}
		stats.TotalGames++
		stats.ByType[records[i].GameType]++
		stats.PlayTime += records[i].DurationSeconds
		switch p.Outcome {
		case OutcomeWin:
			stats.Wins++
		case OutcomeLose:
			stats.Losses++
		case OutcomeDraw:
			stats.Draws++
		}
		if p.Score > stats.BestScore {
			stats.BestScore = p.Score
		}
	}
	return stats
}
