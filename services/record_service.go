// services/record_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/wfunc/gamehub/game"
	"github.com/wfunc/gamehub/logger"
	"github.com/wfunc/gamehub/models"
	"github.com/wfunc/gamehub/persistence"
)

var ErrEmptyName = errors.New("player name is required")

// RecordService 对局记录服务，同时作为 registry 的 Archiver
type RecordService struct {
	db persistence.Database
}

func NewRecordService(db persistence.Database) *RecordService {
	return &RecordService{db: db}
}

// BuildRecord 把结束的对局转换成存储记录
func BuildRecord(res game.Result) *models.GameRecord {
	record := &models.GameRecord{
		SessionID:  res.SessionID,
		Round:      res.Round,
		GameType:   string(res.Type),
		WinnerID:   res.WinnerID,
		WinnerName: res.WinnerName,
		Moves:      res.Moves,
		StartedAt:  res.StartedAt,
		EndedAt:    res.EndedAt,
		Players:    make([]models.PlayerInfo, 0, len(res.Standings)),
	}
	if !res.StartedAt.IsZero() && res.EndedAt.After(res.StartedAt) {
		record.DurationSeconds = int(res.EndedAt.Sub(res.StartedAt).Seconds())
	}

	for _, st := range res.Standings {
		outcome := models.OutcomeDraw
		if res.WinnerID != "" {
			outcome = models.OutcomeLose
			if st.PlayerID == res.WinnerID {
				outcome = models.OutcomeWin
			}
		}
		record.Players = append(record.Players, models.PlayerInfo{
			PlayerID: st.PlayerID,
			Name:     st.Name,
			Rank:     st.Rank,
			Score:    st.Score,
			Outcome:  outcome,
		})
	}
	return record
}

// Archive 保存对局结果；同一房间每回合一条，重复保存视为成功
func (s *RecordService) Archive(ctx context.Context, res game.Result) error {
	record := BuildRecord(res)
	if len(record.Players) == 0 {
		return nil
	}
	err := s.db.SaveGameRecord(ctx, record)
	if errors.Is(err, persistence.ErrDuplicateRecord) {
		logger.Log.Debugf("record for session %s round %d already stored", res.SessionID, res.Round)
		return nil
	}
	if err != nil {
		return fmt.Errorf("save record for session %s round %d: %w", res.SessionID, res.Round, err)
	}
	logger.Log.Infof("archived %s session %s round %d (%d players)", res.Type, res.SessionID, res.Round, len(record.Players))
	return nil
}

// History 获取玩家最近的对局
func (s *RecordService) History(ctx context.Context, name string, limit int) ([]models.GameRecord, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	return s.db.ListPlayerRecords(ctx, name, limit)
}

// PlayerStats 获取玩家统计；没有记录的玩家返回空统计
func (s *RecordService) PlayerStats(ctx context.Context, name string) (*models.PlayerStats, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	stats, err := s.db.GetPlayerStats(ctx, name)
	if errors.Is(err, persistence.ErrRecordNotFound) {
		return &models.PlayerStats{Name: name, ByType: map[string]int{}}, nil
	}
	return stats, err
}
