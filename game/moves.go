package game

import (
	"encoding/json"
	"fmt"
	"math"
)

// Move is the per-variant payload of a makeMove event.
type Move interface {
	isMove()
}

// CellMove writes a value into a Sudoku cell.
type CellMove struct {
	Row   int `json:"row"`
	Col   int `json:"col"`
	Value int `json:"value"`
}

// MarkMove places the mover's symbol on the tic-tac-toe board.
type MarkMove struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// ShotMove fires at the opponent's battleship board.
type ShotMove struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// TypingMove carries the player's full typed text and the client's own
// metrics. The server recomputes the metrics from Input.
type TypingMove struct {
	Input    string  `json:"input"`
	WPM      float64 `json:"wpm"`
	Accuracy float64 `json:"accuracy"`
	Progress float64 `json:"progress"`
	Position int     `json:"position"`
}

func (CellMove) isMove()   {}
func (MarkMove) isMove()   {}
func (ShotMove) isMove()   {}
func (TypingMove) isMove() {}

type cellPayload struct {
	Row   *int `json:"row"`
	Col   *int `json:"col"`
	Value *int `json:"value"`
}

type shotPayload struct {
	Row       *int `json:"row"`
	Col       *int `json:"col"`
	TargetRow *int `json:"targetRow"`
	TargetCol *int `json:"targetCol"`
}

type typingPayload struct {
	Input    *string  `json:"input"`
	WPM      *float64 `json:"wpm"`
	Accuracy *float64 `json:"accuracy"`
	Progress *float64 `json:"progress"`
	Position *float64 `json:"position"`
}

// DecodeMove validates the shape of a makeMove payload for game type t.
// Range and legality checks stay with the session.
func DecodeMove(t Type, raw json.RawMessage) (Move, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: missing move data", ErrInvalidRequest)
	}
	switch t {
	case TypeSudoku:
		var p cellPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		if p.Row == nil || p.Col == nil || p.Value == nil {
			return nil, fmt.Errorf("%w: row, col and value are required", ErrInvalidRequest)
		}
		return CellMove{Row: *p.Row, Col: *p.Col, Value: *p.Value}, nil

	case TypeTicTacToe:
		var p cellPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		if p.Row == nil || p.Col == nil {
			return nil, fmt.Errorf("%w: row and col are required", ErrInvalidRequest)
		}
		return MarkMove{Row: *p.Row, Col: *p.Col}, nil

	case TypeBattleship:
		var p shotPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		row, col := p.TargetRow, p.TargetCol
		if row == nil || col == nil {
			row, col = p.Row, p.Col
		}
		if row == nil || col == nil {
			return nil, fmt.Errorf("%w: targetRow and targetCol are required", ErrInvalidRequest)
		}
		return ShotMove{Row: *row, Col: *col}, nil

	case TypeTyping:
		var p typingPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		if p.Input == nil {
			return nil, fmt.Errorf("%w: input is required", ErrInvalidRequest)
		}
		for name, v := range map[string]*float64{
			"wpm": p.WPM, "accuracy": p.Accuracy, "progress": p.Progress, "position": p.Position,
		} {
			if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
				return nil, fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidRequest, name)
			}
		}
		return TypingMove{
			Input:    *p.Input,
			WPM:      *p.WPM,
			Accuracy: *p.Accuracy,
			Progress: *p.Progress,
			Position: int(*p.Position),
		}, nil
	}
	return nil, fmt.Errorf("%w: unsupported game type %q", ErrInvalidRequest, t)
}
