// Package repository holds the prospect board, the ranked in-memory
// store of evaluated athletes.
package repository

import (
	"context"

	"github.com/openscout/gridiron/internal/domain/types"
)

// Entry is one board row.
type Entry struct {
	Rank      int            `json:"rank"`
	AthleteID string         `json:"athlete_id"`
	Name      string         `json:"name,omitempty"`
	Position  types.Position `json:"position"`
	Tier      types.Tier     `json:"tier"`
	Score     float64        `json:"score"`
	EvalID    string         `json:"evaluation_id"`
}

// Board provides read/write access to the ranking state.
type Board interface {
	// UpdateBest records e as the athlete's best showing when its score
	// improves on the stored one. The Rank field of e is ignored.
	// Returns true when the board changed.
	UpdateBest(ctx context.Context, e Entry) (bool, error)

	// Rank returns the board entry for one athlete.
	// Returns ErrNotFound when the athlete has no evaluation on the board.
	Rank(ctx context.Context, athleteID string) (Entry, error)

	// TopN returns the best n entries in board order.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of athletes on the board.
	Count(ctx context.Context) int
}
