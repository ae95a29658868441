package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/merlinhq/avalon-server/game/engine"
	"github.com/merlinhq/avalon-server/model"
)

// Gateway is the persistence boundary for game aggregates. Games are
// stored as full JSON snapshots with a few queryable columns; every
// write is a whole-snapshot replace.
type Gateway struct {
	db     *gorm.DB
	logger *zap.Logger
}

// New creates a Gateway.
func New(db *gorm.DB, logger *zap.Logger) *Gateway {
	return &Gateway{db: db, logger: logger}
}

// LastUnfinished returns the most recently started game without a
// finish timestamp, or nil when there is none. "No such game" is not
// an error. A decided game awaiting its assassination step still counts
// as unfinished and resumes.
func (g *Gateway) LastUnfinished(ctx context.Context) (*engine.Game, error) {
	var rec model.GameRecord
	err := g.db.WithContext(ctx).
		Where("finished_at IS NULL").
		Order("started_at DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: query last unfinished: %w", err)
	}
	return DecodeSnapshot(rec.Snapshot)
}

// Get returns the stored record for one game.
func (g *Gateway) Get(ctx context.Context, gameID string) (*model.GameRecord, error) {
	var rec model.GameRecord
	err := g.db.WithContext(ctx).First(&rec, "id = ?", gameID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get game: %w", err)
	}
	return &rec, nil
}

// List returns all stored games, newest first, without snapshots decoded.
func (g *Gateway) List(ctx context.Context) ([]model.GameRecord, error) {
	var recs []model.GameRecord
	if err := g.db.WithContext(ctx).
		Order("started_at DESC").
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("store: list games: %w", err)
	}
	return recs, nil
}

// Insert stores a new game aggregate.
func (g *Gateway) Insert(ctx context.Context, game *engine.Game) error {
	rec, err := recordFor(game)
	if err != nil {
		return err
	}
	if err := g.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("store: insert game: %w", err)
	}
	return nil
}

// Update replaces the stored snapshot of an existing game.
func (g *Gateway) Update(ctx context.Context, game *engine.Game) error {
	rec, err := recordFor(game)
	if err != nil {
		return err
	}
	res := g.db.WithContext(ctx).Model(&model.GameRecord{}).
		Where("id = ?", game.ID).
		Updates(map[string]interface{}{
			"name":        rec.Name,
			"num_players": rec.NumPlayers,
			"status":      rec.Status,
			"result":      rec.Result,
			"snapshot":    rec.Snapshot,
			"finished_at": rec.FinishedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("store: update game: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("store: update game: no row for id %s", game.ID)
	}
	return nil
}

// Delete removes a stored game and its event journal.
func (g *Gateway) Delete(ctx context.Context, gameID string) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.GameRecord{}, "id = ?", gameID).Error; err != nil {
			return fmt.Errorf("store: delete game: %w", err)
		}
		if err := tx.Delete(&model.GameEvent{}, "game_id = ?", gameID).Error; err != nil {
			return fmt.Errorf("store: delete game events: %w", err)
		}
		return nil
	})
}

// DecodeSnapshot unmarshals a stored snapshot back into an aggregate.
func DecodeSnapshot(data []byte) (*engine.Game, error) {
	var game engine.Game
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, fmt.Errorf("store: decode snapshot: %w", err)
	}
	return &game, nil
}

func recordFor(game *engine.Game) (*model.GameRecord, error) {
	snapshot, err := json.Marshal(game)
	if err != nil {
		return nil, fmt.Errorf("store: encode snapshot: %w", err)
	}
	var result string
	if game.Result != nil {
		result = string(*game.Result)
	}
	return &model.GameRecord{
		ID:         game.ID,
		Name:       game.Name,
		NumPlayers: game.NumPlayers(),
		Status:     string(game.Status),
		Result:     result,
		Snapshot:   datatypes.JSON(snapshot),
		StartedAt:  game.StartedAt,
		FinishedAt: game.FinishedAt,
	}, nil
}
