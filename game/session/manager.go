package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/merlinhq/avalon-server/cache"
	"github.com/merlinhq/avalon-server/game/engine"
	"github.com/merlinhq/avalon-server/game/rules"
	"github.com/merlinhq/avalon-server/scheduler"
	"github.com/merlinhq/avalon-server/store"
)

// EventChannel is the pub/sub channel carrying live game events.
const EventChannel = "game_events"

var (
	// ErrNoActiveGame is returned when an operation needs an active game
	// and none is loaded.
	ErrNoActiveGame = errors.New("session: no active game")
	// ErrInvalidPlayerCount is returned for rosters outside [5,10].
	ErrInvalidPlayerCount = errors.New("session: player count must be between 5 and 10")
)

// Event is the payload published on EventChannel after each mutation.
type Event struct {
	Type   string            `json:"type"`
	GameID string            `json:"game_id"`
	Status engine.GameStatus `json:"status"`
}

// Manager owns the single active game per server. It serializes all
// engine access behind one mutex, journals nothing itself, and persists
// snapshots with a debounce: every mutation schedules a delayed save
// keyed by game ID, and a newer mutation replaces the pending one.
// If a save fails the in-memory aggregate rolls back to the last
// successfully persisted snapshot, so engine state and storage never
// drift apart silently.
type Manager struct {
	mu        sync.Mutex
	game      *engine.Game
	lastSaved []byte

	gateway  *store.Gateway
	sched    *scheduler.Scheduler
	pubsub   cache.PubSub
	debounce time.Duration
	logger   *zap.Logger
}

// NewManager creates a Manager. A non-positive debounce falls back to 500ms.
func NewManager(gateway *store.Gateway, sched *scheduler.Scheduler, pubsub cache.PubSub, debounce time.Duration, logger *zap.Logger) *Manager {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Manager{
		gateway:  gateway,
		sched:    sched,
		pubsub:   pubsub,
		debounce: debounce,
		logger:   logger,
	}
}

// Resume loads the last unfinished game from storage, if any.
func (m *Manager) Resume(ctx context.Context) (*engine.Game, error) {
	game, err := m.gateway.LastUnfinished(ctx)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, nil
	}
	snapshot, err := json.Marshal(game)
	if err != nil {
		return nil, fmt.Errorf("session: encode resumed game: %w", err)
	}
	m.mu.Lock()
	m.game = game
	m.lastSaved = snapshot
	m.mu.Unlock()
	m.logger.Info("resumed game",
		zap.String("game_id", game.ID),
		zap.String("status", string(game.Status)))
	return game, nil
}

// StartNew replaces the active game with a fresh one for the given
// roster. The insert is synchronous - a game must exist in storage
// before debounced updates can land on it.
func (m *Manager) StartNew(ctx context.Context, name string, playerNames []string) (*engine.Game, error) {
	if !rules.ValidPlayerCount(len(playerNames)) {
		return nil, ErrInvalidPlayerCount
	}
	players := make([]engine.Player, 0, len(playerNames))
	for i, pname := range playerNames {
		players = append(players, engine.NewPlayer(i, pname))
	}
	game := engine.NewGame(name, players)

	if err := m.gateway.Insert(ctx, game); err != nil {
		return nil, err
	}
	snapshot, err := json.Marshal(game)
	if err != nil {
		return nil, fmt.Errorf("session: encode new game: %w", err)
	}

	m.mu.Lock()
	if m.game != nil {
		// Pending saves for the previous game stay scheduled; its row
		// still exists and the write is still correct.
		m.logger.Info("replacing active game", zap.String("old_game_id", m.game.ID))
	}
	m.game = game
	m.lastSaved = snapshot
	m.mu.Unlock()

	m.publish(Event{Type: "game_started", GameID: game.ID, Status: game.Status})
	return game, nil
}

// ActiveID returns the active game's ID, or "" when none is loaded.
func (m *Manager) ActiveID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.game == nil {
		return ""
	}
	return m.game.ID
}

// View runs fn against the active game under the lock without
// scheduling a save. fn must not retain the aggregate.
func (m *Manager) View(fn func(g *engine.Game) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.game == nil {
		return ErrNoActiveGame
	}
	return fn(m.game)
}

// Apply runs a mutation against the active game, publishes an event for
// it, and schedules the debounced save. A mutation that returns an
// error leaves no save scheduled.
func (m *Manager) Apply(action string, fn func(g *engine.Game) error) error {
	m.mu.Lock()
	if m.game == nil {
		m.mu.Unlock()
		return ErrNoActiveGame
	}
	if err := fn(m.game); err != nil {
		m.mu.Unlock()
		return err
	}
	snapshot, err := json.Marshal(m.game)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("session: encode snapshot: %w", err)
	}
	gameID := m.game.ID
	status := m.game.Status
	m.mu.Unlock()

	m.publish(Event{Type: action, GameID: gameID, Status: status})
	m.sched.AddDelay(saveKey(gameID), m.debounce, func() {
		m.flush(gameID, snapshot)
	})
	return nil
}

// Drop forgets the given game if it is the active one and cancels its
// pending save. Storage deletion is the caller's concern.
func (m *Manager) Drop(gameID string) {
	m.sched.Remove(saveKey(gameID))
	m.mu.Lock()
	if m.game != nil && m.game.ID == gameID {
		m.game = nil
		m.lastSaved = nil
	}
	m.mu.Unlock()
}

// Close cancels the pending debounced save and writes the active game
// synchronously. Used at shutdown so the quiet period cannot eat the
// final mutations.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.game == nil {
		m.mu.Unlock()
		return nil
	}
	gameID := m.game.ID
	game := m.game
	m.mu.Unlock()

	m.sched.Remove(saveKey(gameID))
	return m.gateway.Update(ctx, game)
}

func saveKey(gameID string) string { return "save:" + gameID }

// flush writes one snapshot. On failure the active game rolls back to
// the last snapshot storage accepted.
func (m *Manager) flush(gameID string, snapshot []byte) {
	game, err := store.DecodeSnapshot(snapshot)
	if err != nil {
		m.logger.Error("flush: corrupt snapshot", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.gateway.Update(ctx, game); err != nil {
		m.logger.Error("game save failed, rolling back",
			zap.String("game_id", gameID), zap.Error(err))
		m.rollback(gameID)
		m.publish(Event{Type: "save_failed", GameID: gameID, Status: game.Status})
		return
	}

	m.mu.Lock()
	if m.game != nil && m.game.ID == gameID {
		m.lastSaved = snapshot
	}
	m.mu.Unlock()
}

func (m *Manager) rollback(gameID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.game == nil || m.game.ID != gameID || m.lastSaved == nil {
		return
	}
	restored, err := store.DecodeSnapshot(m.lastSaved)
	if err != nil {
		m.logger.Error("rollback decode failed", zap.Error(err))
		return
	}
	m.game = restored
}

func (m *Manager) publish(ev Event) {
	payload, _ := json.Marshal(ev)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.pubsub.Publish(ctx, EventChannel, string(payload)); err != nil {
		m.logger.Warn("event publish failed", zap.Error(err))
	}
}
