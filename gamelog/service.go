package gamelog

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/merlinhq/avalon-server/model"
)

// Entry is one engine operation to journal.
type Entry struct {
	GameID     string
	TraceID    string
	Action     string
	QuestIndex *int
	TeamIndex  *int
	Detail     interface{}
}

// Service journals game events asynchronously in batches so the write
// never sits on the request path.
type Service struct {
	db     *gorm.DB
	ch     chan *model.GameEvent
	stopCh chan struct{}
	wg     sync.WaitGroup
	logger *zap.Logger
}

// New creates a gamelog Service and starts its background worker.
func New(db *gorm.DB, logger *zap.Logger) *Service {
	svc := &Service{
		db:     db,
		ch:     make(chan *model.GameEvent, 1024),
		stopCh: make(chan struct{}),
		logger: logger,
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// Record enqueues an entry for async DB write. A full queue drops the
// entry rather than stalling gameplay.
func (svc *Service) Record(entry Entry) {
	detailJSON, _ := json.Marshal(entry.Detail)
	event := &model.GameEvent{
		GameID:     entry.GameID,
		TraceID:    entry.TraceID,
		Action:     entry.Action,
		QuestIndex: entry.QuestIndex,
		TeamIndex:  entry.TeamIndex,
		Detail:     datatypes.JSON(detailJSON),
	}
	select {
	case svc.ch <- event:
	default:
		svc.logger.Warn("gamelog channel full, dropping event",
			zap.String("action", entry.Action))
	}
}

// Timeline returns the journal for one game, oldest first.
func (svc *Service) Timeline(ctx context.Context, gameID string) ([]model.GameEvent, error) {
	var events []model.GameEvent
	err := svc.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("created_at ASC, id ASC").
		Find(&events).Error
	return events, err
}

// Stop flushes remaining entries and shuts down the worker.
// It blocks until the worker goroutine has finished.
func (svc *Service) Stop() {
	select {
	case <-svc.stopCh:
	default:
		close(svc.stopCh)
	}
	svc.wg.Wait()
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	batch := make([]*model.GameEvent, 0, 64)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := svc.db.Create(&batch).Error; err != nil {
			svc.logger.Error("gamelog batch write failed", zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case event := <-svc.ch:
			batch = append(batch, event)
			if len(batch) >= 64 {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			// Drain remaining entries.
			for {
				select {
				case event := <-svc.ch:
					batch = append(batch, event)
				default:
					flush()
					return
				}
			}
		}
	}
}
