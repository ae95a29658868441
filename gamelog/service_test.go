package gamelog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/merlinhq/avalon-server/testutil"
)

func TestRecordAndTimeline(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, zap.NewNop())

	qIdx := 0
	svc.Record(Entry{
		GameID:     "g1",
		TraceID:    "t1",
		Action:     "quest_result_recorded",
		QuestIndex: &qIdx,
		Detail:     map[string]int{"fail_count": 1},
	})
	svc.Record(Entry{GameID: "g1", Action: "game_finished"})
	svc.Record(Entry{GameID: "other", Action: "game_started"})
	svc.Stop() // flushes

	events, err := svc.Timeline(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "quest_result_recorded", events[0].Action)
	require.NotNil(t, events[0].QuestIndex)
	assert.Equal(t, 0, *events[0].QuestIndex)
	assert.JSONEq(t, `{"fail_count":1}`, string(events[0].Detail))
}

func TestStop_FlushesWithoutTicker(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, zap.NewNop())

	for i := 0; i < 10; i++ {
		svc.Record(Entry{GameID: "g", Action: "team_updated"})
	}
	done := make(chan struct{})
	go func() {
		svc.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}

	events, err := svc.Timeline(context.Background(), "g")
	require.NoError(t, err)
	assert.Len(t, events, 10)
}
