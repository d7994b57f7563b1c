package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"studiobook/internal/database"
	"studiobook/internal/database/dbtest"
)

func TestRecorder_RecordAndList(t *testing.T) {
	db := dbtest.Open(t, &Log{})
	r := NewRecorder(db, zap.NewNop())
	ctx := context.Background()

	r.StatusChange(ctx, Client("Budi"), EntityBooking, "b-1", "INVOICE_GENERATED", "WAITING_VERIFICATION",
		Meta{IP: "10.0.0.1", UserAgent: "test-agent"})
	time.Sleep(2 * time.Millisecond)
	r.Record(ctx, Entry{
		Actor:      Admin("a-1", "Admin"),
		EntityType: EntityBooking,
		EntityID:   "b-1",
		Action:     ActionCancelled,
		New:        map[string]string{"reason": "client request"},
	})
	r.Record(ctx, Entry{Actor: System(), EntityType: EntityCalendarSlot, EntityID: "2026-01-01", Action: ActionUpdated})

	logs, err := r.List(ctx, Filter{EntityType: EntityBooking, EntityID: "b-1"})
	require.NoError(t, err)
	require.Len(t, logs, 2)

	assert.Equal(t, ActionCancelled, logs[0].Action)
	assert.Equal(t, "a-1", *logs[0].ActorID)

	first := logs[1]
	assert.Equal(t, ActorClient, first.ActorType)
	assert.Nil(t, first.ActorID)
	assert.Equal(t, "Budi", *first.ActorName)
	assert.Equal(t, "10.0.0.1", *first.IPAddress)

	var newValues map[string]string
	require.NoError(t, json.Unmarshal(first.NewValues, &newValues))
	assert.Equal(t, "WAITING_VERIFICATION", newValues["status"])
}

func TestRecorder_FailureIsSwallowed(t *testing.T) {
	db := dbtest.Open(t, &Log{})
	r := NewRecorder(db, zap.NewNop())
	require.NoError(t, database.Close(db))

	assert.NotPanics(t, func() {
		r.Record(context.Background(), Entry{Actor: System(), EntityType: EntityAdmin, EntityID: "x", Action: ActionLogin})
	})
}
