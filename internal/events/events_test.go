package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NoBrokersIsNop(t *testing.T) {
	p := New(nil, "topic")
	_, ok := p.(Nop)
	assert.True(t, ok)
	assert.NoError(t, p.Publish(context.Background(), Event{Type: BookingCreated}))
	assert.NoError(t, p.Close())
}

func TestNew_WithBrokersIsKafka(t *testing.T) {
	p := New([]string{"localhost:9092"}, "studio.booking.events")
	kp, ok := p.(*KafkaPublisher)
	assert.True(t, ok)
	assert.Equal(t, "studio.booking.events", kp.writer.Topic)
	assert.NoError(t, kp.Close())
}

func TestKafkaPublisher_UnreachableBrokerTimesOut(t *testing.T) {
	p := NewKafkaPublisher([]string{"127.0.0.1:1"}, "studio.booking.events")
	assert.Equal(t, DefaultPublishTimeout, p.timeout)
	p.timeout = 200 * time.Millisecond
	defer func() { _ = p.Close() }()

	start := time.Now()
	err := p.Publish(context.Background(), Event{Type: BookingCreated, BookingID: "b-1"})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRecorder(t *testing.T) {
	var r Recorder
	_ = r.Publish(context.Background(), Event{Type: BookingCreated})
	_ = r.Publish(context.Background(), Event{Type: DPApproved})
	assert.Equal(t, []Type{BookingCreated, DPApproved}, r.Types())
}
