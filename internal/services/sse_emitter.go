package services

import (
	"context"

	"github.com/yungbote/skillbharat-backend/internal/realtime"
	"github.com/yungbote/skillbharat-backend/internal/realtime/bus"
)

type SSEEmitter interface {
	Emit(ctx context.Context, msg realtime.SSEMessage) error
}

type HubEmitter struct{ Hub *realtime.SSEHub }

func (e *HubEmitter) Emit(_ context.Context, msg realtime.SSEMessage) error {
	if e == nil || e.Hub == nil {
		return nil
	}
	e.Hub.Broadcast(msg)
	return nil
}

// BusEmitter publishes through the cross-instance bus; the forwarder feeds the local hub.
type BusEmitter struct{ Bus bus.Bus }

func (e *BusEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) error {
	if e == nil || e.Bus == nil {
		return nil
	}
	return e.Bus.Publish(ctx, msg)
}
