package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type traceDataKey struct{}
type requestDataKey struct{}

type TraceData struct {
	TraceID   string
	RequestID string
}

// RequestData carries the resolved caller identity for one request.
type RequestData struct {
	UserID      uuid.UUID
	TokenString string
}

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(Default(ctx), traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if td, ok := Default(ctx).Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(Default(ctx), requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if rd, ok := Default(ctx).Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

// UserID returns the caller's id, or uuid.Nil when the request is anonymous.
func UserID(ctx context.Context) uuid.UUID {
	rd := GetRequestData(ctx)
	if rd == nil {
		return uuid.Nil
	}
	return rd.UserID
}
