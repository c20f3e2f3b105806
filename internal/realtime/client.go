package realtime

import (
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
)

// SSEClient is one open event stream of a user.
type SSEClient struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Channels map[string]bool
	Outbound chan SSEMessage
	Logger   *logger.Logger

	done      chan struct{}
	closeOnce sync.Once
}
