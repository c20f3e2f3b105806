package bus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
	"github.com/yungbote/skillbharat-backend/internal/realtime"
)

type RedisConfig struct {
	Addr    string
	Channel string
}

type redisBus struct {
	log     *logger.Logger
	rdb     goredis.UniversalClient
	channel string
}

// NewRedisBus dials and pings redis at cfg.Addr.
func NewRedisBus(log *logger.Logger, cfg RedisConfig) (Bus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisBusFromClient(log, rdb, cfg.Channel), nil
}

func NewRedisBusFromClient(log *logger.Logger, rdb goredis.UniversalClient, channel string) Bus {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = "skillbharat:sse"
	}
	return &redisBus{
		log:     log.With("service", "RedisSSEBus"),
		rdb:     rdb,
		channel: channel,
	}
}

// Client exposes the redis handle for health collectors.
func Client(b Bus) goredis.UniversalClient {
	if rb, ok := b.(*redisBus); ok {
		return rb.rdb
	}
	return nil
}

func (b *redisBus) Publish(ctx context.Context, msg realtime.SSEMessage) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis SSE bus not initialized")
	}
	raw, err := EncodeMessage(msg)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *redisBus) StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis SSE bus not initialized")
	}
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				msg, err := DecodeMessage([]byte(m.Payload))
				if err != nil {
					b.log.Warn("bad redis SSE payload", "error", err)
					continue
				}
				onMsg(msg)
			}
		}
	}()
	return nil
}

func (b *redisBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}

func EncodeMessage(msg realtime.SSEMessage) ([]byte, error) {
	return sonic.Marshal(msg)
}

func DecodeMessage(raw []byte) (realtime.SSEMessage, error) {
	var msg realtime.SSEMessage
	if err := sonic.Unmarshal(raw, &msg); err != nil {
		return realtime.SSEMessage{}, err
	}
	if msg.Channel == "" {
		return realtime.SSEMessage{}, fmt.Errorf("payload missing channel")
	}
	return msg, nil
}
