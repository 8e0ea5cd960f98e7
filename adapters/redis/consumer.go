package redis

import (
	"context"
	"errors"
	"sync"
	"time"

	"log/slog"

	"github.com/redis/go-redis/v9"

	"spacebid/events"
)

type consumerOptions struct {
	logger       *slog.Logger
	bufferSize   int
	blockTimeout time.Duration
}

type ConsumerOption func(*consumerOptions)

// WithConsumerLogger 設置日誌記錄器
func WithConsumerLogger(logger *slog.Logger) ConsumerOption {
	return func(o *consumerOptions) {
		o.logger = logger
	}
}

// WithConsumerBufferSize 設置下游channel的緩衝大小
func WithConsumerBufferSize(size int) ConsumerOption {
	return func(o *consumerOptions) {
		o.bufferSize = size
	}
}

// WithConsumerBlockTimeout 設置阻塞讀取超時時間
func WithConsumerBlockTimeout(d time.Duration) ConsumerOption {
	return func(o *consumerOptions) {
		o.blockTimeout = d
	}
}

// EventConsumer 從 Redis stream 讀取拍賣事件。
// 每個服務實例都從訂閱當下的最新位置開始讀，事件只用於即時通知，
// 不做重放。
type EventConsumer struct {
	client     *redis.Client
	stream     string
	lastID     string
	downStream chan events.Event
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	closed     bool
	logger     *slog.Logger
	options    consumerOptions
}

func NewEventConsumer(client *redis.Client, stream string, opts ...ConsumerOption) (IEventConsumer, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if stream == "" {
		return nil, errors.New("stream cannot be empty")
	}

	options := consumerOptions{
		logger:       slog.Default(),
		bufferSize:   100,
		blockTimeout: time.Second,
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &EventConsumer{
		client:  client,
		stream:  stream,
		lastID:  "$",
		closed:  true,
		logger:  options.logger.With(slog.String("caller", "EventConsumer"), slog.String("stream", stream)),
		options: options,
	}, nil
}

func (s *EventConsumer) Start() {
	if !s.closed {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.downStream = make(chan events.Event, s.options.bufferSize)
	s.closed = false
	s.cancelFunc = cancel
	s.logger.Info("starting event consumer")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.logger.Info("consumer goroutine stopped")
		defer close(s.downStream)

		for {
			select {
			case <-ctx.Done():
				return
			default:
				message, err := s.fetchNextMessage(ctx)
				if err != nil {
					if errors.Is(err, redis.Nil) {
						continue
					}
					s.logger.Error("fetch event error", slog.Any("error", err))
					continue
				}

				event, err := decodeEvent(message.Values)
				if err != nil {
					s.logger.Error("failed to decode event",
						slog.String("messageId", message.ID),
						slog.Any("error", err))
					continue
				}

				select {
				case <-ctx.Done():
					return
				case s.downStream <- event:
					s.logger.Debug("event sent to downstream",
						slog.String("messageId", message.ID))
				}
			}
		}
	}()
}

func (s *EventConsumer) fetchNextMessage(ctx context.Context) (redis.XMessage, error) {
	streams, err := s.client.XRead(ctx, &redis.XReadArgs{
		Streams: []string{s.stream, s.lastID},
		Count:   1,
		Block:   s.options.blockTimeout,
	}).Result()

	if err != nil {
		return redis.XMessage{}, err
	}

	if len(streams) > 0 && len(streams[0].Messages) > 0 {
		message := streams[0].Messages[0]
		s.lastID = message.ID
		s.logger.Debug("received event", slog.String("messageId", message.ID))
		return message, nil
	}

	return redis.XMessage{}, redis.Nil
}

// Subscribe 訂閱事件流
func (s *EventConsumer) Subscribe() <-chan events.Event {
	return s.downStream
}

// Close 關閉消費者
func (s *EventConsumer) Close() {
	if s.closed {
		return
	}
	s.logger.Info("closing event consumer")
	s.closed = true
	s.cancelFunc()
	s.wg.Wait()
	s.logger.Info("event consumer closed")
}
