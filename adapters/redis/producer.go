package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/smallnest/chanx"

	"spacebid/events"
)

type producerOptions struct {
	logger     *slog.Logger
	bufferSize int
}

type ProducerOption func(*producerOptions)

// WithProducerLogger 設置日誌記錄器
func WithProducerLogger(logger *slog.Logger) ProducerOption {
	return func(o *producerOptions) {
		o.logger = logger
	}
}

// WithProducerBufferSize 設置緩衝大小
func WithProducerBufferSize(size int) ProducerOption {
	return func(o *producerOptions) {
		o.bufferSize = size
	}
}

// EventProducer 將拍賣事件非同步寫入 Redis stream。
// Publish 只把事件放進無界緩衝，排程器與出價服務不會被 Redis 拖慢。
type EventProducer struct {
	client     *redis.Client
	stream     string
	upstream   *chanx.UnboundedChan[map[string]any]
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	closed     bool
	logger     *slog.Logger
	options    producerOptions
}

func NewEventProducer(client *redis.Client, stream string, opts ...ProducerOption) (*EventProducer, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if stream == "" {
		return nil, errors.New("stream cannot be empty")
	}

	options := producerOptions{
		logger:     slog.Default(),
		bufferSize: 100,
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &EventProducer{
		client:  client,
		stream:  stream,
		closed:  true,
		logger:  options.logger.With(slog.String("caller", "EventProducer"), slog.String("stream", stream)),
		options: options,
	}, nil
}

func (p *EventProducer) Start() {
	if !p.closed {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.upstream = chanx.NewUnboundedChan[map[string]any](ctx, p.options.bufferSize)
	p.cancelFunc = cancel
	p.closed = false
	p.logger.Info("starting event producer")

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.logger.Info("producer goroutine stopped")

		for {
			select {
			case <-ctx.Done():
				return
			case message := <-p.upstream.Out:
				id, err := p.client.XAdd(ctx, &redis.XAddArgs{
					Stream: p.stream,
					Values: message,
				}).Result()

				if err != nil {
					if errors.Is(err, context.Canceled) {
						return
					}
					p.logger.Error("publish event error", slog.Any("error", err))
					continue
				}

				p.logger.Debug("event published", slog.String("messageId", id))
			}
		}
	}()
}

func (p *EventProducer) Publish(event events.Event) error {
	if p.closed {
		return ErrClosed
	}

	message, err := encodeEvent(event)
	if err != nil {
		return fmt.Errorf("encode event error: %w", err)
	}

	p.upstream.In <- message
	return nil
}

func (p *EventProducer) Close() {
	if p.closed {
		return
	}
	p.logger.Info("closing event producer")
	p.closed = true
	p.cancelFunc()
	p.wg.Wait()
	p.logger.Info("event producer closed")
}
