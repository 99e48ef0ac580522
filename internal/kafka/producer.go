package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ariefcatur/findme-orders/internal/logger"
)

var ErrInboxFull = errors.New("producer inbox full")

// Writer is the subset of *kafka.Writer the producer drives.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	w       Writer
	inbox   chan kafka.Message
	closeCh chan struct{}
	log     logger.Logger
}

func NewProducer(brokers []string, topic string, buf int, log logger.Logger) *Producer {
	return NewProducerWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        true,
	}, buf, log)
}

func NewProducerWithWriter(w Writer, buf int, log logger.Logger) *Producer {
	if buf <= 0 {
		buf = 1
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Producer{
		w:       w,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
		log:     log,
	}
}

// Start runs the write loop until ctx is done or Close is called; pending
// messages are flushed before the writer is closed.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				for {
					select {
					case m, ok := <-p.inbox:
						if !ok {
							p.closeWriter()
							return
						}
						p.write(m)
					default:
						p.closeWriter()
						return
					}
				}
			case m, ok := <-p.inbox:
				if !ok {
					p.closeWriter()
					return
				}
				p.write(m)
			}
		}
	}()
}

func (p *Producer) write(m kafka.Message) {
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		p.log.Warnf(context.Background(), "[Producer] write key=%s failed: %v", m.Key, err)
	}
}

func (p *Producer) closeWriter() {
	if err := p.w.Close(); err != nil {
		p.log.Warnf(context.Background(), "[Producer] close writer: %v", err)
	}
}

// Publish blocks until the message is queued.
func (p *Producer) Publish(key, value []byte, headers ...kafka.Header) {
	p.inbox <- newMessage(key, value, headers)
}

// TryPublish queues the message without blocking.
func (p *Producer) TryPublish(key, value []byte, headers ...kafka.Header) error {
	select {
	case p.inbox <- newMessage(key, value, headers):
		return nil
	default:
		return ErrInboxFull
	}
}

func newMessage(key, value []byte, headers []kafka.Header) kafka.Message {
	return kafka.Message{
		Key:     key,
		Value:   value,
		Time:    time.Now(),
		Headers: headers,
	}
}

// Close the inbox so the loop flushes what is left and exits. No Publish after Close.
func (p *Producer) Close() { close(p.inbox) }

// WaitClosed blocks until the loop has exited.
func (p *Producer) WaitClosed() { <-p.closeCh }
