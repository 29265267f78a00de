package mailqueue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
)

// Producer appends email jobs to the send-email stream.
type Producer struct {
	client *redis.Client
	stream string
	log    zerolog.Logger
}

func NewProducer(client *redis.Client, stream string, log zerolog.Logger) *Producer {
	return &Producer{client: client, stream: stream, log: log}
}

func (p *Producer) Enqueue(ctx context.Context, msg Message) error {
	if msg.ID == "" {
		msg.ID = ksuid.New().String()
	}

	values, err := msg.streamValues()
	if err != nil {
		return fmt.Errorf("encode email job: %w", err)
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue email job: %w", err)
	}

	p.log.Debug().
		Str("job_id", msg.ID).
		Str("to", msg.To).
		Str("template", msg.Template).
		Msg("email job enqueued")
	return nil
}
