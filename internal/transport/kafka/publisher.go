package kafka

import (
	"context"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/eclipse-ditto-go/connectivity-core/internal/ditterr"
	"github.com/eclipse-ditto-go/connectivity-core/internal/model"
	"github.com/eclipse-ditto-go/connectivity-core/internal/publish"
)

// publisher is the Kafka publish.Transport: one Target topic, written to
// through a dedicated *kafka.Writer, adapted from producer.publishInternal's
// header/body shape.
type publisher struct {
	topic  string
	writer *kafkago.Writer
}

func (p *publisher) Send(ctx context.Context, pc *publish.Context) (model.CommandResponseOrAck, error) {
	msg := kafkago.Message{
		Topic: p.topic,
		Key:   []byte(pc.Signal.ID()),
		Value: externalBody(pc.ExternalMessage),
		Time:  time.Now(),
	}
	for k, v := range pc.ExternalMessage.Headers {
		msg.Headers = append(msg.Headers, kafkago.Header{Key: k, Value: []byte(v)})
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return model.CommandResponseOrAck{}, &ditterr.MessageSendingFailed{
			Reason: "kafka write to topic " + p.topic + " failed",
			Err:    err,
		}
	}

	return model.CommandResponseOrAck{
		Acknowledgement: model.Acknowledgement{
			Label:        model.DiagnosticAckLabel,
			EntityID:     pc.Signal.ID(),
			StatusCode:   204,
			DittoHeaders: pc.Signal.Headers(),
		},
	}, nil
}

func externalBody(msg model.ExternalMessage) []byte {
	if msg.IsText {
		return []byte(msg.Text)
	}
	return msg.Bytes
}
