package amqp091

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/eclipse-ditto-go/connectivity-core/internal/ditterr"
	"github.com/eclipse-ditto-go/connectivity-core/internal/model"
	"github.com/eclipse-ditto-go/connectivity-core/internal/publish"
)

// publisher is the AMQP 0.9.1 publish.Transport: one Target (exchange or
// queue routing key) published to over a shared connectionManager's
// channel, adapted from rabbitMQ.Publish's Headers/ContentType/Body
// shape.
type publisher struct {
	target string
	cm     *connectionManager
}

func newPublisher(target string, cm *connectionManager) *publisher {
	return &publisher{target: target, cm: cm}
}

func (p *publisher) Send(ctx context.Context, pc *publish.Context) (model.CommandResponseOrAck, error) {
	channel, err := p.cm.getChannel()
	if err != nil {
		return model.CommandResponseOrAck{}, &ditterr.ConnectionUnavailable{
			Description: "no AMQP channel available for target " + p.target,
			Err:         err,
		}
	}

	msg := amqp.Publishing{
		Body:        externalBody(pc.ExternalMessage),
		ContentType: pc.ExternalMessage.ContentType,
		Headers:     make(amqp.Table, len(pc.ExternalMessage.Headers)),
	}
	for k, v := range pc.ExternalMessage.Headers {
		msg.Headers[k] = v
	}

	if err := channel.PublishWithContext(ctx, p.target, "", false, false, msg); err != nil {
		return model.CommandResponseOrAck{}, &ditterr.MessageSendingFailed{
			Reason: "amqp publish to " + p.target + " failed",
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
