package service

import (
	"context"
	"encoding/json"

	"rravin-be/internal/dto"
	"rravin-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains analysis.created events. Today the only reaction is
// an audit log entry; new listeners subscribe to the same topic.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	sysLogger logger.ILogger
}

func NewConsumerService(pubSub *gochannel.GoChannel, topicName string, sysLogger logger.ILogger) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		sysLogger: sysLogger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	var payload dto.AnalysisCreatedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.sysLogger.Error("consumer", "failed to unmarshal analysis.created", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		msg.Ack() // invalid payloads would just retry forever
		return
	}

	cs.sysLogger.Info("consumer", "analysis created", map[string]interface{}{
		"analysis_id": payload.AnalysisId.String(),
		"session_id":  payload.SessionId.String(),
		"metrics":     payload.Metrics,
		"charts":      payload.Charts,
	})
	msg.Ack()
}
