package connectors

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	logger "github.com/sirupsen/logrus"

	"qppf/src/model"
)

// FlowKafka consumes options-flow alerts from a Kafka topic into an
// AlertBuffer, for deployments where the flow feed is republished
// internally instead of consumed straight off the provider websocket.
type FlowKafka struct {
	client sarama.ConsumerGroup
	topic  string
	buffer *AlertBuffer
}

func NewFlowKafka(brokers []string, groupID, topic string, buffer *AlertBuffer) (*FlowKafka, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Version = sarama.V2_8_0_0

	client, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, err
	}

	return &FlowKafka{client: client, topic: topic, buffer: buffer}, nil
}

// Run blocks consuming until ctx is done, rejoining the group after
// rebalances the way sarama expects.
func (f *FlowKafka) Run(ctx context.Context) {
	handler := &flowAlertHandler{buffer: f.buffer}

	for {
		if err := f.client.Consume(ctx, []string{f.topic}, handler); err != nil {
			logger.WithError(err).Warn("kafka consume session ended")
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (f *FlowKafka) Close() error {
	return f.client.Close()
}

type flowAlertHandler struct {
	buffer *AlertBuffer
}

func (h *flowAlertHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *flowAlertHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *flowAlertHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		var alert model.FlowAlert
		if err := json.Unmarshal(msg.Value, &alert); err != nil {
			logger.WithError(err).
				WithField("offset", msg.Offset).
				Debug("dropping malformed flow alert message")
			session.MarkMessage(msg, "")
			continue
		}
		if alert.Timestamp.IsZero() {
			alert.Timestamp = time.Now()
		}

		h.buffer.Add(alert)
		session.MarkMessage(msg, "")
	}
	return nil
}

var _ sarama.ConsumerGroupHandler = (*flowAlertHandler)(nil)
