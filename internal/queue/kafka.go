package queue

import (
	"context"
	"encoding/json"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/sirupsen/logrus"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/model"
)

var _ ActivityQueue = (*KafkaQueue)(nil)

type KafkaQueue struct {
	producer *kafka.Producer
}

func NewKafkaQueue(brokers string) (*KafkaQueue, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
	})
	if err != nil {
		return nil, err
	}

	// drain delivery reports so the producer queue does not fill up
	go func() {
		for e := range producer.Events() {
			if m, ok := e.(*kafka.Message); ok && m.TopicPartition.Error != nil {
				logrus.Errorf("activity event delivery failed: %v", m.TopicPartition.Error)
			}
		}
	}()

	return &KafkaQueue{producer: producer}, nil
}

func (k *KafkaQueue) PublishActivity(ctx context.Context, record *model.Activity) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	return k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &ActivityTopic, Partition: kafka.PartitionAny},
		Key:            []byte(record.DocumentID),
		Value:          data,
	}, nil)
}

func (k *KafkaQueue) Close() {
	k.producer.Flush(5000)
	k.producer.Close()
}
