package mq

import (
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"marketplace-recon-api/internal/constant"
	"marketplace-recon-api/internal/dal"
)

// Channel amqp.Channel 的发布部分
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// liveChannel 断线时返回 nil（dal 后台重连）
func liveChannel() Channel {
	ch := dal.GetChannel()
	if ch == nil {
		return nil
	}
	return ch
}

// Publisher 事件发布到 topic 交换机，routing key 即 topic
type Publisher struct {
	exchange string
	channel  func() Channel
	log      logrus.FieldLogger
}

func NewPublisher(exchange string, log logrus.FieldLogger) *Publisher {
	return &Publisher{exchange: exchange, channel: liveChannel, log: log}
}

func (p *Publisher) Publish(topic string, msg any) error {
	ch := p.channel()
	if ch == nil {
		return constant.Errorf(constant.CodeMQError, "RabbitMQ 通道不可用，丢弃事件 %s", topic)
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return constant.Wrap(constant.CodeMQError, err)
	}
	err = ch.Publish(p.exchange, topic, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    time.Now(),
		Body:         b,
	})
	if err != nil {
		return constant.Wrap(constant.CodeMQError, err)
	}
	p.log.WithField("topic", topic).Debug("[MQ] 事件已发布")
	return nil
}
