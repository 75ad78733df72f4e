package event

import (
	"github.com/sirupsen/logrus"
)

// Publisher 事件发布，topic 为路由键（见 dto.Topic*）
type Publisher interface {
	Publish(topic string, msg any) error
}

// Nop 不发布任何事件，MQ 未配置时使用
type Nop struct{}

func (Nop) Publish(string, any) error { return nil }

// PublishAsync 异步发布，失败只记录日志，不影响主流程
func PublishAsync(p Publisher, log logrus.FieldLogger, topic string, msg any) {
	if p == nil || msg == nil {
		return
	}
	go func() {
		if err := p.Publish(topic, msg); err != nil {
			log.WithError(err).WithField("topic", topic).Error("[EVENT] 事件发布失败")
		}
	}()
}
