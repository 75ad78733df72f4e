package mq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"marketplace-recon-api/internal/constant"
	"marketplace-recon-api/internal/dal"
	"marketplace-recon-api/internal/dto"
	"marketplace-recon-api/internal/ledger"
	reconmodel "marketplace-recon-api/internal/model/recon"
)

const (
	maxRetry     = 3
	retryHeader  = "x-retry-count"
	reconnectGap = 5 * time.Second
)

// Ingester 由 ledger.Service 实现
type Ingester interface {
	Ingest(ctx context.Context, d dto.PaymentDraft) (*reconmodel.PaymentRecord, error)
	IngestBatch(ctx context.Context, src ledger.StatementSource) (dto.BatchSummary, error)
}

// DraftConsumer 消费标准化结算明细队列。
// 消息体为单条明细对象，或整份对账单的明细数组（按对账单编号事件后缀）
type DraftConsumer struct {
	queue   string
	ing     Ingester
	channel func() Channel
	log     logrus.FieldLogger
}

func NewDraftConsumer(queue string, ing Ingester, log logrus.FieldLogger) *DraftConsumer {
	return &DraftConsumer{queue: queue, ing: ing, channel: liveChannel, log: log}
}

// Run 阻塞消费直到 ctx 取消；通道断开后等待 dal 重连再继续
func (c *DraftConsumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		ch := dal.GetChannel()
		if ch == nil {
			c.log.Warn("[MQ] 通道不可用，稍后重试消费")
			if !sleepCtx(ctx, reconnectGap) {
				return
			}
			continue
		}
		msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
		if err != nil {
			c.log.WithError(err).WithField("queue", c.queue).Error("[MQ] 订阅队列失败")
			if !sleepCtx(ctx, reconnectGap) {
				return
			}
			continue
		}
		c.log.WithField("queue", c.queue).Info("[MQ] 结算明细消费者已启动")
		c.drain(ctx, msgs)
	}
}

func (c *DraftConsumer) drain(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-msgs:
			if !ok {
				return
			}
			c.handle(ctx, d)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func retryCount(h amqp.Table) int {
	switch v := h[retryHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func (c *DraftConsumer) handle(ctx context.Context, d amqp.Delivery) {
	if body := bytes.TrimSpace(d.Body); len(body) > 0 && body[0] == '[' {
		c.handleStatement(ctx, d, body)
		return
	}

	var draft dto.PaymentDraft
	if err := json.Unmarshal(d.Body, &draft); err != nil {
		c.log.WithError(err).Error("[MQ] 结算明细解析失败，丢弃")
		_ = d.Nack(false, false)
		return
	}
	log := c.log.WithFields(logrus.Fields{"marketplace": draft.Marketplace, "marketplace_order_id": draft.MarketplaceOrderID})

	rec, err := c.ing.Ingest(ctx, draft)
	if err == nil {
		_ = d.Ack(false)
		log.WithField("record_id", rec.ID).Info("[MQ] 结算明细已入账")
		return
	}

	// 校验失败重试也不会成功
	if errors.Is(err, constant.ErrValidation) {
		log.WithError(err).Warn("[MQ] 结算明细校验失败，丢弃")
		_ = d.Nack(false, false)
		return
	}
	c.retry(d, log, err)
}

// handleStatement 整份对账单入账；重复投递得到相同的事件键，整份重试是幂等的
func (c *DraftConsumer) handleStatement(ctx context.Context, d amqp.Delivery, body []byte) {
	var drafts []dto.PaymentDraft
	if err := json.Unmarshal(body, &drafts); err != nil {
		c.log.WithError(err).Error("[MQ] 对账单解析失败，丢弃")
		_ = d.Nack(false, false)
		return
	}
	log := c.log.WithField("drafts", len(drafts))

	sum, err := c.ing.IngestBatch(ctx, ledger.NewSliceSource(drafts))
	if err != nil {
		c.retry(d, log, err)
		return
	}
	invalid, transient := 0, 0
	for _, e := range sum.Errors {
		if constant.Category(e.Code) == constant.CodeInvalidParams {
			invalid++
		} else {
			transient++
		}
	}
	log = log.WithFields(logrus.Fields{"inserted": sum.Inserted, "updated": sum.Updated, "invalid": invalid})
	if transient > 0 {
		c.retry(d, log, fmt.Errorf("%d 条明细入账失败", transient))
		return
	}
	_ = d.Ack(false)
	log.Info("[MQ] 对账单已入账")
}

// retry 重新投递到队列尾部并携带重试次数，超过上限后丢弃
func (c *DraftConsumer) retry(d amqp.Delivery, log logrus.FieldLogger, err error) {
	n := retryCount(d.Headers)
	if n >= maxRetry {
		log.WithError(err).Errorf("[MQ] 入账重试 %d 次仍失败，丢弃", n)
		_ = d.Nack(false, false)
		return
	}
	ch := c.channel()
	if ch == nil {
		// 通道不可用时退回队列
		_ = d.Nack(false, true)
		return
	}
	perr := ch.Publish("", c.queue, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Headers:      amqp.Table{retryHeader: int32(n + 1)},
		Body:         d.Body,
	})
	if perr != nil {
		log.WithError(perr).Error("[MQ] 重试消息发布失败，退回队列")
		_ = d.Nack(false, true)
		return
	}
	log.WithError(err).Warnf("[MQ] 入账失败，第 %d 次重试", n+1)
	_ = d.Nack(false, false)
}
