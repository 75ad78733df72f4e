package notify

import (
	"context"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"marketplace-recon-api/internal/constant"
)

const defaultAPI = "https://api.telegram.org"

type telegramMessage struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
	Parse  string `json:"parse_mode"`
}

type telegramResp struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// ChatSource 告警群 ID，由 system.ConfigSystem 实现（sys_config 优先，配置文件兜底）
type ChatSource interface {
	BotChatID(ctx context.Context) string
}

// TokenFromEnv TELEGRAM_BOT_TOKEN，.env 可选
func TokenFromEnv() string {
	_ = godotenv.Load()
	return os.Getenv("TELEGRAM_BOT_TOKEN")
}

// Telegram 机器人告警
type Telegram struct {
	client *resty.Client
	token  string
	chats  ChatSource
	log    logrus.FieldLogger
}

func NewTelegram(token string, chats ChatSource, log logrus.FieldLogger) *Telegram {
	return newTelegram(defaultAPI, token, chats, log)
}

func newTelegram(api, token string, chats ChatSource, log logrus.FieldLogger) *Telegram {
	client := resty.New().
		SetBaseURL(api).
		SetTimeout(10 * time.Second).
		SetHeader("Content-Type", "application/json")
	return &Telegram{client: client, token: token, chats: chats, log: log}
}

// Send MarkdownV2 文本，调用方负责转义
func (t *Telegram) Send(ctx context.Context, text string) error {
	if t.token == "" {
		return constant.Errorf(constant.CodeSystemError, "missing TELEGRAM_BOT_TOKEN in env")
	}
	chatID := ""
	if t.chats != nil {
		chatID = t.chats.BotChatID(ctx)
	}
	if chatID == "" {
		return constant.Errorf(constant.CodeSystemError, "telegram chat id not configured")
	}

	var out telegramResp
	resp, err := t.client.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetPathParam("token", t.token).
		SetBody(telegramMessage{ChatID: chatID, Text: text, Parse: "MarkdownV2"}).
		SetResult(&out).
		SetError(&out).
		Post("/bot{token}/sendMessage")
	if err != nil {
		return constant.Wrap(constant.CodeUpstreamError, err)
	}
	if resp.IsError() || !out.OK {
		return constant.Errorf(constant.CodeUpstreamError, "telegram sendMessage failed: %d %s", resp.StatusCode(), out.Description)
	}
	return nil
}

// SendAsync 异步发送，失败只记录日志
func (t *Telegram) SendAsync(text string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := t.Send(ctx, text); err != nil {
			t.log.WithError(err).Warn("Telegram 消息发送失败")
		}
	}()
}
