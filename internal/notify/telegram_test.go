package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-recon-api/internal/constant"
	"marketplace-recon-api/internal/dto"
	"marketplace-recon-api/internal/logger"
)

type fixedChat string

func (c fixedChat) BotChatID(context.Context) string { return string(c) }

func TestTelegram_SendsMarkdownMessage(t *testing.T) {
	var got telegramMessage
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := newTelegram(srv.URL, "T0K", fixedChat("-100"), logger.Discard())
	err := tg.ToleranceMismatch(context.Background(), dto.ToleranceMismatchEvent{
		ErpOrderID: "E-1", Marketplace: "shopee", MarketplaceOrderID: "S1",
		Computed: decimal.RequireFromString("80"), Reported: decimal.RequireFromString("79.9"),
		Difference: decimal.RequireFromString("0.1"), Tolerance: decimal.RequireFromString("0.05"),
		DetectedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "/botT0K/sendMessage", path)
	assert.Equal(t, "-100", got.ChatID)
	assert.Equal(t, "MarkdownV2", got.Parse)
	assert.Contains(t, got.Text, "E\\-1")
	assert.Contains(t, got.Text, "79\\.90")
}

func TestTelegram_RejectedByAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	err := newTelegram(srv.URL, "T", fixedChat("1"), logger.Discard()).Send(context.Background(), "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, constant.ErrUpstream)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestTelegram_NotConfigured(t *testing.T) {
	assert.Error(t, newTelegram("http://127.0.0.1:1", "", fixedChat("1"), logger.Discard()).Send(context.Background(), "x"))
	assert.Error(t, newTelegram("http://127.0.0.1:1", "T", fixedChat(""), logger.Discard()).Send(context.Background(), "x"))
}

func TestFormatAlert_SkipsEmptyAndEscapes(t *testing.T) {
	text := formatAlert("WARN", "a.b", []field{{"x", ""}, {"y", "1-2"}})
	assert.Equal(t, "*\\[WARN\\] a\\.b*\n*y:* 1\\-2\n", text)
}
