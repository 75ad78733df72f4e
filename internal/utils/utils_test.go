package utils

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-recon-api/internal/constant"
)

func TestClampBatchSize(t *testing.T) {
	assert.Equal(t, 3, ClampBatchSize(0))
	assert.Equal(t, 10, ClampBatchSize(10))
	assert.Equal(t, 20, ClampBatchSize(50))
}

func TestRunBatches_SerialBetweenBatches(t *testing.T) {
	items := make([]int, 7)
	for i := range items {
		items[i] = i
	}

	var (
		mu       sync.Mutex
		inFlight int
		peak     int
		seen     []int
	)
	err := RunBatches(context.Background(), items, 3, time.Millisecond, func(_ context.Context, n int) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		seen = append(seen, n)
		mu.Unlock()

		time.Sleep(2 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
	})
	require.NoError(t, err)
	assert.Len(t, seen, 7)
	assert.LessOrEqual(t, peak, 3)
}

func TestRunBatches_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int32
	err := RunBatches(ctx, []int{1, 2, 3, 4, 5, 6}, 3, 50*time.Millisecond, func(_ context.Context, _ int) {
		if atomic.AddInt32(&calls, 1) == 3 {
			cancel()
		}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDoWithRetry(t *testing.T) {
	n := 0
	err := DoWithRetry(context.Background(), 3, time.Millisecond, func() error {
		n++
		if n < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n = 0
	stop := errors.New("bad request")
	err = DoWithRetry(context.Background(), 5, time.Millisecond, func() error {
		n++
		return Permanent(stop)
	})
	assert.Same(t, stop, err)
	assert.Equal(t, 1, n)
}

func TestStringOrNumber(t *testing.T) {
	var v struct {
		A StringOrNumber `json:"a"`
		B StringOrNumber `json:"b"`
		C StringOrNumber `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"LU-55","b":2000008123456789012,"c":null}`), &v))
	assert.Equal(t, "LU-55", v.A.String())
	assert.Equal(t, "2000008123456789012", v.B.String())
	assert.Equal(t, "", v.C.String())
}

func TestFromErrorAndStatus(t *testing.T) {
	err := constant.Errorf(constant.CodeRuleInvalid, "pattern does not compile")
	resp := FromError(err)
	assert.Equal(t, constant.CodeRuleInvalid, resp.Code)
	assert.Equal(t, "pattern does not compile", resp.Msg)
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))

	assert.Equal(t, constant.CodeSystemError, FromError(errors.New("boom")).Code)
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(constant.ErrLinkConflict))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(constant.NewError(constant.CodeLinkNotFound)))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(constant.NewError(constant.CodeUpstreamTimeout)))
	assert.Equal(t, http.StatusOK, HTTPStatus(nil))
}
