package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-recon-api/internal/dto"
	"marketplace-recon-api/internal/logger"
)

type fakeLinker struct {
	calls    int32
	daysBack int
	err      error
}

func (f *fakeLinker) AutoLink(_ context.Context, mp *string, daysBack int) (dto.AutoLinkSummary, error) {
	atomic.AddInt32(&f.calls, 1)
	f.daysBack = daysBack
	return dto.AutoLinkSummary{TotalProcessed: 1}, f.err
}

type fakeRules struct{ calls int32 }

func (f *fakeRules) Reload(context.Context) error {
	atomic.AddInt32(&f.calls, 1)
	return errors.New("db down")
}

func TestStart_RejectsBadSpec(t *testing.T) {
	s := New(&fakeLinker{}, nil, Specs{AutoLink: "every now and then"}, 7, logger.Discard())
	assert.Error(t, s.Start())
}

func TestStart_AcceptsSecondsSpec(t *testing.T) {
	s := New(&fakeLinker{}, &fakeRules{}, Specs{AutoLink: "0 */30 * * * *", RulesReload: "0 */5 * * * *"}, 7, logger.Discard())
	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 2)
	<-s.Stop().Done()
}

func TestJobs(t *testing.T) {
	l := &fakeLinker{err: errors.New("boom")}
	r := &fakeRules{}
	s := New(l, r, Specs{}, 3, logger.Discard())

	s.runAutoLink()
	s.runRulesReload()
	assert.Equal(t, int32(1), atomic.LoadInt32(&l.calls))
	assert.Equal(t, 3, l.daysBack)
	assert.Equal(t, int32(1), atomic.LoadInt32(&r.calls))
}
