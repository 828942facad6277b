package worker

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/handbook/internal/reconcile"
	"github.com/stemsi/handbook/internal/service"
	"github.com/stretchr/testify/assert"
)

type countingSyncer struct {
	calls atomic.Int32
	err   error
	panic bool
}

func (s *countingSyncer) Run(ctx context.Context) (*reconcile.Report, error) {
	s.calls.Add(1)
	if s.panic {
		panic("scraper exploded")
	}
	return &reconcile.Report{}, s.err
}

func TestSyncWorker_RunsImmediatelyAndOnTicks(t *testing.T) {
	syncer := &countingSyncer{}
	w := NewSyncWorker(syncer, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return syncer.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestSyncWorker_LogsFailures(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	w := NewSyncWorker(&countingSyncer{err: service.ErrSyncInProgress}, time.Hour, log)
	w.runSafe(context.Background())
	assert.Contains(t, buf.String(), `"level":"debug"`)
	assert.NotContains(t, buf.String(), `"level":"error"`)

	buf.Reset()
	w = NewSyncWorker(&countingSyncer{err: errors.New("boom")}, time.Hour, log)
	w.runSafe(context.Background())
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), "boom")

	buf.Reset()
	w = NewSyncWorker(&countingSyncer{panic: true}, time.Hour, log)
	assert.NotPanics(t, func() { w.runSafe(context.Background()) })
	assert.Contains(t, buf.String(), "scraper exploded")
}
