/*
reloader.go - Periodic configuration reload

PURPOSE:
  When several server replicas share one store, a program or assumption
  change made through one replica is invisible to the others until they
  reload. The reloader polls the store on an interval and swaps in a new
  snapshot when the configuration generation changed.

USAGE:
  r := service.NewReloader(svc, time.Minute, log)
  r.Start()
  // ... later
  r.Stop()

An interval of zero disables the reloader; Start is then a no-op.
*/
package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Reloader periodically calls Service.Reload.
type Reloader struct {
	svc      *Service
	interval time.Duration
	log      *zap.Logger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewReloader creates a reloader for svc.
func NewReloader(svc *Service, interval time.Duration, log *zap.Logger) *Reloader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reloader{
		svc:      svc,
		interval: interval,
		log:      log,
	}
}

// Start begins polling. A stopped reloader can be started again.
func (r *Reloader) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.interval <= 0 {
		r.log.Debug("config reloader disabled")
		return
	}
	if r.ticker != nil {
		return
	}

	r.ticker = time.NewTicker(r.interval)
	r.stop = make(chan struct{})
	r.wg.Add(1)
	go r.run(r.ticker, r.stop)

	r.log.Info("config reloader started", zap.Duration("interval", r.interval))
}

// Stop halts polling and waits for an in-progress reload to finish.
func (r *Reloader) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ticker == nil {
		return
	}
	r.ticker.Stop()
	close(r.stop)
	r.wg.Wait()
	r.ticker = nil
	r.stop = nil
	r.log.Info("config reloader stopped")
}

// RunNow reloads immediately.
func (r *Reloader) RunNow() {
	r.check()
}

func (r *Reloader) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer r.wg.Done()

	for {
		select {
		case <-ticker.C:
			r.check()
		case <-stop:
			return
		}
	}
}

func (r *Reloader) check() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout())
	defer cancel()

	changed, err := r.svc.Reload(ctx)
	if err != nil {
		r.log.Error("config reload failed", zap.Error(err))
		return
	}
	if changed {
		r.log.Info("configuration changed in store", zap.Uint64("generation", r.svc.Generation()))
	}
}

func (r *Reloader) timeout() time.Duration {
	if r.interval > 0 && r.interval < 30*time.Second {
		return r.interval
	}
	return 30 * time.Second
}
