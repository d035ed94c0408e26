// Package jobs runs background maintenance. With Redis the invite sweep is
// an asynq periodic task, so one instance in the cluster runs it per tick;
// without Redis each process sweeps on a local ticker.
package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
)

const TypeInviteSweep = "invite:sweep"

// Sweeper expires stale invitations and reports how many changed.
type Sweeper interface {
	ExpireStale(ctx context.Context) (int64, error)
}

// HandleInviteSweep adapts s to an asynq task handler.
func HandleInviteSweep(s Sweeper) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		return sweep(ctx, s)
	}
}

func sweep(ctx context.Context, s Sweeper) error {
	n, err := s.ExpireStale(ctx)
	if err != nil {
		return fmt.Errorf("expire invites: %w", err)
	}
	if n > 0 {
		log.Printf("jobs: expired %d invites", n)
	}
	return nil
}

// RunScheduled registers the sweep as a periodic asynq task and processes
// it until ctx is done.
func RunScheduled(ctx context.Context, redisURL string, interval time.Duration, s Sweeper) error {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return fmt.Errorf("asynq: parse redis url: %w", err)
	}

	scheduler := asynq.NewScheduler(opt, nil)
	if _, err := scheduler.Register(fmt.Sprintf("@every %s", interval), asynq.NewTask(TypeInviteSweep, nil), asynq.Unique(interval)); err != nil {
		return fmt.Errorf("asynq: register sweep: %w", err)
	}

	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: 1,
		Queues:      map[string]int{"default": 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			log.Printf("jobs: task %s failed: %v", task.Type(), err)
		}),
	})
	mux := asynq.NewServeMux()
	mux.Handle(TypeInviteSweep, HandleInviteSweep(s))

	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("asynq: start scheduler: %w", err)
	}
	if err := srv.Start(mux); err != nil {
		scheduler.Shutdown()
		return fmt.Errorf("asynq: start server: %w", err)
	}

	<-ctx.Done()
	srv.Shutdown()
	scheduler.Shutdown()
	return nil
}

// RunTicker sweeps every interval until ctx is done.
func RunTicker(ctx context.Context, interval time.Duration, s Sweeper) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sweep(ctx, s); err != nil {
				log.Printf("jobs: %v", err)
			}
		}
	}
}
