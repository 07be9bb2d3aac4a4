package main

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/llxisdsh/threadcore"
)

const retryDelay = 50 * time.Microsecond

type stressConfig struct {
	maxPriority int
	producers   int
	messages    int
	queueLimit  int
	urgent      bool
}

// stressHandler counts dispatched messages per priority, which each
// message carries in its first parameter.
type stressHandler struct {
	dispatched []atomic.Uint64
}

func (h *stressHandler) HandleMessage(_ threadcore.Kind, p1, _ uintptr) {
	h.dispatched[p1].Add(1)
}

func newStressCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Flood a worker from concurrent producers and report dispatch counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := stressConfig{
				maxPriority: a.v.GetInt("max-priority"),
				producers:   a.v.GetInt("producers"),
				messages:    a.v.GetInt("messages"),
				queueLimit:  a.v.GetInt("queue-limit"),
				urgent:      a.v.GetBool("urgent"),
			}
			return a.runStress(cmd, cfg)
		},
	}
	f := cmd.Flags()
	f.Int("max-priority", 3, "highest message priority")
	f.Int("producers", 4, "number of concurrent producers")
	f.Int("messages", 10000, "messages posted by each producer")
	f.Int("queue-limit", 0, "capacity of each priority queue (0 for unbounded)")
	f.Bool("urgent", false, "stop urgently, discarding undispatched messages")
	a.bindFlags(f)
	return cmd
}

func (a *app) runStress(cmd *cobra.Command, cfg stressConfig) error {
	if cfg.maxPriority < 0 || cfg.producers < 1 || cfg.messages < 0 {
		return fmt.Errorf("invalid stress parameters: %+v", cfg)
	}
	h := &stressHandler{dispatched: make([]atomic.Uint64, cfg.maxPriority+1)}
	posted := make([]atomic.Uint64, cfg.maxPriority+1)
	var rejected atomic.Uint64

	w, err := threadcore.NewWorker(h,
		threadcore.WithName("stress"),
		threadcore.WithLogger(a.log),
		threadcore.WithQueueLimit(cfg.queueLimit),
	)
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Init(cfg.maxPriority); err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}

	start := time.Now()
	g, ctx := errgroup.WithContext(cmd.Context())
	for p := range cfg.producers {
		g.Go(func() error {
			for i := range cfg.messages {
				prio := (p + i) % (cfg.maxPriority + 1)
				if err := post(ctx, w, prio, &rejected); err != nil {
					return fmt.Errorf("producer %d: %w", p, err)
				}
				posted[prio].Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := w.Stop(cfg.urgent); err != nil {
		return err
	}
	elapsed := time.Since(start)

	out := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "priority\tposted\tdispatched")
	var totalPosted, totalDispatched uint64
	for p := cfg.maxPriority; p >= 0; p-- {
		n, d := posted[p].Load(), h.dispatched[p].Load()
		totalPosted += n
		totalDispatched += d
		fmt.Fprintf(tw, "%d\t%d\t%d\n", p, n, d)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	rate := float64(totalDispatched) / max(elapsed.Seconds(), 1e-9)
	fmt.Fprintf(out, "total posted=%d dispatched=%d rejected=%d elapsed=%s rate=%.0f/s\n",
		totalPosted, totalDispatched, rejected.Load(), elapsed.Round(time.Microsecond), rate)
	return nil
}

// post retries while the target queue is full.
func post(ctx context.Context, w *threadcore.Worker, prio int, rejected *atomic.Uint64) error {
	for {
		err := w.PostMessage(1, uintptr(prio), 0, prio)
		if !errors.Is(err, threadcore.ErrResource) {
			return err
		}
		rejected.Add(1)
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := threadcore.Sleep(retryDelay); err != nil {
			return err
		}
	}
}
