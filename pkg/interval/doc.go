// Package interval provides a periodic tick driver with on-demand ticks.
//
// A Ticker calls its TickFunc every period and whenever Trigger is called. Ticks are
// independent by default: a tick that is still running when the next one fires does
// not delay it. WithSerializedTicks makes each tick wait for the previous one instead.
//
//	tk, err := interval.New(500*time.Millisecond, func(ctx context.Context) {
//		flushBatch(ctx)
//	})
//	if err != nil {
//		return err
//	}
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(tk.Run(ctx))
//
// Start blocks until the context is cancelled and returns only after in-flight ticks
// finish. Tick functions receive a context that is not cancelled on shutdown.
package interval
