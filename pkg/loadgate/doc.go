// Package loadgate provides a host-resource-aware admission gate for units
// of work. A gate admits a task when a concurrency slot is free and host
// CPU/memory are under thresholds derived from installed memory.
//
// Example usage:
//
//	cfg := loadgate.DefaultConfig()
//	g, err := loadgate.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := g.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//	defer g.Stop()
//
//	result, err := g.Execute(ctx, "encode", func(ctx context.Context) (interface{}, error) {
//	    return doWork(ctx)
//	})
//
// Admission is FIFO under contention and event-driven: waiters are woken by
// slot releases and by fresh resource samples, not by fixed-interval polling.
// Task errors propagate to the caller unchanged after the slot is released;
// the gate never retries.
//
// All state is process-local. The gate is safe for concurrent use from many
// goroutines within one process, but provides no coordination across
// processes or restarts.
package loadgate
