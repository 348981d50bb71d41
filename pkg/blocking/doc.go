// Package blocking provides a concurrent FIFO/LIFO sequence with a single blocking reader.
//
// Producers call Push from any goroutine. One consumer drains the sequence either
// without blocking (TryPop) or by suspending until an item arrives (TryTake):
//
//	q := blocking.NewQueue[Job]()
//	go func() {
//		for {
//			job, ok := q.TryTake(ctx)
//			if !ok {
//				return // ctx done, or closed and drained
//			}
//			process(job)
//		}
//	}()
//
//	_ = q.Push(Job{ID: 1})
//	q.Close()
//
// NewStack returns the same container with LIFO ordering. Close wakes a blocked reader
// deterministically; items pushed before Close can still be taken afterwards.
package blocking
