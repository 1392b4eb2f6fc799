// Package gnbasync provides the asynchronous execution core shared by the
// L2/L3 procedures of a 5G base station: resumable task frames, awaitable
// event primitives, bounded async queues, executor-switch awaitables, and a
// serial task sequencer (strand).
//
// # Architecture
//
// Everything in this package composes around the [Executor] contract: a
// minimal two-method interface ([Executor.Execute], [Executor.Defer]) that
// any dispatcher (a single worker goroutine, a thread-pool adapter, an
// in-process gRPC transport) can implement. Tasks are represented as
// [Task] values, each owning a [Frame], produced by [Go] (eager) or [Lazy]
// (lazy), or as [Proc] values built with [NewProc] for callers that prefer
// an explicit step-function style over a closure-driving one.
//
// Suspension happens through the [Awaitable] contract: anything offering
// an [Awaiter] can be awaited from inside a frame or a resumable procedure.
// [ManualEvent], [SignalEvent] and [AsyncQueue] are the primitives that
// implement it; the timer service (package timer) and the protocol
// transaction primitives (package transaction) are layered on top.
//
// # Thread safety
//
//   - A [Frame] runs on at most one executor at a time; resuming it from two
//     goroutines concurrently is a programming error the frame does not
//     guard against (matching the "single-threaded-per-context" scheduling
//     model the whole core assumes).
//   - [ManualEvent], [SignalEvent] and [AsyncQueue] are safe to Set/Push from
//     any goroutine; their waiter lists are intrusive and allocation-free.
//   - [Closure] is not safe for concurrent invocation; it is a move-only
//     single-owner value.
//
// # Usage
//
//	var e gnbasync.ManualEvent[int]
//	task := gnbasync.Go(func(ctx *gnbasync.Context) int {
//	    v, _ := gnbasync.Await(ctx, &e)
//	    return v
//	})
//	e.Set(42)
//	result := task.Wait()
package gnbasync
