// Package dispatch runs event-triggered jobs against a single state owner.
//
// A Dispatcher admits a launch only when no event with the same name is in
// flight and no message is waiting to be acknowledged. An admitted job's
// stream is consumed on its own goroutine; every envelope it produces is
// posted to one serialized Executor, where the payload is handed to the
// owner's DataHandler, the message is queued, and the completion marker
// retires the event.
//
// Rejected launches are silent. Callers that need to know ask CanExecute
// first.
//
// Threading:
//   - Launch, Dismiss, DismissHead, DismissAll and CancelAll belong on the
//     Executor's context, the same place the DataHandler runs. With the
//     default SerialExecutor deliveries run on the consumer goroutines, and
//     CancelAll may be called from any goroutine: once it returns, no
//     envelope of a cancelled stream queues a message or retires an event.
//     A DataHandler call already under way may still finish.
//   - Progress and Head may be read or subscribed to from anywhere.
//   - Shutdown is for process exit and must not be called from the Executor.
//
// Cancellation is all-or-nothing. CancelAll cancels every stream, drops
// envelopes that were posted but not yet delivered, and clears the active
// set. The next Launch starts a fresh background scope.
package dispatch
