// Package graceful
// Author: momentics <momentics@gmail.com>
//
// Graceful shutdown coordination for long-running tasks.
//
// Tasks are spawned through a Shutdown and receive a Guard. A task is expected
// to watch its Guard (Done, Context) and return promptly once stop has been
// signalled. Shutdown(limit) signals every guard and waits, for at most limit,
// until every spawned task has returned. Cancellation is cooperative: a task
// that never looks at its Guard makes Shutdown report a DeadlineExceededError
// but is never killed.
package graceful
