// Package task implements the asynchronous generation task lifecycle:
// the task record and its status machine, the persistence contract for
// task state, and the LifecycleManager that drives each task through the
// generation pipeline in a detached goroutine. Tasks move from pending
// through processing to exactly one terminal state; faults in the
// detached pipeline are captured into the task record and never surface
// to the caller that submitted the work.
package task
