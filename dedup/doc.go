// Package dedup guards against duplicate event processing. Chat platforms
// deliver events at least once; the guard gives each event ID to exactly
// one claimant across all running instances. A claim lives for a retention
// window and then expires, which bounds memory, not correctness: a
// redelivery after the window is processed again by design.
package dedup
