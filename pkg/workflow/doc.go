// Package workflow runs the profile → position → adapted résumé pipeline.
//
// # Phases
//
// Every server interaction is tracked by a Phase: idle, in flight,
// succeeded or failed. Phases only move through Start, Succeed, Fail and
// Reset, so a phase is never both loading and failed.
//
// # Analyze
//
// Analyze summarizes a job description and, when a committed profile
// exists, assesses the match. The match is only requested after the summary
// succeeds. A failed match leaves the summary in place and closes the
// generate gate.
//
// # Gate
//
// Generating is allowed once a match is approved or the user chose to
// generate anyway. Gate tracks the visible step and derives the advisory
// and the enabled state of the generate control from a Snapshot.
//
// # Snapshots
//
// The Orchestrator publishes a Snapshot after every state change. The
// console renders from snapshots; the CLI reads them after each action.
package workflow
