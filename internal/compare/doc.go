// Package compare aligns two enriched tracks on a shared one-second
// timeline and reduces the result.
//
// Responsibilities: the optional time-window filter, the inner join on
// second-truncated instants, cross-track metrics, the time-range-only
// report, the summary and the JSON projections served to clients. The
// Pipeline type wires parsing, reconciliation and kinematics for both
// tracks in parallel ahead of the merge.
//
// Everything here is a pure function of its inputs; memoisation belongs
// to callers.
package compare
