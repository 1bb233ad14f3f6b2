// Package tracking owns the aggregate email metrics state.
//
// A Tracker is the single writer for the snapshot: the record path
// (RecordOpen/RecordClick/RecordActivity) recomputes derived scores after
// every mutation, the Update path merges a partial patch without recomputing.
// That asymmetry is deliberate; see DESIGN.md before changing it. Every
// mutation triggers one broadcast of the full snapshot.
package tracking
