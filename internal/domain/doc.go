// Package domain defines the core domain types and interfaces.
//
// This package contains the metrics snapshot types and the cross-cutting
// Tracker/Publisher contracts. No implementation code - just contracts.
// Prevents circular imports by keeping interfaces on the consumer side.
package domain
