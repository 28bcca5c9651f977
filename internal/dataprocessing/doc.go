// Package dataprocessing implements the reconciliation and metrics
// pipeline: it normalizes the raw source tables, joins them against the
// item catalog and staff reference, merges engine sales and mod logs into
// one unified ledger snapshot, and computes the filtered aggregates served
// to the dashboard.
package dataprocessing
