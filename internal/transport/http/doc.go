// Package http contains the chi handlers serving the dashboard API to the
// external presentation layer.
package http
