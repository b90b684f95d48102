// Package testutil holds small fixtures shared by package tests and the
// scenario harness.
package testutil
