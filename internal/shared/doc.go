// Package shared holds helpers used by more than one package's tests.
// Production code must not import it.
package shared
