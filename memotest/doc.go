// Package memotest provides a backend-agnostic contract suite for
// memoize.Cache implementations and a deterministic fake cache for testing
// memoized methods without external services.
package memotest
