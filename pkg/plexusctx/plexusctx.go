// Package plexusctx holds the process-wide plexus hash: a stable digest of
// the registered activation set, computed once at boot and read by every
// subsequent envelope constructed anywhere in the process.
package plexusctx

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
)

var (
	once  sync.Once
	value string
	mu    sync.RWMutex
)

// ActivationSummary is the minimal shape needed to contribute to the hash:
// namespace, version, and the method list of one registered activation,
// in declared order.
type ActivationSummary struct {
	Namespace string
	Version   string
	Methods   []string
}

// Compute derives the plexus hash from a set of activation summaries: each
// summary becomes "namespace:version:m0,m1,..." with methods in their
// declared order, the resulting strings are sorted lexicographically so
// registration order never changes the result, then joined with ";" and
// hashed.
func Compute(summaries []ActivationSummary) string {
	parts := make([]string, len(summaries))
	for i, s := range summaries {
		parts[i] = fmt.Sprintf("%s:%s:%s", s.Namespace, s.Version, strings.Join(s.Methods, ","))
	}
	sort.Strings(parts)

	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.Join(parts, ";")))
	return fmt.Sprintf("%016x", h.Sum64())
}

// Init computes and stores the process-wide plexus hash exactly once. Any
// call after the first is a no-op: the hash is fixed for the lifetime of
// the process, matching the spec's "initialized once at boot" invariant.
func Init(summaries []ActivationSummary) {
	once.Do(func() {
		mu.Lock()
		value = Compute(summaries)
		mu.Unlock()
	})
}

// Current returns the process-wide plexus hash. It is safe to call before
// Init; callers that need a guaranteed-initialized value should only read
// this after the router has completed registration and called Init.
func Current() string {
	mu.RLock()
	defer mu.RUnlock()
	return value
}

// reset exists for tests that need to exercise Init more than once within
// one test binary; it is unexported so production code can never bypass
// the once-per-process invariant.
func reset() {
	once = sync.Once{}
	mu.Lock()
	value = ""
	mu.Unlock()
}
