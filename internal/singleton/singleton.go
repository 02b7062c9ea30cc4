// Package singleton provides lazily constructed, process-wide instances.
package singleton

import "sync"

// New creates a singleton factory function.
// Returns a function that will always return the same instance.
func New[R any](constructor func() R) func() R {
	var (
		once     sync.Once
		instance R
	)
	return func() R {
		once.Do(func() {
			instance = constructor()
		})
		return instance
	}
}

// Keyed creates a factory that constructs at most one instance per key.
func Keyed[K comparable, R any](constructor func(K) R) func(K) R {
	var (
		mu        sync.Mutex
		instances = map[K]R{}
	)
	return func(key K) R {
		mu.Lock()
		defer mu.Unlock()

		if r, ok := instances[key]; ok {
			return r
		}
		r := constructor(key)
		instances[key] = r
		return r
	}
}
