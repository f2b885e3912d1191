// Package pathlock serialises mutations of the same storage path.
package pathlock

import (
	"sort"
	"sync"
)

// Locker hands out one mutex per path. The zero value is ready to use.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// Lock acquires the locks of all paths in sorted order and returns the
// function releasing them. Duplicate paths are locked once.
func (l *Locker) Lock(paths ...string) func() {
	unique := make([]string, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		unique = append(unique, p)
	}
	sort.Strings(unique)

	held := make([]*entry, 0, len(unique))
	for _, p := range unique {
		e := l.acquire(p)
		e.mu.Lock()
		held = append(held, e)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
			l.release(unique[i])
		}
	}
}

func (l *Locker) acquire(path string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locks == nil {
		l.locks = map[string]*entry{}
	}
	e, ok := l.locks[path]
	if !ok {
		e = &entry{}
		l.locks[path] = e
	}
	e.refs++
	return e
}

func (l *Locker) release(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.locks[path]
	if e.refs--; e.refs == 0 {
		delete(l.locks, path)
	}
}

// Size returns the number of paths currently locked or awaited.
func (l *Locker) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
