//go:build !jsonbind_deadlock

package sync

import "sync"

type (
	Mutex   = sync.Mutex
	RWMutex = sync.RWMutex
	Once    = sync.Once
	Locker  = sync.Locker
)
