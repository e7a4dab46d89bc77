//go:build jsonbind_deadlock

package sync

import (
	"github.com/sasha-s/go-deadlock"
)

type (
	Mutex   = deadlock.Mutex
	RWMutex = deadlock.RWMutex
	Once    = deadlock.Once
	Locker  = deadlock.Locker
)
