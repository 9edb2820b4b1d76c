package service

import "sync"

// UserLocks hands out one process-local mutex per username so that cart
// read-modify-write cycles for the same user do not interleave. It does not
// coordinate across processes.
type UserLocks struct {
	locks sync.Map // map[string]*sync.Mutex
}

func NewUserLocks() *UserLocks { return &UserLocks{} }

// Lock acquires the mutex for username and returns its unlock func.
func (l *UserLocks) Lock(username string) func() {
	// fast path Load
	if v, ok := l.locks.Load(username); ok {
		m := v.(*sync.Mutex)
		m.Lock()
		return m.Unlock
	}

	m := &sync.Mutex{}
	actual, _ := l.locks.LoadOrStore(username, m)
	mtx := actual.(*sync.Mutex)
	mtx.Lock()
	return mtx.Unlock
}
