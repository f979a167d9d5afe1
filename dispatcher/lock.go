package dispatcher

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// reentrantMutex backs Dispatcher.Lock/Unlock: callbacks issued from
// foreign threads (timer, I/O adapters) sometimes need to make several
// coordinated sends while observing a consistent view of the node table.
// Only the goroutine currently holding the lock is ever allowed to recurse
// into it, so count is safe to touch without its own synchronization.
type reentrantMutex struct {
	mu    sync.Mutex
	owner atomic.Uint64
	count int
}

func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}

func (r *reentrantMutex) Lock() {
	gid := getGoroutineID()
	if r.owner.Load() == gid {
		r.count++
		return
	}
	r.mu.Lock()
	r.owner.Store(gid)
	r.count = 1
}

func (r *reentrantMutex) Unlock() {
	r.count--
	if r.count == 0 {
		r.owner.Store(0)
		r.mu.Unlock()
	}
}
