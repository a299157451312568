package usecase

import (
	"context"
	"sync"
)

// MemberLock serializes work per member in arrival order.
// Waiters for the same member are granted the lock first-in first-out;
// different members never contend beyond the short bookkeeping section.
type MemberLock struct {
	mu     sync.Mutex
	queues map[uint]*lockQueue
}

type lockQueue struct {
	waiters []chan struct{}
}

// NewMemberLock returns an empty MemberLock.
func NewMemberLock() *MemberLock {
	return &MemberLock{queues: make(map[uint]*lockQueue)}
}

// Lock blocks until the member's lock is held or ctx is done.
// The returned func releases the lock and is safe to call more than once.
func (l *MemberLock) Lock(ctx context.Context, memberID uint) (func(), error) {
	l.mu.Lock()
	q, held := l.queues[memberID]
	if !held {
		l.queues[memberID] = &lockQueue{}
		l.mu.Unlock()
		return l.releaser(memberID), nil
	}
	ch := make(chan struct{})
	q.waiters = append(q.waiters, ch)
	l.mu.Unlock()

	select {
	case <-ch:
		return l.releaser(memberID), nil
	case <-ctx.Done():
	}

	l.mu.Lock()
	select {
	case <-ch:
		// 取り消しと同時に引き渡されたので、次の待機者へ回す
		l.mu.Unlock()
		l.release(memberID)
		return nil, ctx.Err()
	default:
	}
	for i, w := range q.waiters {
		if w == ch {
			q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
			break
		}
	}
	l.mu.Unlock()
	return nil, ctx.Err()
}

func (l *MemberLock) releaser(memberID uint) func() {
	var once sync.Once
	return func() { once.Do(func() { l.release(memberID) }) }
}

// release hands the lock to the oldest waiter, or forgets the member when nobody waits.
func (l *MemberLock) release(memberID uint) {
	l.mu.Lock()
	defer l.mu.Unlock()
	q, ok := l.queues[memberID]
	if !ok {
		return
	}
	if len(q.waiters) == 0 {
		delete(l.queues, memberID)
		return
	}
	next := q.waiters[0]
	q.waiters = q.waiters[1:]
	close(next)
}

// Held reports whether the member's lock is currently held.
func (l *MemberLock) Held(memberID uint) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.queues[memberID]
	return ok
}
