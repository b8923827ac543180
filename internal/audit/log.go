// Package audit records administrative actions on a best-effort basis.
// Writes are fire-and-forget: a full queue or a failing store never blocks
// or fails the action being audited.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/HossanaWebsite/hcsem-v-2.0-sub001/internal/auth"
	"github.com/HossanaWebsite/hcsem-v-2.0-sub001/internal/obs"
)

// Action names recorded in the log.
const (
	ActionCreateUser            = "CREATE_USER"
	ActionUpdateUser            = "UPDATE_USER"
	ActionDeleteUser            = "DELETE_USER"
	ActionCreateRole            = "CREATE_ROLE"
	ActionUpdateRole            = "UPDATE_ROLE"
	ActionDeleteRole            = "DELETE_ROLE"
	ActionInitiatePasswordReset = "INITIATE_PASSWORD_RESET"
	ActionCompletePasswordReset = "COMPLETE_PASSWORD_RESET"
)

const (
	defaultQueueSize    = 256
	defaultWriteTimeout = 5 * time.Second
)

// Recorder queues audit entries and writes them from a background goroutine.
type Recorder struct {
	store        auth.AuditStore
	queue        chan *auth.AuditEntry
	now          func() time.Time
	writeTimeout time.Duration

	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
	done      chan struct{}
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithQueueSize sets the buffered queue capacity.
func WithQueueSize(n int) RecorderOption {
	return func(r *Recorder) {
		if n > 0 {
			r.queue = make(chan *auth.AuditEntry, n)
		}
	}
}

// WithRecorderClock overrides the time source (useful for tests).
func WithRecorderClock(fn func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if fn != nil {
			r.now = fn
		}
	}
}

// NewRecorder starts a Recorder writing to store.
func NewRecorder(store auth.AuditStore, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:        store,
		queue:        make(chan *auth.AuditEntry, defaultQueueSize),
		now:          time.Now,
		writeTimeout: defaultWriteTimeout,
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	go r.run()
	return r
}

// Actor identifies who performed an action. A zero Actor records the entry
// as the system itself.
type Actor struct {
	ID    string
	Email string
}

// Record enqueues an audit entry and returns immediately. When the queue is
// full, or the recorder has been closed, the entry is dropped and counted;
// the caller is never blocked.
func (r *Recorder) Record(actor Actor, action string, details map[string]any, ipAddress string) {
	entry := &auth.AuditEntry{
		Action:     action,
		Details:    details,
		IPAddress:  ipAddress,
		OccurredAt: r.now().UTC(),
	}
	if actor.ID != "" {
		id := actor.ID
		entry.ActorID = &id
		entry.ActorEmail = actor.Email
	}
	// The send must happen under the same lock that marks the recorder
	// closed, or a Record racing Close would send on a closed channel.
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.drop(action)
		return
	}
	select {
	case r.queue <- entry:
		r.mu.Unlock()
	default:
		r.mu.Unlock()
		r.drop(action)
	}
}

func (r *Recorder) drop(action string) {
	obs.AuditDropped()
	obs.Log("warn", "audit_entry_dropped", map[string]any{"action": action})
}

// Recent returns the newest entries, resolving the actor display name from
// the live user record when it still exists and falling back to the stored
// email snapshot, or "system" for unattributed entries.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]*auth.AuditEntry, error) {
	entries, err := r.store.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.ActorName != "" {
			continue
		}
		if e.ActorEmail != "" {
			e.ActorName = e.ActorEmail
		} else {
			e.ActorName = "system"
		}
	}
	return entries, nil
}

// Close stops the writer after draining queued entries. Entries recorded
// after Close are dropped.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()
		close(r.queue)
		<-r.done
	})
}

func (r *Recorder) run() {
	defer close(r.done)
	for entry := range r.queue {
		r.write(entry)
	}
}

func (r *Recorder) write(entry *auth.AuditEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
	defer cancel()
	if err := r.store.Append(ctx, entry); err != nil {
		obs.Log("error", "audit_append_failed", map[string]any{
			"action": entry.Action,
			"error":  err.Error(),
		})
	}
}
