package work

import (
	"container/heap"
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/abelbrown/baitline/internal/logging"
)

// Pool manages a pool of workers that process work items.
// All async work flows through this central hub.
type Pool struct {
	mu      sync.RWMutex
	workers int

	// Queues
	pending   priorityQueue    // Max-heap by priority, FIFO within priority
	byID      map[string]*Item // ID -> pending item, for O(1) priority updates
	active    map[string]*Item // ID -> active work
	completed *RingBuffer      // Recent completed (success + failure)

	// Channels
	workChan chan struct{}
	stopChan chan struct{}

	// Event subscribers (for UI updates)
	subscribers   []chan Event
	subscribersMu sync.RWMutex

	// Stats
	totalCreated   int64
	totalCompleted int64
	totalFailed    int64

	// ID generator
	nextID int64

	// Lifecycle
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	stopped bool
}

// NewPool creates a work pool with the specified number of workers.
// If workers <= 0, uses runtime.NumCPU().
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Pool{
		workers:   workers,
		byID:      make(map[string]*Item),
		active:    make(map[string]*Item),
		completed: NewRingBuffer(100),
		workChan:  make(chan struct{}, 1),
		stopChan:  make(chan struct{}),
	}
}

// Start launches the dispatch goroutine. Calling Start on a running pool is
// a no-op.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.processPending()

	logging.Info("Work pool started", "workers", p.workers)
}

// Stop gracefully shuts down the pool. Safe to call more than once.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	logging.Info("Work pool stopping")
	if p.cancel != nil {
		p.cancel()
	}
	close(p.stopChan)
	p.wg.Wait()
	logging.Info("Work pool stopped",
		"created", atomic.LoadInt64(&p.totalCreated),
		"completed", atomic.LoadInt64(&p.totalCompleted),
		"failed", atomic.LoadInt64(&p.totalFailed))
}

// Submit adds a work item to the queue.
func (p *Pool) Submit(item *Item) string {
	item.ID = p.generateID()
	item.Status = StatusPending
	item.CreatedAt = time.Now()

	p.mu.Lock()
	heap.Push(&p.pending, item)
	p.byID[item.ID] = item
	atomic.AddInt64(&p.totalCreated, 1)
	p.mu.Unlock()

	p.notify(Event{Item: item, Change: "created"})

	// Signal the dispatcher
	select {
	case p.workChan <- struct{}{}:
	default:
	}

	return item.ID
}

// SubmitFunc is a convenience for simple work without progress tracking.
func (p *Pool) SubmitFunc(typ Type, desc string, fn func() (string, error)) string {
	item := &Item{
		Type:        typ,
		Description: desc,
		workFn:      fn,
	}
	return p.Submit(item)
}

// SubmitFuncWithPriority submits simple work at the given priority.
func (p *Pool) SubmitFuncWithPriority(typ Type, desc string, priority int, fn func() (string, error)) string {
	item := &Item{
		Type:        typ,
		Description: desc,
		Priority:    priority,
		workFn:      fn,
	}
	return p.Submit(item)
}

// SubmitWithProgress submits work that reports progress.
func (p *Pool) SubmitWithProgress(typ Type, desc string, fn func(progress func(pct float64, msg string)) (string, error)) string {
	item := &Item{
		Type:        typ,
		Description: desc,
	}

	// Wrap the function to inject progress callback
	item.workFn = func() (string, error) {
		return fn(func(pct float64, msg string) {
			p.mu.Lock()
			item.Progress = pct
			item.ProgressMsg = msg
			p.mu.Unlock()
			p.notify(Event{Item: item, Change: "progress"})
		})
	}

	return p.Submit(item)
}

// SubmitWithData submits work that returns arbitrary data.
// The dataFn should return (result string, data any, error).
func (p *Pool) SubmitWithData(typ Type, desc string, source string, dataFn func() (string, any, error)) string {
	return p.SubmitWithDataAndPriority(typ, desc, source, PriorityNormal, dataFn)
}

// SubmitWithDataAndPriority submits data-returning work at the given priority.
func (p *Pool) SubmitWithDataAndPriority(typ Type, desc string, source string, priority int, dataFn func() (string, any, error)) string {
	item := &Item{
		Type:        typ,
		Description: desc,
		Source:      source,
		Priority:    priority,
	}

	// Wrap the function to capture data
	item.workFn = func() (string, error) {
		result, data, err := dataFn()
		item.Data = data
		return result, err
	}

	return p.Submit(item)
}

// UpdatePriority changes the priority of a pending item.
// Returns false if the item is not pending (unknown ID, already dispatched).
func (p *Pool) UpdatePriority(id string, priority int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	item, ok := p.byID[id]
	if !ok {
		return false
	}
	return p.pending.update(item, priority)
}

// processPending moves items from the pending heap to workers.
func (p *Pool) processPending() {
	defer p.wg.Done()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-p.stopChan:
			return
		case <-ticker.C:
			p.dispatchPending()
		case <-p.workChan:
			p.dispatchPending()
		}
	}
}

// dispatchPending sends pending items to workers if capacity is available.
func (p *Pool) dispatchPending() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for p.pending.Len() > 0 && len(p.active) < p.workers {
		item := heap.Pop(&p.pending).(*Item)
		delete(p.byID, item.ID)

		item.Status = StatusActive
		item.StartedAt = time.Now()
		p.active[item.ID] = item

		p.notify(Event{Item: item, Change: "started"})

		// The pool is a concurrency limiter; each item runs in its own goroutine
		go p.execute(item)
	}
}

// execute runs a single work item.
func (p *Pool) execute(item *Item) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Work panicked",
				"id", item.ID,
				"panic", r)
			p.complete(item, "", fmt.Errorf("panic: %v", r))
		}
	}()

	if item.workFn == nil {
		p.complete(item, "", fmt.Errorf("no work function"))
		return
	}

	result, err := item.workFn()
	p.complete(item, result, err)
}

// complete marks a work item as finished.
func (p *Pool) complete(item *Item, result string, err error) {
	p.mu.Lock()
	item.FinishedAt = time.Now()
	item.Result = result
	item.Error = err

	if err != nil {
		item.Status = StatusFailed
		atomic.AddInt64(&p.totalFailed, 1)
	} else {
		item.Status = StatusComplete
		atomic.AddInt64(&p.totalCompleted, 1)
	}

	delete(p.active, item.ID)
	p.completed.Push(item)
	p.mu.Unlock()

	change := "completed"
	if err != nil {
		change = "failed"
	}
	p.notify(Event{Item: item, Change: change})
}

// Snapshot returns a copy of the current state for UI display.
func (p *Pool) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	pending := make([]*Item, p.pending.Len())
	for i, item := range p.pending {
		c := *item
		pending[i] = &c
	}

	active := make([]*Item, 0, len(p.active))
	for _, item := range p.active {
		c := *item
		active = append(active, &c)
	}

	completed := p.completed.All()
	for i, item := range completed {
		c := *item
		completed[i] = &c
	}

	return Snapshot{
		Pending:   pending,
		Active:    active,
		Completed: completed,
		Stats: Stats{
			TotalCreated:   atomic.LoadInt64(&p.totalCreated),
			TotalCompleted: atomic.LoadInt64(&p.totalCompleted),
			TotalFailed:    atomic.LoadInt64(&p.totalFailed),
			WorkersActive:  len(p.active),
			WorkersTotal:   p.workers,
			PendingCount:   p.pending.Len(),
		},
	}
}

// Subscribe returns a channel that receives work events.
// The channel should be drained to avoid dropped events.
func (p *Pool) Subscribe() <-chan Event {
	return p.SubscribeBuffered(100)
}

// SubscribeBuffered returns a subscriber channel with room for capacity
// events. A full channel drops events rather than blocking the pool, so
// consumers that may lag should size the buffer for the expected volume.
func (p *Pool) SubscribeBuffered(capacity int) <-chan Event {
	if capacity < 1 {
		capacity = 100
	}
	ch := make(chan Event, capacity)
	p.subscribersMu.Lock()
	p.subscribers = append(p.subscribers, ch)
	p.subscribersMu.Unlock()
	logging.Debug("Work pool subscriber added", "total", len(p.subscribers))
	return ch
}

// Unsubscribe removes a subscriber channel.
func (p *Pool) Unsubscribe(ch <-chan Event) {
	p.subscribersMu.Lock()
	defer p.subscribersMu.Unlock()

	for i, sub := range p.subscribers {
		if sub == ch {
			p.subscribers = append(p.subscribers[:i], p.subscribers[i+1:]...)
			close(sub)
			logging.Debug("Work pool subscriber removed", "total", len(p.subscribers))
			return
		}
	}
}

// notify sends an event to all subscribers.
func (p *Pool) notify(event Event) {
	LogEvent(event)

	p.subscribersMu.RLock()
	defer p.subscribersMu.RUnlock()

	for _, ch := range p.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber not keeping up, drop event
			logging.Debug("Work event dropped (subscriber full)",
				"id", event.Item.ID,
				"change", event.Change)
		}
	}
}

// generateID creates a unique work item ID.
func (p *Pool) generateID() string {
	id := atomic.AddInt64(&p.nextID, 1)
	return fmt.Sprintf("w%d", id)
}

// Stats returns current statistics.
func (p *Pool) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return Stats{
		TotalCreated:   atomic.LoadInt64(&p.totalCreated),
		TotalCompleted: atomic.LoadInt64(&p.totalCompleted),
		TotalFailed:    atomic.LoadInt64(&p.totalFailed),
		WorkersActive:  len(p.active),
		WorkersTotal:   p.workers,
		PendingCount:   p.pending.Len(),
	}
}

// PendingCount returns the number of pending items.
func (p *Pool) PendingCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pending.Len()
}

// ActiveCount returns the number of active items.
func (p *Pool) ActiveCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.active)
}

// ClearHistory clears the completed work history.
func (p *Pool) ClearHistory() {
	p.completed.Clear()
	logging.Info("Work history cleared")
}
