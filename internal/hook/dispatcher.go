package hook

import (
	"context"
	"sync"

	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/session"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/pkg/log"
)

// Dispatcher fans published reports out to subscribed hooks. Each hook runs
// on its own goroutine so Publish never blocks the capture path.
type Dispatcher struct {
	manager  *Manager
	executor *Executor

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	onDone  func(event string, h *Hook, resp *Response, err error)
	stopped bool
}

// NewDispatcher returns a Dispatcher running manager's hooks with executor.
func NewDispatcher(manager *Manager, executor *Executor) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		manager:  manager,
		executor: executor,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// OnDone registers a callback invoked after every hook run.
func (d *Dispatcher) OnDone(fn func(event string, h *Hook, resp *Response, err error)) {
	d.mu.Lock()
	d.onDone = fn
	d.mu.Unlock()
}

// Publish implements the report sink used by the capture orchestrator.
func (d *Dispatcher) Publish(r session.Report) {
	d.Fire(EventFor(r), r)
}

// Fire runs every hook subscribed to event with r.
func (d *Dispatcher) Fire(event string, r session.Report) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	hooks := d.manager.Subscribers(event)
	d.wg.Add(len(hooks))
	d.mu.Unlock()

	for _, h := range hooks {
		req := &Request{
			Event:   event,
			Summary: r.Summary(),
			Report:  r,
			Config:  h.Manifest.Config,
		}
		go d.run(event, h, req)
	}
}

func (d *Dispatcher) run(event string, h *Hook, req *Request) {
	defer d.wg.Done()

	resp, err := d.executor.Execute(d.ctx, h, req)
	switch {
	case err != nil:
		log.Warn(log.Fields{"hook": h.Manifest.Name, "event": event, "error": err.Error()}, "[hook.Dispatch] hook failed")
	case !resp.Success:
		log.Warn(log.Fields{"hook": h.Manifest.Name, "event": event, "error": resp.Error}, "[hook.Dispatch] hook reported failure")
	default:
		log.Debug(log.Fields{"hook": h.Manifest.Name, "event": event}, "[hook.Dispatch] hook done")
	}

	d.mu.Lock()
	fn := d.onDone
	d.mu.Unlock()
	if fn != nil {
		fn(event, h, resp, err)
	}
}

// Wait blocks until all running hooks have returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close stops accepting events, kills running hooks and waits for them.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
}
