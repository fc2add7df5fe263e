// Package printer implements the per-printer worker that owns a device
// handle, drains a FIFO job queue through the job pipeline, and answers
// status polls. It follows a mutex-guarded running flag plus
// stopCh/sync.WaitGroup lifecycle, with one worker goroutine per printer
// instead of one per process.
package printer

import (
	"sync"
	"time"

	"lprintd/internal/device"
	"lprintd/internal/driver"
	"lprintd/internal/job"
	"lprintd/internal/logger"
	"lprintd/internal/statusbus"
	"lprintd/internal/store"
)

// State is a printer's externally visible lifecycle state.
type State int

const (
	StateIdle State = iota
	StateProcessing
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProcessing:
		return "processing"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

const (
	completedJobGC = 60 * time.Second
	shutdownDrain  = 60 * time.Second
)

// openRetryInterval is the wait between device-open retry attempts; a var
// rather than a const so tests can shrink it instead of running real-time.
var openRetryInterval = 5 * time.Second

// Printer is one configured device: its driver binding, queue, and
// worker goroutine. The device handle is mutated only by the worker
// goroutine; other threads may read Printer's snapshot fields under
// the read lock but must never issue device I/O themselves.
type Printer struct {
	Name string
	URI  string
	Rec  driver.Record

	mu           sync.RWMutex
	state        State
	stateReasons driver.StateReasons
	queue        []*job.Job
	active       map[uint32]*job.Job
	completed    map[uint32]*job.Job

	dev device.Device

	log   *logger.PrinterLogger
	hub   *statusbus.Hub
	store *store.Store
	opts  job.Options

	wakeCh chan struct{}
	stopCh chan struct{}
	wg     sync.WaitGroup
	done   bool
}

// New creates a printer worker in the idle state with an empty queue.
// Start must be called to begin draining jobs.
func New(name, uri string, rec driver.Record, opts job.Options, log *logger.Logger, hub *statusbus.Hub) *Printer {
	return &Printer{
		Name:      name,
		URI:       uri,
		Rec:       rec,
		state:     StateIdle,
		active:    make(map[uint32]*job.Job),
		completed: make(map[uint32]*job.Job),
		log:       log.ForPrinter(name),
		hub:       hub,
		opts:      opts,
		wakeCh:    make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// SetStore attaches the audit-trail store; completed jobs are recorded
// to it as they finish. Must be called before Start.
func (p *Printer) SetStore(s *store.Store) {
	p.store = s
}

// Start launches the worker goroutine that drains the queue.
func (p *Printer) Start() {
	p.wg.Add(1)
	go p.run()
}

// State reports the printer's current lifecycle state.
func (p *Printer) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// StateReasons reports the printer's last-polled state-reasons bitmask.
func (p *Printer) StateReasons() driver.StateReasons {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stateReasons
}

func (p *Printer) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
	p.publish(statusbus.EventPrinterState, 0, map[string]interface{}{"state": s.String()})
}

func (p *Printer) publish(t statusbus.EventType, jobID uint32, data map[string]interface{}) {
	if p.hub == nil {
		return
	}
	p.hub.Publish(statusbus.Event{Type: t, Printer: p.Name, JobID: jobID, Data: data})
}

// EnqueueJob appends a job to the FIFO queue and wakes the worker.
// Jobs enqueued while the printer is stopped (device unreachable) remain
// queued; they are not failed for transient unavailability.
func (p *Printer) EnqueueJob(j *job.Job) {
	p.mu.Lock()
	p.queue = append(p.queue, j)
	p.active[j.ID] = j
	p.mu.Unlock()

	p.publish(statusbus.EventJobState, j.ID, map[string]interface{}{"state": j.State().String()})

	select {
	case p.wakeCh <- struct{}{}:
	default:
	}
}

// dequeue pops the head of the FIFO queue, or returns nil if empty.
// A job canceled before it ever started is still handed to the
// pipeline, which observes the flag immediately and finalizes it as
// canceled without touching the device.
func (p *Printer) dequeue() *job.Job {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return nil
	}
	j := p.queue[0]
	p.queue = p.queue[1:]
	return j
}

// run is the worker goroutine body: open-retry, dispatch, idle-close.
func (p *Printer) run() {
	defer p.wg.Done()
	for {
		j := p.dequeue()
		if j == nil {
			p.closeDevice()
			p.setState(StateIdle)
			select {
			case <-p.wakeCh:
				continue
			case <-p.stopCh:
				return
			}
		}

		if !j.Canceled() {
			if !p.ensureDeviceOpen() {
				// stopCh was closed while retrying; requeue and exit.
				p.mu.Lock()
				p.queue = append([]*job.Job{j}, p.queue...)
				p.mu.Unlock()
				return
			}
		}

		p.setState(StateProcessing)
		err := job.ProcessJob(j, p.Rec, p.dev, p.opts)
		if err != nil {
			p.log.Warn("job failed", "job", j.ID, "error", err.Error())
		}
		p.moveToCompleted(j)

		select {
		case <-p.stopCh:
			p.closeDevice()
			return
		default:
		}
	}
}

// ensureDeviceOpen opens the device handle if not already open, retrying
// every 5s with no backoff and no give-up until it succeeds or Stop is
// called. Returns false if Stop fired during the retry wait.
func (p *Printer) ensureDeviceOpen() bool {
	p.mu.RLock()
	alreadyOpen := p.dev != nil
	p.mu.RUnlock()
	if alreadyOpen {
		return true
	}

	for {
		dev, err := device.Open(p.URI)
		if err == nil {
			p.mu.Lock()
			p.dev = dev
			p.mu.Unlock()
			return true
		}
		p.log.Warn("device open failed, retrying", "uri", p.URI, "error", err.Error())
		p.setState(StateStopped)

		select {
		case <-time.After(openRetryInterval):
		case <-p.stopCh:
			return false
		}
	}
}

func (p *Printer) closeDevice() {
	p.mu.Lock()
	dev := p.dev
	p.dev = nil
	p.mu.Unlock()
	if dev != nil {
		dev.Close()
	}
}

// moveToCompleted transitions a job out of the active set into the
// completed ring and schedules its removal after the GC grace window.
func (p *Printer) moveToCompleted(j *job.Job) {
	p.mu.Lock()
	delete(p.active, j.ID)
	p.completed[j.ID] = j
	p.mu.Unlock()

	p.publish(statusbus.EventJobState, j.ID, map[string]interface{}{"state": j.State().String()})

	if p.store != nil {
		rec := store.JobRecord{
			ID: j.ID, Printer: p.Name, RequestingUser: j.RequestingUser, Format: j.Format,
			ImpressionsCompleted: j.ImpressionsCompleted, State: j.State().String(),
			Created: j.Created, Completed: j.Completed,
		}
		if err := p.store.RecordJob(rec); err != nil {
			p.log.Warn("failed to record job audit entry", "job", j.ID, "error", err.Error())
		}
	}

	time.AfterFunc(completedJobGC, func() {
		p.mu.Lock()
		delete(p.completed, j.ID)
		p.mu.Unlock()
	})
}

// PollStatus invokes the driver's status hook and updates the cached
// state-reasons bitmask. Callers must only poll when the device is idle
// or between pages; the printer runtime itself never interleaves a poll
// with an in-flight job's write stream because both run on this same
// worker goroutine.
func (p *Printer) PollStatus() (driver.StateReasons, error) {
	p.mu.RLock()
	dev := p.dev
	p.mu.RUnlock()
	if dev == nil {
		return 0, nil
	}

	reasons, err := p.Rec.Codec.Status(dev, driver.Options{DriverName: p.Rec.Name})
	if err != nil {
		return 0, err
	}
	p.mu.Lock()
	p.stateReasons = reasons
	p.mu.Unlock()
	return reasons, nil
}

// Shutdown signals the worker to finish its in-flight job and stop,
// waiting up to the shutdown drain window for it to exit.
func (p *Printer) Shutdown() {
	p.mu.Lock()
	if p.done {
		p.mu.Unlock()
		return
	}
	p.done = true
	p.mu.Unlock()

	close(p.stopCh)

	drained := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-time.After(shutdownDrain):
		p.log.Warn("shutdown drain timed out with jobs still active")
	}
}
