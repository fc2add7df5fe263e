package printer

import (
	"os"
	"testing"
	"time"

	"lprintd/internal/driver"
	"lprintd/internal/job"
	"lprintd/internal/logger"
	"lprintd/internal/statusbus"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.New(logger.INFO, t.TempDir(), "lprintd", 64)
}

func writeRasterFile(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()

	f.WriteString("RaS2")
	hdr := make([]byte, 1796)
	// width=8, height=1, bytesPerLine=1, all at their documented offsets.
	put := func(idx int, v uint32) {
		b := hdr[256+idx*4 : 256+idx*4+4]
		b[0] = byte(v >> 24)
		b[1] = byte(v >> 16)
		b[2] = byte(v >> 8)
		b[3] = byte(v)
	}
	put(30, 8)
	put(31, 1)
	put(33, 1)
	put(34, 1)
	put(35, 1)
	put(44, 8)
	put(45, 1)
	f.Write(hdr)
	f.Write([]byte{0xAA})
}

func TestEnqueueJobDrainsThroughPipeline(t *testing.T) {
	devPath := t.TempDir() + "/printer0"
	if err := os.WriteFile(devPath, nil, 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	rec := driver.NewPWG("pwg-test")
	p := New("pwg-test", "file://"+devPath, rec, job.Default(), testLogger(t), nil)
	p.Start()
	defer p.Shutdown()

	spoolPath := t.TempDir() + "/1.pwg"
	writeRasterFile(t, spoolPath)

	j := job.New(1, "alice", "label.pwg", "image/pwg-raster")
	j.MarkSpooled(spoolPath)
	p.EnqueueJob(j)

	deadline := time.Now().Add(2 * time.Second)
	for j.State() != job.StateCompleted {
		if time.Now().After(deadline) {
			t.Fatalf("job did not complete in time, state=%v", j.State())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestEnqueueCanceledJobFinalizesWithoutDeviceOpen(t *testing.T) {
	rec := driver.NewPWG("pwg-test")
	p := New("pwg-test", "file:///nonexistent/path/that/never/opens", rec, job.Default(), testLogger(t), nil)
	p.Start()
	defer p.Shutdown()

	j := job.New(1, "alice", "label.pwg", "image/pwg-raster")
	j.MarkSpooled("/nonexistent")
	j.Cancel()
	p.EnqueueJob(j)

	deadline := time.Now().Add(2 * time.Second)
	for j.State() != job.StateCanceled {
		if time.Now().After(deadline) {
			t.Fatalf("job did not cancel in time, state=%v", j.State())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// TestJobsProcessInFIFOOrder verifies Testable Property 7: jobs enqueued
// J1, J2, J3 enter processing in that order, and no two are non-terminal
// and non-pending at once (the single worker goroutine never overlaps
// them).
func TestJobsProcessInFIFOOrder(t *testing.T) {
	devPath := t.TempDir() + "/printer0"
	if err := os.WriteFile(devPath, nil, 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	rec := driver.NewPWG("pwg-test")
	p := New("pwg-test", "file://"+devPath, rec, job.Default(), testLogger(t), nil)
	p.Start()
	defer p.Shutdown()

	dir := t.TempDir()
	jobs := make([]*job.Job, 3)
	for i := range jobs {
		spoolPath := dir + "/" + string(rune('1'+i)) + ".pwg"
		writeRasterFile(t, spoolPath)
		j := job.New(uint32(i+1), "alice", "label.pwg", "image/pwg-raster")
		j.MarkSpooled(spoolPath)
		jobs[i] = j
	}
	for _, j := range jobs {
		p.EnqueueJob(j)
	}

	deadline := time.Now().Add(2 * time.Second)
	for jobs[2].State() != job.StateCompleted {
		if time.Now().After(deadline) {
			t.Fatalf("jobs did not all complete in time: states=%v,%v,%v", jobs[0].State(), jobs[1].State(), jobs[2].State())
		}
		time.Sleep(5 * time.Millisecond)
	}

	for i, j := range jobs {
		if j.State() != job.StateCompleted {
			t.Fatalf("job %d state = %v, want completed", i+1, j.State())
		}
		if j.Processing.IsZero() {
			t.Fatalf("job %d never stamped a processing time", i+1)
		}
	}

	if !jobs[0].Processing.Before(jobs[1].Processing) {
		t.Errorf("J1 processing (%v) should precede J2 processing (%v)", jobs[0].Processing, jobs[1].Processing)
	}
	if !jobs[1].Processing.Before(jobs[2].Processing) {
		t.Errorf("J2 processing (%v) should precede J3 processing (%v)", jobs[1].Processing, jobs[2].Processing)
	}
	if jobs[0].Completed.After(jobs[1].Processing) {
		t.Errorf("J1 completed (%v) after J2 started processing (%v): jobs overlapped", jobs[0].Completed, jobs[1].Processing)
	}
	if jobs[1].Completed.After(jobs[2].Processing) {
		t.Errorf("J2 completed (%v) after J3 started processing (%v): jobs overlapped", jobs[1].Completed, jobs[2].Processing)
	}
}

// TestRetryOpenThenSucceeds verifies Testable Property 8: a device that
// fails to open twice then succeeds drives the printer through
// stopped -> stopped -> processing with openRetryInterval between
// attempts, and the job stays pending throughout the retries.
func TestRetryOpenThenSucceeds(t *testing.T) {
	origInterval := openRetryInterval
	openRetryInterval = 20 * time.Millisecond
	defer func() { openRetryInterval = origInterval }()

	dir := t.TempDir()
	devPath := dir + "/printer0" // deliberately does not exist yet

	hub := statusbus.NewHub()
	defer hub.Stop()
	events := make(chan statusbus.Event, 64)
	hub.Register("test", events)
	defer hub.Unregister("test")

	rec := driver.NewPWG("pwg-test")
	p := New("pwg-test", "file://"+devPath, rec, job.Default(), testLogger(t), hub)
	p.Start()
	defer p.Shutdown()

	spoolPath := dir + "/1.pwg"
	writeRasterFile(t, spoolPath)
	j := job.New(1, "alice", "label.pwg", "image/pwg-raster")
	j.MarkSpooled(spoolPath)
	p.EnqueueJob(j)

	// Let two open attempts fail (at 0 and 1 retry interval) before the
	// device file shows up, so the third open call succeeds.
	time.Sleep(openRetryInterval + openRetryInterval/2)
	if j.State() != job.StatePending {
		t.Fatalf("job state = %v mid-retry, want pending", j.State())
	}
	if err := os.WriteFile(devPath, nil, 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for j.State() != job.StateCompleted {
		if time.Now().After(deadline) {
			t.Fatalf("job did not complete after device became available: state=%v", j.State())
		}
		if j.State() != job.StatePending && j.State() != job.StateProcessing {
			t.Fatalf("job left pending/processing unexpectedly: state=%v", j.State())
		}
		time.Sleep(5 * time.Millisecond)
	}

	var states []string
	drain := time.After(100 * time.Millisecond)
loop:
	for {
		select {
		case ev := <-events:
			if ev.Type == statusbus.EventPrinterState {
				states = append(states, ev.Data["state"].(string))
			}
		case <-drain:
			break loop
		}
	}

	stoppedBeforeProcessing := 0
	sawProcessing := false
	for _, s := range states {
		if s == "processing" {
			sawProcessing = true
			break
		}
		if s == "stopped" {
			stoppedBeforeProcessing++
		}
	}
	if !sawProcessing {
		t.Fatalf("never observed a processing state transition: %v", states)
	}
	if stoppedBeforeProcessing < 2 {
		t.Fatalf("expected at least 2 stopped transitions before processing, got %d: %v", stoppedBeforeProcessing, states)
	}
}

func TestShutdownStopsWorker(t *testing.T) {
	rec := driver.NewPWG("pwg-test")
	p := New("pwg-test", "file:///nonexistent", rec, job.Default(), testLogger(t), nil)
	p.Start()

	done := make(chan struct{})
	go func() {
		p.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Shutdown did not return in time")
	}
}
