package printer

import "sync"

// Registry is the system-wide printer table: a single lock protects the
// set of configured printers. Printers are looked up by name rather than
// held by pointer elsewhere, so the job/printer/system graph never needs
// cyclic references.
type Registry struct {
	mu       sync.RWMutex
	printers map[string]*Printer
}

// NewRegistry creates an empty printer registry.
func NewRegistry() *Registry {
	return &Registry{printers: make(map[string]*Printer)}
}

// Add registers p under its name and starts its worker goroutine.
func (r *Registry) Add(p *Printer) {
	r.mu.Lock()
	r.printers[p.Name] = p
	r.mu.Unlock()
	p.Start()
}

// Get looks up a printer by name.
func (r *Registry) Get(name string) (*Printer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.printers[name]
	return p, ok
}

// Remove unregisters and shuts down a printer, draining its in-flight
// job within the shutdown grace window.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	p, ok := r.printers[name]
	delete(r.printers, name)
	r.mu.Unlock()
	if ok {
		p.Shutdown()
	}
}

// List returns a snapshot of every registered printer's name.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.printers))
	for name := range r.printers {
		names = append(names, name)
	}
	return names
}

// Shutdown drains and stops every registered printer.
func (r *Registry) Shutdown() {
	r.mu.RLock()
	printers := make([]*Printer, 0, len(r.printers))
	for _, p := range r.printers {
		printers = append(printers, p)
	}
	r.mu.RUnlock()

	var wg sync.WaitGroup
	for _, p := range printers {
		wg.Add(1)
		go func(p *Printer) {
			defer wg.Done()
			p.Shutdown()
		}(p)
	}
	wg.Wait()
}
