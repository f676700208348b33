package status

import (
	"fmt"
	"io"
	"sync"
)

// Publisher receives every status change. Publish is only ever called from
// the control loop, so implementations need not be safe for concurrent use
// unless they are read from elsewhere.
type Publisher interface {
	Publish(Status)
}

type PublisherFunc func(Status)

func (f PublisherFunc) Publish(s Status) { f(s) }

// Multi fans a status out to several publishers in order.
func Multi(pubs ...Publisher) Publisher {
	var out multi
	for _, p := range pubs {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

type multi []Publisher

func (m multi) Publish(s Status) {
	for _, p := range m {
		p.Publish(s)
	}
}

// Writer prints one line per change to w, skipping repeats of the same text.
func Writer(w io.Writer) Publisher {
	return &writerPublisher{w: w}
}

type writerPublisher struct {
	w    io.Writer
	last string
}

func (p *writerPublisher) Publish(s Status) {
	text := s.Text()
	if text == p.last {
		return
	}
	p.last = text
	fmt.Fprintf(p.w, "STATUS %s\n", text)
}

// Recorder keeps every published status. It is safe to read from other
// goroutines while the loop publishes.
type Recorder struct {
	mu  sync.Mutex
	all []Status
}

func (r *Recorder) Publish(s Status) {
	r.mu.Lock()
	r.all = append(r.all, s)
	r.mu.Unlock()
}

func (r *Recorder) All() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Status(nil), r.all...)
}

func (r *Recorder) Last() (Status, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.all) == 0 {
		return Status{}, false
	}
	return r.all[len(r.all)-1], true
}

// Kinds returns the sequence of kinds published so far with consecutive
// duplicates collapsed.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Kind
	for _, s := range r.all {
		if len(out) > 0 && out[len(out)-1] == s.Kind {
			continue
		}
		out = append(out, s.Kind)
	}
	return out
}
