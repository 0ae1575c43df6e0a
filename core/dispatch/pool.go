package dispatch

import (
	"fmt"
	"sort"

	"github.com/kilianp07/drt/core/model"
)

// RequestPool owns every request of a run. Requests stay in the pool after
// they reach a terminal state so they can be reported.
type RequestPool struct {
	byID    map[string]*model.Request
	order   []*model.Request
	pending []*model.Request
}

// NewRequestPool returns an empty pool.
func NewRequestPool() *RequestPool {
	return &RequestPool{byID: make(map[string]*model.Request)}
}

// Add registers r and queues it until its call time.
func (p *RequestPool) Add(r *model.Request) error {
	if _, ok := p.byID[r.ID]; ok {
		return fmt.Errorf("request %s: %w", r.ID, ErrDuplicate)
	}
	p.byID[r.ID] = r
	p.order = append(p.order, r)
	if r.State == model.RequestUnallocated {
		// stable insert keeps load order among equal call times
		i := sort.Search(len(p.pending), func(i int) bool {
			return p.pending[i].CallTime > r.CallTime
		})
		p.pending = append(p.pending, nil)
		copy(p.pending[i+1:], p.pending[i:])
		p.pending[i] = r
	}
	return nil
}

// Get returns the request with the given id.
func (p *RequestPool) Get(id string) (*model.Request, error) {
	r, ok := p.byID[id]
	if !ok {
		return nil, fmt.Errorf("request %s: %w", id, ErrUnknownRequest)
	}
	return r, nil
}

// Len returns the number of requests in the pool.
func (p *RequestPool) Len() int { return len(p.order) }

// All returns every request in load order.
func (p *RequestPool) All() []*model.Request {
	out := make([]*model.Request, len(p.order))
	copy(out, p.order)
	return out
}

// Due removes and returns the pending requests whose call time is at or
// before now, ordered by call time.
func (p *RequestPool) Due(now int64) []*model.Request {
	n := sort.Search(len(p.pending), func(i int) bool {
		return p.pending[i].CallTime > now
	})
	if n == 0 {
		return nil
	}
	due := make([]*model.Request, n)
	copy(due, p.pending[:n])
	p.pending = p.pending[n:]
	return due
}

// Pending returns the number of requests still waiting for their call time.
func (p *RequestPool) Pending() int { return len(p.pending) }

// Count returns the number of requests per state.
func (p *RequestPool) Count() map[model.RequestState]int {
	out := make(map[model.RequestState]int)
	for _, r := range p.order {
		out[r.State]++
	}
	return out
}
