package cron

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Job is one maintenance task run on every cycle.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Registry holds jobs in run order, keyed by unique name.
type Registry struct {
	jobs  []Job
	index map[string]int
}

// NewRegistry registers jobs in order, skipping nils. Duplicate names are an
// error.
func NewRegistry(jobs ...Job) (*Registry, error) {
	r := &Registry{index: map[string]int{}}
	for _, job := range jobs {
		if job == nil {
			continue
		}
		if err := r.Register(job); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(job Job) error {
	if job == nil {
		return fmt.Errorf("nil job")
	}
	name := job.Name()
	if _, dup := r.index[name]; dup {
		return fmt.Errorf("job %q registered twice", name)
	}
	if r.index == nil {
		r.index = map[string]int{}
	}
	r.index[name] = len(r.jobs)
	r.jobs = append(r.jobs, job)
	return nil
}

// Jobs returns a copy of the registered jobs in run order.
func (r *Registry) Jobs() []Job {
	return append([]Job(nil), r.jobs...)
}

func (r *Registry) Names() []string {
	names := make([]string, len(r.jobs))
	for i, job := range r.jobs {
		names[i] = job.Name()
	}
	return names
}

// Only returns a registry restricted to names, keeping registration order.
// An empty list selects everything.
func (r *Registry) Only(names ...string) (*Registry, error) {
	if len(names) == 0 {
		return r, nil
	}
	keep := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := r.index[name]; !ok {
			return nil, fmt.Errorf("unknown job %q (known: %s)", name, strings.Join(r.Names(), ", "))
		}
		keep[name] = true
	}
	var selected []Job
	for _, job := range r.jobs {
		if keep[job.Name()] {
			selected = append(selected, job)
		}
	}
	return NewRegistry(selected...)
}
