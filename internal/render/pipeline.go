package render

import (
	"context"
)

// StageFunc transforms a value in one pipeline step.
type StageFunc[T any] func(ctx context.Context, in T) (T, error)

// Stage is a named pipeline step.
type Stage[T any] struct {
	Name string
	Run  StageFunc[T]
}

// Pipeline runs its stages in order, stopping at the first error.
type Pipeline[T any] struct {
	stages []Stage[T]
}

// NewPipeline returns a pipeline over stages.
func NewPipeline[T any](stages ...Stage[T]) *Pipeline[T] {
	return &Pipeline[T]{stages: stages}
}

// Then appends a stage and returns the pipeline. A nil fn is skipped, so
// optional stages can be added unconditionally.
func (p *Pipeline[T]) Then(name string, fn StageFunc[T]) *Pipeline[T] {
	if fn != nil {
		p.stages = append(p.stages, Stage[T]{Name: name, Run: fn})
	}

	return p
}

// Names lists the stage names in execution order.
func (p *Pipeline[T]) Names() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}

	return names
}

// Run executes the stages. The error of a failing stage is wrapped in a
// *StageError; a cancelled context stops the pipeline between stages.
func (p *Pipeline[T]) Run(ctx context.Context, in T) (T, error) {
	v := in

	for _, s := range p.stages {
		if err := ctx.Err(); err != nil {
			return v, &StageError{Stage: s.Name, Err: err}
		}

		out, err := s.Run(ctx, v)
		if err != nil {
			return v, &StageError{Stage: s.Name, Err: err}
		}

		v = out
	}

	return v, nil
}
