package core

import (
	"fmt"
	"sort"
)

// Pipeline holds a collection of processors and manages their execution
type Pipeline struct {
	processors []Processor
}

// NewPipeline creates a new pipeline instance
func NewPipeline(processors ...Processor) *Pipeline {
	p := &Pipeline{}
	for _, proc := range processors {
		p.AddProcessor(proc)
	}
	return p
}

// AddProcessor adds a processor and keeps the list ordered by priority.
func (p *Pipeline) AddProcessor(processor Processor) {
	p.processors = append(p.processors, processor)
	sort.SliceStable(p.processors, func(i, j int) bool {
		return p.processors[i].Priority() < p.processors[j].Priority()
	})
}

// Processors returns the processors in execution order.
func (p *Pipeline) Processors() []Processor {
	out := make([]Processor, len(p.processors))
	copy(out, p.processors)
	return out
}

// ExecutePrompt runs every OnPrompt in priority order.
func (p *Pipeline) ExecutePrompt(ctx *RequestContext, prompt string) (string, error) {
	for _, processor := range p.processors {
		var err error
		prompt, err = processor.OnPrompt(ctx, prompt)
		if err != nil {
			return "", fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}
	return prompt, nil
}

// ExecuteCompletion runs every OnCompletion in priority order.
func (p *Pipeline) ExecuteCompletion(ctx *RequestContext, completion string) (string, error) {
	for _, processor := range p.processors {
		var err error
		completion, err = processor.OnCompletion(ctx, completion)
		if err != nil {
			return "", fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}
	return completion, nil
}
