package core

// Processor is a step in the prompt pipeline.
type Processor interface {
	// Name returns the processor name
	Name() string
	// Priority returns the execution priority (lower = earlier)
	Priority() int
	// OnPrompt is called before the prompt is sent to the provider
	OnPrompt(ctx *RequestContext, prompt string) (string, error)
	// OnCompletion is called after the provider returned text
	OnCompletion(ctx *RequestContext, completion string) (string, error)
}
