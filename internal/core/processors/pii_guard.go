package processors

import (
	"go.uber.org/zap"

	"nyayai/internal/core"
	"nyayai/internal/core/security"
)

// PIIGuard masks personal identifiers and credentials in prompts before they
// leave the process.
type PIIGuard struct {
	scanner *security.Scanner
}

// NewPIIGuard creates a PII guard using scanner, or the built-in rules when nil.
func NewPIIGuard(scanner *security.Scanner) *PIIGuard {
	if scanner == nil {
		scanner = security.NewScanner()
	}
	return &PIIGuard{scanner: scanner}
}

// Name returns the processor name
func (p *PIIGuard) Name() string {
	return "pii-guard"
}

// Priority returns the execution priority (high priority for security)
func (p *PIIGuard) Priority() int {
	return 100
}

// OnPrompt redacts the prompt and records which rules fired.
func (p *PIIGuard) OnPrompt(ctx *core.RequestContext, prompt string) (string, error) {
	findings := p.scanner.Findings(prompt)
	if len(findings) == 0 {
		return prompt, nil
	}

	ctx.SetMetadata("pii_findings", findings)
	ctx.Log.Info("PII detected and redacted", zap.Strings("rules", findings))
	return p.scanner.Sanitize(prompt), nil
}

// OnCompletion passes the completion through unchanged.
func (p *PIIGuard) OnCompletion(ctx *core.RequestContext, completion string) (string, error) {
	return completion, nil
}
