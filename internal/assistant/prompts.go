package assistant

import (
	"fmt"
	"strings"
	"text/template"

	"nyayai/internal/store"
)

// Disclaimer is appended to every answer the assistant returns.
const Disclaimer = "\n\n---\n*Disclaimer: NyayAI provides general legal information for Indian law and is not a substitute for advice from a qualified advocate. Please consult a lawyer about your specific situation.*"

const (
	offlineDefault  = "default"
	offlineSection  = "ipc"
	offlineDocument = "document"
)

var offlineResponses = map[string]string{
	offlineDefault:  "I'm currently in offline mode. Based on general legal knowledge, I recommend consulting with a qualified lawyer for specific legal advice. However, I can help you understand basic legal concepts and direct you to relevant IPC sections.",
	offlineSection:  "Here are some relevant IPC sections that might apply to your query. Please consult with a legal professional for specific advice.",
	offlineDocument: "Document uploaded successfully. In offline mode, I can provide basic document structure analysis, but for detailed legal review, please consult with a qualified attorney.",
}

var (
	legalResponseTmpl = template.Must(template.New("legal").Parse(
		`You are NyayAI, a legal assistant for Indian law. Answer the user's question in clear, simple language.
Cite the relevant sections of the Indian Penal Code where they apply and explain the likely legal consequences.
{{- if .Context}}

{{.Context}}
{{- end}}

Question: {{.Query}}

Structure the answer as: a short summary, the applicable law, possible consequences, and practical next steps.`))

	summaryTmpl = template.Must(template.New("summary").Parse(
		`You are NyayAI, a legal assistant for Indian law. Summarize the legal document below for a non-lawyer.
Cover: the type of document, the parties involved, key obligations and rights, important dates or amounts, and any clauses that need attention.

Document:
{{.Text}}`))

	explainTmpl = template.Must(template.New("explain").Parse(
		`You are NyayAI, a legal assistant for Indian law. Explain the following IPC section in plain language with a practical example.

Section {{.Number}}: {{.Title}}
Description: {{.Description}}
{{- if .Context}}
Context: {{.Context}}
{{- end}}
{{- if .Punishment}}
Punishment: {{.Punishment}}
{{- end}}

Explain what the offence means, what must be proved, the punishment, and how it applies in everyday situations.`))
)

func render(t *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", t.Name(), err)
	}
	return b.String(), nil
}

// SectionContext formats up to limit sections as prompt context. It returns
// "" when there is nothing to cite.
func SectionContext(sections []store.Section, limit int) string {
	if len(sections) == 0 {
		return ""
	}
	if limit > 0 && len(sections) > limit {
		sections = sections[:limit]
	}

	var b strings.Builder
	b.WriteString("Relevant IPC Sections:\n")
	for _, s := range sections {
		fmt.Fprintf(&b, "Section %s: %s - %s\n", s.Number, s.Title, s.Description)
	}
	return b.String()
}

// AddDisclaimer appends the legal disclaimer to text.
func AddDisclaimer(text string) string {
	return text + Disclaimer
}

// OfflineAnswer is the basic reply given to a question when no provider is
// configured.
func OfflineAnswer(query string) string {
	return AddDisclaimer(fmt.Sprintf(`**Basic Response (Offline Mode):**

I understand you're asking about: %s

While I'm in offline mode, I can provide basic assistance. For detailed AI-powered legal advice, please configure an AI provider.

**General Legal Guidance:**
- Always consult with a qualified lawyer for specific legal matters
- Legal consequences depend on specific circumstances and jurisdiction
- Keep all relevant documents and evidence`, query))
}
