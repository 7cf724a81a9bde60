package registry

// Sampling holds the generation parameters sent to the gateway.
type Sampling struct {
	Temperature      float64 `mapstructure:"temperature" json:"temperature"`
	MaxTokens        int     `mapstructure:"max_tokens" json:"max_tokens"`
	TopP             float64 `mapstructure:"top_p" json:"top_p"`
	PresencePenalty  float64 `mapstructure:"presence_penalty" json:"presence_penalty"`
	FrequencyPenalty float64 `mapstructure:"frequency_penalty" json:"frequency_penalty"`
}

// DefaultSampling is the process-wide sampling configuration.
var DefaultSampling = Sampling{
	Temperature:      0.3,
	MaxTokens:        300,
	TopP:             0.8,
	PresencePenalty:  0.1,
	FrequencyPenalty: 0.1,
}

// Override replaces individual sampling fields. Nil fields keep the default.
type Override struct {
	Model            string   `mapstructure:"model"`
	Temperature      *float64 `mapstructure:"temperature"`
	MaxTokens        *int     `mapstructure:"max_tokens"`
	TopP             *float64 `mapstructure:"top_p"`
	PresencePenalty  *float64 `mapstructure:"presence_penalty"`
	FrequencyPenalty *float64 `mapstructure:"frequency_penalty"`
}

// Apply returns s with every non-nil field of o replaced.
func (o Override) Apply(s Sampling) Sampling {
	if o.Temperature != nil {
		s.Temperature = *o.Temperature
	}
	if o.MaxTokens != nil {
		s.MaxTokens = *o.MaxTokens
	}
	if o.TopP != nil {
		s.TopP = *o.TopP
	}
	if o.PresencePenalty != nil {
		s.PresencePenalty = *o.PresencePenalty
	}
	if o.FrequencyPenalty != nil {
		s.FrequencyPenalty = *o.FrequencyPenalty
	}
	return s
}

// Backend tags
const (
	TagGemini   = "gemini"
	TagOpenAI   = "openai"
	TagDeepSeek = "deepseek"
	TagNemotron = "nemotron"
)

func ptr[T any](v T) *T { return &v }

// chatOverride is the sampling used by the chat-tuned backends for real
// generation calls: warmer and with a much larger output budget.
var chatOverride = Override{
	Temperature: ptr(0.7),
	MaxTokens:   ptr(2000),
	TopP:        ptr(0.95),
}

// builtin lists every supported backend.
var builtin = []struct {
	tag      string
	model    string
	override Override
}{
	{TagGemini, "google/gemini-pro-1.5", Override{}},
	{TagOpenAI, "openai/gpt-3.5-turbo", Override{}},
	{TagDeepSeek, "deepseek/deepseek-chat-v3.1", chatOverride},
	{TagNemotron, "nvidia/nemotron-nano-12b-v2-vl:free", chatOverride},
}
