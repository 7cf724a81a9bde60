package security

import (
	"regexp"
)

// Rule 定义了敏感信息检测规则
type Rule struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string
}

// Scanner finds credentials and personal identifiers in free text and
// replaces them with fixed markers.
type Scanner struct {
	rules []Rule
}

// NewScanner returns a Scanner with the built-in rules. More specific patterns
// come first so that a key is never half-eaten by a broader rule.
func NewScanner() *Scanner {
	s := &Scanner{}

	s.mustAdd("Private Key", `-----BEGIN [A-Z ]+ PRIVATE KEY-----`, "[PRIVATE_KEY_REDACTED]")
	// Header form only. "bearer instrument" is ordinary legal English.
	s.mustAdd("Bearer Token", `\bBearer\s+[A-Za-z0-9._~+/=-]*[0-9][A-Za-z0-9._~+/=-]*`, "Bearer [TOKEN_REDACTED]")
	s.mustAdd("OpenRouter API Key", `\bsk-or-(?:v1-)?[a-zA-Z0-9]{20,}\b`, "[OPENROUTER_KEY_REDACTED]")
	s.mustAdd("OpenAI API Key", `\bsk-(?:proj-)?[a-zA-Z0-9]{20,}\b`, "[OPENAI_KEY_REDACTED]")
	s.mustAdd("Google API Key", `\bAIza[0-9A-Za-z_-]{35}\b`, "[GOOGLE_KEY_REDACTED]")
	s.mustAdd("Email", `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`, "[EMAIL_REDACTED]")
	// PAN: five letters, four digits, one letter.
	s.mustAdd("PAN", `\b[A-Z]{5}[0-9]{4}[A-Z]\b`, "[PAN_REDACTED]")
	// Aadhaar: 12 digits, optionally grouped 4-4-4, never starting with 0 or 1.
	s.mustAdd("Aadhaar", `\b[2-9][0-9]{3}[ -]?[0-9]{4}[ -]?[0-9]{4}\b`, "[AADHAAR_REDACTED]")
	// Indian mobile: optional +91 prefix, ten digits starting 6-9.
	s.mustAdd("Mobile Phone", `(?:\+91[ -]?|\b)[6-9][0-9]{9}\b`, "[PHONE_REDACTED]")

	return s
}

func (s *Scanner) mustAdd(name, pattern, replacement string) {
	s.rules = append(s.rules, Rule{
		Name:        name,
		Pattern:     regexp.MustCompile(pattern),
		Replacement: replacement,
	})
}

// Sanitize applies every rule in order and returns the cleaned text.
func (s *Scanner) Sanitize(input string) string {
	result := input
	for _, rule := range s.rules {
		result = rule.Pattern.ReplaceAllString(result, rule.Replacement)
	}
	return result
}

// Findings returns the names of the rules that matched input, in rule order.
func (s *Scanner) Findings(input string) []string {
	var names []string
	for _, rule := range s.rules {
		if rule.Pattern.MatchString(input) {
			names = append(names, rule.Name)
		}
	}
	return names
}

// AddRule 动态添加自定义规则
func (s *Scanner) AddRule(name string, pattern string, replacement string) error {
	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	s.rules = append(s.rules, Rule{
		Name:        name,
		Pattern:     compiled,
		Replacement: replacement,
	})
	return nil
}

// GetRules 返回当前所有规则的副本（仅供查看，不可修改）
func (s *Scanner) GetRules() []Rule {
	rulesCopy := make([]Rule, len(s.rules))
	copy(rulesCopy, s.rules)
	return rulesCopy
}
