package ai

// ProviderName represents an AI provider identifier
type ProviderName string

// Provider name constants
const (
	ProviderNameOpenAI ProviderName = "openai"
)

// String returns the string representation of the provider name
func (p ProviderName) String() string {
	return string(p)
}

// IsValid checks if the provider name is supported
func (p ProviderName) IsValid() bool {
	switch p {
	case ProviderNameOpenAI:
		return true
	default:
		return false
	}
}

type ProviderModelName string

// Model name constants
const (
	ModelGPT4o     ProviderModelName = "gpt-4o"
	ModelGPT4oMini ProviderModelName = "gpt-4o-mini"
)
