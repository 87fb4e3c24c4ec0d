// Package domain provides shared domain types for the RELAB research pipeline.
package domain

import "strings"

// Provider represents an external agent execution backend (e.g., "claude").
// This determines which CLI tool is used to execute a job's prompt.
type Provider string

// Provider constants define the supported agent backends.
const (
	// ProviderClaude uses the Claude Code CLI from Anthropic.
	ProviderClaude Provider = "claude"

	// ProviderGemini uses the Gemini CLI from Google.
	ProviderGemini Provider = "gemini"

	// ProviderCodex uses the Codex CLI from OpenAI.
	ProviderCodex Provider = "codex"
)

// String returns the string representation of the Provider.
// This implements fmt.Stringer for convenient logging and debugging.
func (p Provider) String() string {
	return string(p)
}

// IsValid checks if the provider is a recognized type.
func (p Provider) IsValid() bool {
	switch p {
	case ProviderClaude, ProviderGemini, ProviderCodex:
		return true
	}
	return false
}

// DefaultModel returns the default model alias for this provider.
func (p Provider) DefaultModel() string {
	switch p {
	case ProviderClaude:
		return "sonnet"
	case ProviderGemini:
		return "flash"
	case ProviderCodex:
		return "codex"
	default:
		return ""
	}
}

// ResolveModelAlias converts a short model alias to the full model name.
// If the alias is not recognized, it returns the input unchanged (allowing full model names).
func (p Provider) ResolveModelAlias(alias string) string {
	switch p {
	case ProviderClaude:
		switch alias {
		case "sonnet":
			return "claude-sonnet-4-20250514"
		case "opus":
			return "claude-opus-4-20250514"
		case "haiku":
			return "claude-haiku-3-20250514"
		}
	case ProviderGemini:
		switch alias {
		case "flash":
			return "gemini-3-flash-preview"
		case "pro":
			return "gemini-3-pro-preview"
		}
	case ProviderCodex:
		switch alias {
		case "codex":
			return "gpt-5.2-codex"
		case "mini":
			return "gpt-5.1-codex-mini"
		}
	}
	// Return as-is if not an alias (might be a full model name)
	return alias
}

// APIKeyEnvVar returns the default environment variable name for the API key.
func (p Provider) APIKeyEnvVar() string {
	switch p {
	case ProviderClaude:
		return "ANTHROPIC_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	case ProviderCodex:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

// InstallHint returns the installation instructions for this provider's CLI.
func (p Provider) InstallHint() string {
	switch p {
	case ProviderClaude:
		return "Install Claude CLI: npm install -g @anthropic-ai/claude-code"
	case ProviderGemini:
		return "Install Gemini CLI: npm install -g @google/gemini-cli"
	case ProviderCodex:
		return "Install Codex CLI: npm install -g @openai/codex"
	default:
		return "Unknown provider"
	}
}

// ToolName returns the CLI command name for this provider.
func (p Provider) ToolName() string {
	switch p {
	case ProviderClaude, ProviderGemini, ProviderCodex:
		return string(p)
	default:
		return ""
	}
}

// ParseProviders splits a comma-separated provider list into Provider values.
// Whitespace around names is ignored; empty entries are skipped.
// Unknown names are returned in the second value for caller-side reporting.
func ParseProviders(list string) ([]Provider, []string) {
	var providers []Provider
	var unknown []string
	for _, part := range strings.Split(list, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		p := Provider(name)
		if !p.IsValid() {
			unknown = append(unknown, name)
			continue
		}
		providers = append(providers, p)
	}
	return providers, unknown
}
