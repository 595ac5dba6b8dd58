package domain

import (
	"context"
	"time"
)

// Drafter runs the full classify-extract-assemble pipeline.
type Drafter interface {
	Draft(narrative string, opts ClassifyOptions) *StructuredDraft
}

// CompletionService turns a prompt into prose. It is the generative-text backend and lives
// outside the drafting pipeline.
type CompletionService interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Redactor removes protected health information from text.
type Redactor interface {
	Redact(ctx context.Context, text string) (*RedactionResult, error)
}

// RedactionResult is what a Redactor returns.
type RedactionResult struct {
	RedactedText string             `json:"redacted_text"`
	Findings     []RedactionFinding `json:"findings"`
}

// RedactionFinding is a single redacted span.
type RedactionFinding struct {
	Category string `json:"category"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
}

// KnowledgeLookup is a read-only medical dictionary. A missing term is reported with ok=false,
// never with an error.
type KnowledgeLookup interface {
	LookupTerm(ctx context.Context, word string) (definition string, ok bool)
}

// DraftCache stores drafts keyed by narrative fingerprint.
type DraftCache interface {
	Get(ctx context.Context, key string) (*StructuredDraft, bool)
	Set(ctx context.Context, key string, draft *StructuredDraft, ttl time.Duration) error
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetDatabaseConfig() *DatabaseConfig
	GetCompletionConfig() *CompletionConfig
	Reload() error
	Validate() error
	IsProduction() bool
	IsDevelopment() bool
}
