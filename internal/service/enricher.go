package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nursing-narrative-mcp-server/internal/domain"
)

// TermEnricher looks up definitions for extracted symptoms and medication names.
type TermEnricher struct {
	lookup domain.KnowledgeLookup
	logger *logrus.Logger
}

// NewTermEnricher creates an enricher over lookup.
func NewTermEnricher(lookup domain.KnowledgeLookup, logger *logrus.Logger) *TermEnricher {
	return &TermEnricher{lookup: lookup, logger: logger}
}

// Enrich returns definitions keyed by the term as it appeared in fields. Unknown terms are left out.
func (e *TermEnricher) Enrich(ctx context.Context, fields *domain.ExtractedFields) map[string]string {
	out := map[string]string{}
	if e == nil || e.lookup == nil || fields == nil {
		return out
	}

	terms := append([]string{}, fields.Symptoms...)
	for _, m := range fields.Medications {
		terms = append(terms, m.Name)
	}

	for _, term := range terms {
		if ctx.Err() != nil {
			break
		}
		if _, seen := out[term]; seen || strings.TrimSpace(term) == "" {
			continue
		}
		if def, ok := e.lookup.LookupTerm(ctx, term); ok {
			out[term] = def
		}
	}

	e.logger.WithFields(logrus.Fields{
		"terms":   len(terms),
		"defined": len(out),
	}).Debug("Enriched extracted terms")

	return out
}
