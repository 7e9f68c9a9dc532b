package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/orglens/orglens-engine/pkg/apperrors"
	"github.com/orglens/orglens-engine/pkg/llm"
	"github.com/orglens/orglens-engine/pkg/models"
)

const synthesisSystemMessage = "Convert natural language queries to safe SQL. " +
	"Use only SELECT statements. Only output the SQL query, no explanations."

const synthesisTemperature = 0.0

// Synthesizer turns a natural-language question into a SQL statement
// using the completion service and the latest discovered schema.
type Synthesizer struct {
	client llm.CompletionClient
	logger *zap.Logger
}

// NewSynthesizer creates a SQL synthesizer.
func NewSynthesizer(client llm.CompletionClient, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{
		client: client,
		logger: logger.Named("synthesizer"),
	}
}

// Synthesize prompts the completion service with the question and a
// rendered schema description. The upstream being down is reported as
// ErrUpstreamUnavailable so callers can degrade to the fallback query.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, schema *models.SchemaDescription) (string, error) {
	prompt := buildSynthesisPrompt(question, schema)

	raw, err := s.client.GenerateResponse(ctx, prompt, synthesisSystemMessage, synthesisTemperature)
	if err != nil {
		s.logger.Warn("SQL synthesis failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", apperrors.ErrUpstreamUnavailable, err)
	}

	sqlQuery := stripCodeFences(raw)
	if sqlQuery == "" {
		return "", fmt.Errorf("%w: completion service returned empty SQL", apperrors.ErrUpstreamUnavailable)
	}

	s.logger.Debug("Synthesized SQL", zap.String("sql", sqlQuery))
	return sqlQuery, nil
}

// FallbackQuery returns the degraded-mode statement used when synthesis
// is unavailable: a bounded scan of the first known table, or the
// employees table when no schema has been discovered yet.
func (s *Synthesizer) FallbackQuery(schema *models.SchemaDescription) string {
	table := "employees"
	if schema != nil && len(schema.Tables) > 0 {
		table = schema.Tables[0].Name
	}
	return fmt.Sprintf("SELECT * FROM %s LIMIT 10", table)
}

func buildSynthesisPrompt(question string, schema *models.SchemaDescription) string {
	var b strings.Builder

	b.WriteString("Database schema:\n")
	if schema == nil || len(schema.Tables) == 0 {
		b.WriteString("(no schema discovered)\n")
	} else {
		for _, table := range schema.Tables {
			b.WriteString(table.Name)
			b.WriteString(" (")
			for i, col := range table.Columns {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(col.Name)
				b.WriteString(" ")
				b.WriteString(col.DataType)
				if col.IsPrimary {
					b.WriteString(" PRIMARY KEY")
				}
			}
			b.WriteString(")\n")
		}
		for _, rel := range schema.Relationships {
			fmt.Fprintf(&b, "-- %s references %s\n", rel.From, rel.To)
		}
		if len(schema.SynonymMap) > 0 {
			b.WriteString("Term synonyms:\n")
			for term, alts := range schema.SynonymMap {
				fmt.Fprintf(&b, "-- %s: %s\n", term, strings.Join(alts, ", "))
			}
		}
	}

	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	return b.String()
}

// stripCodeFences removes markdown fencing the model sometimes wraps
// around its answer.
func stripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```sql")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	}
	return strings.TrimSpace(trimmed)
}
