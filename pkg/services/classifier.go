package services

import (
	"strings"

	"github.com/orglens/orglens-engine/pkg/models"
)

// Keyword groups that steer a question toward tabular or document
// retrieval. Matching is case-insensitive substring containment.
var (
	structuredKeywords = []string{
		"show", "list", "count", "average", "sum", "total", "how many",
	}
	unstructuredKeywords = []string{
		"document", "contract", "policy", "file", "pdf", "what does", "explain",
	}
)

// Classifier decides which retrieval path a question takes.
type Classifier struct{}

// NewClassifier creates a query classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify inspects the question for tabular and document cues. Questions
// matching both groups go hybrid, document-only cues go unstructured, and
// everything else defaults to structured.
func (c *Classifier) Classify(question string) models.QueryKind {
	lowered := strings.ToLower(question)

	hasStructured := containsAny(lowered, structuredKeywords)
	hasUnstructured := containsAny(lowered, unstructuredKeywords)

	switch {
	case hasStructured && hasUnstructured:
		return models.QueryKindHybrid
	case hasUnstructured:
		return models.QueryKindUnstructured
	default:
		return models.QueryKindStructured
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
