package services

import "github.com/orglens/orglens-engine/pkg/models"

// MergeResults combines the two retrieval paths into one hybrid
// response. Both sequences are preserved as-is: rows keep datasource
// order, passages keep relevance order.
func MergeResults(structured *StructuredResult, passages []models.ScoredPassage) *models.QueryResponse {
	response := &models.QueryResponse{
		Kind:             models.QueryKindHybrid,
		Source:           models.SourceHybrid,
		SemanticPassages: passages,
	}
	if structured != nil {
		response.SQL = structured.SQL
		response.StructuredRows = structured.Rows
		response.Degraded = structured.Degraded
	}
	return response
}
