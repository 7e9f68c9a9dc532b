package services

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jinzhu/inflection"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/orglens/orglens-engine/pkg/adapters/datasource"
	"github.com/orglens/orglens-engine/pkg/apperrors"
	"github.com/orglens/orglens-engine/pkg/models"
	"github.com/orglens/orglens-engine/pkg/repositories"
)

// IntrospectorFactory opens a schema introspector for a datasource.
// Injectable so tests can substitute a fake.
type IntrospectorFactory func(ctx context.Context, dbType, connString string, logger *zap.Logger) (datasource.Introspector, error)

// builtinSynonyms maps workforce domain terms to phrasings users reach
// for instead of the column names.
var builtinSynonyms = map[string][]string{
	"salary":     {"compensation", "pay", "wage", "income", "earnings"},
	"employee":   {"staff", "worker", "person", "team member", "headcount"},
	"department": {"team", "division", "unit", "group"},
	"manager":    {"supervisor", "boss", "lead", "reports to"},
	"hire_date":  {"start date", "joined", "hired", "tenure"},
	"title":      {"role", "position", "job"},
}

// SchemaDiscovery introspects a relational datasource and persists the
// resulting schema snapshot for query synthesis.
type SchemaDiscovery struct {
	schemas         repositories.SchemaRepository
	jobs            repositories.JobRepository
	newIntrospector IntrospectorFactory
	synonymsPath    string
	logger          *zap.Logger
}

// NewSchemaDiscovery creates a schema discovery service. synonymsPath
// optionally points to a YAML file of extra term synonyms merged over
// the built-in set.
func NewSchemaDiscovery(
	schemas repositories.SchemaRepository,
	jobs repositories.JobRepository,
	newIntrospector IntrospectorFactory,
	synonymsPath string,
	logger *zap.Logger,
) *SchemaDiscovery {
	if newIntrospector == nil {
		newIntrospector = datasource.NewIntrospector
	}
	return &SchemaDiscovery{
		schemas:         schemas,
		jobs:            jobs,
		newIntrospector: newIntrospector,
		synonymsPath:    synonymsPath,
		logger:          logger.Named("schema_discovery"),
	}
}

// Discover connects to the datasource, extracts tables and
// relationships, and stores the snapshot. The job record tracks the
// attempt; an unreachable datasource fails the job and returns
// ErrConnectionFailed.
func (s *SchemaDiscovery) Discover(ctx context.Context, dbType, connString string) (*models.IngestionJob, *models.SchemaSnapshot, error) {
	job := &models.IngestionJob{
		JobID:  uuid.New(),
		Type:   models.JobTypeDatabase,
		Status: models.JobStatusProcessing,
		Metadata: map[string]any{
			"databaseType": dbType,
		},
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, nil, fmt.Errorf("failed to create discovery job: %w", err)
	}

	snapshot, err := s.introspect(ctx, dbType, connString)
	if err != nil {
		s.failJob(ctx, job, err)
		return job, nil, err
	}

	if err := s.schemas.SaveSnapshot(ctx, job.JobID, snapshot); err != nil {
		s.failJob(ctx, job, err)
		return job, nil, err
	}

	job.Status = models.JobStatusCompleted
	job.Metadata["tableCount"] = len(snapshot.Schema.Tables)
	job.Metadata["relationshipCount"] = len(snapshot.Schema.Relationships)
	if err := s.jobs.Update(ctx, job.JobID, job.Status, job.Metadata); err != nil {
		s.logger.Warn("Failed to finalize discovery job", zap.Error(err))
	}

	s.logger.Info("Schema discovery complete",
		zap.String("job_id", job.JobID.String()),
		zap.String("database_type", dbType),
		zap.Int("tables", len(snapshot.Schema.Tables)))
	return job, snapshot, nil
}

// Latest returns the newest schema snapshot, or apperrors.ErrNotFound
// when no datasource has been registered.
func (s *SchemaDiscovery) Latest(ctx context.Context) (*models.SchemaSnapshot, error) {
	return s.schemas.Latest(ctx)
}

var _ SchemaProvider = (*SchemaDiscovery)(nil)

func (s *SchemaDiscovery) introspect(ctx context.Context, dbType, connString string) (*models.SchemaSnapshot, error) {
	introspector, err := s.newIntrospector(ctx, dbType, connString, s.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrConnectionFailed, err)
	}
	defer introspector.Close()

	if err := introspector.TestConnection(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrConnectionFailed, err)
	}

	tables, err := introspector.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect tables: %w", err)
	}

	declared, err := introspector.ForeignKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect foreign keys: %w", err)
	}

	schema := models.SchemaDescription{
		Tables:        tables,
		Relationships: mergeRelationships(declared, inferRelationships(tables)),
		SynonymMap:    s.loadSynonyms(),
	}

	return &models.SchemaSnapshot{
		Schema:           schema,
		DatabaseType:     dbType,
		ConnectionString: connString,
	}, nil
}

// inferRelationships guesses foreign keys from naming conventions: a
// column like department_id pointing at a departments table with an id
// column. Declared constraints take precedence during merge.
func inferRelationships(tables []models.TableDescription) []models.Relationship {
	byName := make(map[string]models.TableDescription, len(tables))
	for _, t := range tables {
		byName[t.Name] = t
	}

	var inferred []models.Relationship
	for _, table := range tables {
		for _, col := range table.Columns {
			base, ok := strings.CutSuffix(col.Name, "_id")
			if !ok || base == "" {
				continue
			}
			target, ok := byName[inflection.Plural(base)]
			if !ok {
				continue
			}
			if target.Name == table.Name {
				continue
			}
			if !hasColumn(target, "id") {
				continue
			}
			inferred = append(inferred, models.Relationship{
				From:        table.Name + "." + col.Name,
				To:          target.Name + ".id",
				Cardinality: "many-to-one",
			})
		}
	}
	return inferred
}

func hasColumn(table models.TableDescription, name string) bool {
	for _, col := range table.Columns {
		if col.Name == name {
			return true
		}
	}
	return false
}

// mergeRelationships combines declared and inferred relationships,
// dropping inferred ones that duplicate a declared constraint.
func mergeRelationships(declared, inferred []models.Relationship) []models.Relationship {
	seen := make(map[string]struct{}, len(declared))
	merged := make([]models.Relationship, 0, len(declared)+len(inferred))
	for _, rel := range declared {
		seen[rel.From] = struct{}{}
		merged = append(merged, rel)
	}
	for _, rel := range inferred {
		if _, ok := seen[rel.From]; ok {
			continue
		}
		seen[rel.From] = struct{}{}
		merged = append(merged, rel)
	}
	return merged
}

// loadSynonyms returns the built-in synonym map, overlaid with entries
// from the configured YAML file when present.
func (s *SchemaDiscovery) loadSynonyms() map[string][]string {
	synonyms := make(map[string][]string, len(builtinSynonyms))
	for term, alts := range builtinSynonyms {
		synonyms[term] = append([]string(nil), alts...)
	}

	if s.synonymsPath == "" {
		return synonyms
	}

	raw, err := os.ReadFile(s.synonymsPath)
	if err != nil {
		s.logger.Warn("Failed to read synonyms file, using built-ins",
			zap.String("path", s.synonymsPath), zap.Error(err))
		return synonyms
	}

	var extra map[string][]string
	if err := yaml.Unmarshal(raw, &extra); err != nil {
		s.logger.Warn("Failed to parse synonyms file, using built-ins",
			zap.String("path", s.synonymsPath), zap.Error(err))
		return synonyms
	}

	for term, alts := range extra {
		synonyms[term] = alts
	}
	return synonyms
}

func (s *SchemaDiscovery) failJob(ctx context.Context, job *models.IngestionJob, cause error) {
	job.Status = models.JobStatusFailed
	job.Metadata["error"] = cause.Error()
	if err := s.jobs.Update(ctx, job.JobID, job.Status, job.Metadata); err != nil {
		s.logger.Warn("Failed to mark discovery job failed", zap.Error(err))
	}
}
