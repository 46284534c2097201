package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"poultry_farm_backend/internal/models"
)

// BatchRelationshipRepository defines the interface for the provenance ledger.
// Relationships are append-only; there are no update or delete operations.
type BatchRelationshipRepository interface {
	CreateRelationship(executor SQLExecutor, rel *models.BatchRelationship) (int64, error)
	GetRelationshipsForBatch(batchID string) ([]models.BatchRelationship, error)
	CountRelationshipsForBatch(batchID string) (int, error)
}

type batchRelationshipRepository struct {
	db *sql.DB
}

// NewBatchRelationshipRepository creates a new instance of BatchRelationshipRepository.
func NewBatchRelationshipRepository(db *sql.DB) BatchRelationshipRepository {
	return &batchRelationshipRepository{db: db}
}

func (r *batchRelationshipRepository) CreateRelationship(executor SQLExecutor, rel *models.BatchRelationship) (int64, error) {
	query := `INSERT INTO batch_relationships
	          (source_batch_id, source_batch_type, target_batch_id, target_batch_type, relationship_type, quantity, reference, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRow(query,
		rel.SourceBatchID, rel.SourceBatchType, rel.TargetBatchID, rel.TargetBatchType,
		rel.RelationshipType, rel.Quantity, rel.Reference, currentTime,
	).Scan(&rel.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating batch relationship: %v", ErrDatabaseError, err)
	}
	rel.CreatedAt = currentTime
	return rel.ID, nil
}

// GetRelationshipsForBatch returns every edge that touches the given batch id,
// as source or target, oldest first.
func (r *batchRelationshipRepository) GetRelationshipsForBatch(batchID string) ([]models.BatchRelationship, error) {
	query := `SELECT id, source_batch_id, source_batch_type, target_batch_id, target_batch_type,
	                 relationship_type, quantity, reference, created_at
	          FROM batch_relationships
	          WHERE source_batch_id = $1 OR target_batch_id = $1
	          ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(query, batchID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting relationships for batch %s: %v", ErrDatabaseError, batchID, err)
	}
	defer rows.Close()

	relationships := []models.BatchRelationship{}
	for rows.Next() {
		rel := models.BatchRelationship{}
		if err := rows.Scan(
			&rel.ID, &rel.SourceBatchID, &rel.SourceBatchType, &rel.TargetBatchID, &rel.TargetBatchType,
			&rel.RelationshipType, &rel.Quantity, &rel.Reference, &rel.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning batch relationship: %v", ErrDatabaseError, err)
		}
		relationships = append(relationships, rel)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating batch relationships: %v", ErrDatabaseError, err)
	}
	return relationships, nil
}

func (r *batchRelationshipRepository) CountRelationshipsForBatch(batchID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM batch_relationships WHERE source_batch_id = $1 OR target_batch_id = $1`
	if err := r.db.QueryRow(query, batchID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting relationships for batch %s: %v", ErrDatabaseError, batchID, err)
	}
	return count, nil
}
