package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"poultry_farm_backend/internal/models"

	"github.com/lib/pq"
)

// DressedBatchRepository defines the interface for dressed-chicken-batch database operations.
type DressedBatchRepository interface {
	CreateDressedBatch(executor SQLExecutor, batch *models.DressedChickenBatch) (int64, error)
	GetDressedBatchByID(id int64) (*models.DressedChickenBatch, error)
	GetDressedBatchByBatchID(batchID string) (*models.DressedChickenBatch, error)
	GetDressedBatches(filters models.DressedBatchFilters) ([]models.DressedChickenBatch, int, error)
	UpdateDressedBatch(executor SQLExecutor, batch *models.DressedChickenBatch) error
	DeleteDressedBatch(executor SQLExecutor, id int64) error
	DressedBatchIDExists(batchID string) (bool, error)
	GetSizeCategories() ([]models.SizeCategory, error)
	SizeCategoryExists(id int64) (bool, error)
}

type dressedBatchRepository struct {
	db *sql.DB
}

// NewDressedBatchRepository creates a new instance of DressedBatchRepository.
func NewDressedBatchRepository(db *sql.DB) DressedBatchRepository {
	return &dressedBatchRepository{db: db}
}

const dressedBatchColumns = `d.id, d.batch_id, d.processing_date, d.processing_quantity, d.current_count,
	d.average_weight_kg, d.size_category_id, d.size_category_custom, d.status, d.expiry_date, d.remaining_birds,
	d.neck_count, d.feet_count, d.gizzard_count, d.dog_food_count,
	d.neck_weight_kg, d.feet_weight_kg, d.gizzard_weight_kg, d.dog_food_weight_kg,
	d.created_at, d.updated_at,
	sc.name AS size_category_name`

const dressedBatchJoin = ` FROM dressed_chicken_batches d
	LEFT JOIN size_categories sc ON d.size_category_id = sc.id`

func scanDressedBatch(row interface{ Scan(dest ...interface{}) error }) (*models.DressedChickenBatch, error) {
	batch := &models.DressedChickenBatch{}
	var sizeCategoryID sql.NullInt64
	var sizeCategoryCustom, sizeCategoryName sql.NullString
	var neckCount, feetCount, gizzardCount, dogFoodCount float64
	var neckWeight, feetWeight, gizzardWeight, dogFoodWeight float64

	err := row.Scan(
		&batch.ID, &batch.BatchID, &batch.ProcessingDate, &batch.ProcessingQuantity, &batch.CurrentCount,
		&batch.AverageWeightKg, &sizeCategoryID, &sizeCategoryCustom, &batch.Status, &batch.ExpiryDate, &batch.RemainingBirds,
		&neckCount, &feetCount, &gizzardCount, &dogFoodCount,
		&neckWeight, &feetWeight, &gizzardWeight, &dogFoodWeight,
		&batch.CreatedAt, &batch.UpdatedAt,
		&sizeCategoryName,
	)
	if err != nil {
		return nil, err
	}

	if sizeCategoryID.Valid {
		batch.SizeCategoryID = &sizeCategoryID.Int64
		if sizeCategoryName.Valid {
			batch.SizeCategory = &models.SizeCategory{ID: sizeCategoryID.Int64, Name: sizeCategoryName.String}
		}
	}
	if sizeCategoryCustom.Valid {
		batch.SizeCategoryCustom = &sizeCategoryCustom.String
	}

	batch.PartsCount = models.PartsBreakdown{
		models.PartNeck:    neckCount,
		models.PartFeet:    feetCount,
		models.PartGizzard: gizzardCount,
		models.PartDogFood: dogFoodCount,
	}
	batch.PartsWeight = models.PartsBreakdown{
		models.PartNeck:    neckWeight,
		models.PartFeet:    feetWeight,
		models.PartGizzard: gizzardWeight,
		models.PartDogFood: dogFoodWeight,
	}
	return batch, nil
}

func (r *dressedBatchRepository) CreateDressedBatch(executor SQLExecutor, batch *models.DressedChickenBatch) (int64, error) {
	query := `INSERT INTO dressed_chicken_batches
	          (batch_id, processing_date, processing_quantity, current_count, average_weight_kg,
	           size_category_id, size_category_custom, status, expiry_date, remaining_birds,
	           neck_count, feet_count, gizzard_count, dog_food_count,
	           neck_weight_kg, feet_weight_kg, gizzard_weight_kg, dog_food_weight_kg,
	           created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	          RETURNING id`
	currentTime := time.Now()

	var sizeCategoryID sql.NullInt64
	if batch.SizeCategoryID != nil {
		sizeCategoryID = sql.NullInt64{Int64: *batch.SizeCategoryID, Valid: true}
	}

	err := executor.QueryRow(query,
		batch.BatchID, batch.ProcessingDate, batch.ProcessingQuantity, batch.CurrentCount, batch.AverageWeightKg,
		sizeCategoryID, batch.SizeCategoryCustom, batch.Status, batch.ExpiryDate, batch.RemainingBirds,
		batch.PartsCount[models.PartNeck], batch.PartsCount[models.PartFeet],
		batch.PartsCount[models.PartGizzard], batch.PartsCount[models.PartDogFood],
		batch.PartsWeight[models.PartNeck], batch.PartsWeight[models.PartFeet],
		batch.PartsWeight[models.PartGizzard], batch.PartsWeight[models.PartDogFood],
		currentTime, currentTime,
	).Scan(&batch.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, pqErr.Message, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating dressed batch: %v", ErrDatabaseError, err)
	}
	batch.CreatedAt = currentTime
	batch.UpdatedAt = currentTime
	return batch.ID, nil
}

func (r *dressedBatchRepository) GetDressedBatchByID(id int64) (*models.DressedChickenBatch, error) {
	query := `SELECT ` + dressedBatchColumns + dressedBatchJoin + ` WHERE d.id = $1`
	batch, err := scanDressedBatch(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting dressed batch %d: %v", ErrDatabaseError, id, err)
	}
	return batch, nil
}

func (r *dressedBatchRepository) GetDressedBatchByBatchID(batchID string) (*models.DressedChickenBatch, error) {
	query := `SELECT ` + dressedBatchColumns + dressedBatchJoin + ` WHERE d.batch_id = $1`
	batch, err := scanDressedBatch(r.db.QueryRow(query, batchID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting dressed batch %s: %v", ErrDatabaseError, batchID, err)
	}
	return batch, nil
}

func (r *dressedBatchRepository) GetDressedBatches(filters models.DressedBatchFilters) ([]models.DressedChickenBatch, int, error) {
	batches := []models.DressedChickenBatch{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + dressedBatchColumns + `, COUNT(*) OVER() AS total_count` + dressedBatchJoin)

	var args []interface{}
	argCount := 1

	if filters.Status != nil && *filters.Status != "" {
		queryBuilder.WriteString(fmt.Sprintf(" WHERE d.status = $%d", argCount))
		args = append(args, *filters.Status)
		argCount++
	}

	queryBuilder.WriteString(" ORDER BY d.processing_date DESC, d.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting dressed batches: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		batch := models.DressedChickenBatch{}
		var sizeCategoryID sql.NullInt64
		var sizeCategoryCustom, sizeCategoryName sql.NullString
		var neckCount, feetCount, gizzardCount, dogFoodCount float64
		var neckWeight, feetWeight, gizzardWeight, dogFoodWeight float64

		if err := rows.Scan(
			&batch.ID, &batch.BatchID, &batch.ProcessingDate, &batch.ProcessingQuantity, &batch.CurrentCount,
			&batch.AverageWeightKg, &sizeCategoryID, &sizeCategoryCustom, &batch.Status, &batch.ExpiryDate, &batch.RemainingBirds,
			&neckCount, &feetCount, &gizzardCount, &dogFoodCount,
			&neckWeight, &feetWeight, &gizzardWeight, &dogFoodWeight,
			&batch.CreatedAt, &batch.UpdatedAt,
			&sizeCategoryName,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning dressed batch: %v", ErrDatabaseError, err)
		}

		if sizeCategoryID.Valid {
			batch.SizeCategoryID = &sizeCategoryID.Int64
			if sizeCategoryName.Valid {
				batch.SizeCategory = &models.SizeCategory{ID: sizeCategoryID.Int64, Name: sizeCategoryName.String}
			}
		}
		if sizeCategoryCustom.Valid {
			batch.SizeCategoryCustom = &sizeCategoryCustom.String
		}
		batch.PartsCount = models.PartsBreakdown{
			models.PartNeck:    neckCount,
			models.PartFeet:    feetCount,
			models.PartGizzard: gizzardCount,
			models.PartDogFood: dogFoodCount,
		}
		batch.PartsWeight = models.PartsBreakdown{
			models.PartNeck:    neckWeight,
			models.PartFeet:    feetWeight,
			models.PartGizzard: gizzardWeight,
			models.PartDogFood: dogFoodWeight,
		}
		batches = append(batches, batch)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating dressed batches: %v", ErrDatabaseError, err)
	}

	return batches, totalCount, nil
}

// UpdateDressedBatch persists mutable fields. processing_quantity, batch_id
// and processing_date are deliberately absent from the statement.
func (r *dressedBatchRepository) UpdateDressedBatch(executor SQLExecutor, batch *models.DressedChickenBatch) error {
	query := `UPDATE dressed_chicken_batches
	          SET current_count = $1, average_weight_kg = $2, size_category_id = $3, size_category_custom = $4,
	              status = $5, expiry_date = $6,
	              neck_count = $7, feet_count = $8, gizzard_count = $9, dog_food_count = $10,
	              neck_weight_kg = $11, feet_weight_kg = $12, gizzard_weight_kg = $13, dog_food_weight_kg = $14,
	              updated_at = $15
	          WHERE id = $16`

	var sizeCategoryID sql.NullInt64
	if batch.SizeCategoryID != nil {
		sizeCategoryID = sql.NullInt64{Int64: *batch.SizeCategoryID, Valid: true}
	}

	result, err := executor.Exec(query,
		batch.CurrentCount, batch.AverageWeightKg, sizeCategoryID, batch.SizeCategoryCustom,
		batch.Status, batch.ExpiryDate,
		batch.PartsCount[models.PartNeck], batch.PartsCount[models.PartFeet],
		batch.PartsCount[models.PartGizzard], batch.PartsCount[models.PartDogFood],
		batch.PartsWeight[models.PartNeck], batch.PartsWeight[models.PartFeet],
		batch.PartsWeight[models.PartGizzard], batch.PartsWeight[models.PartDogFood],
		time.Now(), batch.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating dressed batch %d: %v", ErrDatabaseError, batch.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *dressedBatchRepository) DeleteDressedBatch(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM dressed_chicken_batches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting dressed batch %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *dressedBatchRepository) DressedBatchIDExists(batchID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM dressed_chicken_batches WHERE batch_id = $1)`, batchID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: checking dressed batch id %s: %v", ErrDatabaseError, batchID, err)
	}
	return exists, nil
}

func (r *dressedBatchRepository) GetSizeCategories() ([]models.SizeCategory, error) {
	rows, err := r.db.Query(`SELECT id, name, min_weight_kg, max_weight_kg FROM size_categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: getting size categories: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	categories := []models.SizeCategory{}
	for rows.Next() {
		category := models.SizeCategory{}
		var minWeight, maxWeight sql.NullFloat64
		if err := rows.Scan(&category.ID, &category.Name, &minWeight, &maxWeight); err != nil {
			return nil, fmt.Errorf("%w: scanning size category: %v", ErrDatabaseError, err)
		}
		if minWeight.Valid {
			category.MinWeightKg = &minWeight.Float64
		}
		if maxWeight.Valid {
			category.MaxWeightKg = &maxWeight.Float64
		}
		categories = append(categories, category)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating size categories: %v", ErrDatabaseError, err)
	}
	return categories, nil
}

func (r *dressedBatchRepository) SizeCategoryExists(id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM size_categories WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: checking size category %d: %v", ErrDatabaseError, id, err)
	}
	return exists, nil
}
