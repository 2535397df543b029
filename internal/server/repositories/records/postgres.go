// Package records provides the PostgreSQL-backed health record store.
// Every query is scoped by owner: a record belonging to another user is
// reported exactly like a missing one.
package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/wellkeeper/internal/common"
	"github.com/dmitrijs2005/wellkeeper/internal/dbx"
	"github.com/dmitrijs2005/wellkeeper/internal/server/models"
)

const recordColumns = `id, user_id, full_name, age, gender, mobile_number, height, weight,
		allergies, surgeries, medical_treatment, blood_type, alcohol_or_smoke,
		dietary_supplements, purpose, health_checkup_date,
		medical_report_path, medical_report_name, created_at, updated_at`

// PostgresRepository implements record storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*models.HealthRecord, error) {
	rec := &models.HealthRecord{}
	err := s.Scan(
		&rec.ID, &rec.UserID, &rec.FullName, &rec.Age, &rec.Gender, &rec.MobileNumber,
		&rec.Height, &rec.Weight, &rec.Allergies, &rec.Surgeries, &rec.MedicalTreatment,
		&rec.BloodType, &rec.AlcoholOrSmoke, &rec.DietarySupplements, &rec.Purpose,
		&rec.HealthCheckupDate, &rec.MedicalReportPath, &rec.MedicalReportName,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Create inserts rec and fills in the generated id and timestamps.
func (r *PostgresRepository) Create(ctx context.Context, rec *models.HealthRecord) (*models.HealthRecord, error) {
	query := `
		INSERT INTO health_records (user_id, full_name, age, gender, mobile_number, height, weight,
			allergies, surgeries, medical_treatment, blood_type, alcohol_or_smoke,
			dietary_supplements, purpose, health_checkup_date, medical_report_path, medical_report_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		rec.UserID, rec.FullName, rec.Age, rec.Gender, rec.MobileNumber, rec.Height, rec.Weight,
		rec.Allergies, rec.Surgeries, rec.MedicalTreatment, rec.BloodType, rec.AlcoholOrSmoke,
		rec.DietarySupplements, rec.Purpose, rec.HealthCheckupDate, rec.MedicalReportPath, rec.MedicalReportName,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

// ListByUser returns the records owned by userID, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.HealthRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM health_records
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.HealthRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, id string) (*models.HealthRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM health_records
		WHERE id = $1 AND user_id = $2`

	return r.getOne(ctx, query, id, userID)
}

// GetForUpdate is GetByID with a row lock; it must run inside a transaction.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, userID, id string) (*models.HealthRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM health_records
		WHERE id = $1 AND user_id = $2
		FOR UPDATE`

	return r.getOne(ctx, query, id, userID)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.HealthRecord, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

// Update overwrites every mutable column of the record identified by
// rec.ID and rec.UserID and refreshes updated_at.
func (r *PostgresRepository) Update(ctx context.Context, rec *models.HealthRecord) (*models.HealthRecord, error) {
	query := `
		UPDATE health_records SET
			full_name = $3, age = $4, gender = $5, mobile_number = $6, height = $7, weight = $8,
			allergies = $9, surgeries = $10, medical_treatment = $11, blood_type = $12,
			alcohol_or_smoke = $13, dietary_supplements = $14, purpose = $15,
			health_checkup_date = $16, medical_report_path = $17, medical_report_name = $18,
			updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		rec.ID, rec.UserID, rec.FullName, rec.Age, rec.Gender, rec.MobileNumber, rec.Height, rec.Weight,
		rec.Allergies, rec.Surgeries, rec.MedicalTreatment, rec.BloodType, rec.AlcoholOrSmoke,
		rec.DietarySupplements, rec.Purpose, rec.HealthCheckupDate, rec.MedicalReportPath, rec.MedicalReportName,
	).Scan(&rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

// Delete removes the record and returns the storage key of its attachment,
// or nil if it had none.
func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) (*string, error) {
	query := `DELETE FROM health_records WHERE id = $1 AND user_id = $2 RETURNING medical_report_path`

	var path *string
	if err := r.db.QueryRowContext(ctx, query, id, userID).Scan(&path); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return path, nil
}
