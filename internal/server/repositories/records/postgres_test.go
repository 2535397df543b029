package records

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/wellkeeper/internal/common"
	"github.com/dmitrijs2005/wellkeeper/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var columns = []string{"id", "user_id", "full_name", "age", "gender", "mobile_number", "height", "weight",
	"allergies", "surgeries", "medical_treatment", "blood_type", "alcohol_or_smoke",
	"dietary_supplements", "purpose", "health_checkup_date",
	"medical_report_path", "medical_report_name", "created_at", "updated_at"}

var checkup = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func sampleRecord() *models.HealthRecord {
	return &models.HealthRecord{
		UserID:         "u1",
		FullName:       "Alice",
		Age:            30,
		Gender:         "Female",
		MobileNumber:   "555",
		Height:         170,
		Weight:         60,
		BloodType:      "A+",
		AlcoholOrSmoke: "No",
		Purpose:        "checkup",

		HealthCheckupDate: checkup,
	}
}

func addRow(rows *sqlmock.Rows, id string, created time.Time, path, name any) *sqlmock.Rows {
	return rows.AddRow(id, "u1", "Alice", 30, "Female", "555", 170.0, 60.0,
		"", "", "", "A+", "No", "", "checkup", checkup, path, name, created, created)
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)INSERT INTO health_records .*\s+RETURNING id, created_at, updated_at`).
		WithArgs("u1", "Alice", 30, "Female", "555", 170.0, 60.0, "", "", "", "A+", "No", "", "checkup", checkup, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("r1", now, now))

	got, err := repo.Create(context.Background(), sampleRecord())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "r1" || !got.CreatedAt.Equal(now) || got.HasAttachment() {
		t.Fatalf("unexpected record: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_WithAttachment(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rec := sampleRecord()
	rec.SetAttachment("u1_1_ab_report.pdf", "report.pdf")

	mock.ExpectQuery(`(?s)INSERT INTO health_records`).
		WithArgs("u1", "Alice", 30, "Female", "555", 170.0, 60.0, "", "", "", "A+", "No", "", "checkup", checkup,
			"u1_1_ab_report.pdf", "report.pdf").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("r1", now, now))

	if _, err := repo.Create(context.Background(), rec); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO health_records`).WillReturnError(errors.New("boom"))

	_, err := repo.Create(context.Background(), sampleRecord())
	if err == nil || !regexp.MustCompile(`db error: .*boom`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestListByUser_NewestFirstAndScoped(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	newer := time.Now()
	older := newer.Add(-time.Hour)
	rows := sqlmock.NewRows(columns)
	addRow(rows, "r2", newer, "u1_2_cd_scan.png", "scan.png")
	addRow(rows, "r1", older, nil, nil)

	mock.ExpectQuery(`(?s)SELECT .* FROM health_records\s+WHERE user_id = \$1\s+ORDER BY created_at DESC`).
		WithArgs("u1").
		WillReturnRows(rows)

	got, err := repo.ListByUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListByUser error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "r2" || got[1].ID != "r1" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if !got[0].HasAttachment() || *got[0].MedicalReportName != "scan.png" {
		t.Fatalf("attachment not scanned: %+v", got[0])
	}
	if got[1].MedicalReportPath != nil || got[1].MedicalReportName != nil {
		t.Fatalf("expected nil attachment on r1")
	}
}

func TestListByUser_EmptyIsNotNil(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT .* FROM health_records`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(columns))

	got, err := repo.ListByUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListByUser error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", got)
	}
}

func TestListByUser_QueryError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT .* FROM health_records`).WillReturnError(errors.New("down"))

	if _, err := repo.ListByUser(context.Background(), "u1"); err == nil {
		t.Fatal("expected error")
	}
}

func TestGetByID_ScopedToOwner(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := addRow(sqlmock.NewRows(columns), "r1", time.Now(), nil, nil)
	mock.ExpectQuery(`(?s)SELECT .* FROM health_records\s+WHERE id = \$1 AND user_id = \$2$`).
		WithArgs("r1", "u1").
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "u1", "r1")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.ID != "r1" || got.UserID != "u1" {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT .* FROM health_records`).
		WithArgs("r1", "u2").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "u2", "r1")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestGetForUpdate_LocksRow(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := addRow(sqlmock.NewRows(columns), "r1", time.Now(), "k", "n")
	mock.ExpectQuery(`(?s)SELECT .* FROM health_records\s+WHERE id = \$1 AND user_id = \$2\s+FOR UPDATE`).
		WithArgs("r1", "u1").
		WillReturnRows(rows)

	got, err := repo.GetForUpdate(context.Background(), "u1", "r1")
	if err != nil {
		t.Fatalf("GetForUpdate error: %v", err)
	}
	if *got.MedicalReportPath != "k" {
		t.Fatalf("unexpected path: %v", *got.MedicalReportPath)
	}
}

func TestUpdate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rec := sampleRecord()
	rec.ID = "r1"
	rec.Weight = 58

	mock.ExpectQuery(`(?s)UPDATE health_records SET .* updated_at = now\(\)\s+WHERE id = \$1 AND user_id = \$2\s+RETURNING updated_at`).
		WithArgs("r1", "u1", "Alice", 30, "Female", "555", 170.0, 58.0, "", "", "", "A+", "No", "", "checkup", checkup, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))

	got, err := repo.Update(context.Background(), rec)
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if !got.UpdatedAt.Equal(now) {
		t.Fatalf("updated_at not refreshed")
	}
}

func TestUpdate_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rec := sampleRecord()
	rec.ID = "r1"
	mock.ExpectQuery(`UPDATE health_records`).WillReturnError(sql.ErrNoRows)

	if _, err := repo.Update(context.Background(), rec); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestDelete_ReturnsPath(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`DELETE FROM health_records WHERE id = \$1 AND user_id = \$2 RETURNING medical_report_path`).
		WithArgs("r1", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"medical_report_path"}).AddRow("u1_1_ab_report.pdf"))

	path, err := repo.Delete(context.Background(), "u1", "r1")
	if err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if path == nil || *path != "u1_1_ab_report.pdf" {
		t.Fatalf("unexpected path: %v", path)
	}
}

func TestDelete_NoAttachment(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`DELETE FROM health_records`).
		WithArgs("r1", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"medical_report_path"}).AddRow(nil))

	path, err := repo.Delete(context.Background(), "u1", "r1")
	if err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if path != nil {
		t.Fatalf("expected nil path, got %v", *path)
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`DELETE FROM health_records`).
		WithArgs("r1", "u1").
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.Delete(context.Background(), "u1", "r1"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}
