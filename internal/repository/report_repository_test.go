package repository

import (
	"fmt"
	"testing"
	"time"

	"vocal_eval_backend/internal/model"
	"vocal_eval_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Instructor{},
		&model.Student{},
		&model.VideoRecord{},
		&model.Evaluation{},
		&model.ReportGeneration{},
	))

	return db
}

func TestReportRepository_FindLatestByVideoRecord(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReportRepository(db)

	older := &model.ReportGeneration{
		VideoRecordID: "vr-1",
		StudentID:     "st-1",
		Status:        model.ReportFailed,
	}
	older.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Create(older))

	newer := &model.ReportGeneration{
		VideoRecordID: "vr-1",
		StudentID:     "st-1",
		Status:        model.ReportProcessing,
	}
	require.NoError(t, repo.Create(newer))

	got, err := repo.FindLatestByVideoRecord("vr-1")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)

	got, err = repo.FindLatestByVideoRecord("vr-1", model.ReportFailed)
	require.NoError(t, err)
	assert.Equal(t, older.ID, got.ID)

	_, err = repo.FindLatestByVideoRecord("vr-1", model.ReportCompleted)
	assert.ErrorIs(t, err, util.ErrReportNotFound)

	_, err = repo.FindLatestByVideoRecord("vr-unknown")
	assert.ErrorIs(t, err, util.ErrReportNotFound)
}

func TestReportRepository_MarkCompleted(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReportRepository(db)

	report := &model.ReportGeneration{
		VideoRecordID: "vr-1",
		StudentID:     "st-1",
		Status:        model.ReportProcessing,
	}
	require.NoError(t, repo.Create(report))

	updated, err := repo.MarkCompleted(report.ID, "http://files/vr-1_report.pdf", "vr-1_report.pdf")
	require.NoError(t, err)
	assert.Equal(t, model.ReportCompleted, updated.Status)
	assert.Equal(t, "http://files/vr-1_report.pdf", updated.PDFURL)
	assert.Equal(t, "vr-1_report.pdf", updated.PDFFileName)
	require.NotNil(t, updated.CompletedAt)
}

func TestReportRepository_MarkFailed(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReportRepository(db)

	report := &model.ReportGeneration{
		VideoRecordID: "vr-1",
		StudentID:     "st-1",
		Status:        model.ReportProcessing,
	}
	require.NoError(t, repo.Create(report))

	updated, err := repo.MarkFailed(report.ID, "generator exploded")
	require.NoError(t, err)
	assert.Equal(t, model.ReportFailed, updated.Status)
	assert.Equal(t, "generator exploded", updated.ErrorMessage)
	require.NotNil(t, updated.CompletedAt)
}

// 终态迁移只允许发生一次，重复标记必须报错而不是静默覆盖
func TestReportRepository_DoubleTransitionRejected(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReportRepository(db)

	report := &model.ReportGeneration{
		VideoRecordID: "vr-1",
		StudentID:     "st-1",
		Status:        model.ReportProcessing,
	}
	require.NoError(t, repo.Create(report))

	_, err := repo.MarkCompleted(report.ID, "url", "file.pdf")
	require.NoError(t, err)

	_, err = repo.MarkCompleted(report.ID, "other-url", "other.pdf")
	assert.ErrorIs(t, err, util.ErrReportNotProcessing)

	_, err = repo.MarkFailed(report.ID, "too late")
	assert.ErrorIs(t, err, util.ErrReportNotProcessing)

	// 原结果保持不变
	got, err := repo.FindByID(report.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReportCompleted, got.Status)
	assert.Equal(t, "url", got.PDFURL)
}

func TestReportRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReportRepository(db)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(&model.ReportGeneration{
			VideoRecordID: fmt.Sprintf("vr-%d", i),
			StudentID:     "st-1",
			Status:        model.ReportCompleted,
		}))
	}
	require.NoError(t, repo.Create(&model.ReportGeneration{
		VideoRecordID: "vr-9",
		StudentID:     "st-2",
		Status:        model.ReportProcessing,
	}))

	reports, err := repo.List("st-1", "", 0)
	require.NoError(t, err)
	assert.Len(t, reports, 3)

	reports, err = repo.List("", model.ReportProcessing, 0)
	require.NoError(t, err)
	assert.Len(t, reports, 1)

	reports, err = repo.List("", "", 2)
	require.NoError(t, err)
	assert.Len(t, reports, 2)
}
