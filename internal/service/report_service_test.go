package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"vocal_eval_backend/internal/config"
	"vocal_eval_backend/internal/model"
	"vocal_eval_backend/internal/repository"
	"vocal_eval_backend/internal/util"
	"vocal_eval_backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

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

// generatorStub 记录投递到生成器的载荷
type generatorStub struct {
	mu       sync.Mutex
	payloads []GeneratorPayload
	status   int
}

func (g *generatorStub) handler(w http.ResponseWriter, r *http.Request) {
	var p GeneratorPayload
	json.NewDecoder(r.Body).Decode(&p)

	g.mu.Lock()
	g.payloads = append(g.payloads, p)
	g.mu.Unlock()

	status := g.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	w.Write([]byte(`{"accepted":true}`))
}

func (g *generatorStub) received() []GeneratorPayload {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]GeneratorPayload, len(g.payloads))
	copy(out, g.payloads)
	return out
}

func newTestConfig(webhookURL string) *config.Config {
	cfg := &config.Config{}
	cfg.Report.RequiredEvaluations = 10
	cfg.Generator.WebhookURL = webhookURL
	cfg.Generator.TimeoutSeconds = 5
	cfg.Storage.Type = "local"
	cfg.Storage.LocalPath = "testdata-uploads"
	cfg.Storage.PublicBaseURL = "http://localhost:8080"
	return cfg
}

func newReportService(t *testing.T, db *gorm.DB, webhookURL string) *ReportService {
	t.Helper()
	cfg := newTestConfig(webhookURL)
	return NewReportService(
		repository.NewReportRepository(db),
		repository.NewEvaluationRepository(db),
		repository.NewVideoRecordRepository(db),
		repository.NewStudentRepository(db),
		NewGeneratorService(cfg.Generator),
		NewStorageService(cfg),
		cfg,
	)
}

func seedEvaluations(t *testing.T, db *gorm.DB, videoRecordID, studentID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		e := &model.Evaluation{
			VideoRecordID: videoRecordID,
			StudentID:     studentID,
			InstructorID:  fmt.Sprintf("judge-%d", i),
			Pitch:         7,
			Rhythm:        8,
			Expression:    6,
			Technique:     9,
			PitchComment:  "音准稳定",
		}
		require.NoError(t, db.Create(e).Error)
	}
}

func TestStartGeneration_EmptyVideoRecordID(t *testing.T) {
	db := setupTestDB(t)
	svc := newReportService(t, db, "http://unused")

	_, err := svc.StartGeneration(context.Background(), "")
	assert.ErrorIs(t, err, util.ErrInvalidRequest)
}

func TestStartGeneration_InsufficientEvaluations(t *testing.T) {
	db := setupTestDB(t)
	svc := newReportService(t, db, "http://unused")

	seedEvaluations(t, db, "vr-1", "st-1", 7)

	_, err := svc.StartGeneration(context.Background(), "vr-1")
	var insufficient *util.InsufficientEvaluationsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 7, insufficient.Got)
	assert.Equal(t, 10, insufficient.Required)

	// 未达门槛不得留下任何生成尝试
	var count int64
	db.Model(&model.ReportGeneration{}).Count(&count)
	assert.Zero(t, count)
}

// 门槛是精确等于，超出同样拒绝
func TestStartGeneration_TooManyEvaluations(t *testing.T) {
	db := setupTestDB(t)
	svc := newReportService(t, db, "http://unused")

	seedEvaluations(t, db, "vr-1", "st-1", 11)

	_, err := svc.StartGeneration(context.Background(), "vr-1")
	var insufficient *util.InsufficientEvaluationsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 11, insufficient.Got)
}

func TestStartGeneration_CreatesProcessingAttempt(t *testing.T) {
	db := setupTestDB(t)
	stub := &generatorStub{}
	server := httptest.NewServer(http.HandlerFunc(stub.handler))
	defer server.Close()

	svc := newReportService(t, db, server.URL)

	require.NoError(t, db.Create(&model.Student{Name: "王小雅"}).Error)
	var student model.Student
	require.NoError(t, db.First(&student).Error)

	record := &model.VideoRecord{
		StudentID: student.ID,
		SongID:    "song-1",
		SongTitle: "月亮代表我的心",
	}
	require.NoError(t, db.Create(record).Error)
	seedEvaluations(t, db, record.ID, student.ID, 10)

	report, err := svc.StartGeneration(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReportProcessing, report.Status)
	assert.Equal(t, record.ID, report.VideoRecordID)
	assert.Equal(t, student.ID, report.StudentID)
	assert.Equal(t, 10, report.TotalEvaluations)
	assert.Equal(t, 10, report.RequiredEvaluations)
	assert.Empty(t, report.PDFURL)

	payloads := stub.received()
	require.Len(t, payloads, 1)
	p := payloads[0]
	assert.Equal(t, record.ID, p.VideoRecordID)
	assert.Equal(t, student.ID, p.StudentID)
	assert.Equal(t, "song-1", p.SongID)
	assert.Equal(t, "月亮代表我的心", p.SongTitle)
	assert.Equal(t, "王小雅", p.StudentName)
	require.Len(t, p.Evaluations, 10)
	assert.Equal(t, "judge-0", p.Evaluations[0].JudgeID)
	assert.Equal(t, 7, p.Evaluations[0].Pitch)
	assert.Equal(t, "音准稳定", p.Evaluations[0].PitchComment)
}

// 已有 completed 尝试时直接复用，不新建也不重新投递
func TestStartGeneration_ReturnsExistingCompleted(t *testing.T) {
	db := setupTestDB(t)
	stub := &generatorStub{}
	server := httptest.NewServer(http.HandlerFunc(stub.handler))
	defer server.Close()

	svc := newReportService(t, db, server.URL)
	seedEvaluations(t, db, "vr-1", "st-1", 10)

	existing := &model.ReportGeneration{
		VideoRecordID: "vr-1",
		StudentID:     "st-1",
		Status:        model.ReportCompleted,
		PDFURL:        "http://files/vr-1_report.pdf",
	}
	require.NoError(t, db.Create(existing).Error)

	report, err := svc.StartGeneration(context.Background(), "vr-1")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, report.ID)
	assert.Equal(t, model.ReportCompleted, report.Status)
	assert.Empty(t, stub.received())

	var count int64
	db.Model(&model.ReportGeneration{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

// 同一录像同时只允许一次在途尝试
func TestStartGeneration_RejectsConcurrentAttempt(t *testing.T) {
	db := setupTestDB(t)
	stub := &generatorStub{}
	server := httptest.NewServer(http.HandlerFunc(stub.handler))
	defer server.Close()

	svc := newReportService(t, db, server.URL)
	seedEvaluations(t, db, "vr-1", "st-1", 10)

	_, err := svc.StartGeneration(context.Background(), "vr-1")
	require.NoError(t, err)

	_, err = svc.StartGeneration(context.Background(), "vr-1")
	assert.ErrorIs(t, err, util.ErrGenerationInProgress)
}

// 失败的历史尝试不阻止重新发起
func TestStartGeneration_RetriesAfterFailure(t *testing.T) {
	db := setupTestDB(t)
	stub := &generatorStub{}
	server := httptest.NewServer(http.HandlerFunc(stub.handler))
	defer server.Close()

	svc := newReportService(t, db, server.URL)
	seedEvaluations(t, db, "vr-1", "st-1", 10)

	require.NoError(t, db.Create(&model.ReportGeneration{
		VideoRecordID: "vr-1",
		StudentID:     "st-1",
		Status:        model.ReportFailed,
		ErrorMessage:  "first try failed",
	}).Error)

	report, err := svc.StartGeneration(context.Background(), "vr-1")
	require.NoError(t, err)
	assert.Equal(t, model.ReportProcessing, report.Status)

	var count int64
	db.Model(&model.ReportGeneration{}).Count(&count)
	assert.EqualValues(t, 2, count)
}

// 生成器传输层报错时尝试保持 processing，等回调定结果
func TestStartGeneration_DispatchFailureStaysProcessing(t *testing.T) {
	db := setupTestDB(t)
	stub := &generatorStub{status: http.StatusInternalServerError}
	server := httptest.NewServer(http.HandlerFunc(stub.handler))
	defer server.Close()

	svc := newReportService(t, db, server.URL)
	seedEvaluations(t, db, "vr-1", "st-1", 10)

	report, err := svc.StartGeneration(context.Background(), "vr-1")
	require.NoError(t, err)
	assert.Equal(t, model.ReportProcessing, report.Status)

	stored, err := svc.GetReport(report.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReportProcessing, stored.Status)
}

func TestHandleCallback_Completed(t *testing.T) {
	db := setupTestDB(t)
	svc := newReportService(t, db, "http://unused")

	report := &model.ReportGeneration{
		VideoRecordID: "vr-1",
		StudentID:     "st-1",
		Status:        model.ReportProcessing,
	}
	require.NoError(t, db.Create(report).Error)

	updated, err := svc.HandleCallback(context.Background(), CallbackRequest{
		VideoRecordID: "vr-1",
		Status:        "completed",
	})
	require.NoError(t, err)
	assert.Equal(t, report.ID, updated.ID)
	assert.Equal(t, model.ReportCompleted, updated.Status)
	assert.Equal(t, "vr-1_report.pdf", updated.PDFFileName)
	assert.Equal(t, "http://localhost:8080/uploads/evaluation-reports/vr-1_report.pdf", updated.PDFURL)
	require.NotNil(t, updated.CompletedAt)
}

func TestHandleCallback_FailedWithDefaultMessage(t *testing.T) {
	db := setupTestDB(t)
	svc := newReportService(t, db, "http://unused")

	report := &model.ReportGeneration{
		VideoRecordID: "vr-1",
		StudentID:     "st-1",
		Status:        model.ReportProcessing,
	}
	require.NoError(t, db.Create(report).Error)

	updated, err := svc.HandleCallback(context.Background(), CallbackRequest{
		VideoRecordID: "vr-1",
		Status:        "failed",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ReportFailed, updated.Status)
	assert.Equal(t, util.DefaultGenerationError, updated.ErrorMessage)
	assert.Empty(t, updated.PDFURL)
}

func TestHandleCallback_FailedKeepsProvidedMessage(t *testing.T) {
	db := setupTestDB(t)
	svc := newReportService(t, db, "http://unused")

	require.NoError(t, db.Create(&model.ReportGeneration{
		VideoRecordID: "vr-1",
		StudentID:     "st-1",
		Status:        model.ReportProcessing,
	}).Error)

	updated, err := svc.HandleCallback(context.Background(), CallbackRequest{
		VideoRecordID: "vr-1",
		Status:        "failed",
		ErrorMessage:  "template rendering crashed",
	})
	require.NoError(t, err)
	assert.Equal(t, "template rendering crashed", updated.ErrorMessage)
}

func TestHandleCallback_InvalidInput(t *testing.T) {
	db := setupTestDB(t)
	svc := newReportService(t, db, "http://unused")

	_, err := svc.HandleCallback(context.Background(), CallbackRequest{Status: "completed"})
	assert.ErrorIs(t, err, util.ErrInvalidRequest)

	_, err = svc.HandleCallback(context.Background(), CallbackRequest{
		VideoRecordID: "vr-1",
		Status:        "processing",
	})
	assert.ErrorIs(t, err, util.ErrInvalidStatus)
}

// 没有在途尝试的回调（未知录像或重复回调）是孤儿回调
func TestHandleCallback_OrphanCallback(t *testing.T) {
	db := setupTestDB(t)
	svc := newReportService(t, db, "http://unused")

	_, err := svc.HandleCallback(context.Background(), CallbackRequest{
		VideoRecordID: "vr-unknown",
		Status:        "completed",
	})
	assert.ErrorIs(t, err, util.ErrNoProcessingReport)
}

func TestHandleCallback_DuplicateCallback(t *testing.T) {
	db := setupTestDB(t)
	svc := newReportService(t, db, "http://unused")

	require.NoError(t, db.Create(&model.ReportGeneration{
		VideoRecordID: "vr-1",
		StudentID:     "st-1",
		Status:        model.ReportProcessing,
	}).Error)

	first, err := svc.HandleCallback(context.Background(), CallbackRequest{
		VideoRecordID: "vr-1",
		Status:        "completed",
	})
	require.NoError(t, err)

	// 第二次回调找不到 processing 尝试
	_, err = svc.HandleCallback(context.Background(), CallbackRequest{
		VideoRecordID: "vr-1",
		Status:        "failed",
	})
	assert.ErrorIs(t, err, util.ErrNoProcessingReport)

	// 第一次的结果保持不变
	stored, err := svc.GetReport(first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReportCompleted, stored.Status)
}

// 多次尝试并存时回调匹配最近一次 processing
func TestHandleCallback_MatchesLatestProcessing(t *testing.T) {
	db := setupTestDB(t)
	svc := newReportService(t, db, "http://unused")

	old := &model.ReportGeneration{
		VideoRecordID: "vr-1",
		StudentID:     "st-1",
		Status:        model.ReportFailed,
	}
	require.NoError(t, db.Create(old).Error)

	current := &model.ReportGeneration{
		VideoRecordID: "vr-1",
		StudentID:     "st-1",
		Status:        model.ReportProcessing,
	}
	require.NoError(t, db.Create(current).Error)

	updated, err := svc.HandleCallback(context.Background(), CallbackRequest{
		VideoRecordID: "vr-1",
		Status:        "completed",
	})
	require.NoError(t, err)
	assert.Equal(t, current.ID, updated.ID)

	stored, err := svc.GetReport(old.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReportFailed, stored.Status)
}
