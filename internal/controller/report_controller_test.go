package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"vocal_eval_backend/internal/config"
	"vocal_eval_backend/internal/model"
	"vocal_eval_backend/internal/repository"
	"vocal_eval_backend/internal/service"
	"vocal_eval_backend/internal/util"
	"vocal_eval_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
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

// fakeAuth 模拟已登录导师，绕过 JWT 解析
func fakeAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("instructor", &util.Claims{
			InstructorID: "inst-1",
			Role:         model.RoleInstructor,
			Email:        "instructor@vocal-eval.local",
		})
		c.Next()
	}
}

func setupReportRouter(t *testing.T, db *gorm.DB, webhookURL string) *gin.Engine {
	t.Helper()

	cfg := &config.Config{}
	cfg.Report.RequiredEvaluations = 10
	cfg.Generator.WebhookURL = webhookURL
	cfg.Generator.TimeoutSeconds = 5
	cfg.Storage.Type = "local"
	cfg.Storage.LocalPath = "testdata-uploads"
	cfg.Storage.PublicBaseURL = "http://localhost:8080"

	svc := service.NewReportService(
		repository.NewReportRepository(db),
		repository.NewEvaluationRepository(db),
		repository.NewVideoRecordRepository(db),
		repository.NewStudentRepository(db),
		service.NewGeneratorService(cfg.Generator),
		service.NewStorageService(cfg),
		cfg,
	)
	ctrl := NewReportController(svc)

	router := gin.New()
	router.POST("/api/webhook/report-completed", ctrl.Callback)

	authed := router.Group("/api")
	authed.Use(fakeAuth())
	{
		authed.POST("/reports/generate", ctrl.Generate)
		authed.GET("/reports/:id", ctrl.GetStatus)
		authed.GET("/reports", ctrl.List)
		authed.GET("/video-records/:id/reports/latest", ctrl.LatestByVideoRecord)
	}

	return router
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func seedEvaluations(t *testing.T, db *gorm.DB, videoRecordID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, db.Create(&model.Evaluation{
			VideoRecordID: videoRecordID,
			StudentID:     "st-1",
			InstructorID:  fmt.Sprintf("judge-%d", i),
			Pitch:         7, Rhythm: 7, Expression: 7, Technique: 7,
		}).Error)
	}
}

func TestGenerateEndpoint_InsufficientEvaluations(t *testing.T) {
	db := setupTestDB(t)
	router := setupReportRouter(t, db, "http://unused")

	seedEvaluations(t, db, "vr-1", 3)

	w := doJSON(router, http.MethodPost, "/api/reports/generate", gin.H{"videoRecordId": "vr-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "need exactly 10 evaluations, but got 3")
}

func TestGenerateEndpoint_MissingVideoRecordID(t *testing.T) {
	db := setupTestDB(t)
	router := setupReportRouter(t, db, "http://unused")

	w := doJSON(router, http.MethodPost, "/api/reports/generate", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "videoRecordId is required")
}

func TestGenerateEndpoint_Success(t *testing.T) {
	db := setupTestDB(t)
	generator := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"accepted":true}`))
	}))
	defer generator.Close()

	router := setupReportRouter(t, db, generator.URL)
	seedEvaluations(t, db, "vr-1", 10)

	w := doJSON(router, http.MethodPost, "/api/reports/generate", gin.H{"videoRecordId": "vr-1"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			ReportID string `json:"reportId"`
			Status   string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.ReportID)
	assert.Equal(t, "processing", resp.Data.Status)

	// 重复发起同一录像返回 409
	w = doJSON(router, http.MethodPost, "/api/reports/generate", gin.H{"videoRecordId": "vr-1"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetStatusEndpoint(t *testing.T) {
	db := setupTestDB(t)
	router := setupReportRouter(t, db, "http://unused")

	report := &model.ReportGeneration{
		VideoRecordID: "vr-1",
		StudentID:     "st-1",
		Status:        model.ReportProcessing,
	}
	require.NoError(t, db.Create(report).Error)

	w := doJSON(router, http.MethodGet, "/api/reports/"+report.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"processing"`)

	w = doJSON(router, http.MethodGet, "/api/reports/missing-id", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCallbackEndpoint_Completed(t *testing.T) {
	db := setupTestDB(t)
	router := setupReportRouter(t, db, "http://unused")

	report := &model.ReportGeneration{
		VideoRecordID: "vr-1",
		StudentID:     "st-1",
		Status:        model.ReportProcessing,
	}
	require.NoError(t, db.Create(report).Error)

	w := doJSON(router, http.MethodPost, "/api/webhook/report-completed", gin.H{
		"videoRecordId": "vr-1",
		"status":        "completed",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Success  bool   `json:"success"`
			ReportID string `json:"reportId"`
			Status   string `json:"status"`
			PDFURL   string `json:"pdfUrl"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Success)
	assert.Equal(t, report.ID, resp.Data.ReportID)
	assert.Equal(t, "completed", resp.Data.Status)
	assert.Equal(t, "http://localhost:8080/uploads/evaluation-reports/vr-1_report.pdf", resp.Data.PDFURL)
}

func TestCallbackEndpoint_Orphan(t *testing.T) {
	db := setupTestDB(t)
	router := setupReportRouter(t, db, "http://unused")

	w := doJSON(router, http.MethodPost, "/api/webhook/report-completed", gin.H{
		"videoRecordId": "vr-unknown",
		"status":        "completed",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCallbackEndpoint_BadInput(t *testing.T) {
	db := setupTestDB(t)
	router := setupReportRouter(t, db, "http://unused")

	// binding:"required" 缺字段
	w := doJSON(router, http.MethodPost, "/api/webhook/report-completed", gin.H{
		"status": "completed",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 非法状态值
	w = doJSON(router, http.MethodPost, "/api/webhook/report-completed", gin.H{
		"videoRecordId": "vr-1",
		"status":        "done",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListEndpoint_Filters(t *testing.T) {
	db := setupTestDB(t)
	router := setupReportRouter(t, db, "http://unused")

	require.NoError(t, db.Create(&model.ReportGeneration{
		VideoRecordID: "vr-1", StudentID: "st-1", Status: model.ReportCompleted,
	}).Error)
	require.NoError(t, db.Create(&model.ReportGeneration{
		VideoRecordID: "vr-2", StudentID: "st-2", Status: model.ReportProcessing,
	}).Error)

	w := doJSON(router, http.MethodGet, "/api/reports?studentId=st-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "vr-1")
	assert.NotContains(t, w.Body.String(), "vr-2")

	w = doJSON(router, http.MethodGet, "/api/reports?status=processing", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "vr-2")
}

func TestLatestByVideoRecordEndpoint(t *testing.T) {
	db := setupTestDB(t)
	router := setupReportRouter(t, db, "http://unused")

	w := doJSON(router, http.MethodGet, "/api/video-records/vr-1/reports/latest", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.NoError(t, db.Create(&model.ReportGeneration{
		VideoRecordID: "vr-1", StudentID: "st-1", Status: model.ReportCompleted,
	}).Error)

	w = doJSON(router, http.MethodGet, "/api/video-records/vr-1/reports/latest", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"completed"`)
}
