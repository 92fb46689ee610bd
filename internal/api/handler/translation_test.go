package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/n-translator/api/internal/domain"
	"github.com/n-translator/api/internal/logger"
	"github.com/n-translator/api/internal/repository"
	"github.com/n-translator/api/internal/service"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestRouter(t *testing.T) (*gin.Engine, *repository.TranslationRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&domain.Translation{}, &domain.TranslationJob{}))

	translationRepo := repository.NewTranslationRepository(db)
	jobRepo := repository.NewJobRepository(db)
	svc := service.NewTranslationService(db, translationRepo, jobRepo, logger.GetDefault(), &service.TranslationServiceConfig{})

	h := NewTranslationHandler(svc)
	r := gin.New()
	v1 := r.Group("/v1")
	{
		v1.POST("/translations", h.Create)
		v1.GET("/translations", h.List)
		v1.GET("/translations/:id", h.Get)
	}
	return r, translationRepo
}

func performJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func validPayload() map[string]interface{} {
	return map[string]interface{}{
		"name":            "John Doe",
		"title":           "Welcome Message",
		"description":     "This is a welcome message for our users.",
		"target_language": "es",
	}
}

func TestCreateTranslation(t *testing.T) {
	r, _ := newTestRouter(t)

	w := performJSON(t, r, http.MethodPost, "/v1/translations", validPayload())
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	require.Equal(t, true, body["success"])
	require.Equal(t, "Translation request created successfully", body["message"])

	data := body["data"].(map[string]interface{})
	require.Equal(t, "pending", data["status"])
	require.Equal(t, "en", data["source_language"])
	require.Equal(t, "es", data["target_language"])
	require.Nil(t, data["translated_content"])
	require.Nil(t, data["processed_at"])
	require.NotContains(t, data, "error_message")
	require.NotEmpty(t, data["id"])
}

func TestCreateTranslationValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	testCases := []struct {
		name    string
		mutate  func(map[string]interface{})
		field   string
		message string
	}{
		{
			name:    "name too short",
			mutate:  func(p map[string]interface{}) { p["name"] = "J" },
			field:   "name",
			message: "The name must be at least 2 characters.",
		},
		{
			name:    "title too short",
			mutate:  func(p map[string]interface{}) { p["title"] = "Hi" },
			field:   "title",
			message: "The title must be at least 3 characters.",
		},
		{
			name:    "description too short",
			mutate:  func(p map[string]interface{}) { p["description"] = "Too short" },
			field:   "description",
			message: "The description must be at least 10 characters.",
		},
		{
			name:    "name missing",
			mutate:  func(p map[string]interface{}) { delete(p, "name") },
			field:   "name",
			message: "The name field is required.",
		},
		{
			name:    "unsupported target language",
			mutate:  func(p map[string]interface{}) { p["target_language"] = "jp" },
			field:   "target_language",
			message: "The target language must be one of: es, fr, de, it, pt.",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			payload := validPayload()
			tc.mutate(payload)

			w := performJSON(t, r, http.MethodPost, "/v1/translations", payload)
			require.Equal(t, http.StatusUnprocessableEntity, w.Code)

			body := decodeBody(t, w)
			require.Equal(t, false, body["success"])

			errs := body["errors"].(map[string]interface{})
			messages := errs[tc.field].([]interface{})
			require.Contains(t, messages, tc.message)
		})
	}
}

func TestGetTranslation(t *testing.T) {
	r, _ := newTestRouter(t)

	created := decodeBody(t, performJSON(t, r, http.MethodPost, "/v1/translations", validPayload()))
	id := created["data"].(map[string]interface{})["id"].(string)

	w := performJSON(t, r, http.MethodGet, "/v1/translations/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	require.Equal(t, true, body["success"])
	require.Equal(t, "pending", body["data"].(map[string]interface{})["status"])
}

func TestGetTranslationNotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	w := performJSON(t, r, http.MethodGet, "/v1/translations/missing-id", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	body := decodeBody(t, w)
	require.Equal(t, false, body["success"])
	require.Equal(t, "Translation request not found", body["message"])
}

func TestGetFailedTranslationIncludesErrorMessage(t *testing.T) {
	r, translationRepo := newTestRouter(t)
	ctx := context.Background()

	created := decodeBody(t, performJSON(t, r, http.MethodPost, "/v1/translations", validPayload()))
	id := created["data"].(map[string]interface{})["id"].(string)

	require.NoError(t, translationRepo.MarkProcessing(ctx, id))
	require.NoError(t, translationRepo.MarkFailed(ctx, id, "provider unavailable"))

	body := decodeBody(t, performJSON(t, r, http.MethodGet, "/v1/translations/"+id, nil))
	data := body["data"].(map[string]interface{})
	require.Equal(t, "failed", data["status"])
	require.Equal(t, "provider unavailable", data["error_message"])
	require.NotNil(t, data["processed_at"])
}

func TestListTranslations(t *testing.T) {
	r, _ := newTestRouter(t)

	for i := 0; i < 3; i++ {
		payload := validPayload()
		if i == 2 {
			payload["target_language"] = "fr"
		}
		w := performJSON(t, r, http.MethodPost, "/v1/translations", payload)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := performJSON(t, r, http.MethodGet, "/v1/translations?status=pending&target_language=es", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	require.Equal(t, true, body["success"])

	data := body["data"].([]interface{})
	require.Len(t, data, 2)

	meta := body["meta"].(map[string]interface{})
	require.EqualValues(t, 1, meta["current_page"])
	require.EqualValues(t, 2, meta["total"])
	require.EqualValues(t, 15, meta["per_page"])
}
