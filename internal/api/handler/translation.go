package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/n-translator/api/internal/domain"
	"github.com/n-translator/api/internal/repository"
	"github.com/n-translator/api/internal/service"
)

// TranslationHandler handles the translation request endpoints.
type TranslationHandler struct {
	translationService *service.TranslationService
}

// NewTranslationHandler creates a new translation handler.
func NewTranslationHandler(translationService *service.TranslationService) *TranslationHandler {
	return &TranslationHandler{
		translationService: translationService,
	}
}

type createTranslationRequest struct {
	Name           string `json:"name" binding:"required,min=2,max=255"`
	Title          string `json:"title" binding:"required,min=3,max=500"`
	Description    string `json:"description" binding:"required,min=10,max=5000"`
	TargetLanguage string `json:"target_language" binding:"omitempty,oneof=es fr de it pt"`
}

// Create handles POST /v1/translations.
func (h *TranslationHandler) Create(c *gin.Context) {
	var req createTranslationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"success": false,
				"message": "Validation failed",
				"errors":  validationErrors(verrs),
			})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"message": "Invalid request payload",
		})
		return
	}

	t, err := h.translationService.CreateTranslationRequest(c.Request.Context(), service.TranslationInput{
		Name:           req.Name,
		Title:          req.Title,
		Description:    req.Description,
		TargetLanguage: req.TargetLanguage,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to create translation request",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Translation request created successfully",
		"data":    translationResource(t),
	})
}

// Get handles GET /v1/translations/:id.
func (h *TranslationHandler) Get(c *gin.Context) {
	id := c.Param("id")

	t, err := h.translationService.GetTranslationRequest(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "Translation request not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to retrieve translation request",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    translationResource(t),
	})
}

// List handles GET /v1/translations.
func (h *TranslationHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	filters := repository.ListFilters{
		Status:         c.Query("status"),
		TargetLanguage: c.Query("target_language"),
	}

	translations, total, err := h.translationService.ListTranslationRequests(c.Request.Context(), filters, page)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to list translation requests",
		})
		return
	}

	data := make([]gin.H, 0, len(translations))
	for i := range translations {
		data = append(data, translationResource(&translations[i]))
	}

	if page < 1 {
		page = 1
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"meta": gin.H{
			"current_page": page,
			"total":        total,
			"per_page":     repository.PerPage,
		},
	})
}

// translationResource shapes a record for API responses. error_message is
// present only on failed records; timestamps are RFC 3339.
func translationResource(t *domain.Translation) gin.H {
	var processedAt interface{}
	if t.ProcessedAt != nil {
		processedAt = t.ProcessedAt.UTC().Format(time.RFC3339)
	}

	resource := gin.H{
		"id":                 t.ID,
		"name":               t.Name,
		"title":              t.Title,
		"description":        t.Description,
		"source_language":    t.SourceLanguage,
		"target_language":    t.TargetLanguage,
		"status":             t.Status,
		"original_content":   t.OriginalContent,
		"translated_content": t.TranslatedContent,
		"processed_at":       processedAt,
		"created_at":         t.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":         t.UpdatedAt.UTC().Format(time.RFC3339),
	}

	if t.Status == domain.TranslationStatusFailed {
		resource["error_message"] = t.ErrorMessage
	}

	return resource
}

// jsonFieldNames maps struct field names reported by the validator to their
// JSON equivalents.
var jsonFieldNames = map[string]string{
	"Name":           "name",
	"Title":          "title",
	"Description":    "description",
	"TargetLanguage": "target_language",
}

func validationErrors(verrs validator.ValidationErrors) map[string][]string {
	errs := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if name, ok := jsonFieldNames[field]; ok {
			field = name
		}
		errs[field] = append(errs[field], validationMessage(field, fe.Tag(), fe.Param()))
	}
	return errs
}

func validationMessage(field, tag, param string) string {
	display := strings.ReplaceAll(field, "_", " ")
	switch tag {
	case "required":
		return fmt.Sprintf("The %s field is required.", display)
	case "min":
		return fmt.Sprintf("The %s must be at least %s characters.", display, param)
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s characters.", display, param)
	case "oneof":
		return fmt.Sprintf("The %s must be one of: %s.", display, strings.Join(strings.Fields(param), ", "))
	}
	return fmt.Sprintf("The %s field is invalid.", display)
}
