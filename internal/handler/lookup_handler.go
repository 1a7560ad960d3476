package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tuition-roster/internal/dto"
	"github.com/noah-isme/tuition-roster/internal/models"
	"github.com/noah-isme/tuition-roster/pkg/response"
)

type lookupService interface {
	Schools(ctx context.Context) ([]models.School, error)
	Classes(ctx context.Context) ([]models.Class, error)
	Subjects(ctx context.Context) ([]models.Subject, error)
	CreateClass(ctx context.Context, req dto.CreateLookupRequest) (*models.Class, error)
	CreateSubject(ctx context.Context, req dto.CreateLookupRequest) (*models.Subject, error)
}

// LookupHandler serves the school, class and subject reference lists.
type LookupHandler struct {
	service lookupService
}

// NewLookupHandler constructs LookupHandler.
func NewLookupHandler(service lookupService) *LookupHandler {
	return &LookupHandler{service: service}
}

// Schools godoc
// @Summary List schools
// @Tags Lookups
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schools [get]
func (h *LookupHandler) Schools(c *gin.Context) {
	items, err := h.service.Schools(c.Request.Context())
	respondList(c, items, err)
}

// Classes godoc
// @Summary List classes
// @Tags Lookups
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *LookupHandler) Classes(c *gin.Context) {
	items, err := h.service.Classes(c.Request.Context())
	respondList(c, items, err)
}

// Subjects godoc
// @Summary List subjects
// @Tags Lookups
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *LookupHandler) Subjects(c *gin.Context) {
	items, err := h.service.Subjects(c.Request.Context())
	respondList(c, items, err)
}

// CreateClass godoc
// @Summary Create class
// @Tags Lookups
// @Accept json
// @Produce json
// @Param payload body dto.CreateLookupRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /classes [post]
func (h *LookupHandler) CreateClass(c *gin.Context) {
	var req dto.CreateLookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	class, err := h.service.CreateClass(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// CreateSubject godoc
// @Summary Create subject
// @Tags Lookups
// @Accept json
// @Produce json
// @Param payload body dto.CreateLookupRequest true "Subject payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /subjects [post]
func (h *LookupHandler) CreateSubject(c *gin.Context) {
	var req dto.CreateLookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	subject, err := h.service.CreateSubject(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

func respondList[T any](c *gin.Context, items []T, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}
