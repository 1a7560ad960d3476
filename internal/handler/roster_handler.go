package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tuition-roster/internal/dto"
	"github.com/noah-isme/tuition-roster/internal/middleware"
	"github.com/noah-isme/tuition-roster/internal/models"
	"github.com/noah-isme/tuition-roster/internal/roster"
	appErrors "github.com/noah-isme/tuition-roster/pkg/errors"
	"github.com/noah-isme/tuition-roster/pkg/export"
	"github.com/noah-isme/tuition-roster/pkg/response"
)

type tableExporter interface {
	ContentType() string
	Extension() string
	Render(table export.Table) ([]byte, error)
}

// RosterHandler maps roster and student endpoints onto a per-request
// view-model.
type RosterHandler struct {
	store     roster.Store
	validate  *validator.Validate
	logger    *zap.Logger
	observer  roster.MutationObserver
	exporters map[string]tableExporter
}

// NewRosterHandler constructs RosterHandler. observer may be nil.
func NewRosterHandler(store roster.Store, validate *validator.Validate, logger *zap.Logger, observer roster.MutationObserver) *RosterHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterHandler{
		store:    store,
		validate: validate,
		logger:   logger,
		observer: observer,
		exporters: map[string]tableExporter{
			"csv": export.NewCSVExporter(),
			"pdf": export.NewPDFExporter(),
		},
	}
}

// load builds a view-model, fetches the roster and applies the query controls.
func (h *RosterHandler) load(c *gin.Context) (*roster.ViewModel, error) {
	vm := h.newViewModel()
	if err := h.refresh(c, vm); err != nil {
		return nil, err
	}
	return vm, nil
}

func (h *RosterHandler) newViewModel() *roster.ViewModel {
	var opts []roster.Option
	if h.observer != nil {
		opts = append(opts, roster.WithObserver(h.observer))
	}
	return roster.NewViewModel(h.store, h.validate, h.logger, opts...)
}

func (h *RosterHandler) refresh(c *gin.Context, vm *roster.ViewModel) error {
	if err := vm.Refresh(c.Request.Context()); err != nil {
		return err
	}
	vm.Apply(controlsFromQuery(c))
	return nil
}

func controlsFromQuery(c *gin.Context) roster.Controls {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	return roster.Controls{
		Search:        c.Query("search"),
		ClassFilter:   c.Query("class"),
		SchoolFilter:  c.Query("school"),
		SortKey:       roster.ParseSortKey(c.Query("sort")),
		SortDirection: roster.ParseSortDirection(c.Query("order")),
		Page:          page,
		Tab:           roster.ParseTab(c.Query("tab")),
	}
}

func (h *RosterHandler) respondView(c *gin.Context, status int, vm *roster.ViewModel) {
	middleware.SetMeta(c, "page_size", roster.PageSize)
	response.JSON(c, status, vm.View(), middleware.ExtractMeta(c))
}

// View godoc
// @Summary Roster view
// @Description Filtered, sorted and paginated Active and Left partitions.
// @Tags Roster
// @Produce json
// @Param search query string false "Matches first name, last name or student ID"
// @Param class query string false "Exact class name"
// @Param school query string false "Exact school name"
// @Param sort query string false "name, student_id, admission_date, class or school"
// @Param order query string false "asc or desc"
// @Param page query int false "Shared page for both partitions"
// @Param tab query string false "active or left"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /roster [get]
func (h *RosterHandler) View(c *gin.Context) {
	vm, err := h.load(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "lookups", vm.Lookups())
	h.respondView(c, http.StatusOK, vm)
}

// Export godoc
// @Summary Export roster partition
// @Tags Roster
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Param tab query string false "active or left"
// @Success 200 {file} file
// @Router /roster/export [get]
func (h *RosterHandler) Export(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "csv"))
	exporter, ok := h.exporters[format]
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}
	vm, err := h.load(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	tab := vm.Controls().Tab
	table := rosterTable(tab, vm.Rows(tab))
	payload, err := exporter.Render(table)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export"))
		return
	}
	filename := fmt.Sprintf("roster-%s-%s.%s", tab, time.Now().UTC().Format("20060102"), exporter.Extension())
	response.Attachment(c, filename, exporter.ContentType(), payload)
}

func rosterTable(tab roster.Tab, records []models.StudentRecord) export.Table {
	title := "Active students"
	if tab == roster.TabLeft {
		title = "Students who left"
	}
	table := export.Table{
		Title:   title,
		Columns: []string{"Student ID", "Name", "Class", "School", "Status", "Admitted", "Left", "Reason", "Phone", "Email"},
		Rows:    make([][]string, 0, len(records)),
	}
	for _, rec := range records {
		reason := ""
		if rec.LeftReason != nil {
			reason = *rec.LeftReason
		}
		table.Rows = append(table.Rows, []string{
			rec.StudentID,
			rec.FullName(),
			rec.ClassName(),
			rec.SchoolName(),
			string(rec.Status),
			dto.FormatDate(rec.AdmissionDate),
			dto.FormatDate(rec.LeftDate),
			reason,
			rec.Phone,
			rec.Email,
		})
	}
	return table
}

// GetStudent godoc
// @Summary Student details
// @Tags Students
// @Produce json
// @Param id path string true "Student row ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *RosterHandler) GetStudent(c *gin.Context) {
	vm, err := h.load(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	record, err := vm.ViewStudent(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record)
}

// CreateStudent godoc
// @Summary Add student
// @Description Creates the school if new, then parent, student and subject enrollments. Returns the refreshed roster.
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body dto.AddStudentForm true "Add student form"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /students [post]
func (h *RosterHandler) CreateStudent(c *gin.Context) {
	var form dto.AddStudentForm
	if err := c.ShouldBindJSON(&form); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	vm := h.newViewModel()
	if err := vm.CheckAddForm(form); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.refresh(c, vm); err != nil {
		response.Error(c, err)
		return
	}
	vm.OpenAddDialog()
	if err := vm.AddStudent(c.Request.Context(), form); err != nil {
		response.Error(c, err)
		return
	}
	h.respondView(c, http.StatusCreated, vm)
}

// UpdateStudent godoc
// @Summary Update student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student row ID"
// @Param payload body dto.UpdateStudentRequest true "Edit form"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [put]
func (h *RosterHandler) UpdateStudent(c *gin.Context) {
	var req dto.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	req.ID = c.Param("id")
	vm := h.newViewModel()
	if err := vm.CheckUpdate(req); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.refresh(c, vm); err != nil {
		response.Error(c, err)
		return
	}
	if _, err := vm.BeginEdit(req.ID); err != nil {
		response.Error(c, err)
		return
	}
	if err := vm.UpdateStudent(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	h.respondView(c, http.StatusOK, vm)
}

// DeleteStudent godoc
// @Summary Delete student
// @Tags Students
// @Produce json
// @Param id path string true "Student row ID"
// @Param confirm query bool true "Must be true"
// @Success 200 {object} response.Envelope
// @Failure 428 {object} response.Envelope
// @Router /students/{id} [delete]
func (h *RosterHandler) DeleteStudent(c *gin.Context) {
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	vm, err := h.load(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := vm.DeleteStudent(c.Request.Context(), c.Param("id"), confirmed); err != nil {
		response.Error(c, err)
		return
	}
	h.respondView(c, http.StatusOK, vm)
}

// MarkLeft godoc
// @Summary Mark student as left
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student row ID"
// @Param payload body dto.MarkLeftForm true "Left date and reason"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students/{id}/leave [post]
func (h *RosterHandler) MarkLeft(c *gin.Context) {
	var form dto.MarkLeftForm
	if err := c.ShouldBindJSON(&form); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	vm := h.newViewModel()
	if err := vm.CheckMarkLeft(form); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.refresh(c, vm); err != nil {
		response.Error(c, err)
		return
	}
	if err := vm.MarkAsLeft(c.Request.Context(), c.Param("id"), form); err != nil {
		response.Error(c, err)
		return
	}
	h.respondView(c, http.StatusOK, vm)
}

// Reactivate godoc
// @Summary Mark student as active
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student row ID"
// @Param payload body dto.ConfirmRequest true "Confirmation"
// @Success 200 {object} response.Envelope
// @Failure 428 {object} response.Envelope
// @Router /students/{id}/reactivate [post]
func (h *RosterHandler) Reactivate(c *gin.Context) {
	var req dto.ConfirmRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, invalidPayload(err))
			return
		}
	}
	vm, err := h.load(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := vm.MarkAsActive(c.Request.Context(), c.Param("id"), req.Confirm); err != nil {
		response.Error(c, err)
		return
	}
	h.respondView(c, http.StatusOK, vm)
}

func invalidPayload(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
}
