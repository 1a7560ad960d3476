package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tuition-roster/internal/dto"
	"github.com/noah-isme/tuition-roster/internal/models"
	appErrors "github.com/noah-isme/tuition-roster/pkg/errors"
)

// Mutation operation names, used in MutationFailed errors and metrics.
const (
	OpAddStudent    = "add student"
	OpUpdateStudent = "update student"
	OpDeleteStudent = "delete student"
	OpMarkLeft      = "mark student as left"
	OpMarkActive    = "mark student as active"
)

// Mutation outcomes reported to the observer.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Store is the record store the view-model reads from and writes through.
type Store interface {
	ListStudents(ctx context.Context) ([]models.StudentRecord, error)
	ListLookups(ctx context.Context) (Lookups, error)
	AddStudent(ctx context.Context, form dto.AddStudentForm) (*models.Student, error)
	UpdateStudent(ctx context.Context, update models.StudentUpdate) error
	DeleteStudent(ctx context.Context, id string) error
	SetStatus(ctx context.Context, change models.StatusChange) error
}

// MutationObserver is notified once per mutation attempt.
type MutationObserver interface {
	ObserveMutation(operation, outcome string)
}

// ViewModel holds the roster, the operator's controls and dialog state. It is
// owned by a single caller and is not safe for concurrent use.
type ViewModel struct {
	store    Store
	validate *validator.Validate
	logger   *zap.Logger
	observer MutationObserver

	records  []models.StudentRecord
	lookups  Lookups
	controls Controls
	loading  bool

	addOpen bool
	addForm dto.AddStudentForm
	editing *dto.UpdateStudentRequest
	viewing *models.StudentRecord
}

// Option customises a ViewModel.
type Option func(*ViewModel)

// WithObserver reports mutation outcomes to o.
func WithObserver(o MutationObserver) Option {
	return func(vm *ViewModel) { vm.observer = o }
}

// NewViewModel constructs an empty ViewModel with default controls.
func NewViewModel(store Store, validate *validator.Validate, logger *zap.Logger, opts ...Option) *ViewModel {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	vm := &ViewModel{store: store, validate: validate, logger: logger, controls: DefaultControls()}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// Refresh re-fetches the roster and reference lists. On failure the last
// known state is kept and FETCH_FAILED is returned.
func (vm *ViewModel) Refresh(ctx context.Context) error {
	vm.loading = true
	defer func() { vm.loading = false }()

	records, err := vm.store.ListStudents(ctx)
	if err != nil {
		vm.logger.Error("roster fetch failed", zap.Error(err))
		return appErrors.FetchFailed(err)
	}
	lookups, err := vm.store.ListLookups(ctx)
	if err != nil {
		vm.logger.Error("reference list fetch failed", zap.Error(err))
		return appErrors.FetchFailed(err)
	}
	vm.records = records
	vm.lookups = lookups
	vm.clampPage()
	return nil
}

// View derives the current roster view.
func (vm *ViewModel) View() View {
	return Derive(vm.records, vm.controls)
}

// Rows returns every filtered, sorted record of the tab's partition, ignoring
// pagination.
func (vm *ViewModel) Rows(tab Tab) []models.StudentRecord {
	active, left := Partitioned(vm.records, vm.controls)
	if tab == TabLeft {
		return left
	}
	return active
}

// Controls returns the current controls.
func (vm *ViewModel) Controls() Controls { return vm.controls }

// Records returns the fetched roster.
func (vm *ViewModel) Records() []models.StudentRecord { return vm.records }

// Lookups returns the fetched reference lists.
func (vm *ViewModel) Lookups() Lookups { return vm.lookups }

// Loading reports whether a fetch is in flight.
func (vm *ViewModel) Loading() bool { return vm.loading }

// Apply replaces every control at once, resetting the page to the requested
// value and clamping it afterwards.
func (vm *ViewModel) Apply(c Controls) {
	if c.SortKey == "" {
		c.SortKey = SortByName
	}
	if c.SortDirection == "" {
		c.SortDirection = Ascending
	}
	if c.Tab == "" {
		c.Tab = TabActive
	}
	vm.controls = c
	vm.clampPage()
}

// SetSearch changes the search text and returns to page 1.
func (vm *ViewModel) SetSearch(text string) {
	vm.controls.Search = text
	vm.controls.Page = 1
}

// SetClassFilter filters by exact class name; empty clears the filter.
func (vm *ViewModel) SetClassFilter(name string) {
	vm.controls.ClassFilter = name
	vm.controls.Page = 1
}

// SetSchoolFilter filters by exact school name; empty clears the filter.
func (vm *ViewModel) SetSchoolFilter(name string) {
	vm.controls.SchoolFilter = name
	vm.controls.Page = 1
}

// SetSortKey changes the comparator.
func (vm *ViewModel) SetSortKey(key SortKey) {
	vm.controls.SortKey = key
	vm.clampPage()
}

// ToggleSortDirection flips between ascending and descending.
func (vm *ViewModel) ToggleSortDirection() {
	if vm.controls.SortDirection == Descending {
		vm.controls.SortDirection = Ascending
	} else {
		vm.controls.SortDirection = Descending
	}
	vm.clampPage()
}

// SetSortDirection sets the direction explicitly.
func (vm *ViewModel) SetSortDirection(dir SortDirection) {
	vm.controls.SortDirection = dir
	vm.clampPage()
}

// SetPage moves the shared page, clamped to [1, max(1, largest page count)].
func (vm *ViewModel) SetPage(n int) {
	vm.controls.Page = n
	vm.clampPage()
}

// NextPage advances while the selected tab has more pages.
func (vm *ViewModel) NextPage() {
	if vm.controls.Page < vm.View().Partition(vm.controls.Tab).PageCount {
		vm.controls.Page++
	}
}

// PrevPage steps back, stopping at page 1.
func (vm *ViewModel) PrevPage() {
	if vm.controls.Page > 1 {
		vm.controls.Page--
	}
}

// SetTab switches the partition used for next/previous paging.
func (vm *ViewModel) SetTab(tab Tab) {
	vm.controls.Tab = tab
}

// ResetFilters clears search, class and school filters and returns to page 1.
func (vm *ViewModel) ResetFilters() {
	vm.controls.Search = ""
	vm.controls.ClassFilter = ""
	vm.controls.SchoolFilter = ""
	vm.controls.Page = 1
}

func (vm *ViewModel) clampPage() {
	active, left := Partitioned(vm.records, vm.controls)
	maxPage := max(1, PageCount(len(active)), PageCount(len(left)))
	switch {
	case vm.controls.Page < 1:
		vm.controls.Page = 1
	case vm.controls.Page > maxPage:
		vm.controls.Page = maxPage
	}
}

// OpenAddDialog shows an empty add form.
func (vm *ViewModel) OpenAddDialog() {
	vm.addOpen = true
	vm.addForm = dto.AddStudentForm{}
}

// CloseAddDialog hides the add form.
func (vm *ViewModel) CloseAddDialog() { vm.addOpen = false }

// AddDialogOpen reports whether the add form is shown.
func (vm *ViewModel) AddDialogOpen() bool { return vm.addOpen }

// AddForm returns the add form contents.
func (vm *ViewModel) AddForm() dto.AddStudentForm { return vm.addForm }

// BeginEdit opens the edit dialog seeded from the record with the given id.
func (vm *ViewModel) BeginEdit(id string) (*dto.UpdateStudentRequest, error) {
	rec, err := vm.find(id)
	if err != nil {
		return nil, err
	}
	req := dto.EditRequestFrom(rec.Student)
	vm.editing = &req
	return vm.editing, nil
}

// CancelEdit closes the edit dialog without writing.
func (vm *ViewModel) CancelEdit() { vm.editing = nil }

// Editing returns the open edit payload, if any.
func (vm *ViewModel) Editing() *dto.UpdateStudentRequest { return vm.editing }

// ViewStudent opens the details dialog for id.
func (vm *ViewModel) ViewStudent(id string) (*models.StudentRecord, error) {
	rec, err := vm.find(id)
	if err != nil {
		return nil, err
	}
	vm.viewing = &rec
	return vm.viewing, nil
}

// CloseDetails hides the details dialog.
func (vm *ViewModel) CloseDetails() { vm.viewing = nil }

// Viewing returns the record shown in the details dialog, if any.
func (vm *ViewModel) Viewing() *models.StudentRecord { return vm.viewing }

func (vm *ViewModel) find(id string) (models.StudentRecord, error) {
	for _, rec := range vm.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return models.StudentRecord{}, appErrors.Clone(appErrors.ErrNotFound, "student not found")
}

// AddStudent creates the school (if new), parent, student and enrollments.
// On success the add form is cleared and the dialog closed.
func (vm *ViewModel) AddStudent(ctx context.Context, form dto.AddStudentForm) error {
	if err := vm.CheckAddForm(form); err != nil {
		return err
	}
	if _, err := vm.store.AddStudent(ctx, form); err != nil {
		return vm.fail(OpAddStudent, err)
	}
	vm.observe(OpAddStudent, OutcomeSuccess)
	vm.addForm = dto.AddStudentForm{}
	vm.addOpen = false
	return vm.Refresh(ctx)
}

// UpdateStudent writes the edit payload back. Status Left requires a date and
// reason; status Active clears them.
func (vm *ViewModel) UpdateStudent(ctx context.Context, req dto.UpdateStudentRequest) error {
	update, err := vm.buildUpdate(req)
	if err != nil {
		return vm.reject(OpUpdateStudent, err)
	}
	if err := vm.store.UpdateStudent(ctx, update); err != nil {
		return vm.fail(OpUpdateStudent, err)
	}
	vm.observe(OpUpdateStudent, OutcomeSuccess)
	vm.editing = nil
	return vm.Refresh(ctx)
}

func (vm *ViewModel) buildUpdate(req dto.UpdateStudentRequest) (models.StudentUpdate, error) {
	req.LeftDate = strings.TrimSpace(req.LeftDate)
	req.LeftReason = strings.TrimSpace(req.LeftReason)
	if err := vm.validate.Struct(req); err != nil {
		return models.StudentUpdate{}, validationError(err)
	}
	dob, err := dto.ParseDate(req.DateOfBirth)
	if err != nil {
		return models.StudentUpdate{}, appErrors.Validation(err, "date_of_birth must be YYYY-MM-DD")
	}
	update := models.StudentUpdate{
		ID:          req.ID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: dob,
		Gender:      req.Gender,
		Phone:       req.Phone,
		Email:       req.Email,
		Address:     req.Address,
		Status:      models.StudentStatus(req.Status),
		Remarks:     dto.OptionalString(req.Remarks),
	}
	if update.Status == models.StudentStatusLeft {
		leftDate, err := dto.ParseDate(req.LeftDate)
		if err != nil {
			return models.StudentUpdate{}, appErrors.Validation(err, "left_date must be YYYY-MM-DD")
		}
		update.LeftDate = leftDate
		update.LeftReason = dto.OptionalString(req.LeftReason)
	}
	return update, nil
}

// DeleteStudent removes a student once the operator has confirmed.
func (vm *ViewModel) DeleteStudent(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return vm.reject(OpDeleteStudent, appErrors.Clone(appErrors.ErrConfirmationRequired, "confirm deletion of the student"))
	}
	if err := vm.store.DeleteStudent(ctx, id); err != nil {
		return vm.fail(OpDeleteStudent, err)
	}
	vm.observe(OpDeleteStudent, OutcomeSuccess)
	if vm.viewing != nil && vm.viewing.ID == id {
		vm.viewing = nil
	}
	if vm.editing != nil && vm.editing.ID == id {
		vm.editing = nil
	}
	return vm.Refresh(ctx)
}

// MarkAsLeft moves a student to the Left partition. Blank date or reason is
// rejected before the store is contacted.
func (vm *ViewModel) MarkAsLeft(ctx context.Context, id string, form dto.MarkLeftForm) error {
	change, err := vm.buildLeftChange(id, form)
	if err != nil {
		return vm.reject(OpMarkLeft, err)
	}
	if err := vm.store.SetStatus(ctx, change); err != nil {
		return vm.fail(OpMarkLeft, err)
	}
	vm.observe(OpMarkLeft, OutcomeSuccess)
	return vm.Refresh(ctx)
}

// MarkAsActive returns a Left student to Active once confirmed, clearing the
// left date and reason.
func (vm *ViewModel) MarkAsActive(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return vm.reject(OpMarkActive, appErrors.Clone(appErrors.ErrConfirmationRequired, "confirm reactivation of the student"))
	}
	change := models.StatusChange{ID: id, Status: models.StudentStatusActive}
	if err := vm.store.SetStatus(ctx, change); err != nil {
		return vm.fail(OpMarkActive, err)
	}
	vm.observe(OpMarkActive, OutcomeSuccess)
	return vm.Refresh(ctx)
}

// CheckAddForm validates an add form without contacting the store.
func (vm *ViewModel) CheckAddForm(form dto.AddStudentForm) error {
	if err := vm.validate.Struct(form); err != nil {
		return vm.reject(OpAddStudent, validationError(err))
	}
	return nil
}

// CheckUpdate validates an edit payload without contacting the store.
func (vm *ViewModel) CheckUpdate(req dto.UpdateStudentRequest) error {
	if _, err := vm.buildUpdate(req); err != nil {
		return vm.reject(OpUpdateStudent, err)
	}
	return nil
}

// CheckMarkLeft validates a leave form without contacting the store.
func (vm *ViewModel) CheckMarkLeft(form dto.MarkLeftForm) error {
	if _, err := vm.buildLeftChange("", form); err != nil {
		return vm.reject(OpMarkLeft, err)
	}
	return nil
}

func (vm *ViewModel) buildLeftChange(id string, form dto.MarkLeftForm) (models.StatusChange, error) {
	form = form.Normalise()
	if err := vm.validate.Struct(form); err != nil {
		return models.StatusChange{}, validationError(err)
	}
	leftDate, err := dto.ParseDate(form.LeftDate)
	if err != nil {
		return models.StatusChange{}, appErrors.Validation(err, "left_date must be YYYY-MM-DD")
	}
	reason := form.LeftReason
	return models.StatusChange{ID: id, Status: models.StudentStatusLeft, LeftDate: leftDate, LeftReason: &reason}, nil
}

func (vm *ViewModel) reject(op string, err error) error {
	vm.observe(op, OutcomeRejected)
	return err
}

func (vm *ViewModel) fail(op string, err error) error {
	vm.observe(op, OutcomeFailed)
	vm.logger.Error("roster mutation failed", zap.String("operation", op), zap.Error(err))
	return appErrors.MutationFailed(op, err)
}

func (vm *ViewModel) observe(op, outcome string) {
	if vm.observer != nil {
		vm.observer.ObserveMutation(op, outcome)
	}
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		msg := fmt.Sprintf("%s is invalid", fe.Field())
		switch fe.Tag() {
		case "required", "required_if":
			msg = fmt.Sprintf("%s is required", fe.Field())
		case "datetime":
			msg = fmt.Sprintf("%s must be YYYY-MM-DD", fe.Field())
		}
		return appErrors.Validation(err, msg)
	}
	return appErrors.Validation(err, appErrors.ErrValidation.Message)
}
