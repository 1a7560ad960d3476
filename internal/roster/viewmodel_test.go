package roster

import (
	"context"
	"errors"
	"math"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tuition-roster/internal/dto"
	"github.com/noah-isme/tuition-roster/internal/models"
	appErrors "github.com/noah-isme/tuition-roster/pkg/errors"
)

type fakeStore struct {
	records []models.StudentRecord
	lookups Lookups

	listErr   error
	writeErr  error
	listCalls int
	writes    int

	added    []dto.AddStudentForm
	updates  []models.StudentUpdate
	deleted  []string
	statuses []models.StatusChange
}

func (f *fakeStore) ListStudents(ctx context.Context) ([]models.StudentRecord, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.StudentRecord, len(f.records))
	copy(out, f.records)
	return out, nil
}

func (f *fakeStore) ListLookups(ctx context.Context) (Lookups, error) {
	return f.lookups, nil
}

func (f *fakeStore) AddStudent(ctx context.Context, form dto.AddStudentForm) (*models.Student, error) {
	f.writes++
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	f.added = append(f.added, form)
	rec := record("new-"+form.StudentID, form.FirstName, form.LastName, form.StudentID, models.StudentStatusActive)
	f.records = append(f.records, rec)
	return &rec.Student, nil
}

func (f *fakeStore) UpdateStudent(ctx context.Context, update models.StudentUpdate) error {
	f.writes++
	if f.writeErr != nil {
		return f.writeErr
	}
	f.updates = append(f.updates, update)
	return nil
}

func (f *fakeStore) DeleteStudent(ctx context.Context, id string) error {
	f.writes++
	if f.writeErr != nil {
		return f.writeErr
	}
	f.deleted = append(f.deleted, id)
	for i, rec := range f.records {
		if rec.ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeStore) SetStatus(ctx context.Context, change models.StatusChange) error {
	f.writes++
	if f.writeErr != nil {
		return f.writeErr
	}
	f.statuses = append(f.statuses, change)
	for i := range f.records {
		if f.records[i].ID == change.ID {
			f.records[i].Status = change.Status
			f.records[i].LeftDate = change.LeftDate
			f.records[i].LeftReason = change.LeftReason
		}
	}
	return nil
}

type countingObserver struct {
	calls map[string]int
}

func (o *countingObserver) ObserveMutation(operation, outcome string) {
	if o.calls == nil {
		o.calls = map[string]int{}
	}
	o.calls[operation+"/"+outcome]++
}

func newLoadedViewModel(t *testing.T, store *fakeStore, opts ...Option) *ViewModel {
	t.Helper()
	vm := NewViewModel(store, nil, nil, opts...)
	require.NoError(t, vm.Refresh(context.Background()))
	return vm
}

func validAddForm() dto.AddStudentForm {
	return dto.AddStudentForm{StudentID: "S900", FirstName: "New", LastName: "Comer", SchoolName: "Northside"}
}

func TestViewModelRefreshFailureKeepsLastState(t *testing.T) {
	store := &fakeStore{records: rosterOf(3, 1)}
	vm := newLoadedViewModel(t, store)

	store.listErr = errors.New("connection reset")
	err := vm.Refresh(context.Background())

	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrFetchFailed.Code))
	assert.Len(t, vm.Records(), 4)
	assert.False(t, vm.Loading())
}

func TestViewModelPageClampsToLargestPartition(t *testing.T) {
	vm := newLoadedViewModel(t, &fakeStore{records: rosterOf(15, 3)})

	vm.SetPage(2)
	view := vm.View()
	assert.Len(t, view.Active.Items, 5)
	assert.Equal(t, 2, view.Left.Page)
	assert.Equal(t, 1, view.Left.PageCount)
	assert.Empty(t, view.Left.Items)

	vm.SetPage(9)
	assert.Equal(t, 2, vm.Controls().Page)

	vm.SetPage(-3)
	assert.Equal(t, 1, vm.Controls().Page)
}

func TestViewModelHugePageClampsToLastPage(t *testing.T) {
	vm := newLoadedViewModel(t, &fakeStore{records: rosterOf(15, 3)})

	for _, page := range []int{math.MaxInt, math.MaxInt/PageSize + 2} {
		require.NotPanics(t, func() { vm.SetPage(page) })
		assert.Equal(t, 2, vm.Controls().Page)

		require.NotPanics(t, func() { vm.Apply(Controls{Page: page}) })
		assert.Equal(t, 2, vm.Controls().Page)
		assert.Len(t, vm.View().Active.Items, 5)
	}
}

func TestViewModelEmptyRosterStaysOnPageOne(t *testing.T) {
	vm := newLoadedViewModel(t, &fakeStore{})
	vm.SetPage(4)
	view := vm.View()
	assert.Equal(t, 1, view.Active.Page)
	assert.Equal(t, 0, view.Active.PageCount)
	assert.Empty(t, view.Active.Items)
}

func TestViewModelSearchAndFiltersResetPage(t *testing.T) {
	vm := newLoadedViewModel(t, &fakeStore{records: rosterOf(25, 0)})

	vm.SetPage(3)
	vm.SetSearch("active1")
	assert.Equal(t, 1, vm.Controls().Page)
	assert.Equal(t, 10, vm.View().Counts.Active)

	vm.SetPage(2)
	vm.SetClassFilter("Grade 5")
	assert.Equal(t, 1, vm.Controls().Page)

	vm.SetSchoolFilter("Northside")
	vm.ResetFilters()
	assert.Equal(t, Controls{SortKey: SortByName, SortDirection: Ascending, Page: 1, Tab: TabActive}, vm.Controls())
}

func TestViewModelNextPageBoundedBySelectedTab(t *testing.T) {
	vm := newLoadedViewModel(t, &fakeStore{records: rosterOf(15, 3)})

	vm.SetTab(TabLeft)
	vm.NextPage()
	assert.Equal(t, 1, vm.Controls().Page)

	vm.SetTab(TabActive)
	vm.NextPage()
	vm.NextPage()
	assert.Equal(t, 2, vm.Controls().Page)

	vm.PrevPage()
	vm.PrevPage()
	assert.Equal(t, 1, vm.Controls().Page)
}

func TestViewModelSortDirectionToggle(t *testing.T) {
	vm := newLoadedViewModel(t, &fakeStore{records: rosterOf(3, 0)})
	vm.SetSortKey(SortByStudentID)
	vm.ToggleSortDirection()
	assert.Equal(t, []string{"a02", "a01", "a00"}, ids(vm.View().Active.Items))
	vm.ToggleSortDirection()
	assert.Equal(t, Ascending, vm.Controls().SortDirection)
	vm.SetSortDirection(Descending)
	assert.Equal(t, Descending, vm.Controls().SortDirection)
}

func TestViewModelApplyDefaultsAndClamps(t *testing.T) {
	vm := newLoadedViewModel(t, &fakeStore{records: rosterOf(15, 3)})
	vm.Apply(Controls{Page: 7})
	assert.Equal(t, Controls{SortKey: SortByName, SortDirection: Ascending, Page: 2, Tab: TabActive}, vm.Controls())
}

func TestViewModelDialogs(t *testing.T) {
	vm := newLoadedViewModel(t, &fakeStore{records: rosterOf(2, 1)})

	vm.OpenAddDialog()
	assert.True(t, vm.AddDialogOpen())
	vm.CloseAddDialog()
	assert.False(t, vm.AddDialogOpen())

	req, err := vm.BeginEdit("l00")
	require.NoError(t, err)
	assert.Equal(t, "Left", req.Status)
	assert.Same(t, req, vm.Editing())
	vm.CancelEdit()
	assert.Nil(t, vm.Editing())

	rec, err := vm.ViewStudent("a01")
	require.NoError(t, err)
	assert.Equal(t, "Active01", rec.FirstName)
	vm.CloseDetails()
	assert.Nil(t, vm.Viewing())

	_, err = vm.ViewStudent("missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestViewModelAddStudentRejectsInvalidFormWithoutWriting(t *testing.T) {
	store := &fakeStore{}
	obs := &countingObserver{}
	vm := newLoadedViewModel(t, store, WithObserver(obs))

	form := validAddForm()
	form.FirstName = ""
	err := vm.AddStudent(context.Background(), form)

	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
	assert.Zero(t, store.writes)
	assert.Equal(t, 1, obs.calls[OpAddStudent+"/"+OutcomeRejected])
}

func TestViewModelAddStudentSuccessClosesDialogAndRefreshes(t *testing.T) {
	store := &fakeStore{}
	obs := &countingObserver{}
	vm := newLoadedViewModel(t, store, WithObserver(obs))
	vm.OpenAddDialog()

	require.NoError(t, vm.AddStudent(context.Background(), validAddForm()))

	assert.False(t, vm.AddDialogOpen())
	assert.Equal(t, dto.AddStudentForm{}, vm.AddForm())
	assert.Equal(t, []string{"new-S900"}, ids(vm.View().Active.Items))
	assert.Equal(t, 2, store.listCalls)
	assert.Equal(t, 1, obs.calls[OpAddStudent+"/"+OutcomeSuccess])
}

func TestViewModelAddStudentFailureKeepsDialogOpen(t *testing.T) {
	store := &fakeStore{writeErr: errors.New("insert failed")}
	vm := newLoadedViewModel(t, store)
	vm.OpenAddDialog()

	err := vm.AddStudent(context.Background(), validAddForm())

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrMutationFailed.Code, appErr.Code)
	assert.Equal(t, OpAddStudent, appErr.Operation)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.True(t, vm.AddDialogOpen())
	assert.Equal(t, 1, store.listCalls)
}

func TestViewModelRefreshFailureAfterCommittedMutation(t *testing.T) {
	store := &fakeStore{}
	vm := newLoadedViewModel(t, store)
	vm.OpenAddDialog()
	store.listErr = errors.New("timeout")

	err := vm.AddStudent(context.Background(), validAddForm())

	assert.True(t, appErrors.IsCode(err, appErrors.ErrFetchFailed.Code))
	assert.Len(t, store.added, 1)
	assert.False(t, vm.AddDialogOpen())
}

func TestViewModelUpdateStudentLeftRequiresDateAndReason(t *testing.T) {
	store := &fakeStore{records: rosterOf(1, 0)}
	vm := newLoadedViewModel(t, store)

	req, err := vm.BeginEdit("a00")
	require.NoError(t, err)
	edit := *req
	edit.Status = string(models.StudentStatusLeft)
	edit.LeftReason = "  "

	err = vm.UpdateStudent(context.Background(), edit)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
	assert.Zero(t, store.writes)
	assert.NotNil(t, vm.Editing())

	edit.LeftDate = "2024-02-30"
	edit.LeftReason = "relocated"
	err = vm.UpdateStudent(context.Background(), edit)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
	assert.Zero(t, store.writes)

	edit.LeftDate = "2024-02-28"
	require.NoError(t, vm.UpdateStudent(context.Background(), edit))
	require.Len(t, store.updates, 1)
	assert.Equal(t, models.StudentStatusLeft, store.updates[0].Status)
	require.NotNil(t, store.updates[0].LeftReason)
	assert.Equal(t, "relocated", *store.updates[0].LeftReason)
	assert.Nil(t, vm.Editing())
}

func TestViewModelUpdateStudentActiveClearsLeftFields(t *testing.T) {
	store := &fakeStore{records: rosterOf(0, 1)}
	vm := newLoadedViewModel(t, store)

	err := vm.UpdateStudent(context.Background(), dto.UpdateStudentRequest{
		ID:         "l00",
		FirstName:  "Back",
		LastName:   "Again",
		Status:     string(models.StudentStatusActive),
		LeftDate:   "2024-01-01",
		LeftReason: "stale",
	})
	require.NoError(t, err)
	require.Len(t, store.updates, 1)
	assert.Nil(t, store.updates[0].LeftDate)
	assert.Nil(t, store.updates[0].LeftReason)
}

func TestViewModelUpdateStudentNotFoundPassesThrough(t *testing.T) {
	store := &fakeStore{writeErr: appErrors.Clone(appErrors.ErrNotFound, "student not found")}
	vm := newLoadedViewModel(t, store)

	err := vm.UpdateStudent(context.Background(), dto.UpdateStudentRequest{ID: "x", FirstName: "A", LastName: "B", Status: "Active"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestViewModelDeleteStudentRequiresConfirmation(t *testing.T) {
	store := &fakeStore{records: rosterOf(2, 0)}
	vm := newLoadedViewModel(t, store)

	err := vm.DeleteStudent(context.Background(), "a00", false)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusPreconditionRequired, appErr.Status)
	assert.Zero(t, store.writes)

	_, err = vm.ViewStudent("a00")
	require.NoError(t, err)
	require.NoError(t, vm.DeleteStudent(context.Background(), "a00", true))
	assert.Equal(t, []string{"a01"}, ids(vm.View().Active.Items))
	assert.Nil(t, vm.Viewing())
}

func TestViewModelMarkAsLeftRejectsBlankInputWithoutWriting(t *testing.T) {
	store := &fakeStore{records: rosterOf(1, 0)}
	vm := newLoadedViewModel(t, store)

	err := vm.MarkAsLeft(context.Background(), "a00", dto.MarkLeftForm{LeftDate: "", LeftReason: " "})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
	assert.Zero(t, store.writes)
}

func TestViewModelMarkAsLeftMovesStudentBetweenPartitions(t *testing.T) {
	store := &fakeStore{records: rosterOf(2, 0)}
	vm := newLoadedViewModel(t, store)

	err := vm.MarkAsLeft(context.Background(), "a00", dto.MarkLeftForm{LeftDate: "2024-01-01", LeftReason: "relocated"})
	require.NoError(t, err)

	view := vm.View()
	assert.Equal(t, []string{"a01"}, ids(view.Active.Items))
	assert.Equal(t, []string{"a00"}, ids(view.Left.Items))
	require.Len(t, store.statuses, 1)
	assert.Equal(t, "2024-01-01", dto.FormatDate(store.statuses[0].LeftDate))
}

func TestViewModelMarkAsActive(t *testing.T) {
	store := &fakeStore{records: rosterOf(0, 1)}
	vm := newLoadedViewModel(t, store)

	err := vm.MarkAsActive(context.Background(), "l00", false)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrConfirmationRequired.Code))
	assert.Zero(t, store.writes)

	require.NoError(t, vm.MarkAsActive(context.Background(), "l00", true))
	view := vm.View()
	assert.Equal(t, []string{"l00"}, ids(view.Active.Items))
	assert.Nil(t, view.Active.Items[0].LeftDate)
	assert.Nil(t, view.Active.Items[0].LeftReason)
}

func TestViewModelStatusChangeFailureCarriesOperation(t *testing.T) {
	store := &fakeStore{records: rosterOf(1, 0), writeErr: errors.New("boom")}
	obs := &countingObserver{}
	vm := newLoadedViewModel(t, store, WithObserver(obs))

	err := vm.MarkAsLeft(context.Background(), "a00", dto.MarkLeftForm{LeftDate: "2024-01-01", LeftReason: "moved"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, OpMarkLeft, appErr.Operation)
	assert.Equal(t, models.StudentStatusActive, vm.Records()[0].Status)
	assert.Equal(t, 1, obs.calls[OpMarkLeft+"/"+OutcomeFailed])
}

func TestViewModelRowsIgnoresPagination(t *testing.T) {
	vm := newLoadedViewModel(t, &fakeStore{records: rosterOf(15, 3)})
	vm.SetPage(2)
	assert.Len(t, vm.Rows(TabActive), 15)
	assert.Len(t, vm.Rows(TabLeft), 3)
}
