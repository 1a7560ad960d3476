package roster

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tuition-roster/internal/models"
)

func record(id, first, last, studentID string, status models.StudentStatus) models.StudentRecord {
	return models.StudentRecord{
		Student: models.Student{
			ID:        id,
			StudentID: studentID,
			FirstName: first,
			LastName:  last,
			Status:    status,
		},
		Subjects: []models.SubjectEnrollmentDetail{},
	}
}

func withClass(r models.StudentRecord, name string) models.StudentRecord {
	r.Class = &models.NamedRef{Name: name}
	return r
}

func withSchool(r models.StudentRecord, name string) models.StudentRecord {
	r.School = &models.NamedRef{Name: name}
	return r
}

func admittedOn(r models.StudentRecord, date string) models.StudentRecord {
	t, _ := time.Parse(models.DateLayout, date)
	r.AdmissionDate = &t
	return r
}

func ids(items []models.StudentRecord) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func rosterOf(active, left int) []models.StudentRecord {
	records := make([]models.StudentRecord, 0, active+left)
	for i := 0; i < active; i++ {
		records = append(records, record(fmt.Sprintf("a%02d", i), fmt.Sprintf("Active%02d", i), "Student", fmt.Sprintf("A%02d", i), models.StudentStatusActive))
	}
	for i := 0; i < left; i++ {
		records = append(records, record(fmt.Sprintf("l%02d", i), fmt.Sprintf("Left%02d", i), "Student", fmt.Sprintf("L%02d", i), models.StudentStatusLeft))
	}
	return records
}

func TestDeriveSearchMatchesNameOrStudentIDCaseInsensitively(t *testing.T) {
	records := []models.StudentRecord{
		record("1", "Alice", "Tan", "S-100", models.StudentStatusActive),
		record("2", "Bob", "ALIson", "S-200", models.StudentStatusActive),
		record("3", "Carol", "Ng", "ali-300", models.StudentStatusLeft),
		record("4", "Dan", "Wu", "S-400", models.StudentStatusActive),
	}

	controls := DefaultControls()
	controls.Search = "aLi"
	view := Derive(records, controls)
	assert.Equal(t, []string{"1", "2"}, ids(view.Active.Items))
	assert.Equal(t, []string{"3"}, ids(view.Left.Items))

	controls.Search = ""
	view = Derive(records, controls)
	assert.Equal(t, 3, view.Counts.Active)
	assert.Equal(t, 1, view.Counts.Left)
	assert.Equal(t, 4, view.Counts.Total)
}

func TestDeriveFiltersByExactClassAndSchool(t *testing.T) {
	records := []models.StudentRecord{
		withSchool(withClass(record("1", "A", "A", "1", models.StudentStatusActive), "Grade 5"), "Northside"),
		withSchool(withClass(record("2", "B", "B", "2", models.StudentStatusActive), "grade 5"), "Northside"),
		withSchool(withClass(record("3", "C", "C", "3", models.StudentStatusActive), "Grade 5"), "Southside"),
		record("4", "D", "D", "4", models.StudentStatusActive),
	}

	controls := DefaultControls()
	controls.ClassFilter = "Grade 5"
	assert.Equal(t, []string{"1", "3"}, ids(Derive(records, controls).Active.Items))

	controls.SchoolFilter = "Northside"
	view := Derive(records, controls)
	assert.Equal(t, []string{"1"}, ids(view.Active.Items))
	assert.Equal(t, 4, view.Counts.Total)
	assert.Equal(t, 1, view.Counts.Active)
}

func TestDeriveSortsByEveryKey(t *testing.T) {
	records := []models.StudentRecord{
		admittedOn(withSchool(withClass(record("1", "carl", "Zed", "S3", models.StudentStatusActive), "beta"), "Oak"), "2024-03-01"),
		admittedOn(withSchool(withClass(record("2", "Anna", "Young", "s1", models.StudentStatusActive), "Alpha"), "pine"), "2024-01-15"),
		admittedOn(withClass(record("3", "Bert", "Xu", "S2", models.StudentStatusActive), "Gamma"), "2023-09-01"),
	}

	cases := []struct {
		key  SortKey
		asc  []string
		desc []string
	}{
		{SortByName, []string{"2", "3", "1"}, []string{"1", "3", "2"}},
		{SortByStudentID, []string{"2", "3", "1"}, []string{"1", "3", "2"}},
		{SortByAdmissionDate, []string{"3", "2", "1"}, []string{"1", "2", "3"}},
		{SortByClass, []string{"2", "1", "3"}, []string{"3", "1", "2"}},
		{SortBySchool, []string{"3", "1", "2"}, []string{"2", "1", "3"}},
	}

	for _, tc := range cases {
		t.Run(string(tc.key), func(t *testing.T) {
			controls := DefaultControls()
			controls.SortKey = tc.key
			assert.Equal(t, tc.asc, ids(Derive(records, controls).Active.Items))

			controls.SortDirection = Descending
			assert.Equal(t, tc.desc, ids(Derive(records, controls).Active.Items))
		})
	}
}

func TestDeriveSortIsStableInBothDirections(t *testing.T) {
	records := []models.StudentRecord{
		record("1", "Same", "Name", "S1", models.StudentStatusActive),
		record("2", "Zoe", "Last", "S2", models.StudentStatusActive),
		record("3", "same", "name", "S3", models.StudentStatusActive),
		record("4", "SAME", "NAME", "S4", models.StudentStatusActive),
	}

	controls := DefaultControls()
	assert.Equal(t, []string{"1", "3", "4", "2"}, ids(Derive(records, controls).Active.Items))

	controls.SortDirection = Descending
	assert.Equal(t, []string{"2", "1", "3", "4"}, ids(Derive(records, controls).Active.Items))
}

func TestDeriveMissingAdmissionDateSortsFirst(t *testing.T) {
	records := []models.StudentRecord{
		admittedOn(record("1", "A", "A", "1", models.StudentStatusActive), "2024-01-01"),
		record("2", "B", "B", "2", models.StudentStatusActive),
	}
	controls := DefaultControls()
	controls.SortKey = SortByAdmissionDate
	assert.Equal(t, []string{"2", "1"}, ids(Derive(records, controls).Active.Items))
}

func TestDerivePartitionIsExhaustiveAndDisjoint(t *testing.T) {
	records := []models.StudentRecord{
		record("1", "E", "E", "1", models.StudentStatusLeft),
		record("2", "D", "D", "2", models.StudentStatusActive),
		record("3", "C", "C", "3", models.StudentStatusLeft),
		record("4", "B", "B", "4", models.StudentStatusActive),
		record("5", "A", "A", "5", models.StudentStatus("Suspended")),
	}
	view := Derive(records, DefaultControls())

	assert.Equal(t, []string{"4", "2"}, ids(view.Active.Items))
	assert.Equal(t, []string{"3", "1"}, ids(view.Left.Items))
	assert.Equal(t, Counts{Total: 5, Active: 2, Left: 2}, view.Counts)
}

func TestDerivePaginationPageCounts(t *testing.T) {
	for _, n := range []int{0, 1, 9, 10, 11, 20, 21} {
		view := Derive(rosterOf(n, 0), DefaultControls())
		assert.Equal(t, (n+9)/10, view.Active.PageCount, "n=%d", n)
		assert.Equal(t, min(n, PageSize), len(view.Active.Items), "n=%d", n)
	}

	empty := Derive(nil, DefaultControls())
	assert.Equal(t, 0, empty.Left.PageCount)
	assert.Equal(t, 1, empty.Left.Page)
	assert.NotNil(t, empty.Left.Items)
	assert.Empty(t, empty.Left.Items)
}

func TestDeriveHugePageReturnsEmptyPartitions(t *testing.T) {
	records := rosterOf(15, 3)
	for _, page := range []int{math.MaxInt, math.MaxInt/PageSize + 2} {
		var view View
		require.NotPanics(t, func() { view = Derive(records, Controls{Page: page}) })
		assert.Equal(t, page, view.Active.Page)
		assert.Equal(t, 2, view.Active.PageCount)
		assert.Empty(t, view.Active.Items)
		assert.Empty(t, view.Left.Items)
	}
}

func TestDeriveDoesNotMutateInput(t *testing.T) {
	records := rosterOf(12, 3)
	before := ids(records)

	controls := DefaultControls()
	controls.SortDirection = Descending
	first := Derive(records, controls)
	second := Derive(records, controls)

	assert.Equal(t, before, ids(records))
	assert.Equal(t, first, second)
}

func TestDeriveFifteenActiveThreeLeft(t *testing.T) {
	records := rosterOf(15, 3)

	view := Derive(records, DefaultControls())
	assert.Equal(t, 1, view.Active.Page)
	assert.Equal(t, 2, view.Active.PageCount)
	assert.Len(t, view.Active.Items, 10)
	assert.Equal(t, 1, view.Left.PageCount)
	assert.Len(t, view.Left.Items, 3)

	controls := DefaultControls()
	controls.Page = 2
	view = Derive(records, controls)
	require.Len(t, view.Active.Items, 5)
	assert.Equal(t, "a10", view.Active.Items[0].ID)
	assert.Equal(t, 2, view.Left.Page)
	assert.Equal(t, 1, view.Left.PageCount)
	assert.Empty(t, view.Left.Items)
}

func TestParseControlInputs(t *testing.T) {
	assert.Equal(t, SortBySchool, ParseSortKey(" School "))
	assert.Equal(t, SortByName, ParseSortKey("unknown"))
	assert.Equal(t, Descending, ParseSortDirection("DESC"))
	assert.Equal(t, Ascending, ParseSortDirection(""))
	assert.Equal(t, TabLeft, ParseTab("left"))
	assert.Equal(t, TabActive, ParseTab("bogus"))
}
