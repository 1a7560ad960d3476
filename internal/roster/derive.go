package roster

import (
	"slices"
	"strings"
	"time"

	"github.com/noah-isme/tuition-roster/internal/models"
)

// Derive filters, sorts, partitions and paginates records. It never mutates
// records and returns the same view for the same inputs.
func Derive(records []models.StudentRecord, controls Controls) View {
	active, left := Partitioned(records, controls)

	applied := controls
	if applied.Page < 1 {
		applied.Page = 1
	}
	return View{
		Active:   paginate(active, applied.Page),
		Left:     paginate(left, applied.Page),
		Counts:   Counts{Total: len(records), Active: len(active), Left: len(left)},
		Controls: applied,
	}
}

// Partitioned filters and sorts records and splits them by status without
// paginating. Records with any other status are dropped.
func Partitioned(records []models.StudentRecord, controls Controls) (active, left []models.StudentRecord) {
	filtered := filter(records, controls)
	sortRecords(filtered, controls.SortKey, controls.SortDirection)

	active = make([]models.StudentRecord, 0, len(filtered))
	left = make([]models.StudentRecord, 0)
	for _, rec := range filtered {
		switch rec.Status {
		case models.StudentStatusActive:
			active = append(active, rec)
		case models.StudentStatusLeft:
			left = append(left, rec)
		}
	}
	return active, left
}

// PageCount returns ceil(n / PageSize).
func PageCount(n int) int {
	return (n + PageSize - 1) / PageSize
}

func filter(records []models.StudentRecord, controls Controls) []models.StudentRecord {
	needle := strings.ToLower(controls.Search)
	out := make([]models.StudentRecord, 0, len(records))
	for _, rec := range records {
		if needle != "" &&
			!strings.Contains(strings.ToLower(rec.FirstName), needle) &&
			!strings.Contains(strings.ToLower(rec.LastName), needle) &&
			!strings.Contains(strings.ToLower(rec.StudentID), needle) {
			continue
		}
		if controls.ClassFilter != "" && rec.ClassName() != controls.ClassFilter {
			continue
		}
		if controls.SchoolFilter != "" && rec.SchoolName() != controls.SchoolFilter {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func sortRecords(records []models.StudentRecord, key SortKey, dir SortDirection) {
	cmp := comparator(key)
	if dir == Descending {
		slices.SortStableFunc(records, func(a, b models.StudentRecord) int { return -cmp(a, b) })
		return
	}
	slices.SortStableFunc(records, cmp)
}

func comparator(key SortKey) func(a, b models.StudentRecord) int {
	switch key {
	case SortByStudentID:
		return byText(func(r models.StudentRecord) string { return r.StudentID })
	case SortByClass:
		return byText(models.StudentRecord.ClassName)
	case SortBySchool:
		return byText(models.StudentRecord.SchoolName)
	case SortByAdmissionDate:
		return func(a, b models.StudentRecord) int {
			return admitted(a).Compare(admitted(b))
		}
	default:
		return byText(func(r models.StudentRecord) string { return r.FullName() })
	}
}

func byText(value func(models.StudentRecord) string) func(a, b models.StudentRecord) int {
	return func(a, b models.StudentRecord) int {
		return strings.Compare(strings.ToLower(value(a)), strings.ToLower(value(b)))
	}
}

func admitted(r models.StudentRecord) time.Time {
	if r.AdmissionDate == nil {
		return time.Time{}
	}
	return *r.AdmissionDate
}

func paginate(items []models.StudentRecord, page int) PartitionPage {
	out := PartitionPage{Page: page, PageCount: PageCount(len(items)), Total: len(items), Items: []models.StudentRecord{}}
	if page > out.PageCount {
		return out
	}
	start := (page - 1) * PageSize
	end := min(start+PageSize, len(items))
	out.Items = items[start:end]
	return out
}
