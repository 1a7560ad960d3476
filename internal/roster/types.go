package roster

import (
	"strings"

	"github.com/noah-isme/tuition-roster/internal/models"
)

// PageSize is the number of students shown per partition page.
const PageSize = 10

// SortKey selects the roster comparator.
type SortKey string

// Supported sort keys.
const (
	SortByName          SortKey = "name"
	SortByStudentID     SortKey = "student_id"
	SortByAdmissionDate SortKey = "admission_date"
	SortByClass         SortKey = "class"
	SortBySchool        SortKey = "school"
)

// ParseSortKey maps raw input onto a known key, falling back to name.
func ParseSortKey(raw string) SortKey {
	switch key := SortKey(strings.ToLower(strings.TrimSpace(raw))); key {
	case SortByStudentID, SortByAdmissionDate, SortByClass, SortBySchool:
		return key
	default:
		return SortByName
	}
}

// SortDirection orders the comparator result.
type SortDirection string

// Sort directions.
const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// ParseSortDirection maps raw input onto a direction, falling back to asc.
func ParseSortDirection(raw string) SortDirection {
	if strings.EqualFold(strings.TrimSpace(raw), string(Descending)) {
		return Descending
	}
	return Ascending
}

// Tab is the partition the operator is looking at. It only bounds
// next/previous paging; both partitions are always derived.
type Tab string

// Tabs.
const (
	TabActive Tab = "active"
	TabLeft   Tab = "left"
)

// ParseTab maps raw input onto a tab, falling back to active.
func ParseTab(raw string) Tab {
	if strings.EqualFold(strings.TrimSpace(raw), string(TabLeft)) {
		return TabLeft
	}
	return TabActive
}

// Controls are the operator-chosen inputs of the derivation.
type Controls struct {
	Search        string        `json:"search"`
	ClassFilter   string        `json:"class"`
	SchoolFilter  string        `json:"school"`
	SortKey       SortKey       `json:"sort"`
	SortDirection SortDirection `json:"order"`
	Page          int           `json:"page"`
	Tab           Tab           `json:"tab"`
}

// DefaultControls returns the initial console state: name ascending, page 1.
func DefaultControls() Controls {
	return Controls{SortKey: SortByName, SortDirection: Ascending, Page: 1, Tab: TabActive}
}

// PartitionPage is one page of a status partition.
type PartitionPage struct {
	Items     []models.StudentRecord `json:"items"`
	Page      int                    `json:"page"`
	PageCount int                    `json:"page_count"`
	Total     int                    `json:"total"`
}

// Counts summarises the roster. Total is the unfiltered size; Active and Left
// are the filtered partition sizes.
type Counts struct {
	Total  int `json:"total"`
	Active int `json:"active"`
	Left   int `json:"left"`
}

// View is the derived, display-ready roster.
type View struct {
	Active   PartitionPage `json:"active"`
	Left     PartitionPage `json:"left"`
	Counts   Counts        `json:"counts"`
	Controls Controls      `json:"controls"`
}

// Partition returns the page for the given tab.
func (v View) Partition(tab Tab) PartitionPage {
	if tab == TabLeft {
		return v.Left
	}
	return v.Active
}

// Lookups are the reference lists behind the filters and the add form.
type Lookups struct {
	Schools  []models.School  `json:"schools"`
	Classes  []models.Class   `json:"classes"`
	Subjects []models.Subject `json:"subjects"`
}
