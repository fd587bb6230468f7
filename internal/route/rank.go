package route

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/couchcryptid/hydro-priority-service/internal/domain"
)

// SortKey selects the column Rank orders by.
type SortKey string

const (
	SortByPriority     SortKey = "priority"
	SortByCondition    SortKey = "condition"
	SortByPassportDate SortKey = "passport_date"
	SortByName         SortKey = "name"
)

// Order is the sort direction for Rank.
type Order string

const (
	Ascending  Order = "asc"
	Descending Order = "desc"
)

// ParseSortKey maps user input to a SortKey. Unknown keys sort by name.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortByPriority, SortByCondition, SortByPassportDate:
		return k
	default:
		return SortByName
	}
}

// ParseOrder maps user input to an Order. Anything but "asc" is descending.
func ParseOrder(s string) Order {
	if strings.EqualFold(strings.TrimSpace(s), string(Ascending)) {
		return Ascending
	}
	return Descending
}

// Row is one line of the priority table.
type Row struct {
	Object   domain.WaterObject `json:"object"`
	Priority domain.Priority    `json:"priority"`
}

// Table is a ranked slice of the registry.
type Table struct {
	Rows  []Row `json:"data"`
	Total int   `json:"total"`
}

// Rank keeps the objects matching f, scores them and sorts by the requested
// key. Equal keys keep input order. limit <= 0 returns all rows; Total counts
// every matching object before the limit.
//
// Rows are scored with domain.InspectionPriority, the same score used by the
// record listing and the Kafka priority_level header, so the highest rows are
// the objects most in need of re-inspection. This differs from the legacy
// priority table, which scored rows with the route formula
// (domain.RoutePriority); that score is still what Plan and Summarize report.
func Rank(objs []domain.WaterObject, now time.Time, f Filter, by SortKey, order Order, limit int) Table {
	matched := f.Apply(objs, now)
	rows := make([]Row, len(matched))
	for i, o := range matched {
		rows[i] = Row{
			Object:   o,
			Priority: domain.InspectionPriority(o.TechnicalCondition, passportDate(o, now), now),
		}
	}

	compare := compareBy(by, now)
	slices.SortStableFunc(rows, func(a, b Row) int {
		if order == Ascending {
			return compare(a, b)
		}
		return compare(b, a)
	})

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return Table{Rows: rows, Total: len(matched)}
}

func compareBy(by SortKey, now time.Time) func(a, b Row) int {
	switch by {
	case SortByPriority:
		return func(a, b Row) int { return cmp.Compare(a.Priority.Score, b.Priority.Score) }
	case SortByCondition:
		return func(a, b Row) int { return cmp.Compare(a.Object.TechnicalCondition, b.Object.TechnicalCondition) }
	case SortByPassportDate:
		return func(a, b Row) int {
			return passportDate(a.Object, now).Compare(passportDate(b.Object, now))
		}
	default:
		return func(a, b Row) int { return cmp.Compare(a.Object.Name, b.Object.Name) }
	}
}
