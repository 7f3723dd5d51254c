package attendance

import (
	"slices"
	"strings"

	"attendsync-backend/lib/timezone"
)

// identifier columns of every published table, in order. Roll_No is
// the primary key downstream.
var IdentifierColumns = []string{"Roll_No", "Name", "Section"}

// WideTable is one subject's records pivoted to one row per student
// and one column per date. Columns holds the identifier columns
// followed by the date columns in ascending calendar order, already
// rewritten to schema-safe names. A nil cell value is an explicit
// null: the student has no record for that date.
type WideTable struct {
	Columns []string
	Rows    []map[string]*string
}

// SubjectName derives the subject identity from a raw course label by
// stripping the trailing parenthetical course code:
// "Operating Systems (CS301)" -> "Operating Systems".
func SubjectName(courseLabel string) string {
	name, _, _ := strings.Cut(courseLabel, " (")
	return strings.TrimSpace(name)
}

// SanitizeColumnName rewrites characters that are invalid in schema
// identifiers; date columns arrive as DD/MM/YYYY strings.
func SanitizeColumnName(name string) string {
	return strings.ReplaceAll(name, "/", "_")
}

type rowKey struct {
	rollNo  string
	name    string
	section string
}

// Reshape pivots a subject's records from long to wide format. For a
// (student, date) pair seen more than once the first value in input
// order wins. Returns ok=false when the input yields no date-bearing
// rows at all, in which case nothing should be published.
func Reshape(records []Record) (WideTable, bool) {
	var keys []rowKey
	grouped := map[rowKey]map[string]Status{}
	dateSet := map[string]bool{}

	for _, record := range records {
		key := rowKey{record.RollNo, record.Name, record.Section}
		group, seen := grouped[key]
		if !seen {
			group = map[string]Status{}
			grouped[key] = group
			keys = append(keys, key)
		}
		for date, status := range record.Dates {
			dateSet[date] = true
			if _, taken := group[date]; !taken {
				group[date] = status
			}
		}
	}

	if len(dateSet) == 0 {
		return WideTable{}, false
	}

	dates := make([]string, 0, len(dateSet))
	for date := range dateSet {
		dates = append(dates, date)
	}
	// ascending calendar order, a plain string sort would misorder
	// days and months
	slices.SortFunc(dates, compareDates)

	columns := append([]string{}, IdentifierColumns...)
	for _, date := range dates {
		columns = append(columns, SanitizeColumnName(date))
	}

	rows := make([]map[string]*string, 0, len(keys))
	for _, key := range keys {
		row := map[string]*string{
			"Roll_No": ptr(key.rollNo),
			"Name":    ptr(key.name),
			"Section": ptr(key.section),
		}
		for _, date := range dates {
			column := SanitizeColumnName(date)
			if status, has := grouped[key][date]; has {
				row[column] = ptr(string(status))
			} else {
				row[column] = nil
			}
		}
		rows = append(rows, row)
	}

	return WideTable{Columns: columns, Rows: rows}, true
}

func compareDates(a, b string) int {
	at, aerr := timezone.ParseDate(a)
	bt, berr := timezone.ParseDate(b)
	if aerr != nil || berr != nil {
		return strings.Compare(a, b)
	}
	return at.Compare(bt)
}

func ptr(s string) *string {
	return &s
}
