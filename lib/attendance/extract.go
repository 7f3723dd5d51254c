package attendance

import (
	"regexp"

	"attendsync-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Record is the per-student extraction unit for one page of a course
// table. Section is filled in by the caller after extraction; the
// extractor has no notion of section.
type Record struct {
	RollNo  string
	Name    string
	Section string
	// keyed by the portal's DD/MM/YYYY date string
	Dates map[string]Status
}

var dateHeaderRegex = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

// ExtractPage reads the attendance table of the currently rendered
// page. A header cell is a date column iff its trimmed text is exactly
// DD/MM/YYYY; everything else ("Roll No", "Name", ...) is ignored
// wherever it appears. Body rows with fewer than 2 cells are skipped.
func ExtractPage(doc *goquery.Document) []Record {
	dateColumns := map[string]int{}
	doc.Find("thead th").Each(func(i int, th *goquery.Selection) {
		text := htmlutil.CompactText(th)
		if dateHeaderRegex.MatchString(text) {
			dateColumns[text] = i
		}
	})

	var records []Record
	doc.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		record := Record{
			RollNo: htmlutil.CompactText(cells.Eq(0)),
			Name:   htmlutil.CompactText(cells.Eq(1)),
			Dates:  map[string]Status{},
		}
		for date, column := range dateColumns {
			if column >= cells.Length() {
				continue
			}
			record.Dates[date] = ClassifyCell(cells.Eq(column))
		}
		records = append(records, record)
	})
	return records
}
