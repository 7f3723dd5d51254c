package attendance

import (
	"attendsync-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Status is the attendance state of one student on one date, stored in
// its string form so NotApplicable and Unknown stay self-describing in
// the published tables.
type Status string

const (
	StatusPresent       Status = "P"
	StatusAbsent        Status = "A"
	StatusNotApplicable Status = "NA"
	StatusUnknown       Status = "Unknown"
)

// ClassifyCell maps a rendered table cell to a Status. Precedence is
// check marker, then x marker, then the literal "NA" text; a cell that
// carries none of the recognized indicators is Unknown, never dropped.
func ClassifyCell(cell *goquery.Selection) Status {
	if cell.Find("svg.lucide-check").Length() > 0 {
		return StatusPresent
	}
	if cell.Find("svg.lucide-x").Length() > 0 {
		return StatusAbsent
	}
	if htmlutil.CompactText(cell) == "NA" {
		return StatusNotApplicable
	}
	return StatusUnknown
}
