package attendance

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const samplePage = `
<html><body><table>
<thead><tr>
	<th>Roll No</th>
	<th>Name</th>
	<th> 02/01/2024 </th>
	<th>15/01/2024</th>
	<th>Total</th>
	<th>2/1/2024</th>
</tr></thead>
<tbody>
	<tr>
		<td>21CS001</td>
		<td>Aditi Sharma</td>
		<td><svg class="lucide-check"></svg></td>
		<td><svg class="lucide-x"></svg></td>
		<td>12</td>
		<td>bogus</td>
	</tr>
	<tr>
		<td>21CS002</td>
		<td>Rohan Verma</td>
		<td>NA</td>
		<td></td>
		<td>0</td>
		<td>bogus</td>
	</tr>
	<tr><td>orphan</td></tr>
</tbody>
</table></body></html>`

func parsePage(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestExtractPage(t *testing.T) {
	records := ExtractPage(parsePage(t, samplePage))
	require.Len(t, records, 2)

	require.Equal(t, "21CS001", records[0].RollNo)
	require.Equal(t, "Aditi Sharma", records[0].Name)
	require.Equal(t, map[string]Status{
		"02/01/2024": StatusPresent,
		"15/01/2024": StatusAbsent,
	}, records[0].Dates)

	require.Equal(t, "21CS002", records[1].RollNo)
	require.Equal(t, map[string]Status{
		"02/01/2024": StatusNotApplicable,
		"15/01/2024": StatusUnknown,
	}, records[1].Dates)
}

func TestExtractPageNoDateColumns(t *testing.T) {
	records := ExtractPage(parsePage(t, `
<table>
<thead><tr><th>Roll No</th><th>Name</th></tr></thead>
<tbody><tr><td>21CS001</td><td>Aditi Sharma</td></tr></tbody>
</table>`))
	require.Len(t, records, 1)
	require.Empty(t, records[0].Dates)
}

func TestExtractPageShortRow(t *testing.T) {
	records := ExtractPage(parsePage(t, `
<table>
<thead><tr><th>02/01/2024</th></tr></thead>
<tbody><tr><td>lonely</td></tr></tbody>
</table>`))
	require.Empty(t, records)
}

func TestExtractPageDateColumnPastRowEnd(t *testing.T) {
	records := ExtractPage(parsePage(t, `
<table>
<thead><tr><th>Roll No</th><th>Name</th><th>02/01/2024</th></tr></thead>
<tbody><tr><td>21CS001</td><td>Aditi Sharma</td></tr></tbody>
</table>`))
	require.Len(t, records, 1)
	require.Empty(t, records[0].Dates)
}
