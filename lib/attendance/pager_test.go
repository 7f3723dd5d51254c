package attendance

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func pageHTML(pageIdx int) string {
	return fmt.Sprintf(`
<table>
<thead><tr><th>Roll No</th><th>Name</th><th>%02d/01/2024</th></tr></thead>
<tbody>
	<tr><td>roll-%d-a</td><td>Student A</td><td><svg class="lucide-check"></svg></td></tr>
	<tr><td>roll-%d-b</td><td>Student B</td><td><svg class="lucide-x"></svg></td></tr>
</tbody>
</table>`, pageIdx+1, pageIdx, pageIdx)
}

// fakeView simulates the portal's paginated table: it lands on an
// arbitrary page and supports forward/backward navigation with the
// controls disabling at the boundaries.
type fakeView struct {
	pages  []string
	pos    int
	visits map[int]int
}

func newFakeView(pageCount, landing int) *fakeView {
	pages := make([]string, pageCount)
	for i := range pages {
		pages[i] = pageHTML(i)
	}
	return &fakeView{pages: pages, pos: landing, visits: map[int]int{}}
}

func (v *fakeView) WaitForTable(ctx context.Context) error {
	return nil
}

func (v *fakeView) PageHTML(ctx context.Context) (string, error) {
	v.visits[v.pos]++
	return v.pages[v.pos], nil
}

func (v *fakeView) Next(ctx context.Context) (bool, error) {
	if v.pos >= len(v.pages)-1 {
		return false, nil
	}
	v.pos++
	return true, nil
}

func (v *fakeView) Prev(ctx context.Context) (bool, error) {
	if v.pos <= 0 {
		return false, nil
	}
	v.pos--
	return true, nil
}

func sortedRecords(records []Record) []Record {
	out := append([]Record{}, records...)
	sort.Slice(out, func(i, j int) bool { return out[i].RollNo < out[j].RollNo })
	return out
}

func forwardUnion(t *testing.T, view *fakeView) []Record {
	t.Helper()
	var out []Record
	for _, html := range view.pages {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		require.NoError(t, err)
		out = append(out, ExtractPage(doc)...)
	}
	return out
}

func TestCollectCourseVisitsEveryPageOnce(t *testing.T) {
	for _, landing := range []int{0, 2, 4} {
		t.Run(fmt.Sprintf("landing=%d", landing), func(t *testing.T) {
			view := newFakeView(5, landing)
			records := Collector{}.CollectCourse(context.Background(), view)

			for i := 0; i < 5; i++ {
				require.Equal(t, 1, view.visits[i], "page %d visit count", i)
			}
			require.Equal(t, 0, view.pos, "walk must terminate on the first page")

			diff := cmp.Diff(
				sortedRecords(forwardUnion(t, view)),
				sortedRecords(records),
			)
			require.Empty(t, diff)
		})
	}
}

func TestCollectCourseSinglePage(t *testing.T) {
	view := newFakeView(1, 0)
	records := Collector{}.CollectCourse(context.Background(), view)
	require.Len(t, records, 2)
	require.Equal(t, 1, view.visits[0])
}

// a view whose controls never disable, the page bound must stop both
// phases
type runawayView struct {
	fakeView
	nextClicks int
	prevClicks int
}

func (v *runawayView) Next(ctx context.Context) (bool, error) {
	v.nextClicks++
	return true, nil
}

func (v *runawayView) Prev(ctx context.Context) (bool, error) {
	v.prevClicks++
	return true, nil
}

func TestCollectCourseHonorsPageBound(t *testing.T) {
	view := &runawayView{fakeView: *newFakeView(1, 0)}
	records := Collector{MaxPages: 7}.CollectCourse(context.Background(), view)

	require.Equal(t, 7, view.nextClicks)
	require.Equal(t, 7, view.prevClicks)
	// 7 extraction passes over the same single page
	require.Len(t, records, 14)
}

// boundary errors from a stale control terminate the walk instead of
// failing it
type staleControlView struct {
	fakeView
}

func (v *staleControlView) Prev(ctx context.Context) (bool, error) {
	if v.pos == 1 {
		return false, fmt.Errorf("control went stale")
	}
	return v.fakeView.Prev(ctx)
}

func TestCollectCourseToleratesStaleControl(t *testing.T) {
	view := &staleControlView{fakeView: *newFakeView(3, 0)}
	records := Collector{}.CollectCourse(context.Background(), view)
	// lands on page 0, seeks to page 2, walks back to page 1 where
	// the control errors: pages 2 and 1 extracted
	require.Len(t, records, 4)
	require.Equal(t, 1, view.visits[2])
	require.Equal(t, 1, view.visits[1])
	require.Equal(t, 0, view.visits[0])
}
