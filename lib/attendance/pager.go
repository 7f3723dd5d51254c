package attendance

import (
	"context"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("lib/attendance")

// PagedView is one course's live paginated table. Next and Prev report
// whether the respective control was present, enabled and activated;
// errors from a stale or missing control are traversal-boundary
// signals, not failures.
type PagedView interface {
	// bounded wait for the table body to be populated
	WaitForTable(ctx context.Context) error
	PageHTML(ctx context.Context) (string, error)
	Next(ctx context.Context) (bool, error)
	Prev(ctx context.Context) (bool, error)
}

// Collector walks every page of a course exactly once. The portal
// lands on the most recent page of a multi-page course, so walking
// forward from there would miss earlier pages: phase 1 seeks to the
// last page without extracting, phase 2 extracts while walking
// backward until the Previous control gives out.
type Collector struct {
	// upper bound on pages per phase, so a UI that never disables
	// its controls cannot loop forever. defaults to 500.
	MaxPages int
}

const defaultMaxPages = 500

func (c Collector) maxPages() int {
	if c.MaxPages > 0 {
		return c.MaxPages
	}
	return defaultMaxPages
}

func (c Collector) CollectCourse(ctx context.Context, view PagedView) []Record {
	ctx, span := tracer.Start(ctx, "CollectCourse")
	defer span.End()

	c.seekToLastPage(ctx, view)

	var records []Record
	pages := 0
	for pages < c.maxPages() {
		pages++

		err := view.WaitForTable(ctx)
		if err != nil {
			// a slow page should not void the whole course;
			// extraction may still find nothing and we can
			// still try to navigate back
			slog.WarnContext(ctx, "timed out waiting for table content on backward pass", "err", err)
		}

		records = append(records, c.extractCurrentPage(ctx, view)...)

		ok, err := view.Prev(ctx)
		if err != nil {
			slog.InfoContext(ctx, "previous control not found or timed out, stopping backward walk", "err", err)
			break
		}
		if !ok {
			slog.InfoContext(ctx, "reached the first page")
			break
		}
	}
	if pages >= c.maxPages() {
		slog.WarnContext(ctx, "backward walk hit the page bound", "max_pages", c.maxPages())
	}

	span.SetAttributes(
		attribute.Int("pages", pages),
		attribute.Int("records", len(records)),
	)
	return records
}

// phase 1: establish a known traversal start boundary by activating
// Next until it reports disabled, goes missing or times out. never
// extracts.
func (c Collector) seekToLastPage(ctx context.Context, view PagedView) {
	ctx, span := tracer.Start(ctx, "seekToLastPage")
	defer span.End()

	for i := 0; i < c.maxPages(); i++ {
		ok, err := view.Next(ctx)
		if err != nil {
			slog.InfoContext(ctx, "next control not found or timed out, assuming last page", "err", err)
			return
		}
		if !ok {
			slog.InfoContext(ctx, "reached the last page")
			return
		}
	}
	slog.WarnContext(ctx, "seek to last page hit the page bound", "max_pages", c.maxPages())
}

func (c Collector) extractCurrentPage(ctx context.Context, view PagedView) []Record {
	html, err := view.PageHTML(ctx)
	if err != nil {
		slog.WarnContext(ctx, "failed to read page content", "err", err)
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		slog.WarnContext(ctx, "failed to parse page content", "err", err)
		return nil
	}
	records := ExtractPage(doc)
	trace.SpanFromContext(ctx).AddEvent("extracted page", trace.WithAttributes(
		attribute.Int("records", len(records)),
	))
	return records
}
