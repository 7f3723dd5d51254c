package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"attendsync-backend/lib/attendance"
	"attendsync-backend/lib/automation"
	"attendsync-backend/lib/storeclient"
	"attendsync-backend/services/attendsync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("services/attendsync/scraper")

// Section pairs the label of a section option in the portal's
// dropdown with the name records should carry. Name defaults to
// Option; the RTU portal renders options like "Section Section A" for
// a section everyone calls "Section A".
type Section struct {
	Option string `json:"option"`
	Name   string `json:"name"`
}

// TraversalSpec is the externally supplied filter cascade: one
// department/batch/semester selection, then every section, every
// attendance type, every course the portal offers. Keeping it in
// config keeps the institutional labels out of the pipeline core.
type TraversalSpec struct {
	Department string    `json:"department"`
	Batch      string    `json:"batch"`
	Semester   string    `json:"semester"`
	Sections   []Section `json:"sections"`
	Types      []string  `json:"types"`
	// pseudo-course aggregating all others, never scraped
	ExcludeCourse string `json:"exclude_course"`
}

type Options struct {
	Url            string
	MaxPages       int
	ScreenshotPath string

	// per-wait bounds, each local to one navigation step
	NavigateTimeout time.Duration
	ActionTimeout   time.Duration
	SettleTimeout   time.Duration
	TableTimeout    time.Duration
	ListboxTimeout  time.Duration

	// pause after publish DDL so the store's schema cache catches up
	StoreSettleDelay time.Duration
}

func (o Options) withDefaults() Options {
	if o.NavigateTimeout <= 0 {
		o.NavigateTimeout = time.Second * 90
	}
	if o.ActionTimeout <= 0 {
		o.ActionTimeout = time.Second * 60
	}
	if o.SettleTimeout <= 0 {
		o.SettleTimeout = time.Second * 30
	}
	if o.TableTimeout <= 0 {
		o.TableTimeout = time.Second * 20
	}
	if o.ListboxTimeout <= 0 {
		o.ListboxTimeout = time.Second * 15
	}
	return o
}

// SubjectResult is what one subject's publish attempt came to.
type SubjectResult struct {
	Subject string
	Table   string
	Rows    int
	Err     error
}

// Run walks the whole filter cascade, aggregates records per subject
// and republishes every subject's table. A traversal failure aborts
// the remaining cascade, captures a diagnostic screenshot and still
// publishes the subjects aggregated before the failure.
func Run(ctx context.Context, browser automation.Browser, store storeclient.Client, spec TraversalSpec, opts Options) []SubjectResult {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	opts = opts.withDefaults()
	s := scraper{
		browser:   browser,
		collector: attendance.Collector{MaxPages: opts.MaxPages},
		opts:      opts,
	}

	subjects, order, err := s.traverse(ctx, spec)
	if err != nil {
		span.RecordError(err)
		slog.ErrorContext(ctx, "traversal aborted", "err", err)
		s.captureErrorScreenshot(ctx)
	}

	publisher := attendsync.NewPublisher(store, attendsync.PublisherOptions{
		SettleDelay: opts.StoreSettleDelay,
	})
	return PublishAll(ctx, publisher, subjects, order)
}

// PublishAll publishes every aggregated subject in first-seen order.
// One subject's failure never stops the next: its error lands in the
// result and the loop moves on.
func PublishAll(ctx context.Context, publisher attendsync.Publisher, subjects map[string][]attendance.Record, order []string) []SubjectResult {
	var results []SubjectResult
	for _, subject := range order {
		wide, ok := attendance.Reshape(subjects[subject])
		if !ok {
			slog.WarnContext(ctx, "no attendance dates found for subject, skipping", "subject", subject)
			continue
		}
		table, err := publisher.Publish(ctx, subject, wide)
		if err != nil {
			slog.ErrorContext(ctx, "failed to publish subject", "subject", subject, "err", err)
		}
		results = append(results, SubjectResult{
			Subject: subject,
			Table:   table,
			Rows:    len(wide.Rows),
			Err:     err,
		})
	}
	return results
}

type scraper struct {
	browser   automation.Browser
	collector attendance.Collector
	opts      Options
}

func (s scraper) traverse(ctx context.Context, spec TraversalSpec) (map[string][]attendance.Record, []string, error) {
	ctx, span := tracer.Start(ctx, "traverse")
	defer span.End()

	subjects := map[string][]attendance.Record{}
	var order []string

	slog.InfoContext(ctx, "navigating to attendance portal", "url", s.opts.Url)
	nctx, cancel := context.WithTimeout(ctx, s.opts.NavigateTimeout)
	err := s.browser.Navigate(nctx, s.opts.Url)
	if err == nil {
		err = s.browser.WaitForQuiescence(nctx)
	}
	cancel()
	if err != nil {
		return subjects, order, fmt.Errorf("failed to open portal: %w", err)
	}

	slog.InfoContext(ctx, "applying filters")
	err = s.selectOption(ctx, "Select Department", spec.Department)
	if err != nil {
		return subjects, order, err
	}
	err = s.selectOption(ctx, "Select Batch", spec.Batch)
	if err != nil {
		return subjects, order, err
	}
	err = s.selectOption(ctx, "Select Semester", spec.Semester)
	if err != nil {
		return subjects, order, err
	}

	wctx, cancel := context.WithTimeout(ctx, s.opts.SettleTimeout)
	err = s.browser.WaitForSelector(wctx, labelButton("Select Section"))
	cancel()
	if err != nil {
		return subjects, order, fmt.Errorf("section dropdown never appeared: %w", err)
	}

	for _, section := range spec.Sections {
		sectionName := section.Name
		if sectionName == "" {
			sectionName = section.Option
		}
		slog.InfoContext(ctx, "processing section", "section", sectionName)
		err = s.selectOption(ctx, "Select Section", section.Option)
		if err != nil {
			return subjects, order, err
		}

		for _, attendanceType := range spec.Types {
			slog.InfoContext(ctx, "processing attendance type", "type", attendanceType)
			err = s.selectOption(ctx, "Select Attendance Type", attendanceType)
			if err != nil {
				return subjects, order, err
			}

			labels, err := s.courseLabels(ctx, spec.ExcludeCourse)
			if err != nil {
				return subjects, order, err
			}

			for _, label := range labels {
				subject := attendance.SubjectName(label)
				slog.InfoContext(ctx, "scraping course", "course", label, "section", sectionName)
				err = s.selectOption(ctx, "Select Course", label)
				if err != nil {
					return subjects, order, err
				}

				records := s.collector.CollectCourse(ctx, pagedView{
					browser: s.browser,
					opts:    s.opts,
				})
				for i := range records {
					records[i].Section = sectionName
				}

				if _, seen := subjects[subject]; !seen {
					order = append(order, subject)
				}
				subjects[subject] = append(subjects[subject], records...)

				span.AddEvent("scraped course", trace.WithAttributes(
					attribute.String("course", label),
					attribute.String("section", sectionName),
					attribute.Int("records", len(records)),
				))
			}
		}
	}

	return subjects, order, nil
}

// selects one option from a labelled dropdown, then waits for the
// view to settle
func (s scraper) selectOption(ctx context.Context, label, option string) error {
	actx, cancel := context.WithTimeout(ctx, s.opts.ActionTimeout)
	defer cancel()

	err := s.browser.Locate(labelButton(label)).Click(actx)
	if err != nil {
		return fmt.Errorf("failed to open %q dropdown: %w", label, err)
	}
	err = s.browser.Locate(optionSelector(option)).Click(actx)
	if err != nil {
		return fmt.Errorf("failed to select %q in %q: %w", option, label, err)
	}

	sctx, cancel := context.WithTimeout(ctx, s.opts.SettleTimeout)
	defer cancel()
	return s.browser.WaitForQuiescence(sctx)
}

const listboxSelector = `div[role="listbox"]`

const courseOptionsScript = `Array.from(document.querySelectorAll('div[role="listbox"] [role="option"]')).map(el => el.innerText.trim())`

// reads the live course option list, leaving the dropdown closed
func (s scraper) courseLabels(ctx context.Context, exclude string) ([]string, error) {
	actx, cancel := context.WithTimeout(ctx, s.opts.ActionTimeout)
	defer cancel()

	err := s.browser.Locate(labelButton("Select Course")).Click(actx)
	if err != nil {
		return nil, fmt.Errorf("failed to open course dropdown: %w", err)
	}

	wctx, cancel := context.WithTimeout(ctx, s.opts.ListboxTimeout)
	defer cancel()
	err = s.browser.WaitForSelector(wctx, listboxSelector)
	if err != nil {
		return nil, fmt.Errorf("course listbox never appeared: %w", err)
	}

	var labels []string
	err = s.browser.Evaluate(actx, courseOptionsScript, &labels)
	if err != nil {
		return nil, fmt.Errorf("failed to read course options: %w", err)
	}

	err = s.browser.Press(actx, automation.KeyEscape)
	if err != nil {
		slog.WarnContext(ctx, "failed to close course dropdown", "err", err)
	}

	return filterCourses(labels, exclude), nil
}

func filterCourses(labels []string, exclude string) []string {
	var out []string
	for _, label := range labels {
		if label == "" || (exclude != "" && label == exclude) {
			continue
		}
		out = append(out, label)
	}
	return out
}

func (s scraper) captureErrorScreenshot(ctx context.Context) {
	if s.opts.ScreenshotPath == "" {
		return
	}
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second*10)
	defer cancel()
	err := s.browser.Screenshot(sctx, s.opts.ScreenshotPath)
	if err != nil {
		slog.WarnContext(ctx, "failed to capture error screenshot", "err", err)
		return
	}
	slog.InfoContext(ctx, "captured error screenshot", "path", s.opts.ScreenshotPath)
}

func labelButton(label string) string {
	return fmt.Sprintf(`//label[normalize-space(text())=%q]/following-sibling::button[1]`, label)
}

func optionSelector(name string) string {
	return fmt.Sprintf(`//*[@role="option" and normalize-space(.)=%q]`, name)
}

func buttonNamed(name string) string {
	return fmt.Sprintf(`//button[normalize-space(.)=%q]`, name)
}
