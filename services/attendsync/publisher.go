package attendsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"attendsync-backend/lib/attendance"
	"attendsync-backend/lib/storeclient"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/attendsync")

// schema recreation (drop/create/policy) failed, the table must not be
// treated as ready for insert
var ErrSchema = errors.New("schema recreation failed")

// row insert failed after a successful schema recreation, the table
// exists but may be empty or partially populated
var ErrInsert = errors.New("row insert failed")

var invalidTableChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)
var underscoreRuns = regexp.MustCompile(`__+`)

// SanitizeTableName derives a schema-safe table name from a subject
// name: "Operating Systems" -> "operating_systems".
func SanitizeTableName(name string) string {
	name = invalidTableChars.ReplaceAllString(name, "_")
	name = underscoreRuns.ReplaceAllString(name, "_")
	return strings.ToLower(strings.Trim(name, "_"))
}

// Publisher wholly replaces one table per subject: drop, recreate,
// apply the public access policy, insert.
type Publisher struct {
	store storeclient.Client
	// pause after DDL so the store's schema cache can catch up
	settleDelay time.Duration
}

type PublisherOptions struct {
	SettleDelay time.Duration
}

func NewPublisher(store storeclient.Client, opts PublisherOptions) Publisher {
	return Publisher{
		store:       store,
		settleDelay: opts.SettleDelay,
	}
}

// Publish destructively republishes one subject's wide table and
// returns the table name it wrote to. Errors wrap ErrSchema or
// ErrInsert so callers can tell a missing table from a partially
// populated one; either way the caller moves on to the next subject.
func (p Publisher) Publish(ctx context.Context, subject string, table attendance.WideTable) (string, error) {
	ctx, span := tracer.Start(ctx, "Publish")
	defer span.End()

	name := SanitizeTableName(subject)
	span.SetAttributes(
		attribute.String("subject", subject),
		attribute.String("table", name),
		attribute.Int("rows", len(table.Rows)),
	)
	slog.InfoContext(ctx, "recreating table for a fresh upload", "table", name)

	err := p.recreateSchema(ctx, name, table.Columns)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "schema recreation failed")
		return name, fmt.Errorf("%w: %s: %s", ErrSchema, name, err)
	}

	slog.InfoContext(ctx, "inserting records", "table", name, "count", len(table.Rows))
	err = p.store.InsertRows(ctx, name, table.Columns, table.Rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "row insert failed")
		return name, fmt.Errorf("%w: %s: %s", ErrInsert, name, err)
	}

	slog.InfoContext(ctx, "published subject", "subject", subject, "table", name, "rows", len(table.Rows))
	return name, nil
}

func (p Publisher) recreateSchema(ctx context.Context, name string, columns []string) error {
	err := p.store.ExecStatement(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %q;", name))
	if err != nil {
		return err
	}
	slog.DebugContext(ctx, "dropped table", "table", name)
	err = p.settle(ctx)
	if err != nil {
		return err
	}

	definitions := make([]string, len(columns))
	for i, column := range columns {
		if i == 0 {
			definitions[i] = fmt.Sprintf("%q TEXT PRIMARY KEY", column)
		} else {
			definitions[i] = fmt.Sprintf("%q TEXT", column)
		}
	}
	err = p.store.ExecStatement(ctx, fmt.Sprintf(
		"CREATE TABLE %q (%s);",
		name, strings.Join(definitions, ", "),
	))
	if err != nil {
		return err
	}
	slog.DebugContext(ctx, "created table with fresh schema", "table", name)

	if p.store.SupportsPolicies() {
		err = p.applyPublicPolicy(ctx, name)
		if err != nil {
			return err
		}
	}

	return p.settle(ctx)
}

// the published tables are intentionally world-readable
func (p Publisher) applyPublicPolicy(ctx context.Context, name string) error {
	err := p.store.ExecStatement(ctx, fmt.Sprintf(
		"ALTER TABLE %q ENABLE ROW LEVEL SECURITY;", name,
	))
	if err != nil {
		return err
	}
	err = p.store.ExecStatement(ctx, fmt.Sprintf(
		`DROP POLICY IF EXISTS "Allow public access" ON %q;`, name,
	))
	if err != nil {
		return err
	}
	err = p.store.ExecStatement(ctx, fmt.Sprintf(
		`CREATE POLICY "Allow public access" ON %q FOR ALL USING (true) WITH CHECK (true);`, name,
	))
	if err != nil {
		return err
	}
	slog.DebugContext(ctx, "applied public access policy", "table", name)
	return nil
}

func (p Publisher) settle(ctx context.Context) error {
	if p.settleDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.settleDelay):
		return nil
	}
}
