package attendsync

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"attendsync-backend/lib/attendance"
	"attendsync-backend/lib/storeclient"
	"attendsync-backend/lib/telemetry"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func TestSanitizeTableName(t *testing.T) {
	require.Equal(t, "operating_systems", SanitizeTableName("Operating Systems"))
	require.Equal(t, "c_programming", SanitizeTableName("C++ Programming!!"))
	require.Equal(t, "labs", SanitizeTableName("__Labs__"))
}

func openTestStore(t *testing.T) (*storeclient.SQL, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// in-memory sqlite is per-connection, keep the pool to one
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return storeclient.NewSQL(db, "sqlite"), db
}

func sampleTable(t *testing.T) attendance.WideTable {
	t.Helper()
	table, ok := attendance.Reshape([]attendance.Record{
		{
			RollNo: "21CS001", Name: "Aditi Sharma", Section: "Section A",
			Dates: map[string]attendance.Status{
				"02/01/2024": attendance.StatusPresent,
				"15/01/2024": attendance.StatusAbsent,
			},
		},
		{
			RollNo: "21CS002", Name: "Rohan Verma", Section: "Section A",
			Dates: map[string]attendance.Status{
				"02/01/2024": attendance.StatusNotApplicable,
			},
		},
	})
	require.True(t, ok)
	return table
}

func TestPublish(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:attendsync")
	defer cleanup()

	store, db := openTestStore(t)
	publisher := NewPublisher(store, PublisherOptions{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	name, err := publisher.Publish(ctx, "Operating Systems", sampleTable(t))
	require.NoError(t, err)
	require.Equal(t, "operating_systems", name)

	rows, err := db.QueryContext(ctx, `SELECT "Roll_No", "02_01_2024", "15_01_2024" FROM "operating_systems" ORDER BY "Roll_No"`)
	require.NoError(t, err)
	defer rows.Close()

	type row struct {
		roll   string
		first  *string
		second *string
	}
	var got []row
	for rows.Next() {
		var r row
		require.NoError(t, rows.Scan(&r.roll, &r.first, &r.second))
		got = append(got, r)
	}
	require.NoError(t, rows.Err())
	require.Len(t, got, 2)

	require.Equal(t, "21CS001", got[0].roll)
	require.Equal(t, "P", *got[0].first)
	require.Equal(t, "A", *got[0].second)

	require.Equal(t, "21CS002", got[1].roll)
	require.Equal(t, "NA", *got[1].first)
	require.Nil(t, got[1].second)
}

func TestPublishIsIdempotent(t *testing.T) {
	store, db := openTestStore(t)
	publisher := NewPublisher(store, PublisherOptions{})
	ctx := context.Background()

	_, err := publisher.Publish(ctx, "Maths", sampleTable(t))
	require.NoError(t, err)
	_, err = publisher.Publish(ctx, "Maths", sampleTable(t))
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM "maths"`).Scan(&count))
	require.Equal(t, 2, count)
}

// store stub that fails a fixed number of statements in
type failingStore struct {
	*storeclient.SQL
	failOn  int
	current int
}

func (s *failingStore) ExecStatement(ctx context.Context, statement string) error {
	s.current++
	if s.current == s.failOn {
		return fmt.Errorf("simulated store failure")
	}
	return s.SQL.ExecStatement(ctx, statement)
}

func TestPublishSchemaFailure(t *testing.T) {
	store, _ := openTestStore(t)
	broken := &failingStore{SQL: store, failOn: 2}
	publisher := NewPublisher(broken, PublisherOptions{})

	_, err := publisher.Publish(context.Background(), "Physics", sampleTable(t))
	require.ErrorIs(t, err, ErrSchema)
}

type insertFailingStore struct {
	*storeclient.SQL
}

func (s *insertFailingStore) InsertRows(ctx context.Context, table string, columns []string, rows []map[string]*string) error {
	return fmt.Errorf("simulated insert failure")
}

func TestPublishInsertFailure(t *testing.T) {
	store, db := openTestStore(t)
	publisher := NewPublisher(&insertFailingStore{SQL: store}, PublisherOptions{})

	_, err := publisher.Publish(context.Background(), "Physics", sampleTable(t))
	require.ErrorIs(t, err, ErrInsert)

	// the schema exists even though the insert failed
	var count int
	require.NoError(t, db.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM "physics"`).Scan(&count))
	require.Equal(t, 0, count)
}
