package attendance

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubjectName(t *testing.T) {
	require.Equal(t, "Operating Systems", SubjectName("Operating Systems (CS301)"))
	require.Equal(t, "Maths", SubjectName("Maths"))
	require.Equal(t, "Data Structures", SubjectName("  Data Structures (CS201) "))
}

func TestReshapeColumnOrdering(t *testing.T) {
	record := Record{
		RollNo:  "21CS001",
		Name:    "Aditi Sharma",
		Section: "Section A",
		Dates: map[string]Status{
			"15/01/2024": StatusPresent,
			"02/01/2024": StatusAbsent,
			"20/12/2023": StatusNotApplicable,
		},
	}
	table, ok := Reshape([]Record{record})
	require.True(t, ok)
	require.Equal(t, []string{
		"Roll_No", "Name", "Section",
		"20_12_2023", "02_01_2024", "15_01_2024",
	}, table.Columns)
}

func TestReshapeFirstSeenWins(t *testing.T) {
	first := Record{
		RollNo: "21CS001", Name: "Aditi Sharma", Section: "Section A",
		Dates: map[string]Status{"02/01/2024": StatusPresent},
	}
	second := Record{
		RollNo: "21CS001", Name: "Aditi Sharma", Section: "Section A",
		Dates: map[string]Status{"02/01/2024": StatusAbsent},
	}
	table, ok := Reshape([]Record{first, second})
	require.True(t, ok)
	require.Len(t, table.Rows, 1)
	require.Equal(t, "P", *table.Rows[0]["02_01_2024"])
}

func TestReshapeMissingCellsAreExplicitNulls(t *testing.T) {
	records := []Record{
		{
			RollNo: "21CS001", Name: "Aditi Sharma", Section: "Section A",
			Dates: map[string]Status{"02/01/2024": StatusPresent},
		},
		{
			RollNo: "21CS002", Name: "Rohan Verma", Section: "Section B",
			Dates: map[string]Status{"15/01/2024": StatusAbsent},
		},
	}
	table, ok := Reshape(records)
	require.True(t, ok)
	require.Len(t, table.Rows, 2)

	row := table.Rows[0]
	require.Contains(t, row, "15_01_2024")
	require.Nil(t, row["15_01_2024"])
	require.Equal(t, "P", *row["02_01_2024"])

	// same roll number in a different section is a distinct row
	require.Equal(t, "21CS002", *table.Rows[1]["Roll_No"])
	require.Equal(t, "Section B", *table.Rows[1]["Section"])
}

func TestReshapeEmptySubject(t *testing.T) {
	_, ok := Reshape(nil)
	require.False(t, ok)

	// records without any recognized date columns yield no table
	_, ok = Reshape([]Record{{RollNo: "21CS001", Name: "Aditi Sharma", Section: "Section A", Dates: map[string]Status{}}})
	require.False(t, ok)
}

func TestSanitizeColumnName(t *testing.T) {
	require.Equal(t, "02_01_2024", SanitizeColumnName("02/01/2024"))
	require.Equal(t, "Name", SanitizeColumnName("Name"))
}
