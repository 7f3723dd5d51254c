package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("02/01/2024")
	require.NoError(t, err)
	require.Equal(t, 2024, d.Year())
	require.Equal(t, time.January, d.Month())
	require.Equal(t, 2, d.Day())

	_, err = ParseDate("2024-01-02")
	require.Error(t, err)
}
