package export

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/reader"

	"endurance-coach/internal/analysis"
)

func sampleSeries() []analysis.DailyLoadPoint {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	daily := []analysis.DailyLoad{
		{Date: start, TSS: 80},
		{Date: start.AddDate(0, 0, 1), TSS: 0},
		{Date: start.AddDate(0, 0, 2), TSS: 120},
	}
	return analysis.CalculateFitnessTrend(daily, analysis.DefaultParams())
}

func readRows(t *testing.T, data []byte) []loadRow {
	t.Helper()

	fr := parquetbuffer.NewBufferFileFromBytes(data)
	pr, err := reader.NewParquetReader(fr, new(loadRow), 1)
	require.NoError(t, err)
	defer pr.ReadStop()

	rows := make([]loadRow, int(pr.GetNumRows()))
	require.NoError(t, pr.Read(&rows))
	return rows
}

func TestMarshalLoadSeries(t *testing.T) {
	series := sampleSeries()

	data, err := MarshalLoadSeries(series)
	require.NoError(t, err)

	rows := readRows(t, data)
	require.Len(t, rows, 3)
	for i, row := range rows {
		require.Equal(t, series[i].Date.Format("2006-01-02"), row.Date)
		require.InDelta(t, series[i].TSS, row.TSS, 1e-9)
		require.InDelta(t, series[i].CTL, row.CTL, 1e-9)
		require.InDelta(t, series[i].ATL, row.ATL, 1e-9)
		require.InDelta(t, series[i].TSB, row.TSB, 1e-9)
		require.Equal(t, analysis.FormDescription(series[i].TSB), row.Form)
	}
}

func TestWriteLoadSeries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "load.parquet")
	require.NoError(t, WriteLoadSeries(path, sampleSeries()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, readRows(t, data), 3)

	err = WriteLoadSeries(filepath.Join(t.TempDir(), "missing", "load.parquet"), sampleSeries())
	require.Error(t, err)
}
