// Package export writes the daily training load series as Parquet for
// notebooks and spreadsheets.
package export

import (
	"fmt"
	"os"

	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"endurance-coach/internal/analysis"
)

const dateLayout = "2006-01-02"

type loadRow struct {
	Date string  `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	TSS  float64 `parquet:"name=tss, type=DOUBLE"`
	CTL  float64 `parquet:"name=ctl, type=DOUBLE"`
	ATL  float64 `parquet:"name=atl, type=DOUBLE"`
	TSB  float64 `parquet:"name=tsb, type=DOUBLE"`
	Form string  `parquet:"name=form, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
}

// MarshalLoadSeries encodes the series as a Snappy-compressed Parquet file
func MarshalLoadSeries(series []analysis.DailyLoadPoint) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(fw, new(loadRow), 1)
	if err != nil {
		return nil, fmt.Errorf("creating parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, p := range series {
		row := loadRow{
			Date: p.Date.Format(dateLayout),
			TSS:  p.TSS,
			CTL:  p.CTL,
			ATL:  p.ATL,
			TSB:  p.TSB,
			Form: analysis.FormDescription(p.TSB),
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return nil, fmt.Errorf("writing %s: %w", row.Date, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finishing parquet file: %w", err)
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}

// WriteLoadSeries writes the series to a Parquet file at path
func WriteLoadSeries(path string, series []analysis.DailyLoadPoint) error {
	data, err := MarshalLoadSeries(series)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
