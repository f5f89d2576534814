package station

import (
	"encoding/csv"
	"io"
	"strconv"
)

const csvTimeLayout = "2006-01-02 15:04:05"

var csvHeader = []string{
	"Timestamp",
	"Channel1_Temperature_Celsius",
	"Channel2_Temperature_Celsius",
	"Station_Name",
	"Station_ID",
}

// WriteCSV serializes the retained history to w: a header row followed by
// one row per reading in insertion order. It works on a snapshot, so
// readings appended while writing never produce a partial row. Write errors
// are returned to the caller.
func (s *Station) WriteCSV(w io.Writer) error {
	history := s.History()

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range history {
		row := []string{
			r.Timestamp.Format(csvTimeLayout),
			strconv.FormatFloat(r.Channel1, 'f', 2, 64),
			strconv.FormatFloat(r.Channel2, 'f', 2, 64),
			s.name,
			strconv.Itoa(s.id),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
