package export

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
)

// WriteCSV writes records with the stable Header() ordering. Absent fields
// are written as empty strings; columns are never dropped.
func WriteCSV(w io.Writer, recs []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}
	for _, r := range recs {
		if err := cw.Write([]string{
			strconv.Itoa(r.Index),
			r.Name,
			r.Address,
			r.Phone,
			r.Email,
			r.Website,
			r.SourceURL,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteCSVFile(path string, recs []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteCSV(f, recs); err != nil {
		return err
	}
	return f.Sync()
}
