package export

import (
	"encoding/json"
	"io"
	"os"
)

type jsonRecord struct {
	Index     int     `json:"index"`
	Name      string  `json:"name"`
	Address   *string `json:"address"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email"`
	Website   *string `json:"website"`
	SourceURL string  `json:"source_url"`
}

// WriteJSON writes a pretty-printed array. Absent fields serialize as null,
// never as missing keys.
func WriteJSON(w io.Writer, recs []Record) error {
	rows := make([]jsonRecord, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, jsonRecord{
			Index:     r.Index,
			Name:      r.Name,
			Address:   nullable(r.Address),
			Phone:     nullable(r.Phone),
			Email:     nullable(r.Email),
			Website:   nullable(r.Website),
			SourceURL: r.SourceURL,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func WriteJSONFile(path string, recs []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteJSON(f, recs); err != nil {
		return err
	}
	return f.Sync()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
