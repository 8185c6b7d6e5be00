package export

import "mapleads-engine/internal/domain"

// Record is one export row. Index is a synthetic 1-based display number
// assigned at export time; it carries no meaning beyond ordering.
type Record struct {
	Index     int
	Name      string
	Address   string
	Phone     string
	Email     string
	Website   string
	SourceURL string
}

func Header() []string {
	return []string{"Index", "Name", "Address", "Phone", "Email", "Website", "SourceURL"}
}

func FromListings(items []domain.EnrichedListing) []Record {
	out := make([]Record, 0, len(items))
	for i, l := range items {
		out = append(out, Record{
			Index:     i + 1,
			Name:      l.Name,
			Address:   l.Address,
			Phone:     l.Phone,
			Email:     l.Email,
			Website:   l.Website,
			SourceURL: l.SourceURL,
		})
	}
	return out
}
