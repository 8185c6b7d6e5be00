package report

import (
	"encoding/json"
	"os"
	"time"

	"mapleads-engine/internal/domain"
	"mapleads-engine/internal/pipeline"
)

// FillRates are coverage ratios over the collected records, 0..1.
type FillRates struct {
	Email   float64 `json:"email"`
	Phone   float64 `json:"phone"`
	Website float64 `json:"website"`
	Address float64 `json:"address"`
}

// RunReport is the quality summary written next to the export: what ran,
// what each region contributed, and how complete the records are.
type RunReport struct {
	RunID      string    `json:"run_id"`
	Source     string    `json:"source"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Regions []pipeline.RegionStatus `json:"regions"`

	Total     int       `json:"total"`
	FillRates FillRates `json:"fill_rates"`

	// MissingFields lists identifiers of records lacking name or address,
	// the fields downstream imports treat as required.
	MissingFields []string `json:"missing_fields,omitempty"`
}

func Build(runID, source string, startedAt time.Time, items []domain.EnrichedListing, statuses []pipeline.RegionStatus) RunReport {
	r := RunReport{
		RunID:      runID,
		Source:     source,
		StartedAt:  startedAt,
		FinishedAt: time.Now().UTC(),
		Regions:    statuses,
		Total:      len(items),
	}

	if len(items) == 0 {
		return r
	}

	var email, phone, website, address int
	for _, l := range items {
		if l.Email != "" {
			email++
		}
		if l.Phone != "" {
			phone++
		}
		if l.Website != "" {
			website++
		}
		if l.Address != "" {
			address++
		}
		if l.Name == "" || l.Address == "" {
			r.MissingFields = append(r.MissingFields, l.ID)
		}
	}

	n := float64(len(items))
	r.FillRates = FillRates{
		Email:   float64(email) / n,
		Phone:   float64(phone) / n,
		Website: float64(website) / n,
		Address: float64(address) / n,
	}
	return r
}

func (r RunReport) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
