package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mapleads-engine/internal/domain"
)

func sampleListings() []domain.EnrichedListing {
	return []domain.EnrichedListing{
		{
			RawListing: domain.RawListing{
				ID:        "p1",
				Name:      `Dr. "Smiley" & Partners`,
				Address:   "12 High Street, Suite 4, London",
				Phone:     "+44 20 7946 0123",
				SourceURL: "https://maps.example.org/p1",
			},
			Website:   "https://smiley.co.uk",
			Email:     "hello@smiley.co.uk",
			Region:    "London",
			ScrapedAt: time.Now().UTC(),
		},
		{
			RawListing: domain.RawListing{
				ID:        "p2",
				Name:      "Quiet Clinic",
				SourceURL: "https://maps.example.org/p2",
			},
			Region: "London",
		},
	}
}

func TestCSVRoundTripWithQuoting(t *testing.T) {
	recs := FromListings(sampleListings())

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, recs))

	rows, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, Header(), rows[0])

	require.Equal(t, "1", rows[1][0])
	require.Equal(t, `Dr. "Smiley" & Partners`, rows[1][1])
	require.Equal(t, "12 High Street, Suite 4, London", rows[1][2])
	require.Equal(t, "+44 20 7946 0123", rows[1][3])
	require.Equal(t, "hello@smiley.co.uk", rows[1][4])
	require.Equal(t, "https://smiley.co.uk", rows[1][5])
	require.Equal(t, "https://maps.example.org/p1", rows[1][6])

	// absent fields stay as empty cells, never dropped columns
	require.Equal(t, "2", rows[2][0])
	require.Equal(t, "Quiet Clinic", rows[2][1])
	require.Equal(t, "", rows[2][2])
	require.Equal(t, "", rows[2][3])
	require.Equal(t, "", rows[2][4])
	require.Equal(t, "", rows[2][5])
}

func TestJSONNullsForAbsentFields(t *testing.T) {
	recs := FromListings(sampleListings())

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, recs))

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 2)

	first := rows[0]
	require.Equal(t, float64(1), first["index"])
	require.Equal(t, "hello@smiley.co.uk", first["email"])

	second := rows[1]
	for _, key := range []string{"address", "phone", "email", "website"} {
		v, ok := second[key]
		require.True(t, ok, "key %q must be present", key)
		require.Nil(t, v, "key %q must be null", key)
	}
}

func TestFromListingsAssignsDisplayIndex(t *testing.T) {
	recs := FromListings(sampleListings())
	require.Equal(t, 1, recs[0].Index)
	require.Equal(t, 2, recs[1].Index)
}
