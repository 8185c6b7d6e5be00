package browser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func card(name, href, infoTop, infoBottom, website string) string {
	h := `<div class="Nv2PK">
		<a href="` + href + `" aria-label="` + name + `"></a>
		<div class="qBF1Pd">` + name + `</div>
		<div class="W4Efsd">` + infoTop + `</div>
		<div class="W4Efsd">` + infoBottom + `</div>`
	if website != "" {
		h += `<a data-value="Website" href="` + website + `"></a>`
	}
	return h + `</div>`
}

func TestParseFeedExtractsCards(t *testing.T) {
	html := `<html><body><div role="feed">` +
		card("Smile Dental", "https://www.google.com/maps/place/Smile+Dental/data=a1?authuser=0",
			"Dentist · 12 High Street", "Open · +36 1 234 5678", "https://smile-dental.hu/") +
		card("City Reiki", "https://www.google.com/maps/place/City+Reiki/data=b2",
			"Reiki therapist · 4 Spa Lane", "Closed · Opens 9 AM", "") +
		`</div></body></html>`

	got, err := ParseFeed(html, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, "https://www.google.com/maps/place/Smile+Dental/data=a1", got[0].ID)
	require.Equal(t, "Smile Dental", got[0].Name)
	require.Equal(t, "12 High Street", got[0].Address)
	require.Equal(t, "+36 1 234 5678", got[0].Phone)
	require.Equal(t, "https://smile-dental.hu/", got[0].InlineWebsite)
	require.Equal(t, got[0].ID, got[0].SourceURL)

	require.Equal(t, "City Reiki", got[1].Name)
	require.Equal(t, "4 Spa Lane", got[1].Address)
	require.Equal(t, "", got[1].Phone, "opening hours must not be mistaken for a phone")
	require.Equal(t, "", got[1].InlineWebsite)
}

func TestParseFeedDedupesByCanonicalURL(t *testing.T) {
	html := `<html><body><div role="feed">` +
		card("Smile Dental", "https://www.google.com/maps/place/Smile+Dental/data=a1?hl=en",
			"Dentist · 12 High Street", "", "") +
		card("Smile Dental", "https://www.google.com/maps/place/Smile+Dental/data=a1?hl=de",
			"Dentist · 12 High Street", "", "") +
		`</div></body></html>`

	got, err := ParseFeed(html, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestParseFeedHonorsMaxResults(t *testing.T) {
	html := `<html><body><div role="feed">` +
		card("A", "https://www.google.com/maps/place/A", "Dentist · 1 A St", "", "") +
		card("B", "https://www.google.com/maps/place/B", "Dentist · 2 B St", "", "") +
		card("C", "https://www.google.com/maps/place/C", "Dentist · 3 C St", "", "") +
		`</div></body></html>`

	got, err := ParseFeed(html, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "A", got[0].Name)
	require.Equal(t, "B", got[1].Name)
}

func TestParseFeedIgnoresAnchorsWithoutCards(t *testing.T) {
	html := `<html><body>
		<a href="https://www.google.com/maps/place/Orphan"></a>
		<a href="https://www.google.com/other/page">not a place</a>
	</body></html>`

	got, err := ParseFeed(html, 0)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestExtractDetailsWebsitePreference(t *testing.T) {
	html := `<html><body>
		<a href="https://www.google.com/maps/something">internal</a>
		<a data-item-id="authority" href="https://clinic-site.net/home">Website</a>
		<button data-item-id="phone:tel" aria-label="Phone: +44 20 7946 0123"></button>
		<button data-item-id="address" aria-label="Address: 5 Queen St, London"></button>
	</body></html>`

	d, err := ExtractDetails(html)
	require.NoError(t, err)
	require.Equal(t, "https://clinic-site.net/home", d.Website)
	require.Equal(t, "+44 20 7946 0123", d.Phone)
	require.Equal(t, "5 Queen St, London", d.Address)
}

func TestExtractDetailsBareDomainFallback(t *testing.T) {
	html := `<html><body>
		<a href="https://maps.google.com/elsewhere">internal</a>
		<p>Visit us at www.calm-reiki.co.uk/booking today</p>
	</body></html>`

	d, err := ExtractDetails(html)
	require.NoError(t, err)
	require.Equal(t, "https://www.calm-reiki.co.uk/booking", d.Website)
}

func TestExtractDetailsNothingFound(t *testing.T) {
	d, err := ExtractDetails(`<html><body><p>nothing useful</p></body></html>`)
	require.NoError(t, err)
	require.Equal(t, "", d.Website)
	require.Equal(t, "", d.Phone)
	require.Equal(t, "", d.Address)
}
