package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeWebsiteURL(t *testing.T) {
	cases := map[string]string{
		"smile-dental.hu":                "https://smile-dental.hu",
		"http://smile-dental.hu/":        "https://smile-dental.hu/",
		"https://WWW.Smile-Dental.hu/x":  "https://www.smile-dental.hu/x",
		"https://clinic.net/a#frag":      "https://clinic.net/a",
		"":                               "",
		"not a url":                      "",
		"localhost":                      "",
		"mailto:a@b.cd":                  "",
		"https://facebook.com/somepage":  "",
		"https://m.facebook.com/page":    "",
		"https://www.google.com/maps/x":  "",
		"https://maps.app.goo.gl/abc123": "",
	}
	for in, want := range cases {
		require.Equal(t, want, NormalizeWebsiteURL(in), "input %q", in)
	}
}

func TestFindBareDomain(t *testing.T) {
	require.Equal(t, "https://calm-reiki.co.uk/book",
		FindBareDomain("call us or visit calm-reiki.co.uk/book for slots"))
	require.Equal(t, "", FindBareDomain("no domains in this text"))
	// blocked hosts are skipped in favor of later candidates
	require.Equal(t, "https://real-clinic.de",
		FindBareDomain("google.com real-clinic.de"))
}

func TestCleanText(t *testing.T) {
	require.Equal(t, "a b c", CleanText("  a b \n c  "))
	require.Equal(t, "", CleanText("   "))
}
