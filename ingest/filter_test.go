package ingest

import "testing"

func TestRelevant(t *testing.T) {
	// WHAT: The relevance filter keeps regional music content, matches on
	// either title or channel, and always drops worship content.
	cases := []struct {
		name    string
		title   string
		channel string
		want    bool
	}{
		{"title keyword", "Addis Ababa New Song", "Some Channel", true},
		{"channel keyword", "New Song 2025", "Habesha Music", true},
		{"geez script", "የኢትዮጵያ ሙዚቃ ስብስብ", "Music Channel", true},
		{"case insensitive", "ETHIOPIAN MUSIC MIX", "x", true},
		{"alternate spelling", "Oromoo walaloo haaraa", "x", true},
		{"worship excluded", "Ethiopian Gospel Worship", "Habesha Music", false},
		{"worship in channel", "Amharic New Song", "Worship Center", false},
		{"no keyword", "Lofi beats to study to", "Chill Vibes", false},
		{"empty", "", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Relevant(tc.title, tc.channel); got != tc.want {
				t.Errorf("Relevant(%q, %q) = %v, want %v", tc.title, tc.channel, got, tc.want)
			}
		})
	}
}
