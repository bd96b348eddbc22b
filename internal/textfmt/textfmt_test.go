package textfmt

import "testing"

func TestFormatClock(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{5, "0:05"},
		{59, "0:59"},
		{60, "1:00"},
		{2095, "34:55"},
		{3671, "61:11"},
		{-10, "0:00"},
	}
	for _, tc := range tests {
		if got := FormatClock(tc.seconds); got != tc.want {
			t.Errorf("FormatClock(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{32, "32s"},
		{245, "4m 5s"},
		{3725, "1h 2m 5s"},
		{-1, "0s"},
	}
	for _, tc := range tests {
		if got := FormatDuration(tc.seconds); got != tc.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestFormatText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "hello", "hello"},
		{"bold", "a **b** c", "a <strong>b</strong> c"},
		{"italic", "a *b* c", "a <em>b</em> c"},
		{"bold then italic", "**b** and *i*", "<strong>b</strong> and <em>i</em>"},
		{"line break", "one\ntwo", "one<br>two"},
		{"bullets", "intro\n- first\n- second\nafter", "intro<ul><li>first</li><li>second</li></ul>after"},
		{"trailing bullets", "- only", "<ul><li>only</li></ul>"},
		{"escapes html", "a < b & c", "a &lt; b &amp; c"},
		{"inline math passthrough", "area $x<y$ done", "area $x<y$ done"},
		{"block math passthrough", "$$\\frac{a}{b}$$", "$$\\frac{a}{b}$$"},
		{"markup inside math untouched", "$**not bold**$", "$**not bold**$"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatText(tc.in); got != tc.want {
				t.Errorf("FormatText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
