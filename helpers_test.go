package tsengine

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello World!", "hello-world"},
		{"  Exit Your Timeshare -- Fast  ", "exit-your-timeshare-fast"},
		{"2026 Fee Hikes: What's Next?", "2026-fee-hikes-what-s-next"},
		{"Crème brûlée", "cr-me-br-l-e"},
		{"---", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSlugifyOutputIsValidSlug(t *testing.T) {
	for _, in := range []string{"Hello World!", "A  B", "x_y-z", "Owner Stories #4"} {
		if s := Slugify(in); !ValidSlug(s) {
			t.Errorf("Slugify(%q) = %q is not a valid slug", in, s)
		}
	}
}

func TestValidSlug(t *testing.T) {
	valid := []string{"a", "hello-world", "post-2"}
	invalid := []string{"", "Hello", "a--b", "-a", "a-", "a b", "a_b"}
	for _, s := range valid {
		if !ValidSlug(s) {
			t.Errorf("ValidSlug(%q) = false", s)
		}
	}
	for _, s := range invalid {
		if ValidSlug(s) {
			t.Errorf("ValidSlug(%q) = true", s)
		}
	}
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base string
		segs []string
		want string
	}{
		{"https://example.com", nil, "https://example.com/"},
		{"https://example.com", []string{"blog", "my-post"}, "https://example.com/blog/my-post"},
		{"https://example.com/sub", []string{"sitemap.xml"}, "https://example.com/sub/sitemap.xml"},
		{"https://example.com", []string{"/cost-calculator"}, "https://example.com/cost-calculator"},
	}
	for _, tt := range tests {
		if got := BuildURL(tt.base, tt.segs...); got != tt.want {
			t.Errorf("BuildURL(%q, %v) = %q, want %q", tt.base, tt.segs, got, tt.want)
		}
	}
}
