package post

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractTitle(t *testing.T) {
	cases := map[string]string{
		"Title Line\n\nExtra":         "Title Line",
		"\nTitle":                     "",
		"":                            "",
		"  Movie (2024)  \n 1080p \n": "Movie (2024)\n1080p",
		"One\nTwo\nThree":             "One\nTwo\nThree",
		"A\n   \nB":                   "A",
		"\t\n":                        "",
		"Solo":                        "Solo",
	}
	for in, want := range cases {
		if got := ExtractTitle(in); got != want {
			t.Fatalf("ExtractTitle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseLinksLabelOptional(t *testing.T) {
	for _, in := range []string{
		"Link: http://a\nPermanent: http://b",
		"http://a\nhttp://b",
		"  Link: http://a  \n  Permanent: http://b\n",
		"http://a\nhttp://b\nignored",
	} {
		link, perm, err := ParseLinks(in)
		if err != nil {
			t.Fatalf("ParseLinks(%q) error: %v", in, err)
		}
		if link != "http://a" || perm != "http://b" {
			t.Fatalf("ParseLinks(%q) = %q, %q", in, link, perm)
		}
	}
}

func TestParseLinksRejectsSingleLine(t *testing.T) {
	for _, in := range []string{"http://a", "", "  \n  ", "Link: \nPermanent: \nx"} {
		if _, _, err := ParseLinks(in); !errors.Is(err, ErrLinkFormat) {
			t.Fatalf("ParseLinks(%q) err = %v, want ErrLinkFormat", in, err)
		}
	}
}

func TestParseLinksEmptyPair(t *testing.T) {
	if _, _, err := ParseLinks("Link: \nPermanent: \n."); !errors.Is(err, ErrLinkFormat) {
		t.Fatalf("empty pair err = %v, want ErrLinkFormat", err)
	}

	link, perm, err := ParseLinks("Link: \nPermanent: https://p.example")
	if err != nil {
		t.Fatalf("one-sided pair: %v", err)
	}
	if link != "" || perm != "https://p.example" {
		t.Fatalf("one-sided pair = %q, %q", link, perm)
	}
	sub := Submission{Link: link, PermanentLink: perm}
	if !sub.HasLinks() {
		t.Fatal("a single non-empty link must count as links")
	}
}

func TestParseCategory(t *testing.T) {
	cases := map[string]Category{
		"hd":        CategoryHD,
		"PreDVD":    CategoryPreDVD,
		"webseries": CategoryWebSeries,
		"cwc":       CategoryCWC,
		"anime":     CategoryAnime,
		"hollywood": CategoryHollywood,
		"default":   CategoryDefault,
		"4k":        CategoryDefault,
		"":          CategoryDefault,
	}
	for in, want := range cases {
		if got := ParseCategory(in); got != want {
			t.Fatalf("ParseCategory(%q) = %s, want %s", in, got, want)
		}
	}
	if n := len(Selectable()); n != 6 {
		t.Fatalf("expected 6 selectable categories, got %d", n)
	}
	if CategoryDefault.Selectable() {
		t.Fatal("default category must not be selectable")
	}
}

func TestRenderPostEmbedsInputs(t *testing.T) {
	body := RenderPost("Dune", "http://dl", "http://perm")
	if !strings.HasPrefix(body, "*Dune*") {
		t.Fatalf("post should start with bold title, got %q", body[:20])
	}
	if n := strings.Count(body, "*http://dl*"); n != 4 {
		t.Fatalf("expected link in 4 resolution sections, got %d", n)
	}
	if n := strings.Count(body, "*http://perm*"); n != 1 {
		t.Fatalf("expected permanent link once, got %d", n)
	}
	for _, res := range []string{"1080p", "720p", "480p", "360p"} {
		if !strings.Contains(body, "*"+res+"*") {
			t.Fatalf("missing resolution %s", res)
		}
	}
	if body != strings.TrimSpace(body) {
		t.Fatal("post should be trimmed")
	}
}

func TestRenderAddendumVariants(t *testing.T) {
	links := DefaultPromoLinks()
	for _, c := range All() {
		out := RenderAddendum("Dune", c, links)
		if !strings.HasPrefix(out, "🎬 *Dune*") {
			t.Fatalf("%s: unexpected head %q", c, out)
		}
		if n := strings.Count(out, links[c]); n != 3 {
			t.Fatalf("%s: expected link 3 times, got %d", c, n)
		}
	}
	if out := RenderAddendum("X", CategoryWebSeries, links); !strings.Contains(out, "Download Full WebSeries From Below Channel") {
		t.Fatalf("webseries noun missing: %q", out)
	}
}

func TestRenderAddendumUnknownFallsBackToDefault(t *testing.T) {
	links := DefaultPromoLinks()
	got := RenderAddendum("X", Category("4K"), links)
	want := RenderAddendum("X", CategoryDefault, links)
	if got != want {
		t.Fatalf("unknown category rendered %q, want default %q", got, want)
	}
	if !strings.Contains(got, "Download Full Content") {
		t.Fatalf("default noun missing: %q", got)
	}
}

func TestPromoLinksMerge(t *testing.T) {
	merged := DefaultPromoLinks().Merge(PromoLinks{CategoryHD: " https://t.me/+override ", CategoryCWC: ""})
	if merged.For(CategoryHD) != "https://t.me/+override" {
		t.Fatalf("override not applied: %s", merged.For(CategoryHD))
	}
	if merged.For(CategoryCWC) != DefaultPromoLinks()[CategoryCWC] {
		t.Fatal("empty override must keep built-in link")
	}
	if (PromoLinks{}).For(CategoryAnime) != DefaultPromoLinks()[CategoryDefault] {
		t.Fatal("empty table should fall back to default link")
	}
}

func TestSubmissionStage(t *testing.T) {
	var s Submission
	if s.Stage() != StageEmpty {
		t.Fatalf("stage = %s", s.Stage())
	}
	s.Title = "T"
	if s.Stage() != StageHasTitle {
		t.Fatalf("stage = %s", s.Stage())
	}
	s.Link, s.PermanentLink = "a", "b"
	if s.Stage() != StageHasLinks {
		t.Fatalf("stage = %s", s.Stage())
	}
	s.Image = "file-1"
	if s.Stage() != StageHasImage {
		t.Fatalf("stage = %s", s.Stage())
	}
	if UserDestination(42).Recipient() != "42" {
		t.Fatal("user destination should be the numeric id")
	}
}
