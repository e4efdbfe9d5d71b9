package post

import (
	"fmt"
	"strings"
)

const (
	tutorialLink = "https://www.instagram.com/reel/C3mQK9-PCLd/?igsh=MWdhaXVhN3E3NWFldA=="
	joinLink     = "https://t.me/+stEaOKChsEs3MTBl"

	// SelfCopyPrefix heads the confirmation copy sent back to the submitter.
	SelfCopyPrefix = "*Here's the post that was sent to channels:*\n\n"
)

var resolutions = []string{"1080p", "720p", "480p", "360p"}

// PromoLinks maps each category to the channel advertised in its addendum.
type PromoLinks map[Category]string

// DefaultPromoLinks returns the built-in promo channel per category.
func DefaultPromoLinks() PromoLinks {
	return PromoLinks{
		CategoryHD:        "https://t.me/+D8e3LO3tI5QzMTE1",
		CategoryPreDVD:    "https://t.me/+n3ywsV6qaMMyMTY1",
		CategoryWebSeries: "https://t.me/+r2cT-gZoPz9lZWQ1",
		CategoryCWC:       "https://t.me/+AsE--zL6sxA3MmM1",
		CategoryAnime:     "https://t.me/+ixEGzNnKiRNmYjRl",
		CategoryHollywood: "https://t.me/+Yk_I2U86MLBkNGY1",
		CategoryDefault:   "https://t.me/+Oo9ifqO9MdxiNjU1",
	}
}

// For returns the promo link of c, falling back to the default category and then the built-ins.
func (p PromoLinks) For(c Category) string {
	if v := p[c]; v != "" {
		return v
	}
	if v := p[CategoryDefault]; v != "" {
		return v
	}
	return DefaultPromoLinks()[CategoryDefault]
}

// Merge returns a copy of the built-in links with non-empty overrides applied.
func (p PromoLinks) Merge(overrides PromoLinks) PromoLinks {
	out := make(PromoLinks, len(p))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range overrides {
		if strings.TrimSpace(v) != "" {
			out[k] = strings.TrimSpace(v)
		}
	}
	return out
}

// Rendered is the pair of captions derived from a finished submission.
type Rendered struct {
	Body     string
	Addendum string
}

// Render produces both captions for sub in category c.
func Render(sub Submission, c Category, links PromoLinks) Rendered {
	return Rendered{
		Body:     RenderPost(sub.Title, sub.Link, sub.PermanentLink),
		Addendum: RenderAddendum(sub.Title, c, links),
	}
}

// RenderPost builds the Markdown channel post. Inputs are embedded verbatim.
func RenderPost(title, link, permanentLink string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s* \n\n", title)
	b.WriteString("✔️ *Sample* : \n\n")
	b.WriteString("♟*How To Download* ➡️\n\n")
	fmt.Fprintf(&b, "*Link* - [Click Here](%s)\n\n", tutorialLink)
	b.WriteString("🛡 *Download*:\n\n")
	for _, res := range resolutions {
		fmt.Fprintf(&b, "*%s*➡️\n*Link* - *%s*\n\n", res, link)
	}
	b.WriteString("🛸 *Use Below Link for Permanent storage and also the above link not function* \n\n")
	fmt.Fprintf(&b, "*Link* - *%s*\n\n", permanentLink)
	b.WriteString("⭘ *Join Our Channel For Direct Link* ⬇️⬇️⬇️\n")
	fmt.Fprintf(&b, "*%s*", joinLink)
	return strings.TrimSpace(b.String())
}

// RenderAddendum builds the short promo block sent to the fixed channels.
// Categories outside the selectable set use the default variant.
func RenderAddendum(title string, c Category, links PromoLinks) string {
	if !c.Selectable() {
		c = CategoryDefault
	}
	link := links.For(c)
	var b strings.Builder
	fmt.Fprintf(&b, "🎬 *%s* \n\n", title)
	fmt.Fprintf(&b, "*Download Full %s From Below Channel* ⬇️⬇️⬇️\n\n", c.noun())
	for i := 0; i < 3; i++ {
		fmt.Fprintf(&b, "🔹%s\n", link)
	}
	return strings.TrimSpace(b.String())
}
