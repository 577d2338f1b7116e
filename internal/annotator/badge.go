package annotator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/naka-gawa/github-star-badge/internal/settings"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// starIcon is the tabler "star-filled" icon.
const starIcon = `<svg xmlns="http://www.w3.org/2000/svg" class="icon icon-tabler icon-tabler-star-filled" width="16" height="16" viewBox="0 0 24 24" stroke-width="2" stroke="currentColor" fill="none" stroke-linecap="round" stroke-linejoin="round">` +
	`<path stroke="none" d="M0 0h24v24H0z" fill="none"></path>` +
	`<path d="M8.243 7.34l-6.38 .925l-.113 .023a1 1 0 0 0 -.44 1.684l4.622 4.499l-1.09 6.355l-.013 .11a1 1 0 0 0 1.464 .944l5.706 -3l5.693 3l.1 .046a1 1 0 0 0 1.352 -1.1l-1.091 -6.355l4.624 -4.5l.078 -.085a1 1 0 0 0 -.633 -1.62l-6.38 -.926l-2.852 -5.78a1 1 0 0 0 -1.794 0l-2.853 5.78z" stroke-width="0" fill="currentColor"></path>` +
	`</svg>`

// buildBadge returns a detached badge: a box span holding the icon span and
// the number span.
func buildBadge(count int, s settings.Settings) (*html.Node, error) {
	icon := span(
		"display: flex", "width: 16px", "height: 16px",
		"justify-content: center", "align-items: center",
		"color: "+cssColor(s.StarColor),
	)
	svg, err := html.ParseFragment(strings.NewReader(starIcon), &html.Node{Type: html.ElementNode, Data: "span", DataAtom: atom.Span})
	if err != nil {
		return nil, fmt.Errorf("failed to parse star icon: %w", err)
	}
	for _, n := range svg {
		icon.AppendChild(n)
	}

	num := span("padding-left: 2px", "color: "+cssColor(s.NumberColor))
	num.AppendChild(&html.Node{Type: html.TextNode, Data: strconv.Itoa(count)})

	box := span("display: inline-flex", "line-height: 1", "padding-left: 6px", "vertical-align: top", "margin-top: 4px")
	box.Attr = append(box.Attr, html.Attribute{Key: "class", Val: BadgeClass})
	box.AppendChild(icon)
	box.AppendChild(num)
	return box, nil
}

func span(style ...string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr:     []html.Attribute{{Key: "style", Val: strings.Join(style, "; ")}},
	}
}

// cssColor keeps a configured color from breaking out of its declaration.
func cssColor(v string) string {
	if v == "" || strings.ContainsAny(v, ";:{}<>\"'\\") {
		return settings.DefaultColor
	}
	return v
}
