package browser

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/scamwatch/threatcheck/internal/domain/providers"
)

// techFingerprint matches one technology against the rendered DOM. Src
// patterns run against script/link URLs, bodyPatterns against the full HTML.
type techFingerprint struct {
	name         string
	category     string
	srcPatterns  []string
	bodyPatterns []string
}

var fingerprints = []techFingerprint{
	{name: "jQuery", category: "JavaScript library", srcPatterns: []string{"jquery"}},
	{name: "React", category: "JavaScript framework", srcPatterns: []string{"react"}, bodyPatterns: []string{"data-reactroot", "__next_data__"}},
	{name: "Vue.js", category: "JavaScript framework", srcPatterns: []string{"vue"}, bodyPatterns: []string{"data-v-app"}},
	{name: "Bootstrap", category: "UI framework", srcPatterns: []string{"bootstrap"}},
	{name: "WordPress", category: "CMS", srcPatterns: []string{"wp-content", "wp-includes"}, bodyPatterns: []string{"wp-content"}},
	{name: "Google Analytics", category: "Analytics", srcPatterns: []string{"google-analytics.com", "googletagmanager.com"}},
	{name: "Cloudflare", category: "CDN", srcPatterns: []string{"cdnjs.cloudflare.com", "cdn-cgi"}},
}

// inspectHTML walks the rendered document and fills in what CDP events
// cannot see: the password form, a title fallback and technology hints.
func inspectHTML(src string, r *providers.BrowserReport) {
	if strings.TrimSpace(src) == "" {
		return
	}
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return
	}

	var title string
	var srcs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if n.FirstChild != nil && title == "" {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "input":
				if attrVal(n, "type") == "password" {
					r.HasLoginForm = true
				}
			case "script", "link":
				if v := attrVal(n, "src"); v != "" {
					srcs = append(srcs, strings.ToLower(v))
				}
				if v := attrVal(n, "href"); v != "" {
					srcs = append(srcs, strings.ToLower(v))
				}
			case "meta":
				if strings.EqualFold(attrVal(n, "name"), "generator") {
					if gen := attrVal(n, "content"); gen != "" {
						addTechnology(r, providers.DeepScanTechnology{
							Name:     strings.Fields(gen)[0],
							Category: "CMS",
						})
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if r.Title == "" {
		r.Title = title
	}

	lower := strings.ToLower(src)
	for _, fp := range fingerprints {
		if matchesFingerprint(fp, srcs, lower) {
			addTechnology(r, providers.DeepScanTechnology{Name: fp.name, Category: fp.category})
		}
	}
}

func matchesFingerprint(fp techFingerprint, srcs []string, body string) bool {
	for _, pat := range fp.srcPatterns {
		for _, s := range srcs {
			if strings.Contains(s, pat) {
				return true
			}
		}
	}
	for _, pat := range fp.bodyPatterns {
		if strings.Contains(body, pat) {
			return true
		}
	}
	return false
}

func addTechnology(r *providers.BrowserReport, tech providers.DeepScanTechnology) {
	for _, existing := range r.Technologies {
		if strings.EqualFold(existing.Name, tech.Name) {
			return
		}
	}
	r.Technologies = append(r.Technologies, tech)
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}
