package tsengine

import (
	"encoding/xml"
	"time"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// sitePages are the fixed public pages served by the front end.
var sitePages = []sitemapURL{
	{Loc: "/", ChangeFreq: "weekly", Priority: "1.0"},
	{Loc: "/cost-calculator", ChangeFreq: "monthly", Priority: "0.9"},
	{Loc: "/maintenance-calculator", ChangeFreq: "monthly", Priority: "0.9"},
	{Loc: "/exit-options", ChangeFreq: "monthly", Priority: "0.8"},
	{Loc: "/blog", ChangeFreq: "weekly", Priority: "0.8"},
	{Loc: "/about", ChangeFreq: "monthly", Priority: "0.7"},
	{Loc: "/contact", ChangeFreq: "monthly", Priority: "0.7"},
}

func buildSitemap(base string, posts []BlogPost) sitemapURLSet {
	urls := make([]sitemapURL, 0, len(sitePages)+len(posts))
	for _, p := range sitePages {
		p.Loc = BuildURL(base, p.Loc)
		urls = append(urls, p)
	}
	for _, p := range posts {
		urls = append(urls, sitemapURL{
			Loc:        BuildURL(base, "blog", p.Slug),
			LastMod:    p.LastModified().UTC().Format(time.RFC3339),
			ChangeFreq: "monthly",
			Priority:   "0.6",
		})
	}
	return sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
}
