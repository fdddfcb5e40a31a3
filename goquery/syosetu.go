package goquery

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/novelsrc"
)

var _ novelsrc.Provider = (*Syosetu)(nil)

var (
	syosetuBookRe    = regexp.MustCompile(`(?i)^/(n\d+[a-z]+)(?:/|$)`)
	syosetuNcodeRe   = regexp.MustCompile(`^n\d+[a-z]+$`)
	syosetuEpisodeRe = regexp.MustCompile(`/(\d+)/?$`)
)

// Selectors cover both the current (p-*) and the legacy page layout.
const (
	syosetuTitleSel    = ".p-novel__title, .novel_title"
	syosetuAuthorSel   = ".p-novel__author a, .novel_writername a"
	syosetuEpisodeSel  = ".p-eplist__sublist a.p-eplist__subtitle, dl.novel_sublist2 dd.subtitle a"
	syosetuNextSel     = "a.c-pager__item--next"
	syosetuBodySel     = ".js-novel-text.p-novel__text:not(.p-novel__text--preface):not(.p-novel__text--afterword), #novel_honbun"
	syosetuSubtitleSel = ".p-novel__title, .novel_subtitle"
	syosetuExSel       = "#novel_ex"
	syosetuMissingSel  = ".nothing"
)

// Syosetu implements novelsrc.Provider for ncode.syosetu.com and its
// adult-content sibling novel18.syosetu.com. Book IDs are lower-cased
// ncodes; episode IDs are sequence numbers.
//
// Adult books redirect to novel18.syosetu.com. The redirect is followed by
// the fetcher and subsequent pages are requested from the final host, so
// the book ID stays the same. The fetcher must carry the over18=yes cookie
// for the redirected pages to be served.
type Syosetu struct {
	site *site
}

// NewSyosetu creates a new Syosetu provider that fetches through f.
func NewSyosetu(f novelsrc.Fetcher, opts ...Option) *Syosetu {
	return &Syosetu{
		site: newSite("syosetu", "https://ncode.syosetu.com",
			[]string{"ncode.syosetu.com", "novel18.syosetu.com"}, f, opts),
	}
}

// Name returns the provider's identifier.
func (p *Syosetu) Name() string {
	return p.site.name
}

// ExtractBookID returns the lower-cased ncode from a book or episode URL.
func (p *Syosetu) ExtractBookID(rawURL string) (string, error) {
	id, err := p.site.matchID(rawURL, syosetuBookRe)
	if err != nil {
		return "", err
	}
	return strings.ToLower(id), nil
}

// GetBookMetadata follows every page of the table of contents.
// Books without an episode list are single-chapter books.
func (p *Syosetu) GetBookMetadata(ctx context.Context, bookID string) (*novelsrc.BookMetadata, error) {
	bookID = strings.ToLower(bookID)
	scope := p.site.bookScope(bookID)
	if !syosetuNcodeRe.MatchString(bookID) {
		return nil, novelsrc.Errorf(novelsrc.EINVALID, "%s: malformed ncode", scope)
	}

	meta := &novelsrc.BookMetadata{}
	var first *Page
	n := 0
	for page, err := range Pages(ctx, p.site.fetcher, p.site.url("/"+bookID+"/"), scope, p.site.maxPages, p.nextPage) {
		if err != nil {
			return nil, err
		}
		n++
		if err := p.checkPage(scope, page); err != nil {
			return nil, err
		}
		if first == nil {
			first = page
			meta.Title = cleanText(Text(page.Doc.Find(syosetuTitleSel).First()))
			meta.Author = cleanText(Text(page.Doc.Find(syosetuAuthorSel).First()))
			meta.Introduction = strings.TrimSpace(Text(page.Doc.Find(syosetuExSel).First()))
		}
		page.Doc.Find(syosetuEpisodeSel).Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			m := syosetuEpisodeRe.FindStringSubmatch(href)
			if m == nil {
				return
			}
			meta.Chapters = append(meta.Chapters, novelsrc.Chapter{
				EpisodeID: m[1],
				Title:     cleanText(Text(a)),
			})
		})
	}

	if meta.Title == "" {
		return nil, novelsrc.Errorf(novelsrc.EPARSE, "%s: missing title", scope)
	}
	if len(meta.Chapters) == 0 {
		if n > 1 || first.Doc.Find(syosetuBodySel).Length() == 0 {
			return nil, novelsrc.Errorf(novelsrc.EPARSE, "%s: missing episode list", scope)
		}
		meta.Chapters = []novelsrc.Chapter{{EpisodeID: novelsrc.DefaultEpisodeID, Title: meta.Title}}
	}

	return checkMetadata(scope, meta)
}

// GetEpisode fetches one episode. DefaultEpisodeID reads the body of a
// single-chapter book from its index page.
func (p *Syosetu) GetEpisode(ctx context.Context, bookID, episodeID string) (*novelsrc.EpisodeContent, error) {
	bookID = strings.ToLower(bookID)
	scope := p.site.episodeScope(bookID, episodeID)
	if !syosetuNcodeRe.MatchString(bookID) {
		return nil, novelsrc.Errorf(novelsrc.EINVALID, "%s: malformed ncode", scope)
	}

	var pageURL string
	switch {
	case episodeID == novelsrc.DefaultEpisodeID:
		pageURL = p.site.url("/" + bookID + "/")
	case digitsRe.MatchString(episodeID):
		pageURL = p.site.url("/" + bookID + "/" + episodeID + "/")
	default:
		return nil, novelsrc.Errorf(novelsrc.ENOTFOUND, "%s: malformed episode ID", scope)
	}

	page, err := p.site.fetch(ctx, pageURL, scope)
	if err != nil {
		return nil, err
	}
	if err := p.checkPage(scope, page); err != nil {
		return nil, err
	}

	body := page.Doc.Find(syosetuBodySel).First()
	if body.Length() == 0 {
		if episodeID == novelsrc.DefaultEpisodeID && page.Doc.Find(syosetuEpisodeSel).Length() > 0 {
			return nil, novelsrc.Errorf(novelsrc.ENOTFOUND, "%s: book has multiple episodes", scope)
		}
		return nil, novelsrc.Errorf(novelsrc.EPARSE, "%s: missing episode body", scope)
	}

	titleSel := syosetuSubtitleSel
	if episodeID == novelsrc.DefaultEpisodeID {
		titleSel = syosetuTitleSel
	}

	return checkEpisode(scope, &novelsrc.EpisodeContent{
		Title:      cleanText(Text(page.Doc.Find(titleSel).First())),
		Paragraphs: Paragraphs(body),
	})
}

// checkPage detects the error and age-confirmation pages syosetu serves
// with a 200 status.
func (p *Syosetu) checkPage(scope string, page *Page) error {
	if strings.Contains(page.URL.Path, "/redirect/ageauth") {
		return novelsrc.Errorf(novelsrc.ETRANSPORT, "%s: age confirmation required at %s (over18 cookie missing)", scope, page.URL)
	}
	if page.Doc.Find(syosetuMissingSel).Length() > 0 {
		return novelsrc.Errorf(novelsrc.ENOTFOUND, "%s: site reports no such page", scope)
	}
	return nil
}

// Cacheable reports whether resp is a content page rather than one of the
// error or age-confirmation pages checkPage rejects.
func (p *Syosetu) Cacheable(resp *novelsrc.Response) bool {
	u, err := url.Parse(resp.URL)
	if err != nil {
		return false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.Body))
	if err != nil {
		return false
	}
	return p.checkPage(p.site.name, &Page{URL: u, Doc: doc}) == nil
}

func (p *Syosetu) nextPage(page *Page) string {
	href, ok := page.Doc.Find(syosetuNextSel).First().Attr("href")
	if !ok || href == "" {
		return ""
	}
	return page.Resolve(href)
}
