package goquery

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/novelsrc"
)

var _ novelsrc.Provider = (*Novelup)(nil)

var (
	novelupBookRe    = regexp.MustCompile(`^/story/(\d+)(?:/|$)`)
	novelupEpisodeRe = regexp.MustCompile(`^/story/\d+/(\d+)/?$`)
)

const (
	novelupTitleSel   = ".storyTitle"
	novelupAuthorSel  = ".storyAuthor a"
	novelupIntroSel   = ".storyIntroduction"
	novelupListSel    = ".episodeList"
	novelupEpisodeSel = ".episodeList .episodeListItem .episodeTitle a[href]"
	novelupNextSel    = `.pagination a[rel="next"]`
	novelupBodySel    = ".episodeBody"
	novelupSubSel     = ".episodeTitle"
)

// Novelup implements novelsrc.Provider for novelup.plus.
// The table of contents of long stories is split across ?p=N pages.
type Novelup struct {
	site *site
}

// NewNovelup creates a new Novelup provider that fetches through f.
func NewNovelup(f novelsrc.Fetcher, opts ...Option) *Novelup {
	return &Novelup{
		site: newSite("novelup", "https://novelup.plus", []string{"novelup.plus"}, f, opts),
	}
}

// Name returns the provider's identifier.
func (p *Novelup) Name() string {
	return p.site.name
}

// ExtractBookID returns the story ID. Query parameters such as the ToC page
// number are ignored.
func (p *Novelup) ExtractBookID(rawURL string) (string, error) {
	return p.site.matchID(rawURL, novelupBookRe)
}

// GetBookMetadata follows every page of the story's table of contents.
func (p *Novelup) GetBookMetadata(ctx context.Context, bookID string) (*novelsrc.BookMetadata, error) {
	scope := p.site.bookScope(bookID)
	if !digitsRe.MatchString(bookID) {
		return nil, novelsrc.Errorf(novelsrc.EINVALID, "%s: malformed book ID", scope)
	}

	meta := &novelsrc.BookMetadata{}
	n := 0
	for page, err := range Pages(ctx, p.site.fetcher, p.site.url("/story/"+bookID), scope, p.site.maxPages, p.nextPage) {
		if err != nil {
			return nil, err
		}
		n++
		if n == 1 {
			meta.Title = cleanText(Text(page.Doc.Find(novelupTitleSel).First()))
			meta.Author = cleanText(Text(page.Doc.Find(novelupAuthorSel).First()))
			meta.Introduction = strings.TrimSpace(Text(page.Doc.Find(novelupIntroSel).First()))
			if meta.Title == "" {
				return nil, novelsrc.Errorf(novelsrc.EPARSE, "%s: missing title", scope)
			}
		}
		if page.Doc.Find(novelupListSel).Length() == 0 {
			return nil, novelsrc.Errorf(novelsrc.EPARSE, "%s: toc page %d: missing episode list", scope, n)
		}
		page.Doc.Find(novelupEpisodeSel).Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			m := novelupEpisodeRe.FindStringSubmatch(pathOf(page.Resolve(href)))
			if m == nil {
				return
			}
			meta.Chapters = append(meta.Chapters, novelsrc.Chapter{
				EpisodeID: m[1],
				Title:     cleanText(Text(a)),
			})
		})
	}

	return checkMetadata(scope, meta)
}

// GetEpisode fetches a single episode. DefaultEpisodeID resolves to the
// story's only episode.
func (p *Novelup) GetEpisode(ctx context.Context, bookID, episodeID string) (*novelsrc.EpisodeContent, error) {
	scope := p.site.episodeScope(bookID, episodeID)
	if !digitsRe.MatchString(bookID) {
		return nil, novelsrc.Errorf(novelsrc.EINVALID, "%s: malformed book ID", scope)
	}

	if episodeID == novelsrc.DefaultEpisodeID {
		meta, err := p.GetBookMetadata(ctx, bookID)
		if err != nil {
			return nil, err
		}
		if episodeID, err = soleChapter(scope, meta); err != nil {
			return nil, err
		}
	}
	if !digitsRe.MatchString(episodeID) {
		return nil, novelsrc.Errorf(novelsrc.ENOTFOUND, "%s: malformed episode ID", scope)
	}

	page, err := p.site.fetch(ctx, p.site.url("/story/"+bookID+"/"+episodeID), scope)
	if err != nil {
		return nil, err
	}

	body := page.Doc.Find(novelupBodySel).First()
	if body.Length() == 0 {
		return nil, novelsrc.Errorf(novelsrc.EPARSE, "%s: missing episode body", scope)
	}

	return checkEpisode(scope, &novelsrc.EpisodeContent{
		Title:      cleanText(Text(page.Doc.Find(novelupSubSel).First())),
		Paragraphs: Paragraphs(body),
	})
}

func (p *Novelup) nextPage(page *Page) string {
	href, ok := page.Doc.Find(novelupNextSel).First().Attr("href")
	if !ok || href == "" {
		return ""
	}
	return page.Resolve(href)
}
