package goquery

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/novelsrc"
)

var _ novelsrc.Provider = (*Hameln)(nil)

var (
	hamelnBookRe    = regexp.MustCompile(`^/novel/(\d+)(?:/|$)`)
	hamelnEpisodeRe = regexp.MustCompile(`^(?:\./)?(\d+\.html)$`)
)

const (
	hamelnTitleSel    = `span[itemprop="name"]`
	hamelnAuthorSel   = `span[itemprop="author"] a`
	hamelnEpisodeSel  = "table tr td a[href]"
	hamelnBodySel     = "#honbun"
	hamelnSubtitleSel = `#maind span[style*="font-size:120%"]:not([itemprop]):not(:has(a))`
)

// Hameln implements novelsrc.Provider for syosetu.org.
// Episode IDs are page names such as "1.html".
type Hameln struct {
	site *site
}

// NewHameln creates a new Hameln provider that fetches through f.
func NewHameln(f novelsrc.Fetcher, opts ...Option) *Hameln {
	return &Hameln{
		site: newSite("hameln", "https://syosetu.org", []string{"syosetu.org"}, f, opts),
	}
}

// Name returns the provider's identifier.
func (p *Hameln) Name() string {
	return p.site.name
}

// ExtractBookID returns the novel ID from a novel or episode URL.
func (p *Hameln) ExtractBookID(rawURL string) (string, error) {
	return p.site.matchID(rawURL, hamelnBookRe)
}

// GetBookMetadata parses the novel's index page. Authors without a user
// page are recorded as empty. Novels without an episode table are
// single-chapter books.
func (p *Hameln) GetBookMetadata(ctx context.Context, bookID string) (*novelsrc.BookMetadata, error) {
	scope := p.site.bookScope(bookID)
	if !digitsRe.MatchString(bookID) {
		return nil, novelsrc.Errorf(novelsrc.EINVALID, "%s: malformed book ID", scope)
	}

	page, err := p.site.fetch(ctx, p.site.url("/novel/"+bookID+"/"), scope)
	if err != nil {
		return nil, err
	}
	doc := page.Doc

	title := cleanText(Text(doc.Find(hamelnTitleSel).First()))
	if title == "" {
		return nil, novelsrc.Errorf(novelsrc.EPARSE, "%s: missing title", scope)
	}

	meta := &novelsrc.BookMetadata{
		Title:  title,
		Author: cleanText(Text(doc.Find(hamelnAuthorSel).First())),
	}

	doc.Find(hamelnEpisodeSel).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		m := hamelnEpisodeRe.FindStringSubmatch(strings.TrimSpace(href))
		if m == nil {
			return
		}
		meta.Chapters = append(meta.Chapters, novelsrc.Chapter{
			EpisodeID: m[1],
			Title:     cleanText(Text(a)),
		})
	})

	if len(meta.Chapters) == 0 {
		if doc.Find(hamelnBodySel).Length() == 0 {
			return nil, novelsrc.Errorf(novelsrc.EPARSE, "%s: missing episode table", scope)
		}
		meta.Chapters = []novelsrc.Chapter{{EpisodeID: novelsrc.DefaultEpisodeID, Title: title}}
	}

	return checkMetadata(scope, meta)
}

// GetEpisode fetches one episode. DefaultEpisodeID reads the body of a
// single-chapter novel from its index page.
func (p *Hameln) GetEpisode(ctx context.Context, bookID, episodeID string) (*novelsrc.EpisodeContent, error) {
	scope := p.site.episodeScope(bookID, episodeID)
	if !digitsRe.MatchString(bookID) {
		return nil, novelsrc.Errorf(novelsrc.EINVALID, "%s: malformed book ID", scope)
	}

	var pageURL string
	switch {
	case episodeID == novelsrc.DefaultEpisodeID:
		pageURL = p.site.url("/novel/" + bookID + "/")
	case hamelnEpisodeRe.MatchString(episodeID) && !strings.HasPrefix(episodeID, "."):
		pageURL = p.site.url("/novel/" + bookID + "/" + episodeID)
	default:
		return nil, novelsrc.Errorf(novelsrc.ENOTFOUND, "%s: malformed episode ID", scope)
	}

	page, err := p.site.fetch(ctx, pageURL, scope)
	if err != nil {
		return nil, err
	}
	doc := page.Doc

	body := doc.Find(hamelnBodySel).First()
	if body.Length() == 0 {
		if episodeID == novelsrc.DefaultEpisodeID && doc.Find(hamelnEpisodeSel).Length() > 0 {
			return nil, novelsrc.Errorf(novelsrc.ENOTFOUND, "%s: book has multiple episodes", scope)
		}
		return nil, novelsrc.Errorf(novelsrc.EPARSE, "%s: missing episode body", scope)
	}

	titleSel := hamelnSubtitleSel
	if episodeID == novelsrc.DefaultEpisodeID {
		titleSel = hamelnTitleSel
	}

	return checkEpisode(scope, &novelsrc.EpisodeContent{
		Title:      cleanText(Text(doc.Find(titleSel).First())),
		Paragraphs: Paragraphs(body),
	})
}
