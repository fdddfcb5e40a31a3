package goquery

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/novelsrc"
)

var _ novelsrc.Provider = (*Kakuyomu)(nil)

var (
	kakuyomuBookRe    = regexp.MustCompile(`^/works/(\d+)(?:/|$)`)
	kakuyomuEpisodeRe = regexp.MustCompile(`/episodes/(\d+)`)
	digitsRe          = regexp.MustCompile(`^\d+$`)
)

// Kakuyomu implements novelsrc.Provider for kakuyomu.jp.
// Book and episode IDs are numeric strings.
type Kakuyomu struct {
	site *site
}

// NewKakuyomu creates a new Kakuyomu provider that fetches through f.
func NewKakuyomu(f novelsrc.Fetcher, opts ...Option) *Kakuyomu {
	return &Kakuyomu{
		site: newSite("kakuyomu", "https://kakuyomu.jp", []string{"kakuyomu.jp"}, f, opts),
	}
}

// Name returns the provider's identifier.
func (p *Kakuyomu) Name() string {
	return p.site.name
}

// ExtractBookID returns the work ID from a work or episode URL.
func (p *Kakuyomu) ExtractBookID(rawURL string) (string, error) {
	return p.site.matchID(rawURL, kakuyomuBookRe)
}

// GetBookMetadata fetches the work page and parses its table of contents.
func (p *Kakuyomu) GetBookMetadata(ctx context.Context, bookID string) (*novelsrc.BookMetadata, error) {
	scope := p.site.bookScope(bookID)
	if !digitsRe.MatchString(bookID) {
		return nil, novelsrc.Errorf(novelsrc.EINVALID, "%s: malformed book ID", scope)
	}

	page, err := p.site.fetch(ctx, p.site.url("/works/"+bookID), scope)
	if err != nil {
		return nil, err
	}

	meta, err := kakuyomuStateMetadata(page.Doc, bookID, scope)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		if meta, err = kakuyomuDOMMetadata(page.Doc, scope); err != nil {
			return nil, err
		}
	}
	return checkMetadata(scope, meta)
}

// kakuyomuDOMMetadata reads the server-rendered table of contents. It is
// used when the page carries no application state.
func kakuyomuDOMMetadata(doc *goquery.Document, scope string) (*novelsrc.BookMetadata, error) {
	title := cleanText(Text(doc.Find("#workTitle").First()))
	if title == "" {
		return nil, novelsrc.Errorf(novelsrc.EPARSE, "%s: missing title", scope)
	}

	meta := &novelsrc.BookMetadata{
		Title:        title,
		Author:       cleanText(Text(doc.Find("#workAuthor-activityName a").First())),
		Introduction: strings.TrimSpace(Text(doc.Find("#introduction").First())),
	}

	toc := doc.Find("#table-of-contents")
	if toc.Length() == 0 {
		return nil, novelsrc.Errorf(novelsrc.EPARSE, "%s: missing table of contents", scope)
	}
	toc.Find(".widget-toc-episode a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		m := kakuyomuEpisodeRe.FindStringSubmatch(href)
		if m == nil {
			return
		}
		label := a.Find(".widget-toc-episode-titleLabel")
		if label.Length() == 0 {
			label = a
		}
		meta.Chapters = append(meta.Chapters, novelsrc.Chapter{
			EpisodeID: m[1],
			Title:     cleanText(Text(label)),
		})
	})
	return meta, nil
}

// kakuyomuState is the normalized Apollo cache embedded in the work page's
// __NEXT_DATA__ script, keyed by "Typename:id".
type kakuyomuState map[string]json.RawMessage

type apolloRef struct {
	Ref string `json:"__ref"`
}

type kakuyomuWorkEntry struct {
	Title             string      `json:"title"`
	Introduction      string      `json:"introduction"`
	Author            *apolloRef  `json:"author"`
	TableOfContents   []apolloRef `json:"tableOfContents"`
	TableOfContentsV2 []apolloRef `json:"tableOfContentsV2"`
}

type kakuyomuTOCEntry struct {
	EpisodeUnions []apolloRef `json:"episodeUnions"`
	Episodes      []apolloRef `json:"episodes"`
}

type kakuyomuEpisodeEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type kakuyomuUserEntry struct {
	ActivityName string `json:"activityName"`
}

// decode unmarshals the entry for ref into v and reports whether it exists.
func (s kakuyomuState) decode(ref string, v any) (bool, error) {
	raw, ok := s[ref]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

// kakuyomuStateMetadata reads the complete table of contents, including
// chapters the rendered page folds away, from the embedded application
// state. It returns nil metadata when the page has no usable state.
func kakuyomuStateMetadata(doc *goquery.Document, bookID, scope string) (*novelsrc.BookMetadata, error) {
	script := doc.Find("script#__NEXT_DATA__").First()
	if script.Length() == 0 {
		return nil, nil
	}

	var data struct {
		Props struct {
			PageProps struct {
				ApolloState kakuyomuState `json:"__APOLLO_STATE__"`
			} `json:"pageProps"`
		} `json:"props"`
	}
	if err := json.Unmarshal([]byte(script.Text()), &data); err != nil {
		return nil, novelsrc.WrapError(novelsrc.EPARSE, err, "%s: decode page state", scope)
	}
	state := data.Props.PageProps.ApolloState

	var work kakuyomuWorkEntry
	ok, err := state.decode("Work:"+bookID, &work)
	if err != nil {
		return nil, novelsrc.WrapError(novelsrc.EPARSE, err, "%s: decode work", scope)
	}
	toc := work.TableOfContentsV2
	if toc == nil {
		toc = work.TableOfContents
	}
	if !ok || toc == nil {
		return nil, nil
	}

	meta := &novelsrc.BookMetadata{
		Title:        cleanText(work.Title),
		Introduction: strings.TrimSpace(work.Introduction),
	}
	if work.Author != nil {
		var user kakuyomuUserEntry
		if _, err := state.decode(work.Author.Ref, &user); err != nil {
			return nil, novelsrc.WrapError(novelsrc.EPARSE, err, "%s: decode author", scope)
		}
		meta.Author = cleanText(user.ActivityName)
	}

	for _, chapterRef := range toc {
		var chapter kakuyomuTOCEntry
		if _, err := state.decode(chapterRef.Ref, &chapter); err != nil {
			return nil, novelsrc.WrapError(novelsrc.EPARSE, err, "%s: decode %s", scope, chapterRef.Ref)
		}
		episodes := chapter.EpisodeUnions
		if episodes == nil {
			episodes = chapter.Episodes
		}
		for _, ref := range episodes {
			if !strings.HasPrefix(ref.Ref, "Episode:") {
				continue
			}
			var ep kakuyomuEpisodeEntry
			found, err := state.decode(ref.Ref, &ep)
			if err != nil {
				return nil, novelsrc.WrapError(novelsrc.EPARSE, err, "%s: decode %s", scope, ref.Ref)
			}
			if !found {
				return nil, novelsrc.Errorf(novelsrc.EPARSE, "%s: missing %s", scope, ref.Ref)
			}
			if ep.ID == "" {
				ep.ID = strings.TrimPrefix(ref.Ref, "Episode:")
			}
			meta.Chapters = append(meta.Chapters, novelsrc.Chapter{
				EpisodeID: ep.ID,
				Title:     cleanText(ep.Title),
			})
		}
	}
	return meta, nil
}

// GetEpisode fetches a single episode. DefaultEpisodeID resolves to the
// work's only episode.
func (p *Kakuyomu) GetEpisode(ctx context.Context, bookID, episodeID string) (*novelsrc.EpisodeContent, error) {
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

	page, err := p.site.fetch(ctx, p.site.url("/works/"+bookID+"/episodes/"+episodeID), scope)
	if err != nil {
		return nil, err
	}

	body := page.Doc.Find(".widget-episodeBody").First()
	if body.Length() == 0 {
		return nil, novelsrc.Errorf(novelsrc.EPARSE, "%s: missing episode body", scope)
	}

	return checkEpisode(scope, &novelsrc.EpisodeContent{
		Title:      cleanText(Text(page.Doc.Find(".widget-episodeTitle").First())),
		Paragraphs: Paragraphs(body),
	})
}
