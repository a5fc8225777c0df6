package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/symlinkarr/internal/database"
)

// ErrFormat is returned when a name does not follow the expected naming convention.
var ErrFormat = errors.New("unrecognized name format")

// IDPrefix precedes the numeric IMDb id in library directory names.
const IDPrefix = "imdb-tt"

var (
	// Title (Year) {imdb-ttID}, title is non-greedy so parenthesised subtitles stay in the title.
	libraryNamePattern = regexp.MustCompile(`^(.*?)\s*\((\d{4})\)\s*\{` + regexp.QuoteMeta(IDPrefix) + `(\d+)\}$`)
	episodePattern     = regexp.MustCompile(`(?i)s(\d+)e(\d+)`)
)

// LibraryName is a parsed library directory name.
type LibraryName struct {
	Title string
	Year  string
	ID    string
}

// TorrentName is a parsed torrent directory name.
type TorrentName struct {
	Title string
	// Year is empty if the name carries no year.
	Year string
	Kind database.MediaKind
}

// ParsedTitle is the result of a free-form release name parser.
type ParsedTitle struct {
	Title    string
	Year     string
	Seasons  []string
	Episodes []string
}

// TitleParser parses free-form release names.
type TitleParser interface {
	Parse(name string) (*ParsedTitle, error)
}

// Parser parses torrent names with a TitleParser.
type Parser struct {
	titles TitleParser
}

// New creates a parser. If titles is nil, release names are parsed with torrentname.
func New(titles TitleParser) *Parser {
	if titles == nil {
		titles = releaseParser{}
	}
	return &Parser{titles: titles}
}

// ParseLibraryName parses a library directory name of the form "Title (Year) {imdb-ttID}".
func ParseLibraryName(name string) (*LibraryName, error) {
	base := filepath.Base(name)
	m := libraryNamePattern.FindStringSubmatch(base)
	if m == nil {
		return nil, fmt.Errorf("%w: library name %q", ErrFormat, base)
	}
	return &LibraryName{
		Title: strings.TrimSpace(m[1]),
		Year:  m[2],
		ID:    m[3],
	}, nil
}

// ExtractLibraryEpisode returns the season and episode of the first SxxEyy
// marker in filename, or nil for both if there is none.
func ExtractLibraryEpisode(filename string) (season, episode *string) {
	m := episodePattern.FindStringSubmatch(filename)
	if m == nil {
		return nil, nil
	}
	return &m[1], &m[2]
}

// ParseTorrentName parses a torrent directory name. The name is classified as
// a show if the parser found a season or an episode.
func (p *Parser) ParseTorrentName(name string) (*TorrentName, error) {
	base := filepath.Base(name)
	parsed, err := p.titles.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("%w: torrent name %q: %v", ErrFormat, base, err)
	}
	if parsed == nil || strings.TrimSpace(parsed.Title) == "" {
		return nil, fmt.Errorf("%w: no title in torrent name %q", ErrFormat, base)
	}

	kind := database.MediaKindMovie
	if len(parsed.Seasons) > 0 || len(parsed.Episodes) > 0 {
		kind = database.MediaKindShow
	}

	return &TorrentName{
		Title: strings.TrimSpace(parsed.Title),
		Year:  parsed.Year,
		Kind:  kind,
	}, nil
}

// ExtractTorrentEpisode returns the first season and episode the parser finds
// in filename. If only an episode is found, season is nil.
func (p *Parser) ExtractTorrentEpisode(filename string) (season, episode *string) {
	base := filepath.Base(filename)
	parsed, err := p.titles.Parse(base)
	if err != nil || parsed == nil {
		log.Debug("failed to parse episode", "file", base, "error", err)
		return nil, nil
	}

	if len(parsed.Episodes) == 0 {
		return nil, nil
	}
	episode = &parsed.Episodes[0]
	if len(parsed.Seasons) > 0 {
		season = &parsed.Seasons[0]
	}
	return season, episode
}
