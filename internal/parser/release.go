package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cehbz/torrentname"
)

// releaseParser implements TitleParser with torrentname.
// Season and episode numbers are zero padded to two digits.
type releaseParser struct{}

func (releaseParser) Parse(name string) (*ParsedTitle, error) {
	info := torrentname.Parse(name)

	parsed := &ParsedTitle{
		Title: strings.TrimSpace(info.Title),
	}
	if info.Year > 0 {
		parsed.Year = strconv.Itoa(info.Year)
	}
	if info.Season > 0 {
		parsed.Seasons = []string{fmt.Sprintf("%02d", info.Season)}
	}
	if info.Episode > 0 {
		parsed.Episodes = []string{fmt.Sprintf("%02d", info.Episode)}
	}
	return parsed, nil
}
