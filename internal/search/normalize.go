package search

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)
	yearPattern  = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
)

// Release-noise tokens stripped from titles before grouping. A listing named
// "Inception (2010) 1080p BluRay x264" reduces to "inception".
var stopwordTokens = map[string]struct{}{
	"2160p": {}, "1440p": {}, "1080p": {}, "720p": {}, "480p": {},
	"4k": {}, "uhd": {}, "hd": {}, "sd": {},
	"x264": {}, "h264": {}, "x265": {}, "h265": {}, "hevc": {}, "av1": {}, "xvid": {}, "divx": {},
	"hdr": {}, "hdr10": {}, "webrip": {}, "web": {}, "webdl": {},
	"bluray": {}, "brrip": {}, "bdrip": {}, "dvdrip": {}, "hdrip": {}, "camrip": {}, "cam": {},
	"remux": {}, "hdtv": {}, "telesync": {}, "ts": {},
	"aac": {}, "ac3": {}, "eac3": {}, "dts": {}, "mp3": {}, "flac": {}, "atmos": {},
	"rus": {}, "eng": {}, "russian": {}, "english": {}, "sub": {}, "subs": {}, "multi": {},
	"mkv": {}, "mp4": {}, "avi": {}, "torrent": {}, "proper": {}, "repack": {}, "extended": {},
	"remastered": {}, "unrated": {}, "dl": {}, "rip": {}, "dubbed": {}, "yify": {}, "yts": {},
}

// titleKey is the result of normalizing one listing title.
type titleKey struct {
	normalized string
	year       int
}

var caseFolder = cases.Fold()

// normalizeTitle reduces a raw listing title to its grouping form:
// NFC + case fold, bracketed tags opened up, release-noise tokens and the
// year token removed, remaining tokens joined by single spaces. Numeric
// tokens that are not years survive, so "Inception 2" stays distinct from
// "Inception".
func normalizeTitle(raw string) titleKey {
	input := norm.NFC.String(strings.TrimSpace(raw))
	input = caseFolder.String(input)
	if input == "" {
		return titleKey{}
	}

	key := titleKey{year: extractYear(input)}

	kept := make([]string, 0, 8)
	for _, token := range tokenPattern.FindAllString(input, -1) {
		if _, noise := stopwordTokens[token]; noise {
			continue
		}
		if isResolutionToken(token) {
			continue
		}
		kept = append(kept, token)
	}

	tokens := make([]string, 0, len(kept))
	for _, token := range kept {
		if numeric, err := strconv.Atoi(token); err == nil && key.year > 0 && numeric == key.year {
			continue
		}
		tokens = append(tokens, token)
	}

	// Some films are named after a year ("2012", "1917"). When stripping the
	// year token would leave no title at all, the token is the title, not
	// release metadata; the release year then only comes from a second year
	// token ("2012 (2009)").
	if len(tokens) == 0 && len(kept) > 0 {
		tokens = kept[:1]
		key.year = 0
	}

	key.normalized = strings.Join(tokens, " ")
	return key
}

// extractYear returns the last plausible release-year token, 0 when absent.
// The last one wins so "2001: A Space Odyssey (1968)" yields 1968.
func extractYear(input string) int {
	matches := yearPattern.FindAllString(input, -1)
	if len(matches) == 0 {
		return 0
	}
	year, err := strconv.Atoi(matches[len(matches)-1])
	if err != nil {
		return 0
	}
	return year
}

func isResolutionToken(token string) bool {
	if len(token) < 4 || len(token) > 5 || !strings.HasSuffix(token, "p") {
		return false
	}
	_, err := strconv.Atoi(strings.TrimSuffix(token, "p"))
	return err == nil
}

// yearsCompatible applies the ±1 release-year tolerance. An unknown year on
// either side never blocks a merge.
func yearsCompatible(a, b int) bool {
	if a == 0 || b == 0 {
		return true
	}
	delta := a - b
	if delta < 0 {
		delta = -delta
	}
	return delta <= 1
}
