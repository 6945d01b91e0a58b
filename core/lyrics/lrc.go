package lyrics

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"CrossFM/model"
)

// PlaceholderText is attached as a single unsynced line when no usable
// lyrics could be produced at all.
const PlaceholderText = "Lyrics are not available for this track."

// timestampTag matches one leading LRC timestamp tag like [01:23.45].
var timestampTag = regexp.MustCompile(`^\[(\d+):(\d{1,2}(?:\.\d+)?)\]`)

// metaTag matches LRC metadata tags like [ar:Artist] or [offset:500].
var metaTag = regexp.MustCompile(`^\[[a-zA-Z]+:[^\]]*\]$`)

// ActiveLineIndex maps a playback position to the highlighted lyric line:
// the last line whose non-negative timestamp is <= position. Unsynced
// lines are skipped entirely; -1 means no line is active (no synced lines
// at all, or the position precedes every timestamp).
func ActiveLineIndex(position float64, lines []model.LyricLine) int {
	active := -1
	for i, line := range lines {
		if !line.Synced() {
			continue
		}
		if line.Time <= position {
			active = i
		}
	}
	return active
}

// ParseLRC parses LRC text into lyric lines. A source line may carry
// several timestamp tags; each becomes its own entry. Lines without a
// timestamp become unsynced entries in source order. Fully synced sets are
// sorted by timestamp so active-line resolution can assume non-decreasing
// times.
func ParseLRC(text string) []model.LyricLine {
	var lines []model.LyricLine
	allSynced := true

	for _, raw := range strings.Split(text, "\n") {
		raw = strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || metaTag.MatchString(trimmed) {
			continue
		}

		var times []float64
		rest := trimmed
		for {
			m := timestampTag.FindStringSubmatch(rest)
			if m == nil {
				break
			}
			minutes, _ := strconv.Atoi(m[1])
			seconds, err := strconv.ParseFloat(m[2], 64)
			if err == nil {
				times = append(times, float64(minutes)*60+seconds)
			}
			rest = rest[len(m[0]):]
		}

		text := strings.TrimSpace(rest)
		if len(times) == 0 {
			if text == "" {
				continue
			}
			lines = append(lines, model.LyricLine{Time: model.UnsyncedTime, Text: text})
			allSynced = false
			continue
		}
		for _, t := range times {
			lines = append(lines, model.LyricLine{Time: t, Text: text})
		}
	}

	if allSynced && len(lines) > 1 {
		sort.SliceStable(lines, func(i, j int) bool { return lines[i].Time < lines[j].Time })
	}
	return lines
}

// ParseText is the fallback for unsynced or unparseable lyric payloads:
// every non-empty line, unsynced, in source order.
func ParseText(text string) []model.LyricLine {
	var lines []model.LyricLine
	for _, raw := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(strings.TrimRight(raw, "\r"))
		if trimmed == "" {
			continue
		}
		lines = append(lines, model.LyricLine{Time: model.UnsyncedTime, Text: trimmed})
	}
	return lines
}

// Placeholder is the single explanatory line attached on total failure.
func Placeholder() []model.LyricLine {
	return []model.LyricLine{{Time: model.UnsyncedTime, Text: PlaceholderText}}
}

// Normalize turns a provider result into the lyric line model: synced text
// when parseable, plain-text lines otherwise, the placeholder when both
// are empty.
func Normalize(synced, plain string) []model.LyricLine {
	if synced != "" {
		if lines := ParseLRC(synced); len(lines) > 0 {
			return lines
		}
	}
	if plain != "" {
		if lines := ParseText(plain); len(lines) > 0 {
			return lines
		}
	}
	return Placeholder()
}
