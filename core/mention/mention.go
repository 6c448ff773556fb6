// Package mention detects and resolves @-mention tokens in free-text
// input against a user directory.
//
// Detection is end-anchored: a token is only active while the cursor is
// conceptually at the end of the buffer, immediately after an
// unterminated "@word". Mentions edited mid-sentence after cursor
// repositioning are not detected. This is a documented limitation carried
// over from the reference client, not an accident.
//
// The same contract serves both call sites (post composition and chat
// input); only the directory bound to RankCandidates differs.
package mention

import (
	"regexp"
	"strings"

	"github.com/workorder-org/workorder-go/core"
)

// tokenPattern matches an unterminated mention token at end of input:
// "@" followed by zero or more word characters with nothing after it.
var tokenPattern = regexp.MustCompile(`@(\w*)$`)

// Token is the result of scanning input text for an active mention.
type Token struct {
	// Active is true while an unterminated @token sits at the end of
	// the buffer.
	Active bool

	// Prefix is the partial username typed so far, without the "@".
	// Empty when the user has typed only the "@".
	Prefix string
}

// DetectToken scans text from its end for an in-progress mention.
func DetectToken(text string) Token {
	m := tokenPattern.FindStringSubmatch(text)
	if m == nil {
		return Token{}
	}
	return Token{Active: true, Prefix: m[1]}
}

// RankCandidates returns the directory entries whose username starts
// with prefix, case-insensitively. No fuzzy matching is applied and the
// directory's own order is preserved, so results are stable across
// keystrokes.
func RankCandidates(prefix string, directory []core.User) []core.User {
	p := strings.ToLower(prefix)
	var out []core.User
	for _, u := range directory {
		if strings.HasPrefix(strings.ToLower(u.Username), p) {
			out = append(out, u)
		}
	}
	return out
}

// ApplySelection replaces the trailing @prefix span with "@username "
// (exactly one trailing space). Text before the active token is returned
// untouched; if no token is active the input is returned unchanged.
func ApplySelection(text, username string) string {
	loc := tokenPattern.FindStringIndex(text)
	if loc == nil {
		return text
	}
	return text[:loc[0]] + "@" + username + " "
}
