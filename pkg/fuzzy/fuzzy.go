// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package fuzzy scores list items against a typed filter using fzf's
// matching algorithm (the list widget demos drive it from onKey).
package fuzzy

import (
	"sort"
	"strings"
	"unicode"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// slab sizes match fzf's own matcher defaults
const slab16Size = 100 * 1024
const slab32Size = 2048

func init() {
	algo.Init("default")
}

type Match struct {
	Text      string `json:"text"`
	Index     int    `json:"index"`
	Score     int    `json:"score"`
	Positions []int  `json:"positions,omitempty"`
}

func hasUpperRune(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

// MatchOne scores a single candidate. The second return is false when
// the pattern does not match at all.
func MatchOne(pattern string, text string, withPos bool) (Match, bool) {
	slab := util.MakeSlab(slab16Size, slab32Size)
	return matchOne(pattern, text, 0, withPos, slab)
}

func matchOne(pattern string, text string, index int, withPos bool, slab *util.Slab) (Match, bool) {
	caseSensitive := hasUpperRune(pattern)
	patternRunes := []rune(pattern)
	if !caseSensitive {
		patternRunes = []rune(strings.ToLower(pattern))
	}
	chars := util.ToChars([]byte(text))
	result, positions := algo.FuzzyMatchV2(caseSensitive, true, true, &chars, patternRunes, withPos, slab)
	if result.Start < 0 {
		return Match{}, false
	}
	match := Match{Text: text, Index: index, Score: result.Score}
	if withPos && positions != nil {
		match.Positions = *positions
	}
	return match, true
}

// MatchList filters items against pattern, best score first (ties keep
// list order). An empty pattern returns everything unscored.
func MatchList(pattern string, items []string) []Match {
	rtn := make([]Match, 0, len(items))
	if pattern == "" {
		for idx, item := range items {
			rtn = append(rtn, Match{Text: item, Index: idx})
		}
		return rtn
	}
	slab := util.MakeSlab(slab16Size, slab32Size)
	for idx, item := range items {
		match, ok := matchOne(pattern, item, idx, false, slab)
		if !ok {
			continue
		}
		rtn = append(rtn, match)
	}
	sort.SliceStable(rtn, func(i, j int) bool {
		return rtn[i].Score > rtn[j].Score
	})
	return rtn
}

// FilterStrings is MatchList flattened back to the surviving items.
func FilterStrings(pattern string, items []string) []string {
	matches := MatchList(pattern, items)
	rtn := make([]string, 0, len(matches))
	for _, match := range matches {
		rtn = append(rtn, match.Text)
	}
	return rtn
}
