// Package patch applies validated AI results to a live document.
//
// Appliers never write into a clue slice that may be shared with a shallow
// snapshot: they build a new slice and install it. Selection bounds are the
// caller's responsibility and are not re-checked here.
package patch

import (
	"cmp"
	"slices"

	"github.com/Astrocyte74/jeopardy-sub000/internal/action"
	"github.com/Astrocyte74/jeopardy-sub000/internal/trivia"
)

// Apply mutates doc and sel according to res and reports whether the
// document changed. Advisory results leave both untouched.
func Apply(res action.Result, doc *trivia.Document, sel *trivia.Selection) bool {
	switch r := res.(type) {
	case action.TitleOptions:
		doc.Title = r.Options[0].Title
		doc.Subtitle = r.Options[0].Subtitle
	case action.CategorySet:
		doc.Categories = (&trivia.Document{Categories: r.Categories}).Clone().Categories
		*sel = trivia.Selection{Category: 0, Clue: 0}.Clamp(doc)
	case action.CategoryNames:
		doc.Categories[sel.Category].Title = r.Names[0]
	case action.ClueFill:
		cat := &doc.Categories[sel.Category]
		cat.Clues = mergeClues(cat.Clues, r.Clues)
	case action.ClueReplacement:
		doc.Categories[sel.Category].Clues = slices.Clone(r.Clues)
		*sel = sel.Clamp(doc)
	case action.FiveClues:
		doc.Categories[sel.Category].Clues = slices.Clone(r.Clues)
		sel.Clue = 0
	case action.SingleClue:
		setClue(doc, *sel, func(c *trivia.Clue) { *c = r.Clue })
	case action.ClueText:
		setClue(doc, *sel, func(c *trivia.Clue) {
			c.Prompt = r.Prompt
			c.Response = r.Response
		})
	case action.ClueRewrite:
		setClue(doc, *sel, func(c *trivia.Clue) { c.Prompt = r.Prompt })
	case action.Answer:
		setClue(doc, *sel, func(c *trivia.Clue) { c.Response = r.Response })
	case action.ValidationReport, action.TeamNames:
		return false
	default:
		return false
	}
	return true
}

// mergeClues adds each incoming clue whose value is not yet present and
// sorts the result by value. Existing clues win over incoming ones.
func mergeClues(existing, incoming []trivia.Clue) []trivia.Clue {
	out := slices.Clone(existing)
	seen := make(map[int]bool, len(out)+len(incoming))
	for _, c := range out {
		seen[c.Value] = true
	}
	for _, c := range incoming {
		if seen[c.Value] {
			continue
		}
		seen[c.Value] = true
		out = append(out, c)
	}
	slices.SortStableFunc(out, func(a, b trivia.Clue) int { return cmp.Compare(a.Value, b.Value) })
	return out
}

// setClue copies the category's clues, edits the selected one, and installs
// the copy.
func setClue(doc *trivia.Document, sel trivia.Selection, edit func(*trivia.Clue)) {
	cat := &doc.Categories[sel.Category]
	clues := slices.Clone(cat.Clues)
	edit(&clues[sel.Clue])
	cat.Clues = clues
}
