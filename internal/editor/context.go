package editor

import (
	"slices"

	"github.com/Astrocyte74/jeopardy-sub000/internal/action"
	"github.com/Astrocyte74/jeopardy-sub000/internal/trivia"
)

// BuildContext collects the document facts the prompt for id needs.
func BuildContext(v View, id action.ID) map[string]any {
	ctx := map[string]any{}
	doc := v.Document
	if doc == nil {
		return ctx
	}
	ctx["gameTitle"] = doc.Title
	ctx["gameSubtitle"] = doc.Subtitle

	switch id {
	case action.GameTitle, action.CategoriesGenerate, action.TeamNameRandom:
		titles := make([]string, 0, len(doc.Categories))
		for _, c := range doc.Categories {
			if c.Title != "" {
				titles = append(titles, c.Title)
			}
		}
		ctx["categoryTitles"] = titles
		if id == action.CategoriesGenerate {
			ctx["count"] = max(len(doc.Categories), 1)
			ctx["values"] = trivia.DefaultValues
		}
		return ctx
	}

	sel := v.Selection
	if !sel.HasCategory() || !sel.ValidIn(doc) {
		return ctx
	}
	cat := doc.Categories[sel.Category]
	ctx["categoryTitle"] = cat.Title
	if cat.ContentTopic != "" {
		ctx["contentTopic"] = cat.ContentTopic
	}

	existing := make([]int, 0, len(cat.Clues))
	for _, c := range cat.Clues {
		if c.Complete() {
			existing = append(existing, c.Value)
		}
	}

	switch id.Level() {
	case action.LevelCategory:
		ctx["existingValues"] = existing
		switch id {
		case action.CategoryGenerateClues:
			ctx["missingValues"] = missingValues(cat.Clues)
		case action.CategoryReplaceAll:
			values := make([]int, 0, len(cat.Clues))
			for _, c := range cat.Clues {
				values = append(values, c.Value)
			}
			if len(values) == 0 {
				values = trivia.DefaultValues
			}
			ctx["values"] = values
		}
	case action.LevelClue:
		if sel.HasClue() {
			clue := cat.Clues[sel.Clue]
			ctx["value"] = clue.Value
			ctx["clue"] = clue.Prompt
			ctx["response"] = clue.Response
		}
	}
	return ctx
}

// missingValues lists the default values with no complete clue, plus the
// values of incomplete clues outside the defaults.
func missingValues(clues []trivia.Clue) []int {
	have := map[int]bool{}
	for _, c := range clues {
		if c.Complete() {
			have[c.Value] = true
		}
	}
	var out []int
	for _, v := range trivia.DefaultValues {
		if !have[v] {
			out = append(out, v)
		}
	}
	for _, c := range clues {
		if !have[c.Value] && !slices.Contains(out, c.Value) {
			out = append(out, c.Value)
		}
	}
	slices.Sort(out)
	return out
}
