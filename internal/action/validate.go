package action

// Validator reports whether a decoded JSON value has the shape an action
// expects. Validators never panic; any mismatch is false.
type Validator func(parsed any) bool

var validators = map[ID]Validator{
	GameTitle:              validTitles,
	CategoriesGenerate:     validCategorySet,
	CategoryRename:         validThreeNames,
	CategoryGenerateClues:  validClueList(0),
	CategoryReplaceAll:     validNonEmptyClueList,
	QuestionsGenerateFive:  validClueList(5),
	QuestionGenerateSingle: validSingleClue,
	EditorGenerateClue:     validClueText,
	EditorRewriteClue:      validRewrite,
	EditorGenerateAnswer:   validAnswer,
	EditorValidate:         validReport,
	TeamNameRandom:         validThreeNames,
}

// ValidatorFor returns the schema predicate for id. A missing validator is a
// configuration error for the caller to report.
func ValidatorFor(id ID) (Validator, bool) {
	v, ok := validators[id]
	return v, ok
}

// Validate applies id's predicate to parsed. Unknown actions never validate.
func Validate(id ID, parsed any) bool {
	v, ok := validators[id]
	return ok && v(parsed)
}

func validTitles(parsed any) bool {
	titles, ok := arrayField(parsed, "titles")
	if !ok || len(titles) != 3 {
		return false
	}
	for _, t := range titles {
		if !hasString(t, "title") || !hasString(t, "subtitle") {
			return false
		}
	}
	return true
}

func validCategorySet(parsed any) bool {
	cats, ok := arrayField(parsed, "categories")
	if !ok || len(cats) == 0 {
		return false
	}
	for _, c := range cats {
		if !hasString(c, "title") {
			return false
		}
		if obj, _ := c.(map[string]any); obj != nil {
			if topic, present := obj["contentTopic"]; present {
				if _, ok := topic.(string); !ok {
					return false
				}
			}
		}
		clues, ok := arrayField(c, "clues")
		if !ok || !allClues(clues) {
			return false
		}
	}
	return true
}

func validThreeNames(parsed any) bool {
	names, ok := arrayField(parsed, "names")
	if !ok || len(names) != 3 {
		return false
	}
	for _, n := range names {
		if _, ok := n.(string); !ok {
			return false
		}
	}
	return true
}

// validClueList checks a "clues" array; n > 0 fixes its length.
func validClueList(n int) Validator {
	return func(parsed any) bool {
		clues, ok := arrayField(parsed, "clues")
		if !ok || (n > 0 && len(clues) != n) {
			return false
		}
		return allClues(clues)
	}
}

func validNonEmptyClueList(parsed any) bool {
	clues, ok := arrayField(parsed, "clues")
	return ok && len(clues) > 0 && allClues(clues)
}

func validSingleClue(parsed any) bool {
	obj, ok := parsed.(map[string]any)
	return ok && isClue(obj["clue"])
}

func validClueText(parsed any) bool {
	return hasString(parsed, "clue") && hasString(parsed, "response")
}

func validRewrite(parsed any) bool { return hasString(parsed, "clue") }

func validAnswer(parsed any) bool { return hasString(parsed, "response") }

func validReport(parsed any) bool {
	obj, ok := parsed.(map[string]any)
	if !ok {
		return false
	}
	if _, ok := obj["valid"].(bool); !ok {
		return false
	}
	issues, ok := arrayField(obj, "issues")
	if !ok {
		return false
	}
	for _, i := range issues {
		if _, ok := i.(string); !ok {
			return false
		}
	}
	return true
}

func allClues(items []any) bool {
	for _, c := range items {
		if !isClue(c) {
			return false
		}
	}
	return true
}

func isClue(v any) bool {
	obj, ok := v.(map[string]any)
	if !ok {
		return false
	}
	if _, ok := obj["value"].(float64); !ok {
		return false
	}
	return hasString(obj, "clue") && hasString(obj, "response")
}

func arrayField(v any, key string) ([]any, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	arr, ok := obj[key].([]any)
	return arr, ok
}

func hasString(v any, key string) bool {
	obj, ok := v.(map[string]any)
	if !ok {
		return false
	}
	_, ok = obj[key].(string)
	return ok
}
