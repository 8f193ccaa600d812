package action

import (
	"errors"
	"fmt"
	"math"

	"github.com/Astrocyte74/jeopardy-sub000/internal/trivia"
)

// ErrShape is returned by Decode when parsed does not satisfy id's validator.
var ErrShape = errors.New("payload does not match action schema")

// Decode converts a parsed JSON value into id's typed Result. It validates
// first, so the conversions below can assume the shape.
func Decode(id ID, parsed any) (Result, error) {
	v, ok := validators[id]
	if !ok {
		return nil, fmt.Errorf("no validator for action %q", id)
	}
	if !v(parsed) {
		return nil, fmt.Errorf("%s: %w", id, ErrShape)
	}
	obj := parsed.(map[string]any)

	switch id {
	case GameTitle:
		var out TitleOptions
		for _, t := range obj["titles"].([]any) {
			m := t.(map[string]any)
			out.Options = append(out.Options, TitleOption{
				Title:    m["title"].(string),
				Subtitle: m["subtitle"].(string),
			})
		}
		return out, nil
	case CategoriesGenerate:
		var out CategorySet
		for _, c := range obj["categories"].([]any) {
			m := c.(map[string]any)
			topic, _ := m["contentTopic"].(string)
			out.Categories = append(out.Categories, trivia.Category{
				Title:        m["title"].(string),
				ContentTopic: topic,
				Clues:        toClues(m["clues"].([]any)),
			})
		}
		return out, nil
	case CategoryRename:
		return CategoryNames{Names: toStrings(obj["names"].([]any))}, nil
	case CategoryGenerateClues:
		return ClueFill{Clues: toClues(obj["clues"].([]any))}, nil
	case CategoryReplaceAll:
		return ClueReplacement{Clues: toClues(obj["clues"].([]any))}, nil
	case QuestionsGenerateFive:
		return FiveClues{Clues: toClues(obj["clues"].([]any))}, nil
	case QuestionGenerateSingle:
		return SingleClue{Clue: toClue(obj["clue"].(map[string]any))}, nil
	case EditorGenerateClue:
		return ClueText{Prompt: obj["clue"].(string), Response: obj["response"].(string)}, nil
	case EditorRewriteClue:
		return ClueRewrite{Prompt: obj["clue"].(string)}, nil
	case EditorGenerateAnswer:
		return Answer{Response: obj["response"].(string)}, nil
	case EditorValidate:
		return ValidationReport{
			Valid:  obj["valid"].(bool),
			Issues: toStrings(obj["issues"].([]any)),
		}, nil
	case TeamNameRandom:
		return TeamNames{Names: toStrings(obj["names"].([]any))}, nil
	}
	return nil, fmt.Errorf("no decoder for action %q", id)
}

func toClues(items []any) []trivia.Clue {
	out := make([]trivia.Clue, 0, len(items))
	for _, c := range items {
		out = append(out, toClue(c.(map[string]any)))
	}
	return out
}

func toClue(m map[string]any) trivia.Clue {
	return trivia.Clue{
		Value:    int(math.Round(m["value"].(float64))),
		Prompt:   m["clue"].(string),
		Response: m["response"].(string),
	}
}

func toStrings(items []any) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		out = append(out, s.(string))
	}
	return out
}
