// Package action defines the closed set of AI actions the editor can request,
// the schema predicates for their raw payloads, and the typed results that
// the patch layer applies.
package action

import "fmt"

// ID identifies one AI action. The set is closed: see All.
type ID string

const (
	GameTitle              ID = "game-title"
	CategoriesGenerate     ID = "categories-generate"
	CategoryRename         ID = "category-rename"
	CategoryGenerateClues  ID = "category-generate-clues"
	CategoryReplaceAll     ID = "category-replace-all"
	QuestionsGenerateFive  ID = "questions-generate-five"
	QuestionGenerateSingle ID = "question-generate-single"
	EditorGenerateClue     ID = "editor-generate-clue"
	EditorRewriteClue      ID = "editor-rewrite-clue"
	EditorGenerateAnswer   ID = "editor-generate-answer"
	EditorValidate         ID = "editor-validate"
	TeamNameRandom         ID = "team-name-random"
)

// All lists every action in display order.
var All = []ID{
	GameTitle,
	CategoriesGenerate,
	CategoryRename,
	CategoryGenerateClues,
	CategoryReplaceAll,
	QuestionsGenerateFive,
	QuestionGenerateSingle,
	EditorGenerateClue,
	EditorRewriteClue,
	EditorGenerateAnswer,
	EditorValidate,
	TeamNameRandom,
}

// Level is the part of the document an action targets.
type Level int

const (
	LevelNone Level = iota
	LevelGame
	LevelCategory
	LevelClue
)

func (l Level) String() string {
	switch l {
	case LevelGame:
		return "game"
	case LevelCategory:
		return "category"
	case LevelClue:
		return "clue"
	default:
		return "none"
	}
}

type info struct {
	label       string
	level       Level
	destructive bool
	advisory    bool
}

var registry = map[ID]info{
	GameTitle:              {label: "Game title", level: LevelGame},
	CategoriesGenerate:     {label: "All categories", level: LevelGame, destructive: true},
	CategoryRename:         {label: "Category name", level: LevelCategory},
	CategoryGenerateClues:  {label: "Missing clues", level: LevelCategory},
	CategoryReplaceAll:     {label: "Category clues", level: LevelCategory, destructive: true},
	QuestionsGenerateFive:  {label: "Five clues", level: LevelCategory},
	QuestionGenerateSingle: {label: "Clue", level: LevelClue},
	EditorGenerateClue:     {label: "Clue and answer", level: LevelClue},
	EditorRewriteClue:      {label: "Clue rewrite", level: LevelClue},
	EditorGenerateAnswer:   {label: "Answer", level: LevelClue},
	EditorValidate:         {label: "Clue check", level: LevelClue, advisory: true},
	TeamNameRandom:         {label: "Team names", level: LevelNone, advisory: true},
}

// Parse returns the ID for s, or an error if s is not in the allow-list.
func Parse(s string) (ID, error) {
	id := ID(s)
	if !id.Valid() {
		return "", fmt.Errorf("unknown action %q", s)
	}
	return id, nil
}

// Valid reports whether id is one of All.
func (id ID) Valid() bool {
	_, ok := registry[id]
	return ok
}

// Label is a short human-readable name used in notifications.
func (id ID) Label() string {
	if i, ok := registry[id]; ok {
		return i.label
	}
	return string(id)
}

// Level reports which part of the document the action writes to.
func (id ID) Level() Level { return registry[id].level }

// Destructive reports whether the action replaces a whole collection.
// These always take a full-document snapshot.
func (id ID) Destructive() bool { return registry[id].destructive }

// Advisory reports whether the action only reports back and never mutates.
func (id ID) Advisory() bool { return registry[id].advisory }
