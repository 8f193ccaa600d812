package action

import "github.com/Astrocyte74/jeopardy-sub000/internal/trivia"

// Result is a validated AI payload, one concrete type per action.
// The interface is sealed so that a type switch over it covers a known set.
type Result interface {
	Action() ID
	sealed()
}

// TitleOption is one proposed title/subtitle pair.
type TitleOption struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

type TitleOptions struct {
	Options []TitleOption `json:"titles"`
}

type CategorySet struct {
	Categories []trivia.Category `json:"categories"`
}

type CategoryNames struct {
	Names []string `json:"names"`
}

// ClueFill is merged into a category: only values not already present are added.
type ClueFill struct {
	Clues []trivia.Clue `json:"clues"`
}

type ClueReplacement struct {
	Clues []trivia.Clue `json:"clues"`
}

type FiveClues struct {
	Clues []trivia.Clue `json:"clues"`
}

type SingleClue struct {
	Clue trivia.Clue `json:"clue"`
}

type ClueText struct {
	Prompt   string `json:"clue"`
	Response string `json:"response"`
}

type ClueRewrite struct {
	Prompt string `json:"clue"`
}

type Answer struct {
	Response string `json:"response"`
}

type ValidationReport struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues"`
}

type TeamNames struct {
	Names []string `json:"names"`
}

func (TitleOptions) Action() ID     { return GameTitle }
func (CategorySet) Action() ID      { return CategoriesGenerate }
func (CategoryNames) Action() ID    { return CategoryRename }
func (ClueFill) Action() ID         { return CategoryGenerateClues }
func (ClueReplacement) Action() ID  { return CategoryReplaceAll }
func (FiveClues) Action() ID        { return QuestionsGenerateFive }
func (SingleClue) Action() ID       { return QuestionGenerateSingle }
func (ClueText) Action() ID         { return EditorGenerateClue }
func (ClueRewrite) Action() ID      { return EditorRewriteClue }
func (Answer) Action() ID           { return EditorGenerateAnswer }
func (ValidationReport) Action() ID { return EditorValidate }
func (TeamNames) Action() ID        { return TeamNameRandom }

func (TitleOptions) sealed()     {}
func (CategorySet) sealed()      {}
func (CategoryNames) sealed()    {}
func (ClueFill) sealed()         {}
func (ClueReplacement) sealed()  {}
func (FiveClues) sealed()        {}
func (SingleClue) sealed()       {}
func (ClueText) sealed()         {}
func (ClueRewrite) sealed()      {}
func (Answer) sealed()           {}
func (ValidationReport) sealed() {}
func (TeamNames) sealed()        {}
