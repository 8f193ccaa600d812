// Package trivia defines the editable game document and the editor selection.
package trivia

// Unset marks a selection index that points at nothing.
const Unset = -1

// Document is the trivia game being edited.
type Document struct {
	Title      string     `json:"title"`
	Subtitle   string     `json:"subtitle"`
	Categories []Category `json:"categories"`
}

// Category is one board column. Order of Clues is display order.
type Category struct {
	Title        string `json:"title"`
	ContentTopic string `json:"contentTopic,omitempty"`
	Clues        []Clue `json:"clues"`
}

// Clue is a value/prompt/response triple. Prompt is stored under "clue"
// to match the persisted layout.
type Clue struct {
	Value    int    `json:"value"`
	Prompt   string `json:"clue"`
	Response string `json:"response"`
}

// Complete reports whether both prompt and response are filled in.
func (c Clue) Complete() bool {
	return c.Prompt != "" && c.Response != ""
}

// DefaultValues are the conventional point values of a five-row board.
var DefaultValues = []int{200, 400, 600, 800, 1000}

// NewDocument returns an untitled game with n empty categories of five clues.
func NewDocument(n int) *Document {
	doc := &Document{Title: "Untitled Game", Categories: make([]Category, n)}
	for i := range doc.Categories {
		clues := make([]Clue, len(DefaultValues))
		for j, v := range DefaultValues {
			clues[j] = Clue{Value: v}
		}
		doc.Categories[i] = Category{Clues: clues}
	}
	return doc
}

// Clone returns a deep copy that shares no slices with d.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{Title: d.Title, Subtitle: d.Subtitle}
	if d.Categories != nil {
		out.Categories = make([]Category, len(d.Categories))
		for i, c := range d.Categories {
			out.Categories[i] = c.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the category including its clues.
func (c Category) Clone() Category {
	out := c
	if c.Clues != nil {
		out.Clues = make([]Clue, len(c.Clues))
		copy(out.Clues, c.Clues)
	}
	return out
}

// Selection is the editor focus: a category index and a clue index,
// either of which may be Unset.
type Selection struct {
	Category int `json:"categoryIndex"`
	Clue     int `json:"clueIndex"`
}

// NoSelection is the empty selection.
var NoSelection = Selection{Category: Unset, Clue: Unset}

// HasCategory reports whether the category index is set.
func (s Selection) HasCategory() bool { return s.Category != Unset }

// HasClue reports whether both indices are set.
func (s Selection) HasClue() bool { return s.Category != Unset && s.Clue != Unset }

// CategoryOnly drops the clue index.
func (s Selection) CategoryOnly() Selection {
	return Selection{Category: s.Category, Clue: Unset}
}

// ValidIn reports whether every set index resolves inside doc.
func (s Selection) ValidIn(doc *Document) bool {
	if s.Category == Unset {
		return s.Clue == Unset
	}
	if doc == nil || s.Category < 0 || s.Category >= len(doc.Categories) {
		return false
	}
	if s.Clue == Unset {
		return true
	}
	return s.Clue >= 0 && s.Clue < len(doc.Categories[s.Category].Clues)
}

// Clamp resets whichever indices would dangle after a structural change.
func (s Selection) Clamp(doc *Document) Selection {
	if s.Category == Unset || doc == nil || s.Category < 0 || s.Category >= len(doc.Categories) {
		return NoSelection
	}
	if s.Clue != Unset && (s.Clue < 0 || s.Clue >= len(doc.Categories[s.Category].Clues)) {
		s.Clue = Unset
	}
	return s
}
