package aiparse

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Astrocyte74/jeopardy-sub000/internal/action"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"whitespace", "  \n{\"a\":1}\n\t", `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"fence with padding", "\n  ```JSON\n  {\"a\":1}  \n```  \n", `{"a":1}`},
		{"crlf fence", "```json\r\n{\"a\":1}\r\n```", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestParseFencedRename(t *testing.T) {
	p := New(nil)
	v, _ := action.ValidatorFor(action.CategoryRename)

	parsed, err := p.Parse("```json\n{\"names\":[\"A\",\"B\",\"C\"]}\n```", v)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"names": []any{"A", "B", "C"}}, parsed)
}

func TestParseSchemaError(t *testing.T) {
	p := New(nil)
	v, _ := action.ValidatorFor(action.CategoryRename)
	raw := `{"names":["A"]}`

	_, err := p.Parse(raw, v)
	require.Error(t, err)

	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, KindSchema, pe.Kind)
	assert.Equal(t, raw, pe.Raw)
	assert.Equal(t, map[string]any{"names": []any{"A"}}, pe.Parsed)
	assert.ErrorIs(t, err, ErrSchema)
}

func TestParseErrorKeepsOriginalRaw(t *testing.T) {
	p := New(nil)
	raw := "```json\n{not json}\n```"

	_, err := p.Parse(raw, nil)
	require.Error(t, err)
	assert.Equal(t, KindParse, KindOf(err))
	assert.ErrorIs(t, err, ErrParse)

	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, raw, pe.Raw)
	assert.Nil(t, pe.Parsed)
}

func TestParseWithoutValidator(t *testing.T) {
	parsed, err := New(nil).Parse(`[1,2]`, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{float64(1), float64(2)}, parsed)
}

func TestParseIsDeterministic(t *testing.T) {
	p := New(nil)
	raw := "```json\n{\"clue\":\"Q\",\"response\":\"A\"}\n```"
	v, _ := action.ValidatorFor(action.EditorGenerateClue)

	a, errA := p.Parse(raw, v)
	b, errB := p.Parse(raw, v)
	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.Equal(t, a, b)
}

func TestDecode(t *testing.T) {
	p := New(nil)

	res, err := p.Decode(action.EditorGenerateAnswer, `{"response":"Paris"}`)
	require.NoError(t, err)
	assert.Equal(t, action.Answer{Response: "Paris"}, res)

	_, err = p.Decode(action.QuestionsGenerateFive, `{"clues":[]}`)
	assert.Equal(t, KindSchema, KindOf(err))

	_, err = p.Decode("unknown", `{}`)
	require.Error(t, err)
	assert.Equal(t, Kind(""), KindOf(err))
}
