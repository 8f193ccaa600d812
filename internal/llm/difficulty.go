package llm

import (
	"fmt"
	"strings"
)

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Normal Difficulty = "normal"
	Hard   Difficulty = "hard"
)

// ParseDifficulty accepts easy, normal or hard; empty means normal.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return Normal, nil
	case Easy, Normal, Hard:
		return d, nil
	default:
		return "", fmt.Errorf("invalid difficulty %q", s)
	}
}
