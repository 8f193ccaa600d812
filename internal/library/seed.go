package library

import (
	"context"
	"log/slog"

	"github.com/Astrocyte74/jeopardy-sub000/internal/trivia"
)

// SeedDemo adds a starter category and game when the library is empty.
func SeedDemo(ctx context.Context, logger *slog.Logger, s *Store) error {
	existing, err := s.ListGames(ctx, "")
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	cat, err := s.CreateCategory(ctx, "Samples", "star")
	if err != nil {
		return err
	}

	doc := trivia.Document{
		Title:    "Sample Night",
		Subtitle: "A board to try the editor on",
		Categories: []trivia.Category{
			{Title: "Rivers", Clues: []trivia.Clue{
				{Value: 200, Prompt: "This river flows through Cairo", Response: "the Nile"},
				{Value: 400, Prompt: "Europe's second longest river", Response: "the Danube"},
				{Value: 600},
				{Value: 800},
				{Value: 1000},
			}},
			{Title: "Planets", Clues: []trivia.Clue{
				{Value: 200, Prompt: "The red planet", Response: "Mars"},
				{Value: 400},
				{Value: 600},
				{Value: 800},
				{Value: 1000},
			}},
		},
	}
	if _, err := s.CreateGame(ctx, cat.ID, doc); err != nil {
		return err
	}

	logger.Info("library seeded with sample game")
	return nil
}
