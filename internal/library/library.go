// Package library persists saved games and the categories that group them.
// Each record is a JSONB document in its own table.
package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/Astrocyte74/jeopardy-sub000/internal/trivia"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid input")
)

// Category groups saved games in the library view.
type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Icon      string `json:"icon,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// Game is one saved document plus its library metadata.
type Game struct {
	ID         string          `json:"id"`
	CategoryID string          `json:"categoryId,omitempty"`
	Document   trivia.Document `json:"game"`
	CreatedAt  string          `json:"createdAt"`
	UpdatedAt  string          `json:"updatedAt"`
}

// GameSummary is the list view of a Game.
type GameSummary struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Subtitle   string `json:"subtitle"`
	CategoryID string `json:"categoryId,omitempty"`
	Categories int    `json:"categories"`
	UpdatedAt  string `json:"updatedAt"`
}

// Export is the full library in one document.
type Export struct {
	Categories []Category `json:"categories"`
	Games      []Game     `json:"games"`
}

type Store struct {
	db *sql.DB
}

func NewStore(ctx context.Context, db *sql.DB) (*Store, error) {
	for _, ddl := range []string{
		`CREATE TABLE IF NOT EXISTS library_categories (
			id   TEXT PRIMARY KEY,
			name TEXT UNIQUE NOT NULL,
			data JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS library_games (
			id          TEXT PRIMARY KEY,
			category_id TEXT NOT NULL DEFAULT '',
			updated_at  TEXT NOT NULL,
			data        JSONB NOT NULL
		)`,
	} {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return nil, fmt.Errorf("creating table: %w", err)
		}
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func nowUTC() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}

func (s *Store) get(ctx context.Context, table, id string, dest any) error {
	var data string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT json(data) FROM %s WHERE id = ?`, table), id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

func scanAll[T any](ctx context.Context, db *sql.DB, query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Categories

func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	cats, err := scanAll[Category](ctx, s.db, `SELECT json(data) FROM library_categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []Category{}
	}
	return cats, nil
}

func (s *Store) CreateCategory(ctx context.Context, name, icon string) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, fmt.Errorf("%w: category name is required", ErrInvalid)
	}
	c := Category{ID: xid.New().String(), Name: name, Icon: icon, CreatedAt: nowUTC()}
	data, err := json.Marshal(c)
	if err != nil {
		return Category{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO library_categories (id, name, data) VALUES (?, ?, jsonb(?))`,
		c.ID, c.Name, string(data),
	)
	if err != nil {
		return Category{}, fmt.Errorf("inserting category: %w", err)
	}
	return c, nil
}

func (s *Store) categoryExists(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM library_categories WHERE id = ?`, id).Scan(&n)
	return n > 0, err
}

// Games

func (s *Store) ListGames(ctx context.Context, categoryID string) ([]GameSummary, error) {
	query := `SELECT json(data) FROM library_games ORDER BY updated_at DESC`
	var args []any
	if categoryID != "" {
		query = `SELECT json(data) FROM library_games WHERE category_id = ? ORDER BY updated_at DESC`
		args = append(args, categoryID)
	}
	games, err := scanAll[Game](ctx, s.db, query, args...)
	if err != nil {
		return nil, err
	}
	out := make([]GameSummary, 0, len(games))
	for _, g := range games {
		out = append(out, GameSummary{
			ID:         g.ID,
			Title:      g.Document.Title,
			Subtitle:   g.Document.Subtitle,
			CategoryID: g.CategoryID,
			Categories: len(g.Document.Categories),
			UpdatedAt:  g.UpdatedAt,
		})
	}
	return out, nil
}

func (s *Store) GetGame(ctx context.Context, id string) (Game, error) {
	var g Game
	err := s.get(ctx, "library_games", id, &g)
	return g, err
}

func (s *Store) CreateGame(ctx context.Context, categoryID string, doc trivia.Document) (Game, error) {
	if categoryID != "" {
		ok, err := s.categoryExists(ctx, categoryID)
		if err != nil {
			return Game{}, err
		}
		if !ok {
			return Game{}, fmt.Errorf("%w: unknown category %q", ErrInvalid, categoryID)
		}
	}
	now := nowUTC()
	g := Game{ID: xid.New().String(), CategoryID: categoryID, Document: doc, CreatedAt: now, UpdatedAt: now}
	if err := s.putGame(ctx, s.db, g); err != nil {
		return Game{}, err
	}
	return g, nil
}

// SaveDocument replaces the document of an existing game.
func (s *Store) SaveDocument(ctx context.Context, id string, doc trivia.Document) (Game, error) {
	var out Game
	err := s.modifyGame(ctx, id, func(g *Game) error {
		g.Document = doc
		out = *g
		return nil
	})
	return out, err
}

// MoveGame changes a game's category. An empty categoryID ungroups it.
func (s *Store) MoveGame(ctx context.Context, id, categoryID string) (Game, error) {
	if categoryID != "" {
		ok, err := s.categoryExists(ctx, categoryID)
		if err != nil {
			return Game{}, err
		}
		if !ok {
			return Game{}, fmt.Errorf("%w: unknown category %q", ErrInvalid, categoryID)
		}
	}
	var out Game
	err := s.modifyGame(ctx, id, func(g *Game) error {
		g.CategoryID = categoryID
		out = *g
		return nil
	})
	return out, err
}

func (s *Store) DeleteGame(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM library_games WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Export(ctx context.Context) (Export, error) {
	cats, err := s.ListCategories(ctx)
	if err != nil {
		return Export{}, err
	}
	games, err := scanAll[Game](ctx, s.db, `SELECT json(data) FROM library_games ORDER BY id`)
	if err != nil {
		return Export{}, err
	}
	if games == nil {
		games = []Game{}
	}
	return Export{Categories: cats, Games: games}, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) putGame(ctx context.Context, db execer, g Game) error {
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO library_games (id, category_id, updated_at, data) VALUES (?, ?, ?, jsonb(?))
		 ON CONFLICT(id) DO UPDATE SET category_id = excluded.category_id, updated_at = excluded.updated_at, data = excluded.data`,
		g.ID, g.CategoryID, g.UpdatedAt, string(data),
	)
	return err
}

// modifyGame loads a game, applies fn, and saves it in a transaction.
func (s *Store) modifyGame(ctx context.Context, id string, fn func(*Game) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRowContext(ctx, `SELECT json(data) FROM library_games WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	var g Game
	if err := json.Unmarshal([]byte(data), &g); err != nil {
		return err
	}
	g.UpdatedAt = nowUTC()
	if err := fn(&g); err != nil {
		return err
	}
	if err := s.putGame(ctx, tx, g); err != nil {
		return err
	}
	return tx.Commit()
}
