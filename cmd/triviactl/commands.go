package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Astrocyte74/jeopardy-sub000/internal/action"
	"github.com/Astrocyte74/jeopardy-sub000/internal/aiparse"
	"github.com/Astrocyte74/jeopardy-sub000/internal/llm"
	"github.com/Astrocyte74/jeopardy-sub000/internal/proxyclient"
)

func rootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:           "triviactl",
		Short:         "Tools for the trivia editor's AI actions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log parser diagnostics to stderr")

	logger := func() *slog.Logger {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}

	cmd.AddCommand(actionsCmd(), validateCmd(logger), generateCmd(logger))
	return cmd
}

func actionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "actions",
		Short: "List the AI actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ACTION\tLEVEL\tLABEL\tFLAGS")
			for _, id := range action.All {
				var flags []string
				if id.Destructive() {
					flags = append(flags, "destructive")
				}
				if id.Advisory() {
					flags = append(flags, "advisory")
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", id, id.Level(), id.Label(), strings.Join(flags, ","))
			}
			return tw.Flush()
		},
	}
}

func validateCmd(logger func() *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <action> [file]",
		Short: "Check a raw model response against an action's shape",
		Long: `Reads a raw model response from file, or stdin when no file is given,
strips any code fence, and checks it against the action's expected shape.
The decoded result is printed as JSON.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := action.Parse(args[0])
			if err != nil {
				return err
			}
			in := cmd.InOrStdin()
			if len(args) == 2 {
				f, err := os.Open(args[1])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			raw, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("reading response: %w", err)
			}
			return decodeAndPrint(cmd.OutOrStdout(), aiparse.New(logger()), id, string(raw))
		},
	}
}

func generateCmd(logger func() *slog.Logger) *cobra.Command {
	var (
		serverURL  string
		difficulty string
		pairs      []string
		check      bool
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "generate <action>",
		Short: "Run an action through a server's generation proxy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := action.Parse(args[0])
			if err != nil {
				return err
			}
			d, err := llm.ParseDifficulty(difficulty)
			if err != nil {
				return err
			}
			input, err := parsePairs(pairs)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			client := proxyclient.New(serverURL, nil)
			raw, err := client.Generate(ctx, id, input, d)
			if err != nil {
				return err
			}
			if !check {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), raw)
				return err
			}
			return decodeAndPrint(cmd.OutOrStdout(), aiparse.New(logger()), id, raw)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Editor server base URL")
	cmd.Flags().StringVarP(&difficulty, "difficulty", "d", "", "Difficulty: easy, normal or hard")
	cmd.Flags().StringArrayVarP(&pairs, "context", "c", nil, "Context entry as key=value (repeatable)")
	cmd.Flags().BoolVar(&check, "check", true, "Validate and decode the response")
	cmd.Flags().DurationVar(&timeout, "timeout", 90*time.Second, "Request timeout")
	return cmd
}

// parsePairs turns key=value flags into a context map. Values that parse as
// JSON keep their type, so values=[200,400] becomes a list.
func parsePairs(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, val, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("context entry %q is not key=value", p)
		}
		var v any
		if err := json.Unmarshal([]byte(val), &v); err != nil {
			v = val
		}
		out[key] = v
	}
	return out, nil
}

func decodeAndPrint(w io.Writer, p *aiparse.Parser, id action.ID, raw string) error {
	res, err := p.Decode(id, raw)
	if err != nil {
		if kind := aiparse.KindOf(err); kind != "" {
			return fmt.Errorf("%s: %w", kind, err)
		}
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
