package editor

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"strings"

	"github.com/Astrocyte74/jeopardy-sub000/internal/action"
	"github.com/Astrocyte74/jeopardy-sub000/internal/aiparse"
	"github.com/Astrocyte74/jeopardy-sub000/internal/llm"
	"github.com/Astrocyte74/jeopardy-sub000/internal/snapshot"
)

// Generator returns the raw model output for one action.
type Generator interface {
	Generate(ctx context.Context, id action.ID, input map[string]any, d llm.Difficulty) (string, error)
}

// Request is one user-triggered AI action.
type Request struct {
	Action     action.ID
	Scope      snapshot.Scope
	Mode       Mode
	Difficulty llm.Difficulty
	// Extra is merged over the context built from the session.
	Extra map[string]any
}

// Runner drives a request end to end: generate, parse, then hand the
// validated result to the coordinator.
type Runner struct {
	coord  *Coordinator
	gen    Generator
	parser *aiparse.Parser
	logger *slog.Logger
}

func NewRunner(coord *Coordinator, gen Generator, parser *aiparse.Parser, logger *slog.Logger) *Runner {
	return &Runner{coord: coord, gen: gen, parser: parser, logger: logger}
}

func (r *Runner) Coordinator() *Coordinator { return r.coord }

func (r *Runner) Run(ctx context.Context, req Request) (Outcome, error) {
	if !req.Action.Valid() {
		return Outcome{}, llm.ErrUnknownAction
	}
	v := r.coord.session.View()
	if v.Document == nil {
		r.coord.fail(ErrNoDocument)
		return Outcome{}, ErrNoDocument
	}
	if err := r.coord.checkTarget(req.Action, v.Selection); err != nil {
		r.coord.fail(err)
		return Outcome{}, err
	}

	input := BuildContext(v, req.Action)
	maps.Copy(input, req.Extra)

	loading := newNotification(KindLoading, "Generating "+strings.ToLower(req.Action.Label())+"...")
	r.coord.notify(loading)

	raw, err := r.gen.Generate(ctx, req.Action, input, req.Difficulty)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return Outcome{}, err
		}
		r.logger.Warn("generation failed", "session", r.coord.session.ID, "action", req.Action, "error", err)
		r.resolve(loading, err, "")
		return Outcome{}, err
	}

	res, err := r.parser.Decode(req.Action, raw)
	if err != nil {
		r.resolve(loading, err, raw)
		return Outcome{}, err
	}

	done := newNotification(KindInfo, req.Action.Label()+" ready")
	done.Replaces = loading.ID
	r.coord.notify(done)

	return r.coord.RequestApplyAt(ctx, req.Action, req.Scope, res, req.Mode, v.Selection)
}

// resolve replaces the loading notification with an error. Parse and
// schema failures carry the raw output and stay up until dismissed.
func (r *Runner) resolve(loading Notification, err error, raw string) {
	n := newNotification(KindError, err.Error())
	n.Replaces = loading.ID
	n.Code = ErrorCode(err)
	if aiparse.KindOf(err) != "" {
		n.Detail = raw
		n.Persistent = true
		n.Duration = 0
	}
	r.coord.notify(n)
}
