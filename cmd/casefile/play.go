package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"casefile/internal/config"
	"casefile/internal/engine"
	"casefile/internal/store"
	"casefile/internal/story"
)

const playHelp = `Commands:
  <n>             follow option n
  cmd <text>      type into a terminal (plain text works too)
  answer <ids>    answer a question, ids separated by spaces or commas
  accuse <n|id>   name a suspect
  hint <id>       reveal a hint
  back            close the current view
  look            show the scene again
  quit            give up`

// warnAt are the remaining seconds at which the player is reminded of the clock.
var warnAt = map[int]bool{60: true, 30: true, 10: true}

func playCmd() *cobra.Command {
	var timeLimit int
	var noRecord bool
	cmd := &cobra.Command{
		Use:   "play <case-file|case-id>",
		Short: "Play a case in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(args[0], timeLimit, !noRecord)
		},
	}
	cmd.Flags().IntVar(&timeLimit, "time-limit", 0, "Countdown in seconds; overrides the config and the case")
	cmd.Flags().BoolVar(&noRecord, "no-record", false, "Do not store the result")
	return cmd
}

func runPlay(ref string, timeLimit int, record bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	logger := config.NewLogger("warn", "text", os.Stderr)
	var db store.Store
	if cfg != nil {
		logger = cfg.Logger(os.Stderr)
		if timeLimit == 0 {
			timeLimit = cfg.Session.TimeLimit
		}
		if cfg.Database.DSN != "" {
			db, err = openSchemaDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close(context.Background())
		}
	}

	g, err := loadPlayCase(ctx, db, ref)
	if err != nil {
		return err
	}

	e, err := engine.New(g, engine.Options{Logger: logger, TimeLimit: timeLimit})
	if err != nil {
		return err
	}

	summary := play(ctx, e, os.Stdin, os.Stdout, time.Second)

	if record && db != nil {
		if err := db.RecordResult(ctx, resultFromSummary(summary, time.Now())); err != nil {
			return fmt.Errorf("record result: %w", err)
		}
	}
	return nil
}

// loadPlayCase reads ref as a case file when one exists, else looks it up in
// the catalog by id.
func loadPlayCase(ctx context.Context, db store.Store, ref string) (*story.Graph, error) {
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return story.LoadFile(ref)
	}
	if db == nil {
		return nil, fmt.Errorf("case %s: no such file and no database configured", ref)
	}
	c, err := db.GetCase(ctx, ref)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("case %s not found (run casefile ingest?)", ref)
	}
	g, err := story.Parse(c.Document)
	if err != nil {
		return nil, fmt.Errorf("load case %s: %w", c.ID, err)
	}
	g.ID = c.ID
	return g, nil
}

func resultFromSummary(summary engine.Summary, now time.Time) store.Result {
	outcome := string(summary.Outcome)
	if outcome == "" {
		outcome = store.OutcomeAbandoned
	}
	return store.Result{
		SessionID:        summary.SessionID,
		CaseID:           summary.CaseID,
		Outcome:          outcome,
		Score:            summary.Score,
		TimeSpentSeconds: summary.TimeSpentSeconds,
		ObjectiveScores:  summary.ObjectiveScores,
		RecordedAt:       now.UTC(),
	}
}

// play runs the interactive loop until the case resolves or the player leaves.
// The clock ticks every interval.
func play(ctx context.Context, e *engine.Engine, in io.Reader, out io.Writer, interval time.Duration) engine.Summary {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	ticks := make(chan engine.Snapshot, 1)
	go e.RunTimer(ctx, interval, func(snap engine.Snapshot) {
		if snap.Outcome == engine.OutcomeNone && !warnAt[snap.TimeLeft] {
			return
		}
		select {
		case ticks <- snap:
		default:
		}
	})

	p := &player{engine: e, out: out}
	snap := e.Snapshot()
	limited := snap.TimeLeft > 0
	p.render(snap)

	for snap.Outcome == engine.OutcomeNone {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nInterrupted.")
			return e.Summary()
		case tick := <-ticks:
			if tick.Outcome != engine.OutcomeNone {
				snap = tick
				p.render(snap)
				continue
			}
			if limited {
				fmt.Fprintf(out, "\n%d seconds left.\n", tick.TimeLeft)
			}
		case line, ok := <-lines:
			if !ok {
				return e.Summary()
			}
			next, quit := p.handle(line)
			if quit {
				fmt.Fprintln(out, "Case abandoned.")
				return e.Summary()
			}
			if next != nil {
				snap = *next
				p.render(snap)
			}
		}
	}
	return e.Summary()
}

type player struct {
	engine *engine.Engine
	out    io.Writer
}

// handle runs one line of input. It returns the snapshot to show, if any, and
// whether the player asked to stop.
func (p *player) handle(line string) (*engine.Snapshot, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, false
	}
	snap := p.engine.Snapshot()
	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	var (
		next engine.Snapshot
		err  error
	)
	switch strings.ToLower(verb) {
	case "quit", "exit":
		return nil, true
	case "help", "?":
		fmt.Fprintln(p.out, playHelp)
		return nil, false
	case "look":
		return &snap, false
	case "back", "close":
		next, err = p.engine.CloseModal(snap.CurrentID)
	case "hint":
		next, err = p.engine.RevealHint(rest)
	case "cmd":
		next, err = p.engine.SubmitTerminalCommand(rest)
	case "answer":
		next, err = p.engine.SubmitQuiz(strings.FieldsFunc(rest, func(r rune) bool {
			return r == ',' || r == ' '
		}))
	case "accuse":
		next, err = p.engine.Accuse(p.suspectID(rest))
	default:
		n, convErr := strconv.Atoi(line)
		switch {
		case convErr == nil && n >= 1 && n <= len(snap.Options):
			next, err = p.engine.SelectOption(snap.Options[n-1].Edge.Target)
		case convErr == nil:
			fmt.Fprintf(p.out, "No option %d.\n", n)
			return nil, false
		case snap.Current != nil && snap.Current.Type == story.TypeTerminal:
			next, err = p.engine.SubmitTerminalCommand(line)
		default:
			fmt.Fprintln(p.out, "Unknown command, type help.")
			return nil, false
		}
	}
	if err != nil {
		fmt.Fprintf(p.out, "Can't do that: %v\n", err)
		return nil, false
	}
	return &next, false
}

// suspectID accepts either a suspect's position in the list or its id.
func (p *player) suspectID(ref string) string {
	suspects := p.engine.Graph().NodesOfType(story.TypeSuspect)
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(suspects) {
		return suspects[n-1].ID
	}
	return ref
}

func (p *player) render(snap engine.Snapshot) {
	out := p.out
	fmt.Fprintln(out)
	if node := snap.Current; node != nil {
		fmt.Fprintf(out, "== %s ==\n", node.Label())
		if node.Data.Text != "" {
			fmt.Fprintln(out, node.Data.Text)
		}
		for _, option := range node.Data.Options {
			fmt.Fprintf(out, "  [%s] %s\n", option.ID, option.Text)
		}
		for _, hint := range node.Data.Hints {
			if !containsString(snap.RevealedHints, node.ID+"/"+hint.ID) {
				fmt.Fprintf(out, "  hint %s available (-%d)\n", hint.ID, hint.Penalty)
			}
		}
	}
	if snap.Cue != nil {
		fmt.Fprintf(out, "(music: %s)\n", snap.Cue.URL)
	}
	if fb := snap.Feedback; fb != nil && fb.Message != "" {
		fmt.Fprintf(out, "%s: %s\n", fb.Kind, fb.Message)
	}

	if snap.Mode == engine.ModeAccusation && snap.Outcome == engine.OutcomeNone {
		fmt.Fprintln(out, "Suspects:")
		for i, suspect := range p.engine.Graph().NodesOfType(story.TypeSuspect) {
			fmt.Fprintf(out, "  %d) %s\n", i+1, suspect.Label())
		}
	}
	if snap.Outcome == engine.OutcomeNone && len(snap.Options) > 0 {
		fmt.Fprintln(out, "Options:")
		for i, option := range snap.Options {
			fmt.Fprintf(out, "  %d) %s\n", i+1, option.Label)
		}
	}

	status := fmt.Sprintf("Score: %d", snap.Score)
	if snap.ScoreDelta != 0 {
		status += fmt.Sprintf(" (%+d)", snap.ScoreDelta)
	}
	if snap.TimeLeft > 0 || snap.Outcome == engine.OutcomeTimeout {
		status += "  Time left: " + formatSeconds(snap.TimeLeft)
	}
	fmt.Fprintln(out, status)

	if a := snap.Accusation; a != nil {
		r := a.Report
		fmt.Fprintf(out, "\nOutcome: %s\n", a.Outcome)
		fmt.Fprintf(out, "  Evidence found: %d/%d\n", r.EvidenceFound, r.EvidenceTotal)
		fmt.Fprintf(out, "  Nodes visited:  %d\n", r.NodesVisited)
		fmt.Fprintf(out, "  Hints used:     %d\n", r.HintsUsed)
		fmt.Fprintf(out, "  Time spent:     %s\n", formatSeconds(r.TimeSpentSeconds))
		fmt.Fprintf(out, "  Final score:    %d\n", r.Score)
	}
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
