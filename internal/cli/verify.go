package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/scenesync/internal/journal"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	DB      string // journal database path
	Session string // verify only this session
}

// SessionCheck is the verification result of one journal session.
type SessionCheck struct {
	ID       string `json:"id"`
	Renderer string `json:"renderer"`
	Frames   int    `json:"frames"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
}

// VerifyResult is the payload of the verify command.
type VerifyResult struct {
	DB       string         `json:"db"`
	Sessions []SessionCheck `json:"sessions"`
	Failed   int            `json:"failed"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the frame hash chain of a journal",
		Long: `Recompute the frame hash chain of every session in a journal (or one
session with --session) and report the first frame whose stored hash
does not match.

Exit codes:
  0 - Every chain verified
  1 - A chain is broken
  2 - Command error (journal not found, unknown session, etc.)

Examples:
  scenesync verify --db ./frames.db
  scenesync verify --db ./frames.db --session nightly --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "path to journal database (required)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "verify only this session")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

// openJournal opens an existing journal read-only.
func openJournal(out *OutputFormatter, path string) (*journal.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, out.CommandError(ErrCodeNotFound, fmt.Sprintf("journal not found: %s", path), err)
	}
	store, err := journal.Open(path, journal.ReadOnly())
	if err != nil {
		return nil, out.CommandError(ErrCodeJournal, fmt.Sprintf("failed to open journal %s", path), err)
	}
	return store, nil
}

func runVerify(opts *VerifyOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	ctx := cmd.Context()

	store, err := openJournal(out, opts.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := store.ReadSessions(ctx)
	if err != nil {
		return out.CommandError(ErrCodeJournal, "failed to read sessions", err)
	}
	if opts.Session != "" {
		sessions = filterSession(sessions, opts.Session)
		if len(sessions) == 0 {
			return out.CommandError(ErrCodeNotFound, fmt.Sprintf("session not found: %s", opts.Session), nil)
		}
	}

	result := VerifyResult{DB: opts.DB, Sessions: make([]SessionCheck, 0, len(sessions))}
	for _, sess := range sessions {
		check := SessionCheck{ID: sess.ID, Renderer: sess.Renderer, OK: true}
		frames, err := store.ReadFrames(ctx, sess.ID)
		if err != nil {
			return out.CommandError(ErrCodeJournal, fmt.Sprintf("failed to read frames of %s", sess.ID), err)
		}
		check.Frames = len(frames)

		if err := store.VerifyChain(ctx, sess.ID); err != nil {
			var chainErr *journal.ChainError
			if !errors.As(err, &chainErr) {
				return out.CommandError(ErrCodeJournal, fmt.Sprintf("failed to verify %s", sess.ID), err)
			}
			check.OK = false
			check.Error = chainErr.Error()
			result.Failed++
		}
		out.VerboseLog("session %s: %d frames", sess.ID, check.Frames)
		result.Sessions = append(result.Sessions, check)
	}

	text := func(w io.Writer) {
		for _, c := range result.Sessions {
			if c.OK {
				fmt.Fprintf(w, "✓ %s (%d frames)\n", c.ID, c.Frames)
				continue
			}
			fmt.Fprintf(w, "✗ %s (%d frames)\n  %s\n", c.ID, c.Frames, c.Error)
		}
		if len(result.Sessions) == 0 {
			fmt.Fprintln(w, "No sessions in journal")
		}
	}

	if result.Failed > 0 {
		return out.Failure(ErrCodeJournal, fmt.Sprintf("%d session(s) failed verification", result.Failed), result, text)
	}
	return out.Success(result, text)
}

func filterSession(sessions []journal.Session, id string) []journal.Session {
	for _, s := range sessions {
		if s.ID == id {
			return []journal.Session{s}
		}
	}
	return nil
}
