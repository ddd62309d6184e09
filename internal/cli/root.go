// Package cli is the evoting command line: the console's login flows and
// session introspection from a terminal. Sessions persist in ~/.evoting between
// invocations.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"evoting/internal/adminauth"
	"evoting/internal/apiclient"
	"evoting/internal/credential"
	"evoting/internal/guard"
	"evoting/internal/platform/logger"
	"evoting/internal/session"
	"evoting/internal/storage"
	"evoting/internal/voterauth"
)

type options struct {
	backend    string
	sessionDir string
	logLevel   string
	logFormat  string
	timeout    time.Duration
}

// app is built once per invocation from the global flags.
type app struct {
	logger   *slog.Logger
	sessions *session.Store
	client   *apiclient.Client
	admin    *adminauth.Service
	voter    *voterauth.Machine
	guard    *guard.Guard
}

func defaultBackend() string {
	if s := os.Getenv("EVOTING_BACKEND_URL"); s != "" {
		return s
	}
	return "http://localhost:8081"
}

// NewRootCmd creates the root cobra command for the evoting CLI.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	var a *app

	root := &cobra.Command{
		Use:   "evoting",
		Short: "Election console identity tools",
		Long:  "Sign administrators and voters in to the election backend and inspect the resulting sessions.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			built, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			a = built
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.backend, "backend", defaultBackend(), "Election backend URL (or EVOTING_BACKEND_URL env)")
	root.PersistentFlags().StringVar(&opts.sessionDir, "session-dir", os.Getenv("EVOTING_SESSION_DIR"), "Directory holding credential slots (default ~/.evoting)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "Log format (text, json)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "Backend request timeout")

	current := func() *app { return a }
	root.AddCommand(
		newLoginCmd(current),
		newVoterCmd(current),
		newWhoamiCmd(current),
		newCanCmd(current),
		newMenuCmd(current),
		newLogoutCmd(current),
	)
	return root
}

func newApp(ctx context.Context, opts *options) (*app, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.New(logger.ParseLevel(opts.logLevel), opts.logFormat)

	dir := opts.sessionDir
	if dir == "" {
		d, err := storage.DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	slots, err := storage.NewFileSlotStore(dir)
	if err != nil {
		return nil, fmt.Errorf("open session directory: %w", err)
	}

	sessions := session.NewStore(slots, credential.NewCodec(), session.WithLogger(log))
	if err := sessions.LoadAll(ctx); err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}

	client := apiclient.New(opts.backend, sessions,
		apiclient.WithLogger(log),
		apiclient.WithHTTPClient(&http.Client{Timeout: opts.timeout}),
	)
	voter := voterauth.New(client, sessions, voterauth.WithLogger(log))
	sessions.Subscribe(voter.OnSession)
	return &app{
		logger:   log,
		sessions: sessions,
		client:   client,
		admin:    adminauth.NewService(client, sessions, log),
		voter:    voter,
		guard:    guard.New(sessions, guard.WithLogger(log)),
	}, nil
}
