package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-studio/internal/apiclient"
	"github.com/jonathan/resume-studio/internal/config"
	"github.com/jonathan/resume-studio/internal/logging"
	"github.com/jonathan/resume-studio/internal/observability"
	"github.com/jonathan/resume-studio/internal/session"
	"github.com/jonathan/resume-studio/internal/tokenstore"
	"github.com/jonathan/resume-studio/internal/types"
)

const defaultDraftPath = "resume.draft.json"

// app holds what the commands share for one invocation.
type app struct {
	// flags
	configPath string
	apiURL     string
	tokenDB    string
	draftPath  string
	verbose    bool

	cfg     config.Config
	logger  *logging.Logger
	printer *observability.Printer
	in      io.Reader
	out     io.Writer
	errOut  io.Writer

	// opened on first use by connect
	store  *tokenstore.SQLite
	client *apiclient.Client
	gate   *session.Gate
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "resume_studio",
		Short: "Resume Studio command line client",
		Long: `Resume Studio uploads resumes for parsing, edits the parsed result as a local draft,
and saves it back to the resume backend.

Configuration can be loaded from a JSON file using --config. Environment variables
(RESUME_API_URL, RESUME_TOKEN_DB, ...) override the file, and flags override both.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to config.json file")
	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "Backend base URL (overrides config and RESUME_API_URL)")
	root.PersistentFlags().StringVar(&a.tokenDB, "token-db", "", "Session database path (overrides config and RESUME_TOKEN_DB)")
	root.PersistentFlags().StringVar(&a.draftPath, "draft", defaultDraftPath, "Path to the local draft file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Print detailed debug information")

	root.AddCommand(
		newLoginCmd(a),
		newRegisterCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newListCmd(a),
		newOpenCmd(a),
		newDeleteCmd(a),
		newUploadCmd(a),
		newShowCmd(a),
		newSetCmd(a),
		newAddCmd(a),
		newUpdateCmd(a),
		newRemoveCmd(a),
		newSaveCmd(a),
	)
	return root
}

// setup resolves configuration and builds the logger. Network and storage
// are opened lazily by connect.
func (a *app) setup(cmd *cobra.Command) error {
	a.in = cmd.InOrStdin()
	a.out = cmd.OutOrStdout()
	a.errOut = cmd.ErrOrStderr()
	a.printer = observability.NewPrinter(a.out)

	// Step 1: config file
	var file config.Config
	if a.configPath != "" {
		loaded, err := config.LoadConfig(a.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		file = *loaded
	}

	// Step 2: environment
	env, err := config.FromEnv()
	if err != nil {
		return err
	}

	// Step 3: flags, only when explicitly set
	var flags config.Config
	if cmd.Flags().Changed("api-url") {
		flags.APIURL = a.apiURL
	}
	if cmd.Flags().Changed("token-db") {
		flags.TokenDB = a.tokenDB
	}
	flags.Verbose = a.verbose

	withFile := file.MergeWithDefaults(config.Defaults())
	withEnv := env.MergeWithDefaults(withFile)
	a.cfg = flags.MergeWithDefaults(withEnv)
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	// Step 4: logger
	builder := logging.New().FromWriter(a.errOut).Console()
	if a.cfg.LogFile != "" {
		builder = builder.FromPath(a.cfg.LogFile)
	}
	if builder, err = builder.WithLevelName(a.cfg.LogLevel); err != nil {
		return err
	}
	if a.cfg.Verbose {
		builder = builder.WithLevel(zerolog.DebugLevel)
	}
	if a.logger, err = builder.Make(); err != nil {
		return err
	}

	a.logger.Debug().
		Str("api_url", a.cfg.APIURL).
		Str("token_db", a.cfg.TokenDB).
		Msg("configuration resolved")
	return nil
}

// connect opens the token store, the API client and the session gate.
func (a *app) connect(ctx context.Context) error {
	if a.gate != nil {
		return nil
	}

	store, err := tokenstore.Open(ctx, a.cfg.TokenDB)
	if err != nil {
		return err
	}

	client, err := apiclient.New(a.cfg.APIURL, &apiclient.Options{
		Timeout: a.cfg.Timeout(),
		Logger:  a.logger.Logger,
	})
	if err != nil {
		_ = store.Close()
		return err
	}

	a.store = store
	a.client = client
	a.gate = session.NewGate(client, store, a.logger.Logger)
	a.gate.OnLogout(func() {
		a.logger.Debug().Msg("session cleared")
	})
	return nil
}

// restore connects and resumes the stored session. It returns nil when
// nobody is logged in.
func (a *app) restore(ctx context.Context) (*types.User, error) {
	if err := a.connect(ctx); err != nil {
		return nil, err
	}
	user, err := a.gate.Restore(ctx)
	if err != nil {
		if apiclient.IsAuth(err) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// requireSession is restore for commands that cannot run logged out.
func (a *app) requireSession(ctx context.Context) (*types.User, error) {
	user, err := a.restore(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("not logged in, run 'resume_studio login' first")
	}
	return user, nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil && a.logger != nil {
			a.logger.Warn().Err(err).Msg("failed to close token store")
		}
		a.store = nil
	}
	if a.logger != nil {
		_ = a.logger.Close()
	}
}

//nolint:errcheck // writing to stdout; errors are not recoverable
func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
