package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Andres337939/libros-front/internal/api"
	"github.com/Andres337939/libros-front/internal/catalog"
	"github.com/Andres337939/libros-front/internal/config"
	"github.com/Andres337939/libros-front/internal/log"
	"github.com/Andres337939/libros-front/internal/model"
	"github.com/Andres337939/libros-front/internal/session"
	"github.com/Andres337939/libros-front/internal/store"
	"github.com/Andres337939/libros-front/internal/store/db"
)

const userAgent = "libros-front/0.1"

// app holds what the commands share during one process.
type app struct {
	opts    *config.Options
	db      *db.DB
	store   *store.Store
	client  *api.Client
	session *session.Store
	catalog *catalog.Synchronizer

	in     io.Reader
	out    io.Writer
	errOut io.Writer
	output string
}

type rootFlags struct {
	configFile string
	apiURL     string
	output     string
	debug      bool
}

func NewRootCmd() *cobra.Command {
	a := &app{}
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "libros",
		Short: "Terminal client for the library catalog",
		Long: `Libros browses the library catalog, reserves and returns books and,
for administrators, manages the catalog.

The session is kept in a local sqlite database so a login survives
between invocations. Use "libros shell" for an interactive session that
keeps the loaded page between actions.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return a.setup(cmd, flags)
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "Config file (toml, yaml or json)")
	cmd.PersistentFlags().StringVar(&flags.apiURL, "api-url", "", "Base URL of the library API, overrides api_url")
	cmd.PersistentFlags().StringVarP(&flags.output, "output", "o", formatTable, "Output format: table, json or yaml")
	cmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Log debug messages to stderr")

	cmd.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newRegisterCmd(a),
		newBooksCmd(a),
		newBookCmd(a),
		newReserveCmd(a),
		newReturnCmd(a),
		newShellCmd(a),
		newDevServerCmd(a),
	)
	closeAfterRun(a, cmd)

	return cmd
}

// closeAfterRun releases the app after every command, failed ones
// included.
func closeAfterRun(a *app, c *cobra.Command) {
	if run := c.RunE; run != nil {
		c.RunE = func(cmd *cobra.Command, args []string) error {
			defer a.close()
			return run(cmd, args)
		}
	}
	for _, sub := range c.Commands() {
		closeAfterRun(a, sub)
	}
}

func (a *app) setup(cmd *cobra.Command, flags rootFlags) error {
	opts, err := config.Load(flags.configFile)
	if err != nil {
		return err
	}
	if flags.apiURL != "" {
		opts.APIURL = flags.apiURL
	}
	if flags.debug {
		opts.LogLevel = "debug"
	}
	config.Opts = opts
	a.opts = opts
	log.Logger = log.NewLogger()

	if !validFormat(flags.output) {
		return errors.Errorf("unknown output format %q", flags.output)
	}
	a.output = flags.output
	a.in = cmd.InOrStdin()
	a.out = cmd.OutOrStdout()
	a.errOut = cmd.ErrOrStderr()
	return nil
}

// connect opens the session database, restores the saved session and
// builds the gateway and the synchronizer. It is idempotent.
func (a *app) connect(ctx context.Context) error {
	if a.catalog != nil {
		return nil
	}

	d, err := db.NewDB(a.opts.DSN)
	if err != nil {
		return err
	}
	if err := d.Migrate(ctx); err != nil {
		d.Close()
		return err
	}
	a.db = d
	a.store = store.NewStore(d.DB)

	a.client = api.NewClient(a.opts.APIURL,
		api.WithTimeout(time.Duration(a.opts.RequestTimeout)*time.Second),
		api.WithUserAgent(userAgent),
	)

	a.session = session.New(a.store, a.client)
	if err := a.session.Restore(ctx); err != nil {
		// the broken record was discarded, carry on as a guest
		log.Warn("Discarded saved session", zap.Error(err))
		fmt.Fprintln(a.errOut, "Saved session was invalid and has been cleared.")
	}

	a.catalog = catalog.NewSynchronizer(a.client,
		catalog.WithPageSize(a.opts.PageSize),
		catalog.WithSort(a.opts.Sort),
		catalog.WithAuthFailureHook(func(err error) {
			a.session.RequireReauth()
		}),
	)
	return nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Warn("Failed to close session store", zap.Error(err))
		}
		a.store = nil
	}
	if log.Logger != nil {
		_ = log.Logger.Sync()
	}
}

func (a *app) current() model.Session {
	return a.session.Current()
}

// explain adds a hint for errors the user can act on. The session is kept
// on auth failures so work in progress is not lost.
func (a *app) explain(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case model.IsKind(err, model.KindAuth):
		fmt.Fprintln(a.errOut, "Authentication failed. Run \"libros login\" to sign in again.")
	case errors.Is(err, model.ErrNoSession):
		fmt.Fprintln(a.errOut, "Sign in first with \"libros login\".")
	case model.IsKind(err, model.KindNetwork):
		fmt.Fprintf(a.errOut, "Could not reach %s.\n", a.opts.APIURL)
	}
	return err
}
