// Package cli implements tokenctl, the operator command line for the API
// token database.
//
// Tokens are never generated here. An operator pipes a token they already
// hold on stdin; only its SHA-256 digest is written to the database.
//
//	echo "$TOKEN" | tokenctl add --name ci
//	echo "$TOKEN" | tokenctl show
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/starneighbours/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/starneighbours/internal/config"
)

var (
	// ErrEmptyToken is returned when stdin holds no token.
	ErrEmptyToken = errors.New("no token on stdin")
	// ErrTokenNotFound is returned by show when the token is not registered.
	ErrTokenNotFound = errors.New("token not found")
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	dbPath  string
	verbose bool
}

// NewRootCommand returns the tokenctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "tokenctl",
		Short:         "Manage starneighbours API tokens",
		Long:          "tokenctl registers and inspects API tokens for the starneighbours server. Tokens are read from stdin and stored only as SHA-256 digests.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := charmlog.InfoLevel
			if opts.verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(cmd.ErrOrStderr(), level)))
		},
	}

	root.PersistentFlags().StringVar(&opts.dbPath, "db", config.DBPathFromEnv(), "path to the API token database")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newMigrateCmd(opts))
	root.AddCommand(newAddCmd(opts))
	root.AddCommand(newShowCmd(opts))

	return root
}

// Execute runs the tokenctl command tree with ctx.
func Execute(ctx context.Context) error {
	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		charmlog.Error("tokenctl failed", "err", err)
		return err
	}
	return nil
}

// openStore opens and migrates the token database at opts.dbPath.
// The caller must close the returned DB.
func openStore(ctx context.Context, opts *options) (*sqlite.DB, error) {
	logger := loggerFromContext(ctx)
	logger.Debug("opening database", "path", opts.dbPath)

	db, err := sqlite.NewDB(ctx, opts.dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	version, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	logger.Debug("database ready", "schema_version", version)

	return db, nil
}

// readToken returns the first line of r with surrounding whitespace removed.
func readToken(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read token: %w", err)
	}

	token := strings.TrimSpace(line)
	if token == "" {
		return "", ErrEmptyToken
	}
	return token, nil
}
