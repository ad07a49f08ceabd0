package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/starneighbours/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/starneighbours/internal/domain/model"
)

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openStore(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer db.Close()

			loggerFromContext(cmd.Context()).Info("database is up to date", "path", db.Path())
			return nil
		},
	}
}

func newAddCmd(opts *options) *cobra.Command {
	var (
		name     string
		comments string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register the token read from stdin",
		Long:  "Reads a token from the first line of stdin, stores its SHA-256 digest and prints the digest.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := readToken(cmd.InOrStdin())
			if err != nil {
				return err
			}

			db, err := openStore(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer db.Close()

			token, err := sqlite.NewAPITokenRepo(db).Create(cmd.Context(), name, model.TokenDigest(raw), comments)
			if err != nil {
				return err
			}

			loggerFromContext(cmd.Context()).Info("token registered", "id", token.ID, "name", token.Name)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token.HashedToken)
			return err
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "label for the token owner")
	cmd.Flags().StringVar(&comments, "comments", "", "free-form notes stored with the token")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored record for the token read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := readToken(cmd.InOrStdin())
			if err != nil {
				return err
			}

			db, err := openStore(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer db.Close()

			token, err := sqlite.NewAPITokenRepo(db).GetByDigest(cmd.Context(), model.TokenDigest(raw))
			if err != nil {
				return err
			}
			if token == nil {
				return ErrTokenNotFound
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:       %d\n", token.ID)
			fmt.Fprintf(out, "name:     %s\n", token.Name)
			fmt.Fprintf(out, "digest:   %s\n", token.HashedToken)
			fmt.Fprintf(out, "created:  %s\n", token.CreatedAt.Format(time.RFC3339))
			fmt.Fprintf(out, "updated:  %s\n", token.UpdatedAt.Format(time.RFC3339))
			fmt.Fprintf(out, "comments: %s\n", token.Comments)
			return nil
		},
	}
}
