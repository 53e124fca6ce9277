package cli

import (
	"errors"
	"fmt"

	"github.com/nao1215/bookstore/pkg/httpclient"
	"github.com/spf13/cobra"
)

// NewRootCmd はbookctlのルートコマンドを生成する。
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bookctl",
		Short:         "書店カタログの閲覧・管理を行うCLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		loginCmd(app),
		logoutCmd(app),
		statusCmd(app),
		booksCmd(app),
		authorsCmd(app),
		artistsCmd(app),
		coversCmd(app),
		adminCmd(app),
	)

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	return rootCmd
}

// describeError はAPIエラーをユーザー向けのメッセージに変換する。
func describeError(err error) error {
	var se *httpclient.StatusError
	if errors.As(err, &se) {
		if httpclient.IsUnauthorized(err) {
			return fmt.Errorf("認証が必要です。`bookctl login` でログインしてください (HTTP %d: %s)", se.StatusCode, se.Message())
		}
		return fmt.Errorf("%s (HTTP %d)", se.Message(), se.StatusCode)
	}
	return err
}
