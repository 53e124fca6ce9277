package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/bookstore/pkg/catalogapi"
	"github.com/spf13/cobra"
)

// booksCmd は書籍を閲覧するコマンドを生成する。
func booksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "書籍を閲覧する",
	}
	cmd.AddCommand(
		listCmd("書籍の一覧を表示する", app.api.ListBooks, renderBooks),
		getCmd("書籍の詳細を表示する", app.api.GetBook, renderBook),
	)
	return cmd
}

// authorsCmd は著者を閲覧するコマンドを生成する。
func authorsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authors",
		Short: "著者を閲覧する",
	}
	cmd.AddCommand(
		listCmd("著者の一覧を表示する", app.api.ListAuthors, renderAuthors),
		getCmd("著者の詳細を著作一覧付きで表示する", app.api.GetAuthor, renderAuthor),
	)
	return cmd
}

// artistsCmd はアーティストを閲覧するコマンドを生成する。
func artistsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artists",
		Short: "アーティストを閲覧する",
	}
	cmd.AddCommand(
		listCmd("アーティストの一覧を表示する", app.api.ListArtists, renderArtists),
		getCmd("アーティストの詳細を担当表紙付きで表示する", app.api.GetArtist, renderArtist),
	)
	return cmd
}

// coversCmd は表紙を閲覧するコマンドを生成する。
func coversCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "covers",
		Short: "表紙を閲覧する",
	}
	cmd.AddCommand(listCmd("表紙の一覧を表示する", app.api.ListCovers, renderCovers))
	return cmd
}

// listCmd は一覧を取得してテーブルで表示するlistサブコマンドを生成する。
func listCmd[T any](short string, fetch func(context.Context, catalogapi.Page) ([]T, error), render func(io.Writer, []T)) *cobra.Command {
	var page catalogapi.Page
	cmd := &cobra.Command{
		Use:   "list",
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := fetch(cmd.Context(), page)
			if err != nil {
				return describeError(err)
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "該当するデータがありません")
				return nil
			}
			render(cmd.OutOrStdout(), items)
			return nil
		},
	}
	cmd.Flags().IntVarP(&page.Limit, "limit", "l", 0, "取得する件数（省略時はサーバーの既定値）")
	cmd.Flags().IntVarP(&page.Offset, "offset", "o", 0, "取得を開始する位置")
	return cmd
}

// getCmd はIDを指定して1件を取得するgetサブコマンドを生成する。
func getCmd[T any](short string, fetch func(context.Context, uint) (*T, error), render func(io.Writer, *T)) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			item, err := fetch(cmd.Context(), id)
			if err != nil {
				return describeError(err)
			}
			render(cmd.OutOrStdout(), item)
			return nil
		},
	}
}

// parseID は引数を正の整数のIDとして解釈する。
func parseID(s string) (uint, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("IDは正の整数で指定してください: %q", s)
	}
	return uint(v), nil
}
