package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/nao1215/bookstore/pkg/catalogapi"
	"github.com/nao1215/bookstore/pkg/event"
	"github.com/spf13/cobra"
)

// adminOps は管理者用サブコマンドが呼び出すエンティティごとの操作。
type adminOps[T, In any] struct {
	// noun はメッセージに使うエンティティ名。
	noun   string
	list   func(context.Context, catalogapi.Page) ([]T, error)
	create func(context.Context, In) (*T, error)
	update func(context.Context, uint, In) (*T, error)
	remove func(context.Context, uint) error
	render func(io.Writer, []T)
	// flags はcreateとupdateの入力フラグを定義する。
	flags func(*cobra.Command)
	// input は指定されたフラグから入力を組み立てる。
	input func(*cobra.Command) (In, error)
}

// adminCmd は管理者用コマンドを生成する。すべての操作にログインが必要。
func adminCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "カタログを管理する（要ログイン）",
	}
	cmd.AddCommand(
		adminEntityCmd("books", adminOps[catalogapi.Book, catalogapi.BookInput]{
			noun:   "書籍",
			list:   app.api.AdminListBooks,
			create: app.api.CreateBook,
			update: app.api.UpdateBook,
			remove: app.api.DeleteBook,
			render: renderBooks,
			flags:  bookFlags,
			input:  bookInput,
		}),
		adminEntityCmd("authors", adminOps[catalogapi.Author, catalogapi.AuthorInput]{
			noun:   "著者",
			list:   app.api.AdminListAuthors,
			create: app.api.CreateAuthor,
			update: app.api.UpdateAuthor,
			remove: app.api.DeleteAuthor,
			render: renderAuthors,
			flags:  nameFlags,
			input: func(cmd *cobra.Command) (catalogapi.AuthorInput, error) {
				return catalogapi.AuthorInput{
					FirstName: optString(cmd, "first-name"),
					LastName:  optString(cmd, "last-name"),
				}, nil
			},
		}),
		adminEntityCmd("artists", adminOps[catalogapi.Artist, catalogapi.ArtistInput]{
			noun:   "アーティスト",
			list:   app.api.AdminListArtists,
			create: app.api.CreateArtist,
			update: app.api.UpdateArtist,
			remove: app.api.DeleteArtist,
			render: renderArtists,
			flags:  nameFlags,
			input: func(cmd *cobra.Command) (catalogapi.ArtistInput, error) {
				return catalogapi.ArtistInput{
					FirstName: optString(cmd, "first-name"),
					LastName:  optString(cmd, "last-name"),
				}, nil
			},
		}),
		adminEntityCmd("covers", adminOps[catalogapi.Cover, catalogapi.CoverInput]{
			noun:   "表紙",
			list:   app.api.AdminListCovers,
			create: app.api.CreateCover,
			update: app.api.UpdateCover,
			remove: app.api.DeleteCover,
			render: renderCovers,
			flags:  coverFlags,
			input:  coverInput,
		}),
		eventsCmd(app),
	)
	return cmd
}

// eventsCmd は管理操作の履歴を表示するコマンドを生成する。
func eventsCmd(app *App) *cobra.Command {
	var (
		aggregateType string
		aggregateID   uint
		page          catalogapi.Page
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "管理操作の履歴を表示する",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := catalogapi.EventFilter{AggregateID: aggregateID}
			if aggregateType != "" {
				t, err := event.ParseAggregateType(aggregateType)
				if err != nil {
					return err
				}
				f.AggregateType = t
			}
			events, err := app.api.AdminListEvents(cmd.Context(), f, page)
			if err != nil {
				return describeError(err)
			}
			if len(events) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "該当するデータがありません")
				return nil
			}
			renderEvents(cmd.OutOrStdout(), events)
			return nil
		},
	}
	cmd.Flags().StringVarP(&aggregateType, "type", "t", "", "対象の種類（book, author, artist, cover）")
	cmd.Flags().UintVar(&aggregateID, "id", 0, "対象のID")
	cmd.Flags().IntVarP(&page.Limit, "limit", "l", 0, "取得する件数（省略時はサーバーの既定値）")
	cmd.Flags().IntVarP(&page.Offset, "offset", "o", 0, "取得を開始する位置")
	return cmd
}

// adminEntityCmd はlist・create・update・deleteサブコマンドを持つエンティティのコマンドを生成する。
func adminEntityCmd[T, In any](use string, ops adminOps[T, In]) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: ops.noun + "を管理する",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: ops.noun + "を作成する",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := ops.input(cmd)
			if err != nil {
				return err
			}
			created, err := ops.create(cmd.Context(), in)
			if err != nil {
				return describeError(err)
			}
			single(ops.render)(cmd.OutOrStdout(), created)
			return nil
		},
	}
	ops.flags(createCmd)

	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: ops.noun + "の指定した項目を更新する",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().NFlag() == 0 {
				return errors.New("更新する項目をフラグで指定してください")
			}
			in, err := ops.input(cmd)
			if err != nil {
				return err
			}
			updated, err := ops.update(cmd.Context(), id, in)
			if err != nil {
				return describeError(err)
			}
			single(ops.render)(cmd.OutOrStdout(), updated)
			return nil
		},
	}
	ops.flags(updateCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: ops.noun + "を削除する",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := ops.remove(cmd.Context(), id); err != nil {
				return describeError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%sを削除しました (ID %d)\n", ops.noun, id)
			return nil
		},
	}

	cmd.AddCommand(
		listCmd(ops.noun+"の一覧を表示する", ops.list, ops.render),
		createCmd,
		updateCmd,
		deleteCmd,
	)
	return cmd
}

func bookFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "タイトル")
	cmd.Flags().String("published", "", "出版日（YYYY-MM-DD）")
	cmd.Flags().Uint("author-id", 0, "著者ID")
	cmd.Flags().Uint("pages", 0, "ページ数")
	cmd.Flags().Float64("price", 0, "価格")
	cmd.Flags().String("isbn", "", "ISBN")
	cmd.Flags().String("description", "", "説明")
	cmd.Flags().Bool("digital-only", false, "電子版のみか")
	cmd.Flags().StringSlice("genre", nil, "ジャンル名（複数指定可。指定すると既存のジャンルを置き換える）")
}

func bookInput(cmd *cobra.Command) (catalogapi.BookInput, error) {
	published, err := optDate(cmd, "published")
	if err != nil {
		return catalogapi.BookInput{}, err
	}
	in := catalogapi.BookInput{
		Title:         optString(cmd, "title"),
		PublishedDate: published,
		AuthorID:      optUint(cmd, "author-id"),
		Pages:         optUint(cmd, "pages"),
		Price:         optFloat(cmd, "price"),
		ISBN:          optString(cmd, "isbn"),
		Description:   optString(cmd, "description"),
		DigitalOnly:   optBool(cmd, "digital-only"),
	}
	if cmd.Flags().Changed("genre") {
		in.Genres, _ = cmd.Flags().GetStringSlice("genre")
		if in.Genres == nil {
			in.Genres = []string{}
		}
	}
	return in, nil
}

func nameFlags(cmd *cobra.Command) {
	cmd.Flags().String("first-name", "", "名")
	cmd.Flags().String("last-name", "", "姓")
}

func coverFlags(cmd *cobra.Command) {
	cmd.Flags().String("design-ideas", "", "デザインのアイデア")
	cmd.Flags().String("image-url", "", "画像のURL")
	cmd.Flags().Uint("book-id", 0, "書籍ID")
	cmd.Flags().UintSlice("artist-id", nil, "担当アーティストID（複数指定可。指定すると既存の担当を置き換える）")
}

func coverInput(cmd *cobra.Command) (catalogapi.CoverInput, error) {
	in := catalogapi.CoverInput{
		DesignIdeas: optString(cmd, "design-ideas"),
		ImageURL:    optString(cmd, "image-url"),
		BookID:      optUint(cmd, "book-id"),
	}
	if cmd.Flags().Changed("artist-id") {
		in.ArtistIDs, _ = cmd.Flags().GetUintSlice("artist-id")
		if in.ArtistIDs == nil {
			in.ArtistIDs = []uint{}
		}
	}
	return in, nil
}

// optString は指定されたフラグの値を返す。未指定の場合はnilを返す。
func optString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

func optUint(cmd *cobra.Command, name string) *uint {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetUint(name)
	return &v
}

func optFloat(cmd *cobra.Command, name string) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetFloat64(name)
	return &v
}

func optBool(cmd *cobra.Command, name string) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetBool(name)
	return &v
}

// optDate はYYYY-MM-DD形式のフラグをUTCの日付として解釈する。
func optDate(cmd *cobra.Command, name string) (*time.Time, error) {
	s := optString(cmd, name)
	if s == nil {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, *s)
	if err != nil {
		return nil, fmt.Errorf("--%sはYYYY-MM-DD形式で指定してください: %q", name, *s)
	}
	return &t, nil
}
