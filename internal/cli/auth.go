package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/nao1215/bookstore/pkg/httpclient"
	"github.com/nao1215/bookstore/pkg/token"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// loginCmd はログインコマンドを生成する。
func loginCmd(app *App) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "管理者としてログインする",
		Long:  "ユーザー名とパスワードでログインし、トークンをセッションストアに保存します",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := cmd.InOrStdin()
			reader := bufio.NewReader(in)

			if username == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "ユーザー名: ")
				v, err := readLine(reader)
				if err != nil {
					return fmt.Errorf("ユーザー名の読み込みに失敗: %w", err)
				}
				username = v
			}
			fmt.Fprint(cmd.ErrOrStderr(), "パスワード: ")
			password, err := readPassword(in, reader)
			fmt.Fprintln(cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("パスワードの読み込みに失敗: %w", err)
			}
			if username == "" || password == "" {
				return errors.New("ユーザー名とパスワードは空にできません")
			}

			if err := app.auth.Login(cmd.Context(), username, password); err != nil {
				if errors.Is(err, httpclient.ErrInvalidCredentials) {
					return err
				}
				return describeError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s としてログインしました\n", username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "ログインするユーザー名")
	return cmd
}

// logoutCmd はログアウトコマンドを生成する。
func logoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "ログアウトして保存済みのトークンを破棄する",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ログアウトしました")
			return nil
		},
	}
}

// statusCmd はログイン状態を表示するコマンドを生成する。
func statusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "ログイン状態を表示する",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "API:       %s\n", app.cfg.APIURL)
			fmt.Fprintf(out, "ストア:    %s\n", app.cfg.Session.Store)

			tok, ok := app.sessions.Token()
			if !ok {
				fmt.Fprintln(out, "状態:      未ログイン")
				return nil
			}
			exp, err := token.ExpiresAt(tok)
			if err != nil {
				fmt.Fprintln(out, "状態:      トークンが不正です（次回の管理操作時にリフレッシュします）")
				return nil
			}
			state := "ログイン中"
			if !exp.After(time.Now()) {
				state = "トークン期限切れ（次回の管理操作時にリフレッシュします）"
			}
			fmt.Fprintf(out, "状態:      %s\n", state)
			fmt.Fprintf(out, "有効期限:  %s\n", exp.Local().Format(time.DateTime))
			return nil
		},
	}
}

// readLine は1行読み込み、前後の空白を取り除いて返す。
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readPassword は端末からはエコーなしで、それ以外の入力からは1行でパスワードを読み込む。
func readPassword(in io.Reader, r *bufio.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	return readLine(r)
}
