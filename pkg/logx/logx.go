// Package logx はzerologベースの構造化ロガーを生成する。
//
// サーバー・CLI・クライアントライブラリで同じ形式のログを出力するため、
// ロガーの生成はこのパッケージに集約する。
package logx

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New は指定したログレベルで出力先wに書き込むロガーを生成する。
// levelが解釈できない場合はinfoレベルを使用する。wがnilの場合は標準エラー出力に書き込む。
func New(level string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// NewConsole は人間が読みやすいコンソール形式のロガーを生成する。
// CLIの出力で使用する。
func NewConsole(level string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return New(level, zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"})
}

// Nop は何も出力しないロガーを返す。
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// ParseLevel はログレベル文字列をzerologのレベルに変換する。
func ParseLevel(level string) zerolog.Level {
	lv, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lv == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lv
}
