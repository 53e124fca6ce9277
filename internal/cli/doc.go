// Package cli はカタログAPIのコマンドラインクライアント bookctl のコマンドを提供する。
//
// 管理者用のコマンドはhttpclient.Gatewayを経由してAPIを呼び出すため、
// アクセストークンの期限が切れていても自動的にリフレッシュされる。
// トークンは設定に応じてSQLiteファイル・Redis・メモリのいずれかに保存する。
package cli
