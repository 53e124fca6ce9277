// Package httpclient はカタログAPIと通信するHTTPクライアントを提供する。
//
// Client はJSONのリクエスト/レスポンスを扱う汎用クライアントである。
// Gateway は http.RoundTripper として動作し、管理者用パス（/admin）への
// リクエストにBearerトークンを付与する。トークンの有効期限が切れている場合は
// リフレッシュを行うが、同時に期限切れを検出した複数のリクエストがあっても
// リフレッシュAPIの呼び出しは1回にまとめる。
// AuthClient はログイン・ログアウト・リフレッシュの各APIを呼び出す。
package httpclient
