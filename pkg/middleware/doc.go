// Package middleware はカタログAPIサーバーで使用するGinミドルウェアを提供する。
//
// JWT認証トークンの検証、リクエストIDの付与、アクセスログ、パニックリカバリ、
// CORS設定を含む。
package middleware
