// Package catalog は書店カタログのREST APIサーバーを提供する。
//
// 書籍・著者・アーティスト・表紙・ジャンルをgormで永続化し、公開の閲覧APIと、
// JWTで保護された管理者用のCRUD APIを公開する。
//
// エンドポイント（ベースパスは既定で /api/v1）:
//
//	GET    /health
//	GET    /books, /books/:id
//	GET    /authors, /authors/:id
//	GET    /artists, /artists/:id
//	GET    /covers
//	POST   /auth/login, /auth/refresh, /auth/logout
//	GET    /admin/{books,authors,artists,covers}
//	POST   /admin/{books,authors,artists,covers}
//	PATCH  /admin/{books,authors,artists,covers}/:id
//	DELETE /admin/{books,authors,artists,covers}/:id
//	GET    /admin/events
//
// ログインに成功するとアクセストークン（authToken）をレスポンスボディで返し、
// リフレッシュトークンをHttpOnlyのCookie（refreshToken）に設定する。
// 管理者による作成・更新・削除はイベントとして履歴に残り、/admin/eventsで参照できる。
package catalog
