// Package session はクライアント側のセッショントークンを保持する。
//
// Manager はプロセス内で唯一のトークン保持者であり、トークンの読み取り・更新・破棄を
// ミューテックスで保護する。更新されたトークンは Store（キーバリューストア）にも
// 書き込まれ、プロセス再起動後に Restore で認証状態を復元できる。
// Store の実装としてメモリ・SQLite・Redisを提供する。
package session
