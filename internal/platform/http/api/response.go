// Package api は各フィーチャーの HTTP ハンドラーで共通に使うレスポンス型を定義します。
package api

// ErrorResponse はエラー時のレスポンスボディです。
type ErrorResponse struct {
	Error string `json:"error"`
}
