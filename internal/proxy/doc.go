// Package proxy はキャプチャノードへのリクエスト転送を提供する。
//
// ノードのアドレスと転送するクエリパラメータを受け取り、GETリクエストを1回だけ発行する。
// ノードが返したステータスコードとボディはそのまま呼び出し元に返す。
// 通信に失敗した場合も例外を外に漏らさず、500の結果に変換する。
package proxy
