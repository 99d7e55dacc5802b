// Package gateway はキャプチャノード群の前段に立つAPI Gatewayを提供する。
//
// クライアントはapi_keyクエリパラメータでAPIキーを提示する。
// ゲートウェイはAPIキー表を参照して、一覧系のリクエストには自ら応答し、
// キャプチャデータとpingのリクエストは許可されたノードへ転送して応答をそのまま返す。
// /healthと/metrics以外のすべてのルートは、最初にAPIキーの事前チェックを行う。
package gateway
