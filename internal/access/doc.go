// Package access はAPIキーとキャプチャノードの対応表を参照し、認可判定を行う。
//
// APIキー表（api_key -> ノードIDの配列）とノード表（node_id -> host:port）の
// 2つの表を読み取り専用で扱う。表は外部の管理プロセスが更新するため、
// 参照のたびに読み直し、プロセス内ではキャッシュしない。
// ノードID "0" はワイルドカードであり、全ノードへのアクセスを意味する。
package access
