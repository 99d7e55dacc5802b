// API Gatewayサービスのエントリポイント。
// APIキーを検証し、許可されたキャプチャノードへリクエストを転送する。
// キャプチャノード群に対して外部からアクセス可能な唯一の入口となる。
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
