package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nao1215/pcapgate/internal/access"
	"github.com/nao1215/pcapgate/internal/config"
)

// newCheckCommand は2つの表を読み込んで内容を検査するcheckコマンドを生成する。
func newCheckCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load the api key and node tables and report problems",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeStore, err := openStore(cmd.Context(), cfg, zap.NewNop())
			if err != nil {
				return err
			}
			defer closeStore()

			problems, err := checkTables(cmd.Context(), store, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if problems > 0 {
				return fmt.Errorf("%d 件の問題が見つかりました", problems)
			}
			return nil
		},
	}
}

// checkTables は表を読み込み、件数と問題点をwに出力して問題の件数を返す。
// 問題とみなすのは、ノード表にワイルドカードの行がある、アドレスがhost:port形式でない、
// APIキーが存在しないノードを参照している、の各場合。
func checkTables(ctx context.Context, store access.Store, w io.Writer) (int, error) {
	keys, err := store.AllKeys(ctx)
	if err != nil {
		return 0, fmt.Errorf("APIキー表の読み込みに失敗: %w", err)
	}
	nodes, err := store.AllNodeAddresses(ctx)
	if err != nil {
		return 0, fmt.Errorf("ノード表の読み込みに失敗: %w", err)
	}
	fmt.Fprintf(w, "api keys: %d\nnodes: %d\n", len(keys), len(nodes))

	problems := 0
	report := func(format string, args ...any) {
		problems++
		fmt.Fprintf(w, "problem: "+format+"\n", args...)
	}

	for _, id := range sortedKeys(nodes) {
		if id == access.WildcardNodeID {
			report("node table contains reserved id %q", id)
		}
		if _, _, err := net.SplitHostPort(nodes[id]); err != nil {
			report("node %q has invalid address %q", id, nodes[id])
		}
	}
	for _, key := range sortedKeys(keys) {
		for _, id := range keys[key] {
			if id == access.WildcardNodeID {
				continue
			}
			if _, ok := nodes[id]; !ok {
				report("api key %q refers to unknown node %q", key, id)
			}
		}
	}
	return problems, nil
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
