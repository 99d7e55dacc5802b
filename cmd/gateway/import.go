package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nao1215/pcapgate/internal/access"
	"github.com/nao1215/pcapgate/internal/config"
)

// newImportCommand はJSONファイルの表をSQLiteへ取り込むimportコマンドを生成する。
func newImportCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Copy the JSON api key and node tables into the SQLite store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			src := access.NewFileStore(cfg.APIFile, cfg.NodeFile)
			keys, err := src.AllKeys(ctx)
			if err != nil {
				return fmt.Errorf("APIキー表の読み込みに失敗: %w", err)
			}
			nodes, err := src.AllNodeAddresses(ctx)
			if err != nil {
				return fmt.Errorf("ノード表の読み込みに失敗: %w", err)
			}

			dst, err := access.OpenSQLite(ctx, cfg.SQLitePath, zap.NewNop())
			if err != nil {
				return err
			}
			defer func() { _ = dst.Close() }()

			if err := dst.ImportTables(ctx, keys, nodes); err != nil {
				return fmt.Errorf("SQLiteへの取り込みに失敗: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d api keys and %d nodes into %s\n",
				len(keys), len(nodes), cfg.SQLitePath)
			return nil
		},
	}
}
