package access

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/nao1215/pcapgate/pkg/migration"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore はSQLiteに格納された2つの表を参照するStore。
// 参照のたびにクエリを発行するため、管理プロセスによる更新は次のリクエストから反映される。
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite はSQLiteデータベースを開き、スキーマを適用したSQLiteStoreを返す。
func OpenSQLite(ctx context.Context, dsn string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	if _, err := migration.Run(ctx, db, migrations, "migrations", logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close はデータベース接続を閉じる。
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// NodesForKey はAPIキーに許可されたノードIDの集合を返す。
func (s *SQLiteStore) NodesForKey(ctx context.Context, apiKey string) (NodeSet, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM api_keys WHERE api_key = ?", apiKey).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: APIキーの取得に失敗: %v", ErrUnavailable, err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT node_id FROM api_key_nodes WHERE api_key = ? ORDER BY node_id", apiKey)
	if err != nil {
		return nil, fmt.Errorf("%w: ノードIDの取得に失敗: %v", ErrUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	nodes := NodeSet{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: ノードIDの読み取りに失敗: %v", ErrUnavailable, err)
		}
		nodes = append(nodes, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nodes, nil
}

// AddressForNode はノードIDに対応するアドレスを返す。
func (s *SQLiteStore) AddressForNode(ctx context.Context, nodeID string) (string, error) {
	var addr string
	err := s.db.QueryRowContext(ctx, "SELECT address FROM nodes WHERE node_id = ?", nodeID).Scan(&addr)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && addr == "") {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: ノードアドレスの取得に失敗: %v", ErrUnavailable, err)
	}
	return addr, nil
}

// AllNodeAddresses はノード表全体を返す。
func (s *SQLiteStore) AllNodeAddresses(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT node_id, address FROM nodes")
	if err != nil {
		return nil, fmt.Errorf("%w: ノード表の取得に失敗: %v", ErrUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	nodes := make(map[string]string)
	for rows.Next() {
		var id, addr string
		if err := rows.Scan(&id, &addr); err != nil {
			return nil, fmt.Errorf("%w: ノード表の読み取りに失敗: %v", ErrUnavailable, err)
		}
		nodes[id] = addr
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nodes, nil
}

// AllKeys はAPIキー表全体を返す。ノードを持たないキーは空配列になる。
func (s *SQLiteStore) AllKeys(ctx context.Context) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT k.api_key, n.node_id
		FROM api_keys k
		LEFT JOIN api_key_nodes n ON n.api_key = k.api_key
		ORDER BY k.api_key, n.node_id`)
	if err != nil {
		return nil, fmt.Errorf("%w: APIキー表の取得に失敗: %v", ErrUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	keys := make(map[string][]string)
	for rows.Next() {
		var key string
		var nodeID sql.NullString
		if err := rows.Scan(&key, &nodeID); err != nil {
			return nil, fmt.Errorf("%w: APIキー表の読み取りに失敗: %v", ErrUnavailable, err)
		}
		if _, ok := keys[key]; !ok {
			keys[key] = []string{}
		}
		if nodeID.Valid {
			keys[key] = append(keys[key], nodeID.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return keys, nil
}

// ImportTables は2つの表の内容を1トランザクションで置き換える。
// 管理用のコマンドから呼び出すものであり、ゲートウェイはリクエスト処理中に表を書き換えない。
// ノード集合がnilのキーとアドレスが空のノードは登録しない。
func (s *SQLiteStore) ImportTables(ctx context.Context, keys map[string][]string, nodes map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, stmt := range []string{
		"DELETE FROM api_key_nodes",
		"DELETE FROM api_keys",
		"DELETE FROM nodes",
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("既存データの削除に失敗: %w", err)
		}
	}

	for key, ids := range keys {
		if ids == nil {
			continue
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO api_keys (api_key) VALUES (?)", key); err != nil {
			return fmt.Errorf("APIキーの登録に失敗: %w", err)
		}
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO api_key_nodes (api_key, node_id) VALUES (?, ?)", key, id); err != nil {
				return fmt.Errorf("APIキーのノード登録に失敗: %w", err)
			}
		}
	}
	for id, addr := range nodes {
		if addr == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO nodes (node_id, address) VALUES (?, ?)", id, addr); err != nil {
			return fmt.Errorf("ノードの登録に失敗: %w", err)
		}
	}
	return tx.Commit()
}
