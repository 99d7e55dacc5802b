package access

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// FileStore はJSONファイルで管理される2つの表を参照するStore。
// 参照のたびにファイルを読み直すため、表の更新は再起動なしで次のリクエストから反映される。
type FileStore struct {
	// keyFile はAPIキー表のパス（例: api.conf）。
	keyFile string
	// nodeFile はノード表のパス（例: nodes.conf）。
	nodeFile string
}

var _ Store = (*FileStore)(nil)

// NewFileStore は新しいFileStoreを生成する。
func NewFileStore(keyFile, nodeFile string) *FileStore {
	return &FileStore{keyFile: keyFile, nodeFile: nodeFile}
}

// NodesForKey はAPIキーに許可されたノードIDの集合を返す。
func (s *FileStore) NodesForKey(_ context.Context, apiKey string) (NodeSet, error) {
	keys, err := readTable[[]string](s.keyFile)
	if err != nil {
		return nil, err
	}
	nodes, ok := keys[apiKey]
	if !ok || nodes == nil {
		// null の値はキーが無いものとみなす
		return nil, ErrNotFound
	}
	return NodeSet(nodes), nil
}

// AddressForNode はノードIDに対応するアドレスを返す。
func (s *FileStore) AddressForNode(_ context.Context, nodeID string) (string, error) {
	nodes, err := readTable[string](s.nodeFile)
	if err != nil {
		return "", err
	}
	addr, ok := nodes[nodeID]
	if !ok || addr == "" {
		return "", ErrNotFound
	}
	return addr, nil
}

// AllNodeAddresses はノード表全体を返す。
func (s *FileStore) AllNodeAddresses(_ context.Context) (map[string]string, error) {
	return readTable[string](s.nodeFile)
}

// AllKeys はAPIキー表全体を返す。
func (s *FileStore) AllKeys(_ context.Context) (map[string][]string, error) {
	return readTable[[]string](s.keyFile)
}

// readTable はJSONオブジェクト形式の表を読み込む。
// 読み込み・パースの失敗はすべてErrUnavailableでラップする。
func readTable[V any](path string) (map[string]V, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s の読み込みに失敗: %v", ErrUnavailable, path, err)
	}
	var table map[string]V
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("%w: %s のパースに失敗: %v", ErrUnavailable, path, err)
	}
	if table == nil {
		// "null" のみのファイルは空の表とみなす
		table = map[string]V{}
	}
	return table, nil
}
