package access

import (
	"context"
	"maps"
	"slices"
)

// MemoryStore はメモリ上の表を参照するStore。テストや組み込み用途で使用する。
// 生成後に表を変更しないこと。
type MemoryStore struct {
	keys  map[string][]string
	nodes map[string]string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore は渡された表のコピーを保持するMemoryStoreを生成する。
func NewMemoryStore(keys map[string][]string, nodes map[string]string) *MemoryStore {
	return &MemoryStore{keys: cloneKeys(keys), nodes: maps.Clone(nodes)}
}

// NodesForKey はAPIキーに許可されたノードIDの集合を返す。
func (s *MemoryStore) NodesForKey(_ context.Context, apiKey string) (NodeSet, error) {
	nodes, ok := s.keys[apiKey]
	if !ok || nodes == nil {
		return nil, ErrNotFound
	}
	return NodeSet(slices.Clone(nodes)), nil
}

// AddressForNode はノードIDに対応するアドレスを返す。
func (s *MemoryStore) AddressForNode(_ context.Context, nodeID string) (string, error) {
	addr, ok := s.nodes[nodeID]
	if !ok || addr == "" {
		return "", ErrNotFound
	}
	return addr, nil
}

// AllNodeAddresses はノード表全体のコピーを返す。
func (s *MemoryStore) AllNodeAddresses(_ context.Context) (map[string]string, error) {
	out := maps.Clone(s.nodes)
	if out == nil {
		out = map[string]string{}
	}
	return out, nil
}

// AllKeys はAPIキー表全体のコピーを返す。
func (s *MemoryStore) AllKeys(_ context.Context) (map[string][]string, error) {
	return cloneKeys(s.keys), nil
}

func cloneKeys(keys map[string][]string) map[string][]string {
	out := make(map[string][]string, len(keys))
	for k, v := range keys {
		out[k] = slices.Clone(v)
	}
	return out
}
