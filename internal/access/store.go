package access

import (
	"context"
	"errors"
	"slices"
)

// WildcardNodeID は全ノードへのアクセスを表す予約済みノードID。
// 実在するノードを指すことはない。
const WildcardNodeID = "0"

var (
	// ErrNotFound はAPIキーまたはノードIDが表に存在しないことを示す。
	ErrNotFound = errors.New("access: not found")
	// ErrUnavailable は表の読み込みまたはパースに失敗したことを示す。
	ErrUnavailable = errors.New("access: table unavailable")
)

// Store はAPIキー表とノード表を参照する読み取り専用のリポジトリ。
// 実装は表を変更してはならない。
type Store interface {
	// NodesForKey はAPIキーに許可されたノードIDの集合を返す。
	NodesForKey(ctx context.Context, apiKey string) (NodeSet, error)
	// AddressForNode はノードIDに対応するアドレス（host:port）を返す。
	AddressForNode(ctx context.Context, nodeID string) (string, error)
	// AllNodeAddresses はノード表全体を返す。
	AllNodeAddresses(ctx context.Context) (map[string]string, error)
	// AllKeys はAPIキー表全体を返す。
	AllKeys(ctx context.Context) (map[string][]string, error)
}

// NodeSet はAPIキーに許可されたノードIDの集合。
type NodeSet []string

// Wildcard は集合がワイルドカードを含むかを返す。
func (s NodeSet) Wildcard() bool {
	return slices.Contains(s, WildcardNodeID)
}

// Allows は指定ノードへのアクセスが許可されているかを返す。
func (s NodeSet) Allows(nodeID string) bool {
	if nodeID == WildcardNodeID {
		return false
	}
	return s.Wildcard() || slices.Contains(s, nodeID)
}

// Filter はノード表から集合に含まれるIDの行だけを残した新しいマップを返す。
// ワイルドカードを含む集合には表全体のコピーを返す。
func (s NodeSet) Filter(nodes map[string]string) map[string]string {
	out := make(map[string]string, len(nodes))
	wildcard := s.Wildcard()
	for id, addr := range nodes {
		if wildcard || (id != WildcardNodeID && slices.Contains(s, id)) {
			out[id] = addr
		}
	}
	return out
}
