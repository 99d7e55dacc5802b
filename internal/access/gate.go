package access

import (
	"context"
	"errors"
	"fmt"
)

// Decision はリクエスト単位の認可判定結果。永続化しない。
type Decision int

const (
	// Allowed はアクセスを許可する。
	Allowed Decision = iota
	// DeniedUnknownKey はAPIキーが表に存在しない。
	DeniedUnknownKey
	// DeniedUnauthorized はAPIキーが対象ノードへのアクセスを許可されていない。
	DeniedUnauthorized
	// DeniedUnknownNode は対象ノードIDが実在するノードを指していない。
	DeniedUnknownNode
)

// String は判定結果の名前を返す。
func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case DeniedUnknownKey:
		return "denied_unknown_key"
	case DeniedUnauthorized:
		return "denied_unauthorized"
	case DeniedUnknownNode:
		return "denied_unknown_node"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Gate はStoreを用いてAPIキーの認可判定とノードアドレスの解決を行う。
type Gate struct {
	store Store
}

// NewGate は新しいGateを生成する。
func NewGate(store Store) *Gate {
	return &Gate{store: store}
}

// Authorize はAPIキーが対象ノードにアクセスできるかを判定する。
// targetが空の場合は一覧系の操作とみなし、キーが既知であれば許可する。
// 許可された場合は、呼び出し側が開示内容を絞り込めるようにノード集合も返す。
// 表の読み込みに失敗した場合はエラーを返す。
func (g *Gate) Authorize(ctx context.Context, apiKey, target string) (Decision, NodeSet, error) {
	nodes, err := g.store.NodesForKey(ctx, apiKey)
	if errors.Is(err, ErrNotFound) {
		return DeniedUnknownKey, nil, nil
	}
	if err != nil {
		return DeniedUnknownKey, nil, fmt.Errorf("APIキーの参照に失敗: %w", err)
	}
	if target == "" {
		return Allowed, nodes, nil
	}

	return Decide(nodes, target), nodes, nil
}

// Decide は取得済みのノード集合に対して、明示的に指定された対象ノードへのアクセス可否を判定する。
// 空文字列も1つのノードIDとして扱い、集合に含まれていなければ拒否する。
func Decide(nodes NodeSet, target string) Decision {
	switch {
	case target == WildcardNodeID && nodes.Wildcard():
		// ワイルドカードはノード集合の中でのみ意味を持ち、対象として指定できない
		return DeniedUnknownNode
	case !nodes.Allows(target):
		return DeniedUnauthorized
	default:
		return Allowed
	}
}

// Resolve はノードIDをアドレスに解決する。
// ノードが存在しない場合はDeniedUnknownNodeを返す。
func (g *Gate) Resolve(ctx context.Context, nodeID string) (string, Decision, error) {
	if nodeID == WildcardNodeID {
		return "", DeniedUnknownNode, nil
	}
	addr, err := g.store.AddressForNode(ctx, nodeID)
	if errors.Is(err, ErrNotFound) {
		return "", DeniedUnknownNode, nil
	}
	if err != nil {
		return "", DeniedUnknownNode, fmt.Errorf("ノードアドレスの参照に失敗: %w", err)
	}
	return addr, Allowed, nil
}
