package access

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenStore は常に読み込み失敗を返すStore。
type brokenStore struct{}

func (brokenStore) NodesForKey(context.Context, string) (NodeSet, error) {
	return nil, fmt.Errorf("%w: broken", ErrUnavailable)
}

func (brokenStore) AddressForNode(context.Context, string) (string, error) {
	return "", fmt.Errorf("%w: broken", ErrUnavailable)
}

func (brokenStore) AllNodeAddresses(context.Context) (map[string]string, error) {
	return nil, fmt.Errorf("%w: broken", ErrUnavailable)
}

func (brokenStore) AllKeys(context.Context) (map[string][]string, error) {
	return nil, fmt.Errorf("%w: broken", ErrUnavailable)
}

func newTestGate() *Gate {
	return NewGate(NewMemoryStore(
		map[string][]string{
			"master": {"0"},
			"one":    {"1"},
			"two":    {"1", "2"},
			"ghost":  {"9"},
		},
		map[string]string{
			"1": "10.0.0.1:8080",
			"2": "10.0.0.2:8080",
		},
	))
}

// TestGateAuthorize はAPIキーと対象ノードによる認可判定を検証する。
func TestGateAuthorize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		apiKey string
		target string
		want   Decision
	}{
		{name: "不明なキーは拒否されること", apiKey: "nobody", target: "", want: DeniedUnknownKey},
		{name: "空のキーは拒否されること", apiKey: "", target: "", want: DeniedUnknownKey},
		{name: "対象を指定しない場合は既知のキーを許可すること", apiKey: "one", target: "", want: Allowed},
		{name: "ワイルドカードは任意のノードを許可すること", apiKey: "master", target: "2", want: Allowed},
		{name: "ワイルドカードは表に無いノードも許可すること", apiKey: "master", target: "42", want: Allowed},
		{name: "列挙されたノードを許可すること", apiKey: "two", target: "2", want: Allowed},
		{name: "列挙されていないノードは拒否されること", apiKey: "one", target: "2", want: DeniedUnauthorized},
		{name: "列挙されていない存在しないノードも拒否されること", apiKey: "one", target: "42", want: DeniedUnauthorized},
		{name: "ワイルドカードを対象に指定できないこと", apiKey: "master", target: "0", want: DeniedUnknownNode},
		{name: "限定されたキーがワイルドカードを対象にすると拒否されること", apiKey: "one", target: "0", want: DeniedUnauthorized},
	}

	g := newTestGate()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, _, err := g.Authorize(context.Background(), tt.apiKey, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "got %s, want %s", got, tt.want)
		})
	}

	t.Run("許可した場合はノード集合を返すこと", func(t *testing.T) {
		t.Parallel()

		_, nodes, err := g.Authorize(context.Background(), "two", "")
		require.NoError(t, err)
		assert.Equal(t, NodeSet{"1", "2"}, nodes)
	})

	t.Run("表の読み込みに失敗した場合はエラーを返すこと", func(t *testing.T) {
		t.Parallel()

		_, _, err := NewGate(brokenStore{}).Authorize(context.Background(), "master", "")
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}

// TestDecide は明示的に指定された対象ノードの判定を検証する。
func TestDecide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		nodes  NodeSet
		target string
		want   Decision
	}{
		{name: "空のノードIDは集合に無ければ拒否されること", nodes: NodeSet{"1"}, target: "", want: DeniedUnauthorized},
		{name: "空の集合は空のノードIDも拒否すること", nodes: NodeSet{}, target: "", want: DeniedUnauthorized},
		{name: "ワイルドカードは空のノードIDも許可すること", nodes: NodeSet{"0"}, target: "", want: Allowed},
		{name: "限定された集合はワイルドカードの指定を拒否すること", nodes: NodeSet{"1"}, target: "0", want: DeniedUnauthorized},
		{name: "ワイルドカードの集合はワイルドカードの指定を不明なノードとすること", nodes: NodeSet{"0"}, target: "0", want: DeniedUnknownNode},
		{name: "集合に含まれるノードを許可すること", nodes: NodeSet{"1"}, target: "1", want: Allowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Decide(tt.nodes, tt.target)
			assert.Equal(t, tt.want, got, "got %s, want %s", got, tt.want)
		})
	}
}

// TestGateResolve はノードアドレスの解決を検証する。
func TestGateResolve(t *testing.T) {
	t.Parallel()

	g := newTestGate()

	t.Run("存在するノードのアドレスを返すこと", func(t *testing.T) {
		t.Parallel()

		addr, decision, err := g.Resolve(context.Background(), "1")
		require.NoError(t, err)
		assert.Equal(t, Allowed, decision)
		assert.Equal(t, "10.0.0.1:8080", addr)
	})

	t.Run("存在しないノードはDeniedUnknownNodeを返すこと", func(t *testing.T) {
		t.Parallel()

		_, decision, err := g.Resolve(context.Background(), "9")
		require.NoError(t, err)
		assert.Equal(t, DeniedUnknownNode, decision)
	})

	t.Run("ワイルドカードは表を参照せずDeniedUnknownNodeを返すこと", func(t *testing.T) {
		t.Parallel()

		_, decision, err := NewGate(brokenStore{}).Resolve(context.Background(), "0")
		require.NoError(t, err)
		assert.Equal(t, DeniedUnknownNode, decision)
	})

	t.Run("表の読み込みに失敗した場合はエラーを返すこと", func(t *testing.T) {
		t.Parallel()

		_, _, err := NewGate(brokenStore{}).Resolve(context.Background(), "1")
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}

// TestDecisionString は判定結果の文字列表現を検証する。
func TestDecisionString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "allowed", Allowed.String())
	assert.Equal(t, "denied_unknown_key", DeniedUnknownKey.String())
	assert.Equal(t, "denied_unauthorized", DeniedUnauthorized.String())
	assert.Equal(t, "denied_unknown_node", DeniedUnknownNode.String())
	assert.Equal(t, "decision(99)", Decision(99).String())
}

// TestMemoryStore はMemoryStoreが渡された表を複製して保持することを検証する。
func TestMemoryStore(t *testing.T) {
	t.Parallel()

	keys := map[string][]string{"k": {"1"}}
	nodes := map[string]string{"1": "a:1"}
	s := NewMemoryStore(keys, nodes)

	keys["k"][0] = "2"
	nodes["2"] = "b:2"

	got, err := s.NodesForKey(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, NodeSet{"1"}, got)

	all, err := s.AllNodeAddresses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"1": "a:1"}, all)

	empty := NewMemoryStore(nil, nil)
	all, err = empty.AllNodeAddresses(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)

	nulled := NewMemoryStore(map[string][]string{"k": nil}, map[string]string{"1": ""})
	_, err = nulled.NodesForKey(context.Background(), "k")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = nulled.AddressForNode(context.Background(), "1")
	assert.ErrorIs(t, err, ErrNotFound)
}
