package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNodeSet はNodeSetの判定と絞り込みを検証する。
func TestNodeSet(t *testing.T) {
	t.Parallel()

	nodes := map[string]string{
		"0": "reserved:1",
		"1": "10.0.0.1:8080",
		"2": "10.0.0.2:8080",
	}

	t.Run("ワイルドカードを含む集合はすべてのノードを許可すること", func(t *testing.T) {
		t.Parallel()

		s := NodeSet{"0"}
		assert.True(t, s.Wildcard())
		assert.True(t, s.Allows("1"))
		assert.True(t, s.Allows("999"))
	})

	t.Run("ワイルドカードは対象として許可されないこと", func(t *testing.T) {
		t.Parallel()

		assert.False(t, NodeSet{"0"}.Allows("0"))
		assert.False(t, NodeSet{"0", "1"}.Allows("0"))
	})

	t.Run("他のIDと併記されてもワイルドカードは有効であること", func(t *testing.T) {
		t.Parallel()

		s := NodeSet{"3", "0"}
		assert.True(t, s.Wildcard())
		assert.True(t, s.Allows("1"))
	})

	t.Run("限定された集合は列挙されたIDのみ許可すること", func(t *testing.T) {
		t.Parallel()

		s := NodeSet{"1"}
		assert.False(t, s.Wildcard())
		assert.True(t, s.Allows("1"))
		assert.False(t, s.Allows("2"))
		assert.False(t, s.Allows("10"))
	})

	t.Run("空の集合は何も許可しないこと", func(t *testing.T) {
		t.Parallel()

		s := NodeSet{}
		assert.False(t, s.Allows("1"))
		assert.Empty(t, s.Filter(nodes))
	})

	t.Run("ワイルドカードの集合には表全体を返すこと", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, nodes, NodeSet{"0"}.Filter(nodes))
	})

	t.Run("限定された集合には許可されたノードのみを返すこと", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, map[string]string{"1": "10.0.0.1:8080"}, NodeSet{"1"}.Filter(nodes))
		assert.Equal(t, map[string]string{
			"1": "10.0.0.1:8080",
			"2": "10.0.0.2:8080",
		}, NodeSet{"1", "2", "7"}.Filter(nodes))
	})

	t.Run("Filterは元の表を変更しないこと", func(t *testing.T) {
		t.Parallel()

		src := map[string]string{"1": "a:1", "2": "b:2"}
		out := NodeSet{"1"}.Filter(src)
		out["9"] = "c:3"
		assert.Len(t, src, 2)
	})
}
