package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shouni/go-chara-asset-kit/pkg/domain"
)

func TestConsistencyGate_Evaluate(t *testing.T) {
	g := New()
	th := domain.Thresholds{Quality: 70, Consistency: 80}

	t.Run("両方のしきい値以上なら合格すること", func(t *testing.T) {
		d := g.Evaluate(70, 80, th)
		assert.True(t, d.Accepted)
		assert.Empty(t, d.Reason)
	})

	t.Run("品質だけ足りない場合は不合格になること", func(t *testing.T) {
		d := g.Evaluate(65, 92, th)
		assert.False(t, d.Accepted)
		assert.Equal(t, "quality 65/70, consistency 92/80", d.Reason)
	})

	t.Run("一貫性だけ足りない場合は不合格になること", func(t *testing.T) {
		d := g.Evaluate(85, 79, th)
		assert.False(t, d.Accepted)
		assert.Equal(t, "quality 85/70, consistency 79/80", d.Reason)
	})

	t.Run("しきい値0はすべてを合格させること", func(t *testing.T) {
		d := g.Evaluate(0, 0, domain.Thresholds{Quality: 0, Consistency: 0})
		assert.True(t, d.Accepted)
	})

	t.Run("同じ入力には常に同じ判定を返すこと", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			assert.Equal(t, g.Evaluate(69, 80, th), g.Evaluate(69, 80, th))
		}
	})
}
