package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-chara-asset-kit/pkg/domain"
	"github.com/shouni/go-chara-asset-kit/pkg/ranker"
)

func selectorPool() domain.ReferencePool {
	base := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	return domain.ReferencePool{
		{ID: "master", Kind: domain.KindMaster, QualityScore: 95, ConsistencyScore: 100, CreatedAt: base},
		{ID: "core", Kind: domain.KindCoreSet, QualityScore: 88, ConsistencyScore: 92, CreatedAt: base.Add(time.Hour)},
		{ID: "gen", Kind: domain.KindGenerated, QualityScore: 82, ConsistencyScore: 86, CreatedAt: base.Add(2 * time.Hour)},
	}
}

func newTestSelector(pool domain.ReferencePool) *referenceSelector {
	return newReferenceSelector(ranker.New(ranker.DefaultWeights()), pool, domain.PromptProfile{})
}

func TestReferenceSelector_Next(t *testing.T) {
	t.Run("空のプールは ErrNoReferenceAvailable を返すこと", func(t *testing.T) {
		s := newTestSelector(domain.ReferencePool{})
		_, err := s.next(1)
		assert.ErrorIs(t, err, domain.ErrNoReferenceAvailable)
	})

	t.Run("試行1は最上位ランクを選ぶこと", func(t *testing.T) {
		s := newTestSelector(selectorPool())
		ref, err := s.next(1)
		require.NoError(t, err)
		assert.Equal(t, "master", ref.ID)
	})

	t.Run("試行2は未使用のマスターを強制選択すること", func(t *testing.T) {
		// マスターがランキング上位に来ないよう、種別の基礎点を逆転させた重みを使うのだ
		w := ranker.DefaultWeights()
		w.KindMaster = 1
		w.KindGenerated = 20
		s := newReferenceSelector(ranker.New(w), selectorPool(), domain.PromptProfile{})

		first, err := s.next(1)
		require.NoError(t, err)
		assert.Equal(t, "gen", first.ID)

		second, err := s.next(2)
		require.NoError(t, err)
		assert.Equal(t, "master", second.ID, "attempt 2 must force the canonical master")
	})

	t.Run("マスター使用済みなら試行2はランキングにフォールバックすること", func(t *testing.T) {
		s := newTestSelector(selectorPool())

		first, err := s.next(1)
		require.NoError(t, err)
		require.Equal(t, "master", first.ID)

		second, err := s.next(2)
		require.NoError(t, err)
		assert.Equal(t, "core", second.ID)
	})

	t.Run("使用済みを除外しながら順位順に進むこと", func(t *testing.T) {
		s := newTestSelector(selectorPool())

		var ids []string
		for attempt := 1; attempt <= 3; attempt++ {
			ref, err := s.next(attempt)
			require.NoError(t, err)
			ids = append(ids, ref.ID)
		}
		assert.Equal(t, []string{"master", "core", "gen"}, ids)
	})

	t.Run("枯渇後は順位順で再利用が始まること", func(t *testing.T) {
		s := newTestSelector(selectorPool())

		var ids []string
		for attempt := 1; attempt <= 5; attempt++ {
			ref, err := s.next(attempt)
			require.NoError(t, err)
			ids = append(ids, ref.ID)
		}
		assert.Equal(t, []string{"master", "core", "gen", "master", "core"}, ids)
	})

	t.Run("マスターのいないプールでも動作すること", func(t *testing.T) {
		pool := domain.ReferencePool{selectorPool()[1], selectorPool()[2]}
		s := newTestSelector(pool)

		first, err := s.next(1)
		require.NoError(t, err)
		assert.Equal(t, "core", first.ID)

		second, err := s.next(2)
		require.NoError(t, err)
		assert.Equal(t, "gen", second.ID, "no master means attempt 2 falls back to ranking")
	})
}
