package orchestrator

import (
	"context"
	"sync"

	"github.com/shouni/go-chara-asset-kit/pkg/adapters"
	"github.com/shouni/go-chara-asset-kit/pkg/domain"
)

// --- 関数フィールド式のモック群なのだ ---

type mockGenerationClient struct {
	mu       sync.Mutex
	calls    []adapters.GenerateParams
	generate func(ctx context.Context, p adapters.GenerateParams) (*adapters.GeneratedImage, error)
}

func (m *mockGenerationClient) Generate(ctx context.Context, p adapters.GenerateParams) (*adapters.GeneratedImage, error) {
	m.mu.Lock()
	m.calls = append(m.calls, p)
	m.mu.Unlock()
	if m.generate != nil {
		return m.generate(ctx, p)
	}
	return &adapters.GeneratedImage{Data: []byte("fake-png"), MimeType: "image/png", GenerationTimeMs: 10}, nil
}

func (m *mockGenerationClient) referenceIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.calls))
	for _, c := range m.calls {
		ids = append(ids, c.ReferenceAssetID)
	}
	return ids
}

type mockAnalysisClient struct {
	mu          sync.Mutex
	uploadCount int
	upload      func(ctx context.Context, data []byte) (*adapters.UploadResult, error)
	quality     func(ctx context.Context, assetID string) (int, error)
	consistency func(ctx context.Context, referenceAssetID, candidateAssetID string) (*adapters.ConsistencyResult, error)
}

func (m *mockAnalysisClient) UploadAndExtract(ctx context.Context, data []byte) (*adapters.UploadResult, error) {
	m.mu.Lock()
	m.uploadCount++
	n := m.uploadCount
	m.mu.Unlock()
	if m.upload != nil {
		return m.upload(ctx, data)
	}
	return &adapters.UploadResult{AssetID: candidateID(n)}, nil
}

func (m *mockAnalysisClient) ScoreQuality(ctx context.Context, assetID string) (int, error) {
	if m.quality != nil {
		return m.quality(ctx, assetID)
	}
	return 90, nil
}

func (m *mockAnalysisClient) ScoreConsistency(ctx context.Context, referenceAssetID, candidateAssetID string) (*adapters.ConsistencyResult, error) {
	if m.consistency != nil {
		return m.consistency(ctx, referenceAssetID, candidateAssetID)
	}
	return &adapters.ConsistencyResult{ConsistencyScore: 95, SameSubject: true, Confidence: 0.99}, nil
}

func candidateID(n int) string {
	return "cand_" + string(rune('0'+n))
}

type mockAssetStore struct {
	mu     sync.Mutex
	stored []domain.ReferenceAsset
	audits map[string][]domain.Attempt
	create func(ctx context.Context, characterID string, asset domain.ReferenceAsset, data []byte) (string, error)
}

func newMockAssetStore() *mockAssetStore {
	return &mockAssetStore{audits: make(map[string][]domain.Attempt)}
}

func (m *mockAssetStore) CreateReferenceAsset(ctx context.Context, characterID string, asset domain.ReferenceAsset, data []byte) (string, error) {
	if m.create != nil {
		return m.create(ctx, characterID, asset, data)
	}
	m.mu.Lock()
	m.stored = append(m.stored, asset)
	m.mu.Unlock()
	return asset.ID, nil
}

func (m *mockAssetStore) AppendAttemptAudit(ctx context.Context, requestID string, attempt domain.Attempt) error {
	m.mu.Lock()
	m.audits[requestID] = append(m.audits[requestID], attempt)
	m.mu.Unlock()
	return nil
}

func (m *mockAssetStore) auditCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, a := range m.audits {
		total += len(a)
	}
	return total
}
