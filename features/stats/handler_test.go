package stats

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"devkb/features/document"
)

type MockDocumentRepo struct {
	mock.Mock
}

func (m *MockDocumentRepo) Stats(ctx context.Context) (*document.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.Stats), args.Error(1)
}

type MockConversationRepo struct {
	mock.Mock
}

func (m *MockConversationRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockVectorStore struct {
	mock.Mock
}

func (m *MockVectorStore) CountChunks(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func docStats() *document.Stats {
	return &document.Stats{
		TotalDocuments: 12,
		TotalChunks:    48,
		Categories:     map[string]int{"api": 5, "testing": 7},
		Languages:      map[string]int{"python": 8, "go": 4},
		Tags:           map[string]int{"python": 8, "api": 5},
	}
}

func TestGetStats(t *testing.T) {
	mockDocs := new(MockDocumentRepo)
	mockConvs := new(MockConversationRepo)
	mockVecs := new(MockVectorStore)
	handler := NewHandler(mockDocs, mockConvs, mockVecs)

	mockDocs.On("Stats", mock.Anything).Return(docStats(), nil)
	mockConvs.On("Count", mock.Anything).Return(3, nil)
	mockVecs.On("CountChunks", mock.Anything).Return(48, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	rec := httptest.NewRecorder()
	handler.GetStats(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data StatsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 12, body.Data.TotalDocuments)
	assert.Equal(t, 48, body.Data.TotalChunks)
	assert.Equal(t, 3, body.Data.TotalConversations)
	assert.Equal(t, 48, body.Data.TotalEmbeddings)
	assert.Equal(t, 5, body.Data.Categories["api"])
	assert.Equal(t, 8, body.Data.Languages["python"])
	assert.Equal(t, 8, body.Data.Tags["python"])
}

func TestGetStats_VectorStoreFailureReportsZero(t *testing.T) {
	mockDocs := new(MockDocumentRepo)
	mockConvs := new(MockConversationRepo)
	mockVecs := new(MockVectorStore)
	handler := NewHandler(mockDocs, mockConvs, mockVecs)

	mockDocs.On("Stats", mock.Anything).Return(docStats(), nil)
	mockConvs.On("Count", mock.Anything).Return(3, nil)
	mockVecs.On("CountChunks", mock.Anything).Return(0, errors.New("weaviate unreachable"))

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	rec := httptest.NewRecorder()
	handler.GetStats(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data StatsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 0, body.Data.TotalEmbeddings)
	assert.Equal(t, 12, body.Data.TotalDocuments)
}

func TestGetStats_DocumentStatsFailure(t *testing.T) {
	mockDocs := new(MockDocumentRepo)
	handler := NewHandler(mockDocs, new(MockConversationRepo), new(MockVectorStore))

	mockDocs.On("Stats", mock.Anything).Return(nil, errors.New("db down"))

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	rec := httptest.NewRecorder()
	handler.GetStats(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	errObj := body["error"].(map[string]interface{})
	assert.Equal(t, "INTERNAL_ERROR", errObj["code"])
}
