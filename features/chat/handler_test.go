package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestHandler(searcher Searcher, gen Generator, repo Repository) *Handler {
	return NewHandler(NewService(searcher, gen, repo))
}

func TestHandler_Ask(t *testing.T) {
	mockSearch := new(MockSearcher)
	mockGen := new(MockGenerator)
	mockRepo := new(MockRepository)
	handler := newTestHandler(mockSearch, mockGen, mockRepo)

	mockSearch.On("Search", mock.Anything, mock.Anything).Return(searchResponse(), nil)
	mockGen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("the answer", nil)
	mockRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"question":"how does login work"}`))
	rec := httptest.NewRecorder()
	handler.Ask(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data Answer `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "the answer", body.Data.Answer)
	require.Len(t, body.Data.Sources, 1)
	assert.Equal(t, "auth/login.py", body.Data.Sources[0].Document.Path)
}

func TestHandler_Ask_EmptyQuestionIs400(t *testing.T) {
	handler := newTestHandler(new(MockSearcher), new(MockGenerator), new(MockRepository))

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"question":""}`))
	rec := httptest.NewRecorder()
	handler.Ask(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	errObj := body["error"].(map[string]interface{})
	assert.Equal(t, "VALIDATION_ERROR", errObj["code"])
	assert.Contains(t, body, "correlationId")
}

func TestHandler_Ask_LLMUnavailableIs503(t *testing.T) {
	mockSearch := new(MockSearcher)
	mockGen := new(MockGenerator)
	handler := newTestHandler(mockSearch, mockGen, new(MockRepository))

	mockSearch.On("Search", mock.Anything, mock.Anything).Return(searchResponse(), nil)
	mockGen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("no api key"))

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"question":"q"}`))
	rec := httptest.NewRecorder()
	handler.Ask(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	errObj := body["error"].(map[string]interface{})
	assert.Equal(t, "SERVICE_UNAVAILABLE", errObj["code"])
}

func TestHandler_History(t *testing.T) {
	mockRepo := new(MockRepository)
	handler := newTestHandler(new(MockSearcher), new(MockGenerator), mockRepo)

	mockRepo.On("Recent", mock.Anything, 20).Return([]Conversation{
		{ID: 1, Query: "q1", Response: "r1"},
		{ID: 2, Query: "q2", Response: "r2"},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/chat/history", nil)
	rec := httptest.NewRecorder()
	handler.History(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []Conversation `json:"data"`
		Meta map[string]int `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 2)
	assert.Equal(t, 2, body.Meta["count"])
}

func TestHandler_History_LimitParam(t *testing.T) {
	mockRepo := new(MockRepository)
	handler := newTestHandler(new(MockSearcher), new(MockGenerator), mockRepo)

	mockRepo.On("Recent", mock.Anything, 5).Return([]Conversation{{ID: 1}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/chat/history?limit=5", nil)
	rec := httptest.NewRecorder()
	handler.History(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	mockRepo.AssertExpectations(t)
}
