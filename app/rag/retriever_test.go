package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"HeroChatAI/app/errs"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) HasPartition(ctx context.Context, partition string) (bool, error) {
	args := m.Called(ctx, partition)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) CreatePartition(ctx context.Context, partition string, dimension int) error {
	return m.Called(ctx, partition, dimension).Error(0)
}

func (m *mockStore) Upsert(ctx context.Context, partition string, docs []Document) error {
	return m.Called(ctx, partition, docs).Error(0)
}

func (m *mockStore) Query(ctx context.Context, partition string, vector []float32, k int) ([]Document, error) {
	args := m.Called(ctx, partition, vector, k)
	docs, _ := args.Get(0).([]Document)
	return docs, args.Error(1)
}

func (m *mockStore) Close() error { return nil }

func TestRetrieverReturnsPartitionDocuments(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seed(t, store, "Batman", Document{ID: "b1", Content: "I'm Batman.", Vector: []float32{1, 0, 0}})
	seed(t, store, "Superman", Document{ID: "s1", Content: "Kneel.", Vector: []float32{1, 0, 0}})

	docs, err := NewRetriever(store).Retrieve(ctx, []float32{1, 0, 0}, "Batman", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, ids(docs))
}

func TestRetrieverEmptyPartitionIsNotAnError(t *testing.T) {
	store := newTestStore(t)
	seed(t, store, "Batman")

	docs, err := NewRetriever(store).Retrieve(context.Background(), []float32{1, 0, 0}, "Batman", 5)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestRetrieverMissingPartition(t *testing.T) {
	store := newTestStore(t)

	_, err := NewRetriever(store).Retrieve(context.Background(), []float32{1, 0, 0}, "Aquaman", 5)
	assert.ErrorIs(t, err, errs.ErrRetrievalService)
}

func TestRetrieverRejectsBadArguments(t *testing.T) {
	r := NewRetriever(newTestStore(t))
	ctx := context.Background()

	_, err := r.Retrieve(ctx, []float32{1}, "", 5)
	assert.ErrorIs(t, err, errs.ErrRetrievalService)
	_, err = r.Retrieve(ctx, []float32{1}, "Batman", 0)
	assert.ErrorIs(t, err, errs.ErrRetrievalService)
	_, err = r.Retrieve(ctx, nil, "Batman", 5)
	assert.ErrorIs(t, err, errs.ErrRetrievalService)
}

func TestRetrieverStoreFailures(t *testing.T) {
	ctx := context.Background()
	unreachable := errors.New("dial tcp: connection refused")

	store := &mockStore{}
	store.On("HasPartition", ctx, "Batman").Return(false, unreachable).Once()
	_, err := NewRetriever(store).Retrieve(ctx, []float32{1}, "Batman", 5)
	assert.ErrorIs(t, err, errs.ErrRetrievalService)
	assert.ErrorIs(t, err, unreachable)

	store = &mockStore{}
	store.On("HasPartition", ctx, "Batman").Return(true, nil)
	store.On("Query", ctx, "Batman", []float32{1}, 2).Return(nil, unreachable)
	_, err = NewRetriever(store).Retrieve(ctx, []float32{1}, "Batman", 2)
	assert.ErrorIs(t, err, errs.ErrRetrievalService)
	store.AssertExpectations(t)
}

func TestRetrieverCapsResultsAtTopK(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{}
	store.On("HasPartition", ctx, "Batman").Return(true, nil)
	store.On("Query", ctx, "Batman", []float32{1}, 1).Return([]Document{{ID: "a"}, {ID: "b"}}, nil)

	docs, err := NewRetriever(store).Retrieve(ctx, []float32{1}, "Batman", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(docs))
}
