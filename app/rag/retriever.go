package rag

import (
	"context"
	"log"

	"HeroChatAI/app/errs"
)

var _ Retriever = &StoreRetriever{}

// StoreRetriever serves retrieval requests from a Store. Partitions are never
// created or written here.
type StoreRetriever struct {
	store Store
}

func NewRetriever(store Store) *StoreRetriever {
	return &StoreRetriever{store: store}
}

func (r *StoreRetriever) Retrieve(ctx context.Context, embedding []float32, partition string, topK int) ([]Document, error) {
	const op = "rag.Retrieve"
	if partition == "" {
		return nil, errs.New(errs.ErrRetrievalService, op, "empty partition name")
	}
	if topK <= 0 {
		return nil, errs.New(errs.ErrRetrievalService, op, "topK must be positive, got %d", topK)
	}
	if len(embedding) == 0 {
		return nil, errs.New(errs.ErrRetrievalService, op, "empty query embedding")
	}

	exists, err := r.store.HasPartition(ctx, partition)
	if err != nil {
		return nil, errs.Wrap(errs.ErrRetrievalService, op, err)
	}
	if !exists {
		return nil, errs.New(errs.ErrRetrievalService, op, "partition %q does not exist", partition)
	}

	docs, err := r.store.Query(ctx, partition, embedding, topK)
	if err != nil {
		return nil, errs.Wrap(errs.ErrRetrievalService, op, err)
	}
	if len(docs) > topK {
		docs = docs[:topK]
	}
	if len(docs) == 0 {
		log.Printf("⚠️ No documents retrieved from partition %s", partition)
	}
	return docs, nil
}
