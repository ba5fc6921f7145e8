package rag

import "context"

// Document is a dialogue snippet stored in a character partition.
type Document struct {
	ID       string
	Content  string
	Score    float32
	Metadata map[string]any
	Vector   []float32
}

// Retriever returns at most topK documents of a partition, most similar first.
type Retriever interface {
	Retrieve(ctx context.Context, embedding []float32, partition string, topK int) ([]Document, error)
}

// Store is a vector store split into one partition per character.
type Store interface {
	HasPartition(ctx context.Context, partition string) (bool, error)
	CreatePartition(ctx context.Context, partition string, dimension int) error
	Upsert(ctx context.Context, partition string, docs []Document) error
	Query(ctx context.Context, partition string, vector []float32, k int) ([]Document, error)
	Close() error
}
