// Package docdex provides the indexing and retrieval core of a local
// documentation question-answering assistant. It chunks raw documents into
// bounded units, caches embeddings to avoid recomputation, persists vectors
// in a concurrency-safe store, and serves ranked, diversified search results
// to an answer generator.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency or concern (e.g., sqlite/, cache/, gemini/).
package docdex
