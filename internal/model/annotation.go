package model

import "time"

// AnnotatedQuestion is a finished multi-hop annotation. Immutable once
// created; the store keeps an append-only log.
type AnnotatedQuestion struct {
	ID        int64         `json:"id"`
	Query     string        `json:"query"`
	Answer    string        `json:"answer"`
	Annotator string        `json:"annotator"`
	Records   []ClaimRecord `json:"records"`
	Timestamp time.Time     `json:"timestamp"`
}

// AnnotatorCount is one row of the per-annotator statistics, ordered by
// descending count.
type AnnotatorCount struct {
	Annotator string `json:"annotator"`
	Count     int    `json:"count"`
}
