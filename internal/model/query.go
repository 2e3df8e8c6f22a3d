package model

import "time"

// ServerProvider identifies which public operator a pinned resolver IP
// belongs to (C9's fixed six-resolver pool).
type ServerProvider string

const (
	ServerGoogle     ServerProvider = "google"
	ServerCloudflare ServerProvider = "cloudflare"
	ServerOpenDNS    ServerProvider = "opendns"
)

// PerServerQueryResult is one resolver probe against a single pinned
// server.
type PerServerQueryResult struct {
	Server          string
	Provider        ServerProvider
	Success         bool
	Records         []string
	MatchesExpected bool
	Error           error
	QueriedAt       time.Time
	ResponseTime    time.Duration
}

// MultiServerQueryResult is the fan-out across the whole resolver pool
// for a single query (C9).
type MultiServerQueryResult struct {
	Results               []PerServerQueryResult
	PropagationPercentage int
	PropagatedServers     int
	TotalServers          int
	IsPropagated          bool
	QueriedAt             time.Time
}

// ServerBucket partitions a resolver pool's responses for one record
// into three disjoint sets (spec.md §3 "Record propagation status").
type ServerBucket string

const (
	BucketCorrect ServerBucket = "correct"
	BucketMissing ServerBucket = "missing"
	BucketWrong   ServerBucket = "wrong"
)

// RecordPropagationStatus is the propagation checker's (C10) per-record
// result across the resolver pool.
type RecordPropagationStatus struct {
	RecordID              string
	PropagatedServers     int
	TotalServers          int
	PropagationPercentage int
	Correct               []string
	Missing               []string
	Wrong                 []string
	CheckedAt             time.Time
}

// GlobalCoverage is the aggregate of calculateGlobalCoverage across a set
// of RecordPropagationStatus values (C10).
type GlobalCoverage struct {
	MeanPercentage int
	FullyPropagated int // count at 100%
	Partial         int // count in (0, 100)
	NotPropagated   int // count at 0
}
