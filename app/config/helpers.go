package config

import (
	"time"
)

// GetFetchTimeout returns the per-source fetch timeout as time.Duration
func (s *Settings) GetFetchTimeout() time.Duration {
	if s.FetchTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.FetchTimeout) * time.Second
}

// GetPublishTimeout returns the per-item publish timeout as time.Duration
func (s *Settings) GetPublishTimeout() time.Duration {
	if s.PublishTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.PublishTimeout) * time.Second
}

// GetTimestampGranularity returns the timestamp fingerprint rounding window
func (s *Settings) GetTimestampGranularity() time.Duration {
	if s.TimestampGranularity <= 0 {
		return 300 * time.Second
	}
	return time.Duration(s.TimestampGranularity) * time.Second
}

// GetDedupHorizon returns the eviction horizon, or zero when eviction is
// disabled. An unparseable value also disables eviction; validation rejects
// it at load time.
func (s *Settings) GetDedupHorizon() time.Duration {
	if s.DedupHorizon == "" {
		return 0
	}
	horizon, err := time.ParseDuration(s.DedupHorizon)
	if err != nil {
		return 0
	}
	return horizon
}
