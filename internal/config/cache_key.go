package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SectionPayloadKey returns the cache key for a section's raw question payload
func (r *CacheKeyStruct) SectionPayloadKey(sectionID string) string {
	return fmt.Sprintf("section:%s:payload", sectionID)
}

// SessionReportKey returns the cache key for a finished session's report
func (r *CacheKeyStruct) SessionReportKey(sessionID string) string {
	return fmt.Sprintf("session:%s:report", sessionID)
}

// SessionMonitorChannel returns the Redis PubSub channel name for a session monitor
func (r *CacheKeyStruct) SessionMonitorChannel(sessionID string) string {
	return fmt.Sprintf("session:%s:monitor", sessionID)
}

var CacheKey = NewCacheKeyStruct()
