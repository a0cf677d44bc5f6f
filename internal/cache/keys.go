package cache

import "fmt"

// DefaultSession is the slot used when a client does not identify itself.
const DefaultSession = "default"

func AnalysisKey(session string) string {
	return fmt.Sprintf("deepscan:analysis:%s", session)
}

func ImageMetadataKey(session string) string {
	return fmt.Sprintf("deepscan:image:%s", session)
}

func RateLimitKey(clientIP string) string {
	return fmt.Sprintf("ratelimit:%s", clientIP)
}
