// internal/workers/pricing/compare-dish-prices/config.go
package comparedishprices

import "time"

type Config struct {
	Timeout      time.Duration
	InputSchema  map[string]interface{}
	OutputSchema map[string]interface{}
}
