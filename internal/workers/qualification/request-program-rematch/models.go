// internal/workers/qualification/request-program-rematch/models.go
package requestprogramrematch

type Input struct {
	BusinessID string `json:"businessId"`
	Reason     string `json:"reason,omitempty"`
}

type Output struct {
	BusinessID       string `json:"businessId"`
	Reason           string `json:"reason"`
	Requested        bool   `json:"requested"`
	RequestedAt      string `json:"requestedAt"`
	CacheInvalidated bool   `json:"cacheInvalidated"`
}
