package plm

import (
	"strings"
	"time"
)

// RecordType identifies which backend object family a record belongs to.
type RecordType string

const (
	TypeItem    RecordType = "item"
	TypeChange  RecordType = "change"
	TypeRequest RecordType = "request"
	TypeQuality RecordType = "quality"
)

// DetectRecordType infers the record type from its number prefix when
// the caller did not supply one.
func DetectRecordType(number string) RecordType {
	upper := strings.ToUpper(number)
	switch {
	case strings.HasPrefix(upper, "ECO"):
		return TypeChange
	case strings.HasPrefix(upper, "ECR"):
		return TypeRequest
	case strings.HasPrefix(upper, "CAR"), strings.HasPrefix(upper, "NCMR"), strings.HasPrefix(upper, "NCR"):
		return TypeQuality
	default:
		return TypeItem
	}
}

// Record is the canonical shape every backend response is normalized
// into at the API boundary. Attributes holds every top-level field of
// the raw response keyed by its normalized (lowercase-first) name, so
// schema-driven field filtering can see fields this struct does not
// promote.
type Record struct {
	GUID           string         `json:"guid"`
	Number         string         `json:"number"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Category       string         `json:"category"`
	LifecyclePhase string         `json:"lifecyclePhase"`
	Attributes     map[string]any `json:"attributes,omitempty"`
}

// Session holds the authenticated connection state persisted between
// operations. The token is the only credential ever stored; passwords
// are used once at login and discarded.
type Session struct {
	Token       string    `json:"token"`
	UserEmail   string    `json:"userEmail"`
	WorkspaceID string    `json:"workspaceId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FileInfo describes a file attachment on a record.
type FileInfo struct {
	GUID     string `json:"guid"`
	Name     string `json:"name"`
	Format   string `json:"format"`
	Location string `json:"location"`
}

// LoginRequest carries the credentials for a login call.
type LoginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	WorkspaceID string `json:"workspaceId"`
}
