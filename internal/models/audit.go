package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin          = "LOGIN"
	AuditActionRegister       = "REGISTER"
	AuditActionMarksUpdate    = "MARKS_UPDATE"
	AuditActionPlacement      = "PLACEMENT_CHANGE"
	AuditActionPostDelete     = "POST_DELETE"
	AuditActionExportCreate   = "EXPORT_CREATE"
	AuditActionExportDownload = "EXPORT_DOWNLOAD"
	AuditActionProfileImage   = "PROFILE_IMAGE_UPDATE"
)

// AuditLog represents an audit trail record stored under AuditLogs/{pushKey}.
type AuditLog struct {
	ID         string                 `json:"-"`
	UserID     string                 `json:"userId,omitempty"`
	Action     string                 `json:"action"`
	Resource   string                 `json:"resource"`
	ResourceID string                 `json:"resourceId,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	IPAddress  string                 `json:"ipAddress,omitempty"`
	UserAgent  string                 `json:"userAgent,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
}
