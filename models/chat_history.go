package models

import "time"

// AnonymousUserID is recorded when a user chat arrives without an identity
const AnonymousUserID = "anonymous"

// UnknownTenantID is recorded when a tenant chat arrives without X-Tenant-Id
const UnknownTenantID = "unknown_tenant"

// ChatHistoryEntry is a single prompt/reply exchange. Entries are written once and never updated.
type ChatHistoryEntry struct {
	UserID    string  `json:"user_id" dynamodbav:"UserId" db:"user_id"`
	Timestamp int64   `json:"timestamp" dynamodbav:"Timestamp" db:"timestamp"` // unix seconds
	Message   string  `json:"message" dynamodbav:"Message" db:"message"`
	Response  string  `json:"response" dynamodbav:"Response" db:"response"`
	TenantID  *string `json:"tenant_id,omitempty" dynamodbav:"TenantId,omitempty" db:"tenant_id"`
}

// TableName returns the table name for the ChatHistoryEntry model
func (ChatHistoryEntry) TableName() string {
	return "chat_history"
}

// NewChatHistoryEntry creates an entry stamped with now. tenantID is recorded only when non-empty.
func NewChatHistoryEntry(userID, message, response, tenantID string, now time.Time) *ChatHistoryEntry {
	entry := &ChatHistoryEntry{
		UserID:    userID,
		Timestamp: now.Unix(),
		Message:   message,
		Response:  response,
	}
	if tenantID != "" {
		entry.TenantID = &tenantID
	}
	return entry
}

// TenantUserID is the history user id recorded for tenant-scoped chats
func TenantUserID(tenantID string) string {
	return "tenant:" + tenantID
}
