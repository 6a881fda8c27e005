package models

import "crypto/subtle"

// Tenant represents a client accountholder allowed to call the tenant chat route
type Tenant struct {
	TenantID string `json:"tenant_id" dynamodbav:"TenantId" db:"tenant_id"`
	APIKey   string `json:"-" dynamodbav:"ApiKey" db:"api_key"`
	Name     string `json:"name,omitempty" dynamodbav:"Name,omitempty" db:"name"`
}

// TableName returns the table name for the Tenant model
func (Tenant) TableName() string {
	return "tenants"
}

// MatchesAPIKey reports whether key equals the stored credential.
// A tenant without a stored key never matches.
func (t *Tenant) MatchesAPIKey(key string) bool {
	if t == nil || t.APIKey == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(t.APIKey), []byte(key)) == 1
}
