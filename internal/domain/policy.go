package domain

type PolicyViolation struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type PolicyResult struct {
	Allow bool              `json:"allow"`
	Deny  []PolicyViolation `json:"deny,omitempty"`
}

// PolicyReceipt is the audit record of a trust-policy evaluation attached
// to a verification report.
type PolicyReceipt map[string]any
