package refdata

// Result is returned by every engine operation that reaches the store.
// Status false with Error set is a business-rule failure, not a Go error.
type Result struct {
	Status      bool   `json:"status"`
	Data        any    `json:"data,omitempty"`
	Error       string `json:"error,omitempty"`
	Message     string `json:"message,omitempty"`
	Total       *int   `json:"total,omitempty"`
	TenantCode  string `json:"tenantCode,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
}

func failed(msg string) Result {
	return Result{Status: false, Error: msg}
}

func listed(data any, n int, tenant string) Result {
	return Result{Status: true, Data: data, Total: &n, TenantCode: tenant}
}
