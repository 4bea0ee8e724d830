package models

// AllowedResponse is the result of an allow-list check.
type AllowedResponse struct {
	Key     string `json:"key"`
	Allowed bool   `json:"allowed"`
}

// ClearResponse reports how many entries a maintenance operation removed.
type ClearResponse struct {
	Removed int64 `json:"removed"`
}
