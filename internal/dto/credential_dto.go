package dto

type CredentialRequest struct {
	APIKey string `json:"api_key"`
}

type CredentialStatusDTO struct {
	Configured bool   `json:"configured"`
	Source     string `json:"source"`
	Provider   string `json:"provider"`
}

type CredentialCheckDTO struct {
	Source string `json:"source"`
	Reply  string `json:"reply"`
}
