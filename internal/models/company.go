package models

// CompanyMatch is a single product hit from a company search
type CompanyMatch struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ISIN     string `json:"isin"`
	Symbol   string `json:"symbol"`
	Currency string `json:"currency"`
	Exchange string `json:"exchange_id"`
}
