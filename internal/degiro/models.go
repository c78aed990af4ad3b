package degiro

import "encoding/json"

// loginRequest is the payload for the session login endpoint
type loginRequest struct {
	Username           string            `json:"username"`
	Password           string            `json:"password"`
	OneTimePassword    string            `json:"oneTimePassword,omitempty"`
	IsPassCodeReset    bool              `json:"isPassCodeReset"`
	IsRedirectToMobile bool              `json:"isRedirectToMobile"`
	QueryParams        map[string]string `json:"queryParams"`
}

type loginResponse struct {
	SessionID  string `json:"sessionId"`
	Status     int    `json:"status"`
	StatusText string `json:"statusText"`
}

// clientConfig carries the per-session service URLs discovered from the
// config endpoint. The Refinitiv URLs are the ones fundamentals retrieval
// cares about.
type clientConfig struct {
	PaURL                      string `json:"paUrl"`
	ProductSearchURL           string `json:"productSearchUrl"`
	TradingURL                 string `json:"tradingUrl"`
	RefinitivCompanyProfileURL string `json:"refinitivCompanyProfileUrl"`
	RefinitivCompanyRatiosURL  string `json:"refinitivCompanyRatiosUrl"`
	SessionID                  string `json:"sessionId"`
	ClientID                   int64  `json:"clientId"`
}

type configResponse struct {
	Data clientConfig `json:"data"`
}

type clientInfoResponse struct {
	Data struct {
		IntAccount int64  `json:"intAccount"`
		Username   string `json:"username"`
	} `json:"data"`
}

// product is a single hit from the product lookup endpoint. Numeric fields
// arrive as either strings or numbers depending on endpoint version.
type product struct {
	ID          json.Number `json:"id"`
	Name        string      `json:"name"`
	ISIN        string      `json:"isin"`
	Symbol      string      `json:"symbol"`
	Currency    string      `json:"currency"`
	ExchangeID  json.Number `json:"exchangeId"`
	ProductType string      `json:"productType"`
}

type productSearchResponse struct {
	Products []product `json:"products"`
}
