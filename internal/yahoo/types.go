package yahoo

// -----------------------------------------------------------------------------
// Chart API
// -----------------------------------------------------------------------------

// ChartResponse is the chart API envelope.
type ChartResponse struct {
	Chart struct {
		Result []ChartResult `json:"result"`
		Error  *APIError     `json:"error"`
	} `json:"chart"`
}

// ChartResult holds one symbol's series.
type ChartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		Currency  string `json:"currency"`
		GMTOffset int64  `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// APIError is the error object embedded in Yahoo API responses.
type APIError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Description
}

// -----------------------------------------------------------------------------
// Quote API
// -----------------------------------------------------------------------------

// QuoteResponse is the quote API envelope.
type QuoteResponse struct {
	QuoteResponse struct {
		Result []Quote   `json:"result"`
		Error  *APIError `json:"error"`
	} `json:"quoteResponse"`
}

// Quote holds the profile fields we keep.
type Quote struct {
	Symbol            string `json:"symbol"`
	SharesOutstanding *int64 `json:"sharesOutstanding"`
	MarketCap         *int64 `json:"marketCap"`
}

// -----------------------------------------------------------------------------
// Statement pages
// -----------------------------------------------------------------------------

// Statement is a two-column table scraped from a quote page.
type Statement struct {
	Header [2]string
	Rows   [][2]string
}
