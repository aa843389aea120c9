package venice

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Currency is a billing currency.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyVCU Currency = "VCU"
)

// UsageQuery filters BillingUsage. Zero fields are not sent.
type UsageQuery struct {
	Currency  Currency
	StartDate time.Time
	EndDate   time.Time
	Limit     int
	Page      int
	SortOrder string // "asc" or "desc"
}

func (q UsageQuery) values() url.Values {
	v := url.Values{}
	if q.Currency != "" {
		v.Set("currency", string(q.Currency))
	}
	if !q.StartDate.IsZero() {
		v.Set("startDate", q.StartDate.UTC().Format(time.RFC3339))
	}
	if !q.EndDate.IsZero() {
		v.Set("endDate", q.EndDate.UTC().Format(time.RFC3339))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.SortOrder != "" {
		v.Set("sortOrder", q.SortOrder)
	}
	return v
}

// UsageEntry is one billed line item.
type UsageEntry struct {
	Amount           float64           `json:"amount"`
	Currency         Currency          `json:"currency"`
	InferenceDetails *InferenceDetails `json:"inferenceDetails,omitempty"`
	Notes            string            `json:"notes"`
	PricePerUnitUSD  float64           `json:"pricePerUnitUsd"`
	SKU              string            `json:"sku"`
	Timestamp        string            `json:"timestamp"`
	Units            float64           `json:"units"`
}

// InferenceDetails is set on entries billed for an inference request.
type InferenceDetails struct {
	CompletionTokens       int     `json:"completionTokens"`
	PromptTokens           int     `json:"promptTokens"`
	InferenceExecutionTime float64 `json:"inferenceExecutionTime"`
	RequestID              string  `json:"requestId"`
}

// Pagination describes a page of results.
type Pagination struct {
	Limit      int `json:"limit"`
	Page       int `json:"page"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// UsagePage is one page of billing usage.
type UsagePage struct {
	Data       []UsageEntry `json:"data"`
	Pagination Pagination   `json:"pagination"`
}

// BillingUsage returns one page of billed usage.
func (p *Venice) BillingUsage(ctx context.Context, q UsageQuery) (*UsagePage, error) {
	var page UsagePage
	err := p.do(ctx, apiCall{
		method: http.MethodGet,
		path:   "billing/usage",
		query:  q.values(),
	}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}
