// internal/domain/customer/dto.go
package customer

// CustomerListFilters is the stateless form of the dashboard filters. An
// omitted category means "all selected".
type CustomerListFilters struct {
	Search      string   `form:"search"` // comma separated serial fragments
	InvoiceName string   `form:"invoice_name"`
	Phone       string   `form:"phone"`
	DaysMin     *int     `form:"days_min" binding:"omitempty,min=0"`
	DaysMax     *int     `form:"days_max" binding:"omitempty,min=0"`
	From        string   `form:"from"` // YYYY-MM-DD
	To          string   `form:"to"`   // YYYY-MM-DD
	Agencies    []string `form:"agency"`
	Models      []string `form:"model"`
	Years       []string `form:"year"`
	Packages    []string `form:"package"`
	Advisors    []string `form:"advisor"`
	Page        int      `form:"page" binding:"omitempty,min=1"`
	PageSize    int      `form:"page_size" binding:"omitempty,min=1,max=1000"`
}

type CustomerListResponse struct {
	Customers     []Customer `json:"customers"`
	Total         int        `json:"total"`
	StoreTotal    int        `json:"store_total"`
	Page          int        `json:"page"`
	PageSize      int        `json:"page_size"`
	TotalPages    int        `json:"total_pages"`
	FiltersActive bool       `json:"filters_active"`
}

type SearchHistoryRequest struct {
	Term string `json:"term" binding:"required,max=500"`
}
