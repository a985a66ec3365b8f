// internal/domain/view/entity.go
package view

import (
	"errors"
	"time"

	"retention-service/internal/domain/customer"
)

var (
	ErrViewNotFound   = errors.New("view not found")
	ErrUnknownCommand = errors.New("unknown view command")
)

// View is one dashboard session: an agency, its filter state and the
// current page.
type View struct {
	ID           string               `json:"id"`
	Agency       string               `json:"agency"`
	State        customer.FilterState `json:"state"`
	Page         int                  `json:"page"`
	PageSize     int                  `json:"page_size"`
	Shape        string               `json:"shape"`
	StoreVersion uint64               `json:"store_version"`
	Loading      bool                 `json:"loading"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

type CommandOp string

const (
	OpSearch      CommandOp = "search"
	OpInvoiceName CommandOp = "invoice_name"
	OpPhone       CommandOp = "phone"
	OpRange       CommandOp = "range"
	OpDates       CommandOp = "dates"
	OpClearDates  CommandOp = "clear_dates"
	OpToggle      CommandOp = "toggle"
	OpOnly        CommandOp = "only"
	OpSelectAll   CommandOp = "select_all"
	OpSet         CommandOp = "set"
	OpReset       CommandOp = "reset"
	OpPage        CommandOp = "page"
)

// Command is one UI control change.
type Command struct {
	Op       CommandOp         `json:"op" binding:"required"`
	Value    string            `json:"value,omitempty"`
	Category customer.Category `json:"category,omitempty"`
	Values   []string          `json:"values,omitempty"`
	Min      int               `json:"min,omitempty"`
	Max      int               `json:"max,omitempty"`
	From     string            `json:"from,omitempty"` // YYYY-MM-DD
	To       string            `json:"to,omitempty"`
	Page     int               `json:"page,omitempty"`
}

type CreateViewRequest struct {
	Agency   string `json:"agency" binding:"required"`
	PageSize int    `json:"page_size" binding:"omitempty,min=1,max=1000"`
}

type SwitchAgencyRequest struct {
	Agency string `json:"agency" binding:"required"`
}

// ViewPage is what a dashboard renders: the view plus its visible rows.
type ViewPage struct {
	View          *View               `json:"view"`
	Customers     []customer.Customer `json:"customers"`
	Total         int                 `json:"total"`
	StoreTotal    int                 `json:"store_total"`
	TotalPages    int                 `json:"total_pages"`
	FiltersActive bool                `json:"filters_active"`
	Metadata      customer.Metadata   `json:"metadata"`
}
