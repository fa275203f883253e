package dto

// CustomerQuery captures GET /programs/:id/customers parameters.
type CustomerQuery struct {
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// RegisterCustomerRequest is the payload for a single customer registration.
type RegisterCustomerRequest struct {
	Name         string `json:"name" validate:"required,max=255"`
	Phone        string `json:"phone" validate:"required,numeric,min=9,max=15"`
	CustomerCode string `json:"customerCode" validate:"required,max=64"`
	TicketCount  int    `json:"ticketCount" validate:"gte=1,lte=100000"`
}

// ImportFailure itemises one rejected import row.
type ImportFailure struct {
	Row     int    `json:"row"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// ImportReport summarises a customer file import.
type ImportReport struct {
	Total   int             `json:"total"`
	Created int             `json:"created"`
	Failed  []ImportFailure `json:"failed"`
}

// BulkDeleteRequest is the payload for POST /customers/bulk-delete.
type BulkDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=1000,dive,required"`
}

// BulkResult aggregates a bulk operation; individual failures are not itemised.
type BulkResult struct {
	Requested int `json:"requested"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}
