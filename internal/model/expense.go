package model

// Expense is a reimbursed parliamentary-activity cost
type Expense struct {
	ID           int     `json:"id"`
	LegislatorID int     `json:"legislator_id"`
	Year         int     `json:"year"`
	Month        int     `json:"month"`
	Category     string  `json:"category"`
	NetAmount    float64 `json:"net_amount"`
	DocumentCode *int64  `json:"document_code"`
	DocumentType *string `json:"document_type"`
	DocumentURL  *string `json:"document_url"`
	SupplierName *string `json:"supplier_name"`
}

// ExpenseFilter narrows expense listings by exact match.
type ExpenseFilter struct {
	LegislatorID *int `query:"legislator_id" validate:"omitempty,min=1"`
	Year         *int `query:"year" validate:"omitempty,min=2000,max=2100"`
	Month        *int `query:"month" validate:"omitempty,min=1,max=12"`
}
