package models

import "github.com/shopspring/decimal"

// ImportRow is one parsed line of a legacy pledge export.
type ImportRow struct {
	Line        int
	Email       string
	DisplayName string
	CampaignID  int64
	Amount      decimal.Decimal
	PerkName    string
}

type ImportRowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

type ImportReport struct {
	Rows          int               `json:"rows"`
	Imported      int               `json:"imported"`
	DonorsCreated int               `json:"donors_created"`
	Campaigns     []int64           `json:"campaigns"`
	Errors        []*ImportRowError `json:"errors,omitempty"`
}
