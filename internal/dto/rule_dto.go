package dto

// RuleReq 新增/修改自定义规则
type RuleReq struct {
	Name         string   `json:"name"`
	Pattern      string   `json:"pattern"`
	Tags         []string `json:"tags"`
	Priority     int      `json:"priority"`
	Marketplaces []string `json:"marketplaces"`
	MarkExpense  bool     `json:"mark_expense"`
	MarkIncome   bool     `json:"mark_income"`
	Skip         bool     `json:"skip"`
	FlagReview   bool     `json:"flag_review"`
	ReviewNote   string   `json:"review_note"`
	Category     string   `json:"category"`
	Enabled      *bool    `json:"enabled"`
}

// TransactionInput 打标签的输入
type TransactionInput struct {
	MarketplaceOrderID     string  `json:"marketplace_order_id"`
	TransactionDescription string  `json:"transaction_description"`
	TransactionType        string  `json:"transaction_type"`
	Amount                 float64 `json:"amount"`
}

// RuleTestReq 规则试跑
type RuleTestReq struct {
	Rule        RuleReq            `json:"rule"`
	Samples     []TransactionInput `json:"samples"`
	Marketplace string             `json:"marketplace"`
}

type RuleProcessReq struct {
	Transaction TransactionInput `json:"transaction"`
	Marketplace string           `json:"marketplace"`
}
