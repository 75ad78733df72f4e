package reconmodel

import "time"

// Rule 管理员自定义标签规则，系统规则内置在代码中不落库
type Rule struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"size:128;not null" json:"name"`
	Pattern      string    `gorm:"size:512;not null" json:"pattern"`
	Tags         []string  `gorm:"type:json;serializer:json" json:"tags"`
	Priority     int       `gorm:"not null" json:"priority"`
	Marketplaces []string  `gorm:"type:json;serializer:json" json:"marketplaces"` // 空 = 全部
	MarkExpense  bool      `gorm:"not null" json:"mark_expense"`
	MarkIncome   bool      `gorm:"not null" json:"mark_income"`
	Skip         bool      `gorm:"not null" json:"skip"`
	FlagReview   bool      `gorm:"not null" json:"flag_review"`
	ReviewNote   string    `gorm:"size:255" json:"review_note"`
	Category     string    `gorm:"size:64" json:"category"`
	Enabled      bool      `gorm:"not null" json:"enabled"`
	CreatedBy    string    `gorm:"size:64" json:"created_by"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Rule) TableName() string {
	return "recon_rule"
}
