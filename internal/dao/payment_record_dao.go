package dao

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketplace-recon-api/internal/constant"
	"marketplace-recon-api/internal/dal"
	reconmodel "marketplace-recon-api/internal/model/recon"
)

type PaymentRecordDao struct {
	DB *gorm.DB
}

func NewPaymentRecordDao() *PaymentRecordDao {
	if dal.ReconDB == nil {
		log.Panic("[FATAL] dal.ReconDB is nil - database not initialized")
	}
	return &PaymentRecordDao{DB: dal.ReconDB}
}

func NewPaymentRecordDaoWithDB(db *gorm.DB) *PaymentRecordDao {
	return &PaymentRecordDao{DB: db}
}

// 冲突时更新的列，id 与 created_at 保持首次写入的值
var paymentUpsertColumns = []string{
	"base_order_id", "transaction_type", "transaction_description", "payment_date",
	"gross_amount", "net_amount", "net_source", "reported_settlement", "fee_breakdown", "fee_source",
	"is_expense", "skipped", "flagged_for_review", "review_note", "category", "tags",
	"erp_order_id", "match_confidence", "matched_at", "updated_at",
}

// Upsert 单条原子写入：首个写入者插入，之后的写入者更新。
// 返回 true 表示新插入（MySQL ON DUPLICATE KEY UPDATE 插入时 RowsAffected=1）
func (r *PaymentRecordDao) Upsert(ctx context.Context, m *reconmodel.PaymentRecord) (bool, error) {
	if err := checkDB(r.DB, "PaymentRecordDao"); err != nil {
		return false, err
	}
	res := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "marketplace"}, {Name: "marketplace_order_id"}},
		DoUpdates: clause.AssignmentColumns(paymentUpsertColumns),
	}).Create(m)
	if res.Error != nil {
		return false, constant.Wrap(constant.CodeDatabaseError, fmt.Errorf("upsert payment record: %w", res.Error))
	}
	return res.RowsAffected == 1, nil
}

func (r *PaymentRecordDao) GetByKey(ctx context.Context, marketplace, mpOrderID string) (*reconmodel.PaymentRecord, error) {
	if err := checkDB(r.DB, "PaymentRecordDao"); err != nil {
		return nil, err
	}
	var m reconmodel.PaymentRecord
	err := r.DB.WithContext(ctx).
		Where("marketplace = ? AND marketplace_order_id = ?", marketplace, mpOrderID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, constant.Wrap(constant.CodeDatabaseError, fmt.Errorf("query payment record: %w", err))
	}
	return &m, nil
}

// ListByBaseOrder 同一平台订单的全部事件（原始 + 后缀）
func (r *PaymentRecordDao) ListByBaseOrder(ctx context.Context, marketplace, baseOrderID string) ([]reconmodel.PaymentRecord, error) {
	if err := checkDB(r.DB, "PaymentRecordDao"); err != nil {
		return nil, err
	}
	var out []reconmodel.PaymentRecord
	err := r.DB.WithContext(ctx).
		Where("marketplace = ? AND base_order_id = ?", marketplace, baseOrderID).
		Order("marketplace_order_id ASC").
		Find(&out).Error
	if err != nil {
		return nil, constant.Wrap(constant.CodeDatabaseError, fmt.Errorf("list payment records: %w", err))
	}
	return out, nil
}

type netRow struct {
	Income  decimal.NullDecimal
	Expense decimal.NullDecimal
	Records int
}

// sumNetQuery 净额汇总 SQL
func sumNetQuery(tx *gorm.DB, erpOrderID string) *gorm.DB {
	return tx.Model(&reconmodel.PaymentRecord{}).
		Select("SUM(CASE WHEN is_expense = 0 THEN net_amount ELSE 0 END) AS income, "+
			"SUM(CASE WHEN is_expense = 1 THEN ABS(net_amount) ELSE 0 END) AS expense, COUNT(*) AS records").
		Where("erp_order_id = ? AND skipped = ?", erpOrderID, false)
}

// SumNet Σ非支出净额 − Σ|支出净额|，跳过的内部转账不计入；支出按原值存储，符号不做改写
func (r *PaymentRecordDao) SumNet(ctx context.Context, erpOrderID string) (decimal.Decimal, int, error) {
	if err := checkDB(r.DB, "PaymentRecordDao"); err != nil {
		return decimal.Zero, 0, err
	}
	var row netRow
	err := sumNetQuery(r.DB.WithContext(ctx), erpOrderID).Scan(&row).Error
	if err != nil {
		return decimal.Zero, 0, constant.Wrap(constant.CodeDatabaseError, fmt.Errorf("sum net: %w", err))
	}
	return row.Income.Decimal.Sub(row.Expense.Decimal), row.Records, nil
}
