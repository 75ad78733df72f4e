package dao

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"marketplace-recon-api/internal/constant"
	reconmodel "marketplace-recon-api/internal/model/recon"
)

// dryRunDB 只生成 SQL，不连接数据库
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(gormmysql.New(gormmysql.Config{
		DSN:                       "recon:recon@tcp(127.0.0.1:3306)/recon?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err)
	return db
}

func samplePayment() *reconmodel.PaymentRecord {
	erp := "E1"
	return &reconmodel.PaymentRecord{
		ID:                 7,
		Marketplace:        "shopee",
		MarketplaceOrderID: "240501ABC_REEMBOLSO",
		BaseOrderID:        "240501ABC",
		PaymentDate:        time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		NetAmount:          decimal.RequireFromString("-10"),
		NetSource:          reconmodel.NetSourceReported,
		ErpOrderID:         &erp,
	}
}

func TestPaymentUpsert_OnDuplicateKeepsIdentity(t *testing.T) {
	db := dryRunDB(t)
	var sql string
	require.NoError(t, db.Callback().Create().After("gorm:create").Register("test:capture", func(tx *gorm.DB) {
		sql = tx.Statement.SQL.String()
	}))

	_, err := NewPaymentRecordDaoWithDB(db).Upsert(context.Background(), samplePayment())
	require.NoError(t, err)

	assert.Contains(t, sql, "INSERT INTO `payment_record`")
	assert.Contains(t, sql, "ON DUPLICATE KEY UPDATE")
	for _, col := range paymentUpsertColumns {
		assert.Contains(t, sql, fmt.Sprintf("`%s`=", col))
	}
	assert.NotContains(t, sql, "`id`=")
	assert.NotContains(t, sql, "`created_at`=")
	assert.NotContains(t, sql, "`marketplace`=")
}

func TestPaymentUpsert_InsertedFromRowsAffected(t *testing.T) {
	cases := map[int64]bool{
		1: true,  // 新插入
		2: false, // 命中唯一键后更新
		0: false, // 更新但内容未变
	}
	for affected, want := range cases {
		db := dryRunDB(t)
		n := affected
		require.NoError(t, db.Callback().Create().After("gorm:create").Register("test:rows", func(tx *gorm.DB) {
			tx.RowsAffected = n
		}))
		inserted, err := NewPaymentRecordDaoWithDB(db).Upsert(context.Background(), samplePayment())
		require.NoError(t, err)
		assert.Equal(t, want, inserted, "rows affected %d", affected)
	}
}

func TestSumNetQuery(t *testing.T) {
	db := dryRunDB(t)
	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []netRow
		return sumNetQuery(tx, "E1").Find(&rows)
	})

	assert.Contains(t, sql, "SUM(CASE WHEN is_expense = 0 THEN net_amount ELSE 0 END) AS income")
	assert.Contains(t, sql, "SUM(CASE WHEN is_expense = 1 THEN ABS(net_amount) ELSE 0 END) AS expense")
	assert.Contains(t, sql, "FROM `payment_record`")
	assert.Contains(t, sql, "erp_order_id = 'E1' AND skipped = false")
}

func TestOrderLinkCreate_DuplicateIsConflict(t *testing.T) {
	db := dryRunDB(t)
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:dup", func(tx *gorm.DB) {
		_ = tx.AddError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'shopee-S1' for key 'uk_link_mp_order'"})
	}))

	err := NewOrderLinkDaoWithDB(db).Create(context.Background(), &reconmodel.OrderLink{
		ID: 1, Marketplace: "shopee", MarketplaceOrderID: "S1", ErpOrderID: "E1", Confidence: reconmodel.ConfidenceExact,
	})
	require.Error(t, err)
	assert.Equal(t, constant.CodeLinkConflict, constant.CodeOf(err))
	assert.ErrorIs(t, err, constant.ErrLinkConflict)
}

func TestOrderLinkCreate_OtherErrorIsDatabase(t *testing.T) {
	db := dryRunDB(t)
	boom := errors.New("connection reset")
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail", func(tx *gorm.DB) {
		_ = tx.AddError(boom)
	}))

	err := NewOrderLinkDaoWithDB(db).Create(context.Background(), &reconmodel.OrderLink{ID: 1, Marketplace: "shopee", MarketplaceOrderID: "S1", ErpOrderID: "E1"})
	assert.ErrorIs(t, err, constant.ErrDatabase)
	assert.ErrorIs(t, err, boom)
}

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, IsDuplicateKey(&mysql.MySQLError{Number: 1062}))
	assert.True(t, IsDuplicateKey(fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062})))
	assert.True(t, IsDuplicateKey(gorm.ErrDuplicatedKey))
	assert.False(t, IsDuplicateKey(&mysql.MySQLError{Number: 1213}))
	assert.False(t, IsDuplicateKey(nil))
}

func TestCheckDB(t *testing.T) {
	_, err := NewPaymentRecordDaoWithDB(nil).GetByKey(context.Background(), "shopee", "S1")
	assert.Error(t, err)
}
