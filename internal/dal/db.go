package dal

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"marketplace-recon-api/internal/config"
	reconmodel "marketplace-recon-api/internal/model/recon"
)

// ReconDB 对账库（读写），ErpDB ERP 订单库（只读）
var (
	ReconDB *gorm.DB
	ErpDB   *gorm.DB
)

func InitReconDB() {
	db, err := open(config.C.MysqlRecon)
	if err != nil {
		log.Fatalf("connect recon db failed: %v", err)
	}
	ReconDB = db
}

func InitErpDB() {
	db, err := open(config.C.MysqlErp)
	if err != nil {
		log.Fatalf("connect erp db failed: %v", err)
	}
	ErpDB = db
}

// Migrate 建表/补列，只作用于对账库
func Migrate() error {
	return ReconDB.AutoMigrate(
		&reconmodel.FeePeriod{},
		&reconmodel.SysConfig{},
		&reconmodel.Rule{},
		&reconmodel.OrderLink{},
		&reconmodel.PaymentRecord{},
	)
}

func open(c config.MysqlCfg) (*gorm.DB, error) {
	charset := c.Charset
	if charset == "" {
		charset = "utf8mb4"
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database, charset)

	level := logger.Warn
	if c.LogLevel == "info" {
		level = logger.Info
	}
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond, // 慢 SQL 阈值
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         newLogger,
		TranslateError: true, // 唯一键冲突 -> gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if c.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(2 * time.Hour)
	return db, nil
}
