package dao

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// IsDuplicateKey 唯一键冲突（TranslateError 或原始 MySQL 1062）
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

func checkDB(db *gorm.DB, name string) error {
	if db == nil {
		return errors.New(name + ": DB connection is nil")
	}
	return nil
}
