package dao

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketplace-recon-api/internal/dal"
	"marketplace-recon-api/internal/dto"
	reconmodel "marketplace-recon-api/internal/model/recon"
)

type SysConfigDao struct {
	DB *gorm.DB
}

func NewSysConfigDao() *SysConfigDao {
	if dal.ReconDB == nil {
		log.Panic("[FATAL] dal.ReconDB is nil - database not initialized")
	}
	return &SysConfigDao{DB: dal.ReconDB}
}

// GetByKey 根据参数 key 获取参数值，不存在返回 nil
func (r *SysConfigDao) GetByKey(ctx context.Context, key string) (*dto.ConfigDetailResponse, error) {
	if err := checkDB(r.DB, "SysConfigDao"); err != nil {
		return nil, err
	}
	var cfg dto.ConfigDetailResponse
	err := r.DB.WithContext(ctx).Model(&reconmodel.SysConfig{}).Where("config_key = ?", key).Last(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query sys_config %s: %w", key, err)
	}
	return &cfg, nil
}

// Upsert 按 config_key 写入
func (r *SysConfigDao) Upsert(ctx context.Context, key, name, value, operator string) error {
	if err := checkDB(r.DB, "SysConfigDao"); err != nil {
		return err
	}
	row := reconmodel.SysConfig{ConfigKey: key, ConfigName: name, ConfigValue: value, CreateBy: operator, UpdateBy: operator}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "config_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"config_value", "update_by", "update_time"}),
	}).Create(&row).Error
}
