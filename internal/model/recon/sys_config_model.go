package reconmodel

import "time"

// SysConfig 键值配置，平台全局费率设置以 fee.settings.<marketplace> 存储 JSON
type SysConfig struct {
	ConfigId    int `gorm:"primaryKey;autoIncrement"`
	ConfigName  string
	ConfigKey   string `gorm:"size:128;uniqueIndex"`
	ConfigValue string `gorm:"type:text"`
	ConfigType  string `gorm:"default:N"`
	CreateBy    string
	CreateTime  time.Time `gorm:"autoCreateTime"`
	UpdateBy    string
	UpdateTime  time.Time `gorm:"autoUpdateTime"`
	Remark      string
}

func (SysConfig) TableName() string {
	return "sys_config"
}
