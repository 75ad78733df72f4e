package config

import (
	"flag"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ProjectCfg struct {
	Name     string `mapstructure:"name"`
	Timezone string `mapstructure:"timezone"`
}
type ServerCfg struct {
	Port          string `mapstructure:"port"`
	Mode          string `mapstructure:"mode"`
	InternalToken string `mapstructure:"internalToken"`
}
type MysqlCfg struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Database     string `mapstructure:"database"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Charset      string `mapstructure:"charset"`
	MaxIdleConns int    `mapstructure:"maxIdleConns"`
	MaxOpenConns int    `mapstructure:"maxOpenConns"`
	LogLevel     string `mapstructure:"logLevel"`
}
type RabbitCfg struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	VirtualHost   string `mapstructure:"virtualHost"`
	PrefetchCount int    `mapstructure:"prefetchCount"`
	Exchange      string `mapstructure:"exchange"`
	DraftQueue    string `mapstructure:"draftQueue"`
}
type RedisCfg struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}
type LogCfg struct {
	Dir     string `mapstructure:"dir"`
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// FeeCfg 费率解析缓存
type FeeCfg struct {
	CacheTTLSec int `mapstructure:"cacheTTLSec"`
}

// LinkerCfg 自动关联参数
type LinkerCfg struct {
	Epsilon         float64 `mapstructure:"epsilon"`
	WindowHours     int     `mapstructure:"windowHours"`
	DefaultDaysBack int     `mapstructure:"defaultDaysBack"`
}

type LedgerCfg struct {
	Tolerance         float64  `mapstructure:"tolerance"`
	InternalTransfers []string `mapstructure:"internalTransfers"`
}

// BatchCfg 批处理背压参数
type BatchCfg struct {
	Size    int `mapstructure:"size"`
	DelayMs int `mapstructure:"delayMs"`
}

type RetryCfg struct {
	Times      int `mapstructure:"times"`
	IntervalMs int `mapstructure:"intervalMs"`
}
type TimeoutCfg struct {
	RequestSec int `mapstructure:"requestSec"`
}

type MarketplaceAPICfg struct {
	BaseURL      string `mapstructure:"baseUrl"`
	TokenURL     string `mapstructure:"tokenUrl"`
	ClientID     string `mapstructure:"clientId"`
	ClientSecret string `mapstructure:"clientSecret"`
}

// UpstreamCfg 平台接口调用；HealthStrategy 可选 ewma | decay | sliding
type UpstreamCfg struct {
	Timeout        TimeoutCfg                   `mapstructure:"timeout"`
	Retry          RetryCfg                     `mapstructure:"retry"`
	HealthStrategy string                       `mapstructure:"healthStrategy"`
	HealthAlpha    float64                      `mapstructure:"healthAlpha"`
	HealthFloor    float64                      `mapstructure:"healthFloor"`
	BreakerSec     int                          `mapstructure:"breakerSec"`
	Marketplaces   map[string]MarketplaceAPICfg `mapstructure:"marketplaces"`
}

// CronCfg 六段式（含秒）
type CronCfg struct {
	AutoLink    string `mapstructure:"autoLink"`
	RulesReload string `mapstructure:"rulesReload"`
}

type NotifyCfg struct {
	TelegramChatID string `mapstructure:"telegramChatId"`
}

type Root struct {
	Project    ProjectCfg  `mapstructure:"project"`
	Server     ServerCfg   `mapstructure:"server"`
	MysqlRecon MysqlCfg    `mapstructure:"mysql_recon"`
	MysqlErp   MysqlCfg    `mapstructure:"mysql_erp"`
	RabbitMQ   RabbitCfg   `mapstructure:"rabbitmq"`
	Redis      RedisCfg    `mapstructure:"redis"`
	Log        LogCfg      `mapstructure:"log"`
	Fee        FeeCfg      `mapstructure:"fee"`
	Linker     LinkerCfg   `mapstructure:"linker"`
	Ledger     LedgerCfg   `mapstructure:"ledger"`
	Batch      BatchCfg    `mapstructure:"batch"`
	Upstream   UpstreamCfg `mapstructure:"upstream"`
	Cron       CronCfg     `mapstructure:"cron"`
	Notify     NotifyCfg   `mapstructure:"notify"`
}

var C Root

func Init() {
	env := flag.String("env", "dev", "config env: dev|prod")
	flag.Parse()

	// .env 可选，不存在时忽略
	_ = godotenv.Load()

	if err := Load("config/config." + *env + ".yaml"); err != nil {
		log.Fatalf("load config failed: %v", err)
	}
}

// Load 读取配置文件到 C，环境变量 RECON_* 覆盖同名配置
func Load(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("RECON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return err
	}
	if err := v.Unmarshal(&C); err != nil {
		return err
	}
	ApplyDefaults(&C)
	return nil
}

// ApplyDefaults sane defaults
func ApplyDefaults(c *Root) {
	if strings.TrimSpace(c.Project.Name) == "" {
		c.Project.Name = "recon"
	}
	if c.Project.Timezone == "" {
		c.Project.Timezone = "America/Sao_Paulo"
	}
	if strings.TrimSpace(c.Server.Port) == "" {
		c.Server.Port = "8080"
	}
	if c.Log.Dir == "" {
		c.Log.Dir = "./logs"
	}
	if c.Fee.CacheTTLSec <= 0 {
		c.Fee.CacheTTLSec = 300
	}
	if c.Linker.Epsilon <= 0 {
		c.Linker.Epsilon = 0.01
	}
	if c.Linker.WindowHours <= 0 {
		c.Linker.WindowHours = 36
	}
	if c.Linker.DefaultDaysBack <= 0 {
		c.Linker.DefaultDaysBack = 7
	}
	if c.Ledger.Tolerance <= 0 {
		c.Ledger.Tolerance = 0.05
	}
	if len(c.Ledger.InternalTransfers) == 0 {
		c.Ledger.InternalTransfers = []string{"transferencia_interna", "internal_transfer", "wallet_transfer"}
	}
	if c.Batch.Size <= 0 {
		c.Batch.Size = 10
	}
	if c.Batch.DelayMs <= 0 {
		c.Batch.DelayMs = 120
	}
	if c.Upstream.Timeout.RequestSec <= 0 {
		c.Upstream.Timeout.RequestSec = 10
	}
	if c.Upstream.Retry.Times <= 0 {
		c.Upstream.Retry.Times = 3
	}
	if c.Upstream.Retry.IntervalMs <= 0 {
		c.Upstream.Retry.IntervalMs = 400
	}
	if c.Upstream.HealthStrategy == "" {
		c.Upstream.HealthStrategy = "ewma"
	}
	if c.Upstream.HealthAlpha <= 0 {
		c.Upstream.HealthAlpha = 0.2
	}
	if c.Upstream.HealthFloor <= 0 {
		c.Upstream.HealthFloor = 30
	}
	if c.Upstream.BreakerSec <= 0 {
		c.Upstream.BreakerSec = 60
	}
	if c.Cron.AutoLink == "" {
		c.Cron.AutoLink = "0 */30 * * * *"
	}
	if c.Cron.RulesReload == "" {
		c.Cron.RulesReload = "0 */5 * * * *"
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "recon_events"
	}
	if c.RabbitMQ.DraftQueue == "" {
		c.RabbitMQ.DraftQueue = "recon_statement_draft"
	}
}
