package internal

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jinzhu/configor"
	log "github.com/sirupsen/logrus"
)

var Configuration = struct {
	Bot           BotConfiguration          `yaml:"bot"`
	Telegram      TelegramConfiguration     `yaml:"telegram"`
	Database      DatabaseConfiguration     `yaml:"database"`
	Wallet        WalletConfiguration       `yaml:"wallet"`
	Notifications NotificationConfiguration `yaml:"notifications"`
	Zap           ZapConfiguration          `yaml:"zap"`
}{}

type SocksConfiguration struct {
	Host     string `yaml:"host"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type BotConfiguration struct {
	LogLevel      string              `yaml:"log_level" default:"info"`
	SocksProxy    *SocksConfiguration `yaml:"socks_proxy,omitempty"`
	AdminAPIHost  string              `yaml:"admin_api_host" default:"127.0.0.1:6060"`
	AdminAPIToken string              `yaml:"admin_api_token" env:"ADMIN_API_TOKEN"`
	DonateUserID  int64               `yaml:"donate_user_id" env:"DONATE_USER_ID"`
}

type TelegramConfiguration struct {
	ApiKey string `yaml:"api_key" env:"TELEGRAM_API_KEY" validate:"required"`
}

type DatabaseConfiguration struct {
	BuntDbPath       string `yaml:"buntdb_path" default:"data/bunt.db" validate:"required"`
	DbPath           string `yaml:"db_path" default:"data/bot.db" validate:"required"`
	TransactionsPath string `yaml:"transactions_path" default:"data/transactions.db" validate:"required"`
}

type WalletConfiguration struct {
	BridgeUrl   string   `yaml:"bridge_url" env:"WALLET_BRIDGE_URL" validate:"required,url"`
	BridgeURL   *url.URL `yaml:"-"`
	ApiKey      string   `yaml:"api_key" env:"BREEZ_API_KEY" validate:"required"`
	Network     string   `yaml:"network" default:"mainnet" validate:"oneof=mainnet regtest"`
	StorageDir  string   `yaml:"storage_dir" default:"data/wallets"`
	PreferSpark bool     `yaml:"prefer_spark" default:"true"`
}

type NotificationConfiguration struct {
	Interval     time.Duration `yaml:"interval" default:"15s"`
	BatchSize    int           `yaml:"batch_size" default:"20" validate:"gt=0"`
	BatchTimeout time.Duration `yaml:"batch_timeout" default:"10s"`
	Inactivity   time.Duration `yaml:"inactivity" default:"24h"`
	HistoryLimit int           `yaml:"history_limit" default:"10" validate:"gt=0"`
}

type ZapConfiguration struct {
	TTL           time.Duration `yaml:"ttl" default:"5m"`
	SweepInterval time.Duration `yaml:"sweep_interval" default:"30s"`
}

// Load reads the yaml configuration at path, applies environment overrides and validates the result.
func Load(path string) error {
	err := configor.New(&configor.Config{ENVPrefix: "-"}).Load(&Configuration, path)
	if err != nil {
		return err
	}
	err = validator.New().Struct(Configuration)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	bridgeUrl, err := url.Parse(strings.TrimSuffix(Configuration.Wallet.BridgeUrl, "/"))
	if err != nil {
		return err
	}
	Configuration.Wallet.BridgeURL = bridgeUrl
	level, err := log.ParseLevel(Configuration.Bot.LogLevel)
	if err != nil {
		log.Warnf("[config] unknown log level %s, falling back to info", Configuration.Bot.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
	checkLnurlProxy()
	return nil
}

func checkLnurlProxy() {
	if Configuration.Bot.SocksProxy == nil || Configuration.Bot.SocksProxy.Host == "" {
		Configuration.Bot.SocksProxy = nil
		return
	}
	log.Infof("[config] routing LNURL requests through %s", Configuration.Bot.SocksProxy.Host)
}
