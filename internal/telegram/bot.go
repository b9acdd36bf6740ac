package telegram

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/eko/gocache/store"
	"github.com/massmux/SatsZapBot/internal"
	"github.com/massmux/SatsZapBot/internal/database"
	"github.com/massmux/SatsZapBot/internal/network"
	"github.com/massmux/SatsZapBot/internal/notify"
	"github.com/massmux/SatsZapBot/internal/payment"
	"github.com/massmux/SatsZapBot/internal/price"
	limiter "github.com/massmux/SatsZapBot/internal/rate"
	"github.com/massmux/SatsZapBot/internal/runtime/mutex"
	"github.com/massmux/SatsZapBot/internal/sdk"
	"github.com/massmux/SatsZapBot/internal/sdk/bridge"
	"github.com/massmux/SatsZapBot/internal/storage"
	"github.com/massmux/SatsZapBot/internal/wallet"
	"github.com/massmux/SatsZapBot/internal/zap"
	gocache "github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
	tb "gopkg.in/lightningtipbot/telebot.v3"
	"gorm.io/gorm"
)

type TipBot struct {
	Database *gorm.DB
	Bunt     *storage.DB
	logger   database.TxLogger
	Telegram *tb.Bot
	Wallets  *wallet.Gateway
	Payments *payment.Service
	Zaps     *zap.Coordinator
	Notify   *notify.Store
	Poller   *notify.Poller
	Price    *price.PriceWatcher
	Cache
}
type Cache struct {
	*store.GoCacheStore
}

var telegramHandlerRegistration = sync.Once{}

// NewBot opens all databases and wires the wallet services.
func NewBot() TipBot {
	gocacheClient := gocache.New(5*time.Minute, 10*time.Minute)
	gocacheStore := store.NewGoCache(gocacheClient, nil)
	// create sqlite databases
	db, txLogger, err := database.AutoMigration(
		ensureDir(internal.Configuration.Database.DbPath),
		ensureDir(internal.Configuration.Database.TransactionsPath))
	if err != nil {
		log.Fatalf("[NewBot] could not open databases: %v", err)
	}
	bunt := createBunt(internal.Configuration.Database.BuntDbPath)
	limiter.Start()

	client := bridge.NewClient(bridge.Config{
		Url:         internal.Configuration.Wallet.BridgeURL.String(),
		ApiKey:      internal.Configuration.Wallet.ApiKey,
		Network:     sdk.Network(internal.Configuration.Wallet.Network),
		PreferSpark: internal.Configuration.Wallet.PreferSpark,
	}, network.GetClient())
	gateway := wallet.New(client, bunt, wallet.Config{
		StorageDir:  internal.Configuration.Wallet.StorageDir,
		PreferSpark: internal.Configuration.Wallet.PreferSpark,
	})
	txLog := database.TxLogger{DB: txLogger}
	payments := payment.NewService(gateway, database.Aliases{DB: db}, payment.WithRecorder(txLog))

	notifications := notify.NewStore(bunt)
	if err := notifications.Load(); err != nil {
		log.Errorf("[NewBot] could not load notification states: %v", err)
	}
	cfg := internal.Configuration.Notifications
	poller := notify.NewPoller(notifications, gateway, notify.Config{
		Interval:     cfg.Interval,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		Inactivity:   cfg.Inactivity,
		HistoryLimit: cfg.HistoryLimit,
	})

	return TipBot{
		Database: db,
		Bunt:     bunt,
		logger:   txLog,
		Telegram: newTelegramBot(),
		Wallets:  gateway,
		Payments: payments,
		Zaps:     zap.New(gateway, payments, internal.Configuration.Zap.TTL),
		Notify:   notifications,
		Poller:   poller,
		Price:    price.NewPriceWatcher(network.GetClient()),
		Cache:    Cache{GoCacheStore: gocacheStore},
	}
}

func ensureDir(path string) string {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		log.Fatalf("[NewBot] could not create %s: %v", filepath.Dir(path), err)
	}
	return path
}

func createBunt(path string) *storage.DB {
	db, err := storage.NewBunt(ensureDir(path))
	if err != nil {
		log.Fatalf("[NewBot] could not open %s: %v", path, err)
	}
	return db
}

// newTelegramBot will create a new Telegram bot.
func newTelegramBot() *tb.Bot {
	tgb, err := tb.NewBot(tb.Settings{
		Token:     internal.Configuration.Telegram.ApiKey,
		Poller:    &tb.LongPoller{Timeout: 60 * time.Second},
		ParseMode: tb.ModeMarkdown,
		Client:    network.NewClient(internal.Configuration.Bot.SocksProxy, 75*time.Second),
	})
	if err != nil {
		panic(err)
	}
	return tgb
}

// GracefulShutdown will gracefully shutdown the bot
// It will wait for all mutex locks to unlock before shutdown.
func (bot *TipBot) GracefulShutdown() {
	t := time.NewTicker(time.Second * 10)
	defer t.Stop()
	log.Infof("[shutdown] Graceful shutdown (timeout=10s).")
	for {
		select {
		case <-t.C:
			log.Infof("[shutdown] Graceful shutdown timeout reached. Forcing shutdown.")
			return
		default:
			if mutex.IsEmpty() {
				log.Infof("[shutdown] Graceful shutdown successful.")
				return
			}
		}
		time.Sleep(time.Second)
		log.Tracef("[shutdown] Trying graceful shutdown...")
	}
}

// Start registers all handlers, runs the background workers and blocks until ctx is done.
func (bot *TipBot) Start(ctx context.Context) {
	log.Infof("[Telegram] Authorized on account @%s", bot.Telegram.Me.Username)
	bot.Telegram.OnError = bot.errorHandler

	// register telegram handlers
	bot.registerTelegramHandlers()

	// register callbacks for user state changes
	initializeStateCallbackMessage(bot)

	go bot.Price.Start(ctx)
	bot.Poller.Start(ctx)
	bot.Zaps.Run(ctx, internal.Configuration.Zap.SweepInterval)
	go bot.notificationWorker(ctx)
	go bot.zapExpiryWorker(ctx)

	// start the telegram bot
	go bot.Telegram.Start()

	<-ctx.Done()
	bot.Telegram.Stop()
	bot.GracefulShutdown()
	if err := bot.Bunt.Close(); err != nil {
		log.Errorf("[shutdown] %v", err)
	}
}
