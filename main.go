package main

import (
	"context"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/massmux/SatsZapBot/internal"
	"github.com/massmux/SatsZapBot/internal/api"
	"github.com/massmux/SatsZapBot/internal/api/admin"
	"github.com/massmux/SatsZapBot/internal/telegram"
	log "github.com/sirupsen/logrus"
)

// setLogger will initialize the log format
func setLogger() {
	log.SetLevel(log.DebugLevel)
	customFormatter := new(log.TextFormatter)
	customFormatter.TimestampFormat = "2006-01-02 15:04:05"
	customFormatter.FullTimestamp = true
	log.SetFormatter(customFormatter)
}

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yaml"
}

func main() {
	// set logger
	setLogger()

	defer withRecovery()
	if err := godotenv.Load(); err != nil {
		log.Debugf("[main] no .env file: %v", err)
	}
	if err := internal.Load(configPath()); err != nil {
		log.Fatalf("[main] %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bot := telegram.NewBot()
	s := startApiServer(&bot)
	bot.Start(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		log.Errorf("[main] %v", err)
	}
}

// startApiServer starts the internal admin server.
func startApiServer(bot *telegram.TipBot) *api.Server {
	adminService := admin.New(bot.Notify, bot.Poller)
	s := api.NewServer(internal.Configuration.Bot.AdminAPIHost)
	adminService.Register(s, internal.Configuration.Bot.AdminAPIToken)
	s.PathPrefix("/debug/pprof/", http.DefaultServeMux)
	s.Start()
	return s
}

func withRecovery() {
	if r := recover(); r != nil {
		log.Errorln("Recovered panic: ", r)
		debug.PrintStack()
	}
}
