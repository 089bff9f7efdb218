package main

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/zulandar/launchpad/internal/auth"
	"github.com/zulandar/launchpad/internal/blob"
	"github.com/zulandar/launchpad/internal/chatlog"
	"github.com/zulandar/launchpad/internal/config"
	"github.com/zulandar/launchpad/internal/db"
	"github.com/zulandar/launchpad/internal/ingest"
	"github.com/zulandar/launchpad/internal/llm"
	"github.com/zulandar/launchpad/internal/logx"
	"github.com/zulandar/launchpad/internal/models"
	"github.com/zulandar/launchpad/internal/notify"
	"github.com/zulandar/launchpad/internal/notify/discord"
	"github.com/zulandar/launchpad/internal/notify/slack"
	"github.com/zulandar/launchpad/internal/pipeline"
	"github.com/zulandar/launchpad/internal/publish"
	"github.com/zulandar/launchpad/internal/redisx"
	"github.com/zulandar/launchpad/internal/store"
)

// newGenerator builds the AI client. Tests replace it with a fake.
var newGenerator = llm.New

// app is everything a command needs, wired from one config file.
type app struct {
	cfg      *config.Config
	db       *gorm.DB
	store    *store.Store
	rdb      *redis.Client // nil without redis.url
	auth     *auth.Service
	pipeline *pipeline.Pipeline
	blobs    *blob.DirStore
}

// Close releases the connections the app holds.
func (a *app) Close() {
	if a.rdb != nil {
		a.rdb.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}

// loadConfig reads the config file and initializes logging from it.
func loadConfig(configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logx.Init(logx.Opts{Environment: cfg.Environment, Level: cfg.LogLevel, Out: os.Stderr})
	return cfg, nil
}

// connectFromConfig loads the config and opens the database.
func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, gormDB, nil
}

// openApp wires the full stack. withAI controls whether the AI client is
// created; commands that never call the model skip it so they work without
// an API key.
func openApp(ctx context.Context, configPath string, withAI bool) (*app, error) {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, db: gormDB, store: store.New(gormDB)}

	var (
		sessions auth.SessionStore = auth.NewMemorySessionStore()
		chat     chatlog.Log       = chatlog.NewMemoryLog()
	)
	if cfg.Redis.URL != "" {
		a.rdb, err = redisx.Open(ctx, cfg.Redis.URL)
		if err != nil {
			a.Close()
			return nil, err
		}
		sessions = auth.NewRedisSessionStore(a.rdb)
		chat = chatlog.NewRedisLog(a.rdb, cfg.Redis.ChatTTL)
	}
	a.auth = auth.NewService(gormDB, sessions, cfg.Redis.SessionTTL)

	var gen llm.Generator = unavailableGenerator{}
	if withAI {
		gen, err = newGenerator(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	a.blobs, err = blob.NewDirStore(cfg.Server.MediaDir, cfg.Server.PublicURL)
	if err != nil {
		a.Close()
		return nil, err
	}

	router, err := notifierFromConfig(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	var publisher pipeline.PRDPublisher
	if cfg.GitHub.Owner != "" {
		publisher, err = publish.New(ctx, publish.Opts{
			Token:  cfg.Secrets.GitHubToken,
			Owner:  cfg.GitHub.Owner,
			Repo:   cfg.GitHub.Repo,
			Labels: cfg.GitHub.Labels,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	a.pipeline, err = pipeline.New(pipeline.Opts{
		Store: a.store,
		Fetcher: ingest.NewFetcher(ingest.FetcherOpts{
			BaseURL: cfg.Sheets.ExportBaseURL,
			Timeout: cfg.Sheets.Timeout,
		}),
		Generator:    gen,
		ChatLog:      chat,
		Blobs:        a.blobs,
		Notifier:     router,
		Publisher:    publisher,
		HistoryTurns: cfg.AI.HistoryTurns,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// notifierFromConfig registers every chat channel that has a bot token.
func notifierFromConfig(cfg *config.Config) (*notify.Router, error) {
	fallback := cfg.Notify.DefaultChannel
	if fallback == "" {
		switch {
		case cfg.Secrets.SlackBotToken != "":
			fallback = models.ChannelSlack
		case cfg.Secrets.DiscordBotToken != "":
			fallback = models.ChannelDiscord
		}
	}
	router := notify.NewRouter(fallback)

	if cfg.Secrets.SlackBotToken != "" {
		n, err := slack.New(slack.Opts{
			BotToken:  cfg.Secrets.SlackBotToken,
			ChannelID: cfg.Notify.Slack.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		router.Register(models.ChannelSlack, n)
	}
	if cfg.Secrets.DiscordBotToken != "" {
		n, err := discord.New(discord.Opts{
			BotToken:  cfg.Secrets.DiscordBotToken,
			ChannelID: cfg.Notify.Discord.ChannelID,
			GuildID:   cfg.Notify.Discord.GuildID,
		})
		if err != nil {
			return nil, err
		}
		router.Register(models.ChannelDiscord, n)
	}
	return router, nil
}

// unavailableGenerator stands in for the AI client in commands that do not
// generate text.
type unavailableGenerator struct{}

func (unavailableGenerator) Generate(context.Context, string, llm.Settings) (string, error) {
	return "", fmt.Errorf("llm: AI client not configured for this command")
}

func (unavailableGenerator) Name() string { return "none" }
