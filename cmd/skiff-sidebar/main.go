package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/skiffchat/skiff"
	"github.com/skiffchat/skiff/cache"
	"github.com/skiffchat/skiff/client"
	"github.com/skiffchat/skiff/config"
	"github.com/skiffchat/skiff/sidebar"
	"github.com/skiffchat/skiff/store"
)

func main() {
	configPath := flag.String("config", "skiff.yaml", "path to config file")
	flag.Parse()

	// load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		logrus.Info("no .env file, relying on the environment")
	}

	token := os.Getenv("SKIFF_TOKEN")
	userID := os.Getenv("SKIFF_USER_ID")
	teams := strings.Split(os.Getenv("SKIFF_TEAMS"), ",")
	if token == "" || userID == "" {
		logrus.Fatal("SKIFF_TOKEN and SKIFF_USER_ID must be set")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatal(err)
	}

	st := store.New()
	st.Dispatch(skiff.CurrentUserSet{UserID: userID})

	// replay the last known sidebar before talking to the server
	snapshot, err := cache.Open(cfg.CachePath)
	if err != nil {
		logrus.WithError(err).Warn("starting without a cache")
	} else {
		defer snapshot.Close()
		events, err := snapshot.Load()
		if err != nil {
			logrus.WithError(err).Warn("ignoring unreadable cache")
		} else {
			st.Dispatch(events...)
		}
		st.Subscribe(func(s store.State) {
			if err := snapshot.Save(s); err != nil {
				logrus.WithError(err).Warn("cache save failed")
			}
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.New(cfg.ServerURL, token)
	if err := api.SyncTeams(ctx, st, userID, teams); err != nil {
		logrus.Fatal(err)
	}

	stream := client.NewStream(cfg.WebsocketURL, token, st)
	stream.MinBackoff = time.Duration(cfg.ReconnectMinSeconds) * time.Second
	stream.MaxBackoff = time.Duration(cfg.ReconnectMaxSeconds) * time.Second
	go func() {
		if err := stream.Listen(ctx); err != nil && ctx.Err() == nil {
			logrus.WithError(err).Error("event stream ended")
		}
	}()

	pipeline := sidebar.New(sidebar.Options{
		Locale:         cfg.Locale,
		AutoCloseAfter: cfg.AutoCloseAfter(),
	})
	categoriesForTeam := sidebar.MakeCategoriesForTeam()
	channelsForCategory := pipeline.MakeChannelsForCategory()

	print := func(s store.State) {
		for _, teamID := range teams {
			fmt.Printf("team %s\n", teamID)
			for _, category := range categoriesForTeam(s, teamID) {
				fmt.Printf("  %s (%s)\n", category.DisplayName, category.Type)
				for _, channel := range channelsForCategory(s, category) {
					fmt.Printf("    %s\n", channel.DisplayName)
				}
			}
		}
	}
	print(st.State())
	st.Subscribe(print)

	<-ctx.Done()
}
