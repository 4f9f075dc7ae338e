// cmd/discord/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/keshon/voice-warden/internal/command"
	vrcmd "github.com/keshon/voice-warden/internal/command/voicerole"
	"github.com/keshon/voice-warden/internal/config"
	"github.com/keshon/voice-warden/internal/discord"
	"github.com/keshon/voice-warden/internal/middleware"
	"github.com/keshon/voice-warden/internal/storage"
	"github.com/keshon/voice-warden/internal/version"
	"github.com/keshon/voice-warden/internal/voicerole"
)

func main() {
	log.Printf("[INFO] Starting %v %v...", version.AppName, version.Version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.New()
	if err != nil {
		log.Fatal(err)
	}

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	bot := discord.NewBot(cfg, store)

	dispatcher := voicerole.New(store, bot.Authorizer(), bot.Directory())
	command.Register(command.ApplyMiddlewares(
		&vrcmd.SlashCommand{Dispatcher: dispatcher},
		middleware.WithGuildOnly(),
		middleware.WithUserPermissionCheck(),
		middleware.WithCommandLogger(),
	))

	errCh := make(chan error, 1)
	go func() {
		if err := bot.Run(ctx); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Printf("[INFO] Received signal %s, shutting down...", s)
		cancel()
	case err := <-errCh:
		if err != nil {
			log.Println("[ERR] Discord bot error:", err)
		}
		cancel()
	case <-ctx.Done():
	}

	log.Println("[INFO] Discord bot exited cleanly")
}
