package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"HeroChatAI/app/clients"
	"HeroChatAI/app/configs"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Printf("❌ %v", err)
		os.Exit(1)
	}
}

// run returns instead of exiting so deferred cleanup always happens.
func run(args []string, out io.Writer) error {
	flags := flag.NewFlagSet("herochat", flag.ContinueOnError)
	configPath := flags.String("config", "", "Path to config YAML (default $HEROCHAT_CONFIG or config.yaml)")
	describe := flags.Bool("describe", false, "Print the pipeline graph and exit")
	question := flags.String("ask", "", "Answer a single question and exit")
	hero := flags.String("hero", "", "Superhero answering -ask (default: first configured)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	loadEnv()

	cfg, err := configs.LoadConfig(getConfigPath(*configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := getStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("⚠️ Error closing vector store: %v", err)
		}
	}()

	rt, err := cfg.BuildRuntime(store)
	if err != nil {
		return fmt.Errorf("failed to build runtime: %w", err)
	}

	if *describe {
		fmt.Fprintln(out, rt.Describe())
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *question != "" {
		character := rt.DefaultCharacter()
		if *hero != "" {
			character = *hero
			if found, ok := rt.FindCharacter(*hero); ok {
				character = found
			}
		}
		reply, err := rt.GetResponse(ctx, *question, character)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, reply)
		return nil
	}

	registry := clients.NewRegistry()
	defer registry.CloseAll()
	if err = cfg.InitializeClients(registry, rt); err != nil {
		return fmt.Errorf("failed to initialize clients: %w", err)
	}

	log.Printf("✅ HeroChat ready with %d superheroes", len(rt.Characters()))
	return registry.RunAll(ctx)
}
