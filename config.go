package main

import (
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"

	"HeroChatAI/app/configs"
	"HeroChatAI/app/rag"
)

const defaultConfigPath = "config.yaml"

func loadEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("⚠️ Could not load .env: %v", err)
	}
}

// getConfigPath prefers the flag, then HEROCHAT_CONFIG, then config.yaml.
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("HEROCHAT_CONFIG"); env != "" {
		return env
	}
	return defaultConfigPath
}

func getStore(cfg *configs.Config) (rag.Store, error) {
	store, err := cfg.BuildStore()
	if err != nil {
		return nil, err
	}
	log.Printf("🔗 Connected to %s vector store", cfg.VectorStore.Type)
	return store, nil
}
