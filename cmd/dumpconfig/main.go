package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/nodemetrics/backend/internal/config"
)

// dumpconfig prints the fully resolved configuration, useful for verifying
// env overrides before deploying.
func main() {
	file := ""
	if len(os.Args) > 1 {
		file = os.Args[1]
	}
	cfg, err := config.Load(config.Options{ConfigFile: file})
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cfg); err != nil {
		log.Fatalf("encode config: %v", err)
	}
}
