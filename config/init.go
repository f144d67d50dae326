package config

import (
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"

	"github.com/kelseyhightower/envconfig"
)

// reading config error is fatal, and exits main thread
func processError(err error) {
	log.Fatal().Err(err).Msg("cannot load configuration")
}

func configPath() string {
	if p := os.Getenv("CONFIG_FILE"); p != "" {
		return p
	}
	return "config.yml"
}

func readFile(cfg *Configuration) {
	f, err := os.Open(configPath())
	if err != nil {
		processError(err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	err = decoder.Decode(cfg)
	if err != nil {
		processError(err)
	}
}

func readEnv(cfg *Configuration) {
	err := envconfig.Process("", cfg)
	if err != nil {
		processError(err)
	}
}

func applyDefaults(cfg *Configuration) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.UTXO.Confirmations == 0 {
		cfg.UTXO.Confirmations = 6
	}
	if cfg.Bridge.SourceChain == 0 {
		cfg.Bridge.SourceChain = 1
	}
	if cfg.Bridge.DestChain == 0 {
		cfg.Bridge.DestChain = 61
	}
	if cfg.Poll.Blocks == 0 {
		cfg.Poll.Blocks = 10
	}
	if cfg.Poll.Price == 0 {
		cfg.Poll.Price = 60
	}
	if cfg.Poll.Auction == 0 {
		cfg.Poll.Auction = 30
	}
}

func Init() {
	readFile(&Config)
	readEnv(&Config)
	applyDefaults(&Config)
}
