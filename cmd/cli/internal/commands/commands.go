package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/vidyasangam/sangam-cli/internal/api"
	"github.com/vidyasangam/sangam-cli/internal/session"
)

const defaultServer = "http://127.0.0.1:8000"

type Globals struct {
	Debug   bool
	Server  string
	Version string
}

// fileConfig is the optional ~/.sangam/config.yaml.
type fileConfig struct {
	Server   string `yaml:"server"`
	CacheDir string `yaml:"cache_dir"`
}

func loadFileConfig() fileConfig {
	var cfg fileConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg
	}

	data, err := os.ReadFile(filepath.Join(home, ".sangam", "config.yaml"))
	if err != nil {
		return cfg
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Warn().Err(err).Msg("ignoring malformed config file")
		return fileConfig{}
	}

	return cfg
}

// env holds the wired-up client stack shared by the commands.
type env struct {
	store    session.Store
	notifier *session.Notifier
	api      *api.Client
}

// newEnv resolves configuration (flag beats config file beats default) and
// builds the session store and backend client.
func newEnv(globals *Globals) (*env, error) {
	fileCfg := loadFileConfig()

	server := globals.Server
	if server == "" {
		server = fileCfg.Server
	}
	if server == "" {
		server = defaultServer
	}

	store, err := session.NewFileStore("")
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	notifier := session.NewNotifier()

	apiClient := api.New(store, notifier, api.Config{
		BaseURL:  server,
		CacheDir: fileCfg.CacheDir,
	})

	log.Debug().Str("server", server).Msg("backend client initialized")

	return &env{store: store, notifier: notifier, api: apiClient}, nil
}
