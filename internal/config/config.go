package config

import (
	"os"
	"time"

	"quiz-arena/internal/app"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Bank struct {
		ID  string `yaml:"id"`
		TTL string `yaml:"ttl"`
	} `yaml:"bank"`
	Game struct {
		MaxPlayers        int    `yaml:"max_players"`
		TotalQuestions    int    `yaml:"total_questions"`
		QuestionTimeLimit string `yaml:"question_time_limit"`
		StartDelay        string `yaml:"start_delay"`
		DisplayDelay      string `yaml:"display_delay"`
		ResultsDelay      string `yaml:"results_delay"`
		ResetDelay        string `yaml:"reset_delay"`
		Tick              string `yaml:"tick"`
		AutoStartPlayers  int    `yaml:"auto_start_players"`
		AutoStartDelay    string `yaml:"auto_start_delay"`
	} `yaml:"game"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty or
// malformed.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// GameSettings merges configured game knobs over the defaults. Zero-valued
// counts keep their defaults.
func (c Config) GameSettings() app.Settings {
	s := app.DefaultSettings()
	if c.Game.MaxPlayers > 0 {
		s.MaxPlayers = c.Game.MaxPlayers
	}
	if c.Game.TotalQuestions > 0 {
		s.TotalQuestions = c.Game.TotalQuestions
	}
	if c.Game.AutoStartPlayers > 0 {
		s.AutoStartPlayers = c.Game.AutoStartPlayers
	}
	s.QuestionTimeLimit = TTLDuration(c.Game.QuestionTimeLimit, s.QuestionTimeLimit)
	s.StartDelay = TTLDuration(c.Game.StartDelay, s.StartDelay)
	s.DisplayDelay = TTLDuration(c.Game.DisplayDelay, s.DisplayDelay)
	s.ResultsDelay = TTLDuration(c.Game.ResultsDelay, s.ResultsDelay)
	s.ResetDelay = TTLDuration(c.Game.ResetDelay, s.ResetDelay)
	s.Tick = TTLDuration(c.Game.Tick, s.Tick)
	s.AutoStartDelay = TTLDuration(c.Game.AutoStartDelay, s.AutoStartDelay)
	return s
}
