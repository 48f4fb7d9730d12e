package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mhai-lab/mhai/evaluation"
)

// EnvFile is loaded into the process environment before config is read.
const EnvFile = ".envs/.env"

type Inference struct {
	URL     string        `mapstructure:"url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}
type Mastodon struct {
	Instance string `mapstructure:"instance"`
	Token    string `mapstructure:"token"`
}
type Twitter struct {
	API      string `mapstructure:"api"`
	Token    string `mapstructure:"token"`
	Username string `mapstructure:"username"`
}
type Server struct {
	Addr string `mapstructure:"addr"`
}
type Workers struct {
	Concurrency int `mapstructure:"concurrency"`
}
type Root struct {
	Pipeline struct {
		Name      string `mapstructure:"name"`
		Version   string `mapstructure:"version"`
		LogLvl    string `mapstructure:"log_level"`
		LogFormat string `mapstructure:"log_format"`
	} `mapstructure:"pipeline"`
	Inference  Inference                    `mapstructure:"inference"`
	Evaluators map[string]evaluation.Config `mapstructure:"evaluators"`
	Taxonomy   struct {
		Path  string `mapstructure:"path"`
		Model string `mapstructure:"model"`
	} `mapstructure:"taxonomy"`
	Mastodon Mastodon `mapstructure:"mastodon"`
	Twitter  Twitter  `mapstructure:"twitter"`
	Server   Server   `mapstructure:"server"`
	Workers  Workers  `mapstructure:"workers"`
	Paths    struct {
		Outputs string `mapstructure:"outputs"`
	} `mapstructure:"paths"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pipeline.name", "mhai")
	v.SetDefault("pipeline.log_level", "info")
	v.SetDefault("pipeline.log_format", "text")
	v.SetDefault("inference.timeout", 60*time.Second)
	v.SetDefault("mastodon.instance", "https://mastodon.social")
	v.SetDefault("twitter.api", "https://api.twitter.com/2")
	v.SetDefault("taxonomy.model", evaluation.MentBERTModel)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("workers.concurrency", 4)
	v.SetDefault("paths.outputs", "outputs")
}

// bindEnv keeps the variable names the tooling has always used.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("MHAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("inference.token", "MHAI_INFERENCE_TOKEN", "HUGGINGFACE_TOKEN")
	_ = v.BindEnv("mastodon.token", "MHAI_MASTODON_TOKEN", "MASTODON_TOKEN")
	_ = v.BindEnv("mastodon.instance", "MHAI_MASTODON_INSTANCE", "MASTODON_INSTANCE")
	_ = v.BindEnv("twitter.token", "MHAI_TWITTER_TOKEN", "TWITTER_BEARER_TOKEN")

	// AutomaticEnv only reaches Unmarshal for keys viper already knows.
	for _, key := range []string{"pipeline.version", "inference.url", "taxonomy.path", "twitter.username"} {
		_ = v.BindEnv(key)
	}
	for _, k := range evaluation.Kinds() {
		for _, field := range []string{"model", "temperature", "output_max_length"} {
			_ = v.BindEnv("evaluators." + string(k) + "." + field)
		}
	}
}

// Load reads config/<CONFIG_ENV>/config.yaml (CONFIG_ENV defaults to dev),
// then the shared config, then environment overrides. A missing file is not
// an error; defaults and environment still apply.
func Load() (*Root, error) {
	_ = godotenv.Load(EnvFile)

	v := viper.New()
	setDefaults(v)
	bindEnv(v)
	_ = v.BindEnv("env", "CONFIG_ENV")
	env := v.GetString("env")
	if env == "" {
		env = "dev"
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join("config", env))
	v.AddConfigPath(filepath.Join("src", "shared"))
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	return decode(v)
}

// LoadFile reads one explicit config file.
func LoadFile(path string) (*Root, error) {
	_ = godotenv.Load(EnvFile)

	v := viper.New()
	setDefaults(v)
	bindEnv(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Root, error) {
	var cfg Root
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config decode: %w", err)
	}
	// viper lowercases map keys; kinds are lowercase already.
	for name := range cfg.Evaluators {
		if _, err := evaluation.ParseKind(name); err != nil {
			return nil, fmt.Errorf("config: evaluators: %w", err)
		}
	}
	return &cfg, nil
}

// EvaluatorOverrides returns the per-kind evaluator settings.
func (r *Root) EvaluatorOverrides() map[evaluation.Kind]evaluation.Config {
	out := make(map[evaluation.Kind]evaluation.Config, len(r.Evaluators))
	for name, c := range r.Evaluators {
		out[evaluation.Kind(name)] = c
	}
	return out
}

// LoadTaxonomy returns the configured taxonomy or the built-in mentBERT one.
func (r *Root) LoadTaxonomy() (evaluation.Taxonomy, error) {
	if r.Taxonomy.Path == "" {
		return evaluation.MentBERTTaxonomy, nil
	}
	return evaluation.LoadTaxonomy(r.Taxonomy.Path)
}
