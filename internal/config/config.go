package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/spf13/viper"
)

// Endpoints задаёт базовые адреса и фиксированные идентификаторы удалённых лент.
type Endpoints struct {
	SiteBase         string `mapstructure:"site_base" default:"http://www.trinityeaston.org"`
	ServiceTimesPath string `mapstructure:"service_times_path" default:"/trinjal/data/servicetimes.xml"`
	BlogBase         string `mapstructure:"blog_base" default:"http://trinityeaston.blogspot.com"`
	SocialBase       string `mapstructure:"social_base" default:"http://api.twitter.com/1"`
	SocialScreenName string `mapstructure:"social_screen_name" default:"trinityeastonpa"`
	PageBase         string `mapstructure:"page_base" default:"http://www.facebook.com"`
	PageID           string `mapstructure:"page_id" default:"99634166137"`
	CalendarBase     string `mapstructure:"calendar_base" default:"http://www.mychurchevents.com"`
	CalendarID       string `mapstructure:"calendar_id" default:"L6M7G1G1L6H2G1G1"`
}

// HTTP — настройки HTTP-клиента.
type HTTP struct {
	Timeout   int    `mapstructure:"timeout" default:"10"`
	UserAgent string `mapstructure:"user_agent" default:"parish-feeds/1.0"`
}

type Server struct {
	Addr string `mapstructure:"addr" default:":8080"`
}

type Database struct {
	URL string `mapstructure:"url"`
}

// Config хранит адреса лент, настройки клиента, сервера и интервал опроса.
type Config struct {
	Endpoints    Endpoints `mapstructure:"endpoints"`
	HTTP         HTTP      `mapstructure:"http"`
	Server       Server    `mapstructure:"server"`
	Database     Database  `mapstructure:"database"`
	PollInterval int       `mapstructure:"poll_interval"`
}

// Timeout возвращает таймаут HTTP-клиента.
func (cfg *Config) Timeout() time.Duration {
	return time.Duration(cfg.HTTP.Timeout) * time.Second
}

// Validate проверяет, что PollInterval равен 0 или не меньше 5 секунд,
// а все базовые адреса — валидные URL.
func (cfg *Config) Validate() error {
	if cfg.PollInterval != 0 && cfg.PollInterval < 5 {
		return errors.New("poll interval must be 0 or ≥ 5 seconds")
	}
	if cfg.HTTP.Timeout < 0 {
		return errors.New("http timeout must not be negative")
	}
	bases := map[string]string{
		"site_base":     cfg.Endpoints.SiteBase,
		"blog_base":     cfg.Endpoints.BlogBase,
		"social_base":   cfg.Endpoints.SocialBase,
		"page_base":     cfg.Endpoints.PageBase,
		"calendar_base": cfg.Endpoints.CalendarBase,
	}
	for name, u := range bases {
		if _, err := url.ParseRequestURI(u); err != nil {
			return fmt.Errorf("invalid %s URL: %s", name, u)
		}
	}
	if !strings.HasPrefix(cfg.Endpoints.ServiceTimesPath, "/") {
		return fmt.Errorf("service times path must start with /: %s", cfg.Endpoints.ServiceTimesPath)
	}
	return nil
}

// Default возвращает конфигурацию со значениями по умолчанию.
func Default() *Config {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		panic(err)
	}
	return &cfg
}

// LoadConfig читает JSON-файл по пути path поверх значений по умолчанию.
// Пустой path означает конфигурацию без файла.
// Переменные окружения FEEDS_<SECTION>_<KEY> и DATABASE_URL имеют приоритет над файлом.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("feeds")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindEnv регистрирует все известные ключи, чтобы AutomaticEnv работал
// и для ключей, отсутствующих в файле.
func bindEnv(v *viper.Viper) error {
	for _, binding := range envBindings {
		if err := v.BindEnv(binding...); err != nil {
			return fmt.Errorf("bind env %v: %w", binding, err)
		}
	}
	return nil
}

// envBindings: ключ и, при необходимости, явные имена переменных окружения.
var envBindings = [][]string{
	{"database.url", "DATABASE_URL", "FEEDS_DATABASE_URL"},
	{"endpoints.site_base"},
	{"endpoints.service_times_path"},
	{"endpoints.blog_base"},
	{"endpoints.social_base"},
	{"endpoints.social_screen_name"},
	{"endpoints.page_base"},
	{"endpoints.page_id"},
	{"endpoints.calendar_base"},
	{"endpoints.calendar_id"},
	{"http.timeout"},
	{"http.user_agent"},
	{"server.addr"},
	{"poll_interval"},
}
