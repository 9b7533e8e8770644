// config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port string `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// FEHDURLsConfig holds the upstream endpoints of the FEHD licensing site.
// The site has served the same dataset as an XML dump, a CSV dump, a paged
// JSON endpoint and a rendered HTML table at different times, so all four
// stay configurable.
type FEHDURLsConfig struct {
	RestaurantXML string `yaml:"restaurant_xml"`
	RestaurantCSV string `yaml:"restaurant_csv"`
	DataEndpoint  string `yaml:"data_endpoint"`
	ListingPage   string `yaml:"listing_page"`
}

type CrawlerConfig struct {
	Format               string `yaml:"format"` // auto, xml, csv, json or html
	RecordsPerPage       int    `yaml:"records_per_page"`
	PreviewLimit         int    `yaml:"preview_limit"`
	TotalRecordsEstimate int    `yaml:"total_records_estimate"`
	PageDelayStr         string `yaml:"page_delay"`
	RequestTimeoutStr    string `yaml:"request_timeout"`
	PageDelay            time.Duration
	RequestTimeout       time.Duration
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	FEHDURLs FEHDURLsConfig `yaml:"fehd_urls"`
	Crawler  CrawlerConfig  `yaml:"crawler"`
}

var AppConfig Config

// LoadConfig reads the YAML configuration file and applies environment
// overrides for the database credentials (the managed database provider
// hands those out as env vars).
func LoadConfig(configPath string) error {
	file, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	err = yaml.Unmarshal(file, &AppConfig)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides()

	if AppConfig.Crawler.PageDelayStr != "" {
		AppConfig.Crawler.PageDelay, err = time.ParseDuration(AppConfig.Crawler.PageDelayStr)
		if err != nil {
			return fmt.Errorf("failed to parse crawler page_delay: %w", err)
		}
	} else {
		AppConfig.Crawler.PageDelay = 1 * time.Second
	}

	if AppConfig.Crawler.RequestTimeoutStr != "" {
		AppConfig.Crawler.RequestTimeout, err = time.ParseDuration(AppConfig.Crawler.RequestTimeoutStr)
		if err != nil {
			return fmt.Errorf("failed to parse crawler request_timeout: %w", err)
		}
	} else {
		AppConfig.Crawler.RequestTimeout = 60 * time.Second
	}

	if AppConfig.Crawler.RecordsPerPage <= 0 {
		AppConfig.Crawler.RecordsPerPage = 50
	}
	if AppConfig.Crawler.PreviewLimit <= 0 {
		AppConfig.Crawler.PreviewLimit = 1000
	}
	if AppConfig.Crawler.TotalRecordsEstimate <= 0 {
		AppConfig.Crawler.TotalRecordsEstimate = 12545
	}
	if AppConfig.Crawler.Format == "" {
		AppConfig.Crawler.Format = "auto"
	}
	if AppConfig.Server.Port == "" {
		AppConfig.Server.Port = "3000"
	}

	return nil
}

func applyEnvOverrides() {
	if v := os.Getenv("DB_HOST"); v != "" {
		AppConfig.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		AppConfig.Database.Port = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		AppConfig.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		AppConfig.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		AppConfig.Database.DBName = v
	}
	if v := os.Getenv("PORT"); v != "" {
		AppConfig.Server.Port = v
	}
}
