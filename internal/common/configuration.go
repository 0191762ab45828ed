// Package common provides configuration management, rule-store database
// initialization, and HTTP endpoint utilities shared by the store and
// server packages. It includes support for YAML configuration files,
// environment variable overrides, CORS setup, and PostgreSQL connections
// with connection pooling.
package common

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
)

// PrintSplash prints the process banner to the console at startup.
func PrintSplash() {
	log.Printf(`
	 █████╗  ██████╗ ██████╗███████╗███████╗███████╗██████╗
	██╔══██╗██╔════╝██╔════╝██╔════╝██╔════╝██╔════╝██╔══██╗
	███████║██║     ██║     █████╗  ███████╗███████╗██║  ██║
	██╔══██║██║     ██║     ██╔══╝  ╚════██║╚════██║██║  ██║
	██║  ██║╚██████╗╚██████╗███████╗███████║███████║██████╔╝
	╚═╝  ╚═╝ ╚═════╝ ╚═════╝╚══════╝╚══════╝╚══════╝╚═════╝
	`)
}

// Config is the complete configuration for the accessd demo process:
// HTTP server settings, the rule-source persistence connection, CORS
// policy, and the engine's own rehydration settings.
type Config struct {
	Server     ServerConfig   `yaml:"server"`
	Postgres   PostgresConfig `yaml:"postgres"`
	CorsConfig CorsConfig     `yaml:"cors" mapstructure:"cors"`
	Access     AccessConfig   `mapstructure:"access" json:"access"`
}

// ServerConfig contains HTTP server configuration parameters.
type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	ContextPath string `yaml:"contextPath"`
}

// PostgresConfig contains PostgreSQL connection parameters for the
// rule-source table.
type PostgresConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	User                   string `yaml:"user"`
	Password               string `yaml:"password"`
	DBName                 string `yaml:"dbname"`
	MaxOpenConnections     int    `yaml:"maxOpenConnections"`
	MaxIdleConnections     int    `yaml:"maxIdleConnections"`
	ConnMaxLifetimeMinutes int    `yaml:"connMaxLifetimeMinutes"`
}

// CorsConfig contains Cross-Origin Resource Sharing policy settings.
type CorsConfig struct {
	AllowedOrigins   []string `yaml:"allowedOrigins"`
	AllowedMethods   []string `yaml:"allowedMethods"`
	AllowedHeaders   []string `yaml:"allowedHeaders"`
	AllowCredentials bool     `yaml:"allowCredentials"`
}

// AccessConfig controls rehydration of the access-control engine from the
// rule-source table and request-path auditing of its decisions.
type AccessConfig struct {
	RuleTable            string `mapstructure:"ruleTable" json:"ruleTable"`
	RehydrateOnStartup   bool   `mapstructure:"rehydrateOnStartup" json:"rehydrateOnStartup"`
	AuditDeniedDecisions bool   `mapstructure:"auditDeniedDecisions" json:"auditDeniedDecisions"`
}

// LoadConfig loads configuration from an optional YAML file, then applies
// environment-variable overrides (SERVER_PORT for server.port, etc.),
// highest precedence last.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		log.Printf("loading config from file: %s", configPath)
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		log.Println("no config file provided, using environment variables and defaults")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	PrintConfiguration(cfg)
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5004)
	v.SetDefault("server.contextPath", "")

	v.SetDefault("postgres.host", "db")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "admin")
	v.SetDefault("postgres.password", "admin123")
	v.SetDefault("postgres.dbname", "accessd")
	v.SetDefault("postgres.maxOpenConnections", 50)
	v.SetDefault("postgres.maxIdleConnections", 50)
	v.SetDefault("postgres.connMaxLifetimeMinutes", 5)

	v.SetDefault("cors.allowedOrigins", []string{"*"})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"*"})
	v.SetDefault("cors.allowCredentials", true)

	v.SetDefault("access.ruleTable", "access_control_entries")
	v.SetDefault("access.rehydrateOnStartup", true)
	v.SetDefault("access.auditDeniedDecisions", false)
}

// PrintConfiguration logs the loaded configuration as pretty-printed JSON,
// with database credentials redacted.
func PrintConfiguration(cfg *Config) {
	cfgCopy := *cfg
	if cfgCopy.Postgres.Host != "" {
		cfgCopy.Postgres.Host = "****"
		cfgCopy.Postgres.User = "****"
		cfgCopy.Postgres.Password = "****"
	}

	configJSON, err := json.MarshalIndent(cfgCopy, "", "  ")
	if err != nil {
		log.Printf("unable to marshal configuration: %v", err)
		return
	}
	log.Printf("loaded configuration:\n%s", string(configJSON))
}

// AddCors configures CORS middleware on r according to config.CorsConfig.
func AddCors(r *chi.Mux, config *Config) {
	c := cors.New(cors.Options{
		AllowedOrigins:   config.CorsConfig.AllowedOrigins,
		AllowedMethods:   config.CorsConfig.AllowedMethods,
		AllowedHeaders:   config.CorsConfig.AllowedHeaders,
		AllowCredentials: config.CorsConfig.AllowCredentials,
	})
	r.Use(c.Handler)
}
