package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/wellkeeper/internal/flagx"
	"github.com/dmitrijs2005/wellkeeper/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration, shared by JSON and
// YAML files. Durations use timex.Duration so both "1h" and integer
// nanoseconds are accepted. Zero values leave the current setting untouched.
type FileConfig struct {
	HTTPAddr                    string         `json:"http_addr" yaml:"http_addr"`
	GRPCAddr                    string         `json:"grpc_addr" yaml:"grpc_addr"`
	DatabaseDSN                 string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey                   string         `json:"secret_key" yaml:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	Environment                 string         `json:"environment" yaml:"environment"`
	BlobBackend                 string         `json:"blob_backend" yaml:"blob_backend"`
	UploadDir                   string         `json:"upload_dir" yaml:"upload_dir"`
	MaxUploadSize               int64          `json:"max_upload_size" yaml:"max_upload_size"`
	S3RootUser                  string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region                    string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	LoginRatePerSecond          float64        `json:"login_rate_per_second" yaml:"login_rate_per_second"`
	LoginBurst                  int            `json:"login_burst" yaml:"login_burst"`
	CORSAllowOrigins            []string       `json:"cors_allow_origins" yaml:"cors_allow_origins"`
}

// parseFile loads configuration values from the file named by the -c or
// -config flag. Files ending in .yaml or .yml are decoded as YAML, anything
// else as JSON. If no flag is given nothing is loaded. An unreadable or
// malformed file panics.
func parseFile(config *Config) {

	// try flags
	configFile := flagx.ConfigFile()

	// nothing to load
	if configFile == "" {
		return
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		panic(err)
	}

	c := &FileConfig{}

	switch strings.ToLower(filepath.Ext(configFile)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *FileConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	setString(&config.Environment, c.Environment)
	setString(&config.BlobBackend, c.BlobBackend)
	setString(&config.UploadDir, c.UploadDir)
	if c.MaxUploadSize > 0 {
		config.MaxUploadSize = c.MaxUploadSize
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.LoginRatePerSecond > 0 {
		config.LoginRatePerSecond = c.LoginRatePerSecond
	}
	if c.LoginBurst > 0 {
		config.LoginBurst = c.LoginBurst
	}
	if len(c.CORSAllowOrigins) > 0 {
		config.CORSAllowOrigins = c.CORSAllowOrigins
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
