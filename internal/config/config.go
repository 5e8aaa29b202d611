package config

import (
	"errors"
	"imagestudio/internal/entity"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	DriverReplicate  = "replicate"
	DriverVolcengine = "volcengine"
)

type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// 推理服务商
	ProviderDriver         string `env:"PROVIDER_DRIVER" envDefault:"replicate"`
	ProviderTimeoutSeconds int    `env:"PROVIDER_TIMEOUT_SECONDS" envDefault:"300"`

	ReplicateAPIToken string `env:"REPLICATE_API_TOKEN" envDefault:""`
	ReplicateBaseURL  string `env:"REPLICATE_BASE_URL" envDefault:"https://api.replicate.com/v1"`
	ReplicateModel    string `env:"REPLICATE_MODEL" envDefault:""`

	VolcengineAPIKey    string `env:"VOLCENGINE_API_KEY" envDefault:""`
	VolcengineModel     string `env:"VOLCENGINE_MODEL" envDefault:"doubao-seedream-4-0-250828"`
	VolcengineImageSize string `env:"VOLCENGINE_IMAGE_SIZE" envDefault:"1K"`

	// 下载链接签名
	DownloadSigningSecret   string `env:"DOWNLOAD_SIGNING_SECRET" envDefault:""`
	DownloadTokenTTLMinutes int    `env:"DOWNLOAD_TOKEN_TTL_MINUTES" envDefault:"1440"`

	// 客户端
	ServerURL string `env:"IMAGESTUDIO_SERVER_URL" envDefault:"http://localhost:8080"`

	HistoryBackend    string `env:"HISTORY_BACKEND" envDefault:"file"`
	HistoryPath       string `env:"HISTORY_PATH" envDefault:"~/.imagestudio/imageHistory.json"`
	HistoryMaxRecords int    `env:"HISTORY_MAX_RECORDS" envDefault:"200"`

	DSNURL     string `env:"DSN_URL" envDefault:""`
	DBUser     string `env:"DBUser" envDefault:""`
	DBPassword string `env:"DBPassword" envDefault:""`
	DBAddr     string `env:"DBAddr" envDefault:""`
	DBName     string `env:"DBName" envDefault:"imagestudio"`
	DBPath     string `env:"DBPath" envDefault:"~/.imagestudio/history.db"`
	DBPort     string `env:"DBPort" envDefault:"3306"`

	ExportType      string `env:"EXPORT_TYPE" envDefault:"local"`
	ExportLocalDir  string `env:"EXPORT_LOCAL_DIR" envDefault:"~/.imagestudio/downloads"`
	ExportPublicURL string `env:"EXPORT_PUBLIC_BASE_URL" envDefault:""`

	// S3 兼容存储配置
	ExportS3Region          string `env:"EXPORT_S3_REGION"`
	ExportS3Bucket          string `env:"EXPORT_S3_BUCKET"`
	ExportS3Prefix          string `env:"EXPORT_S3_PREFIX"`
	ExportS3Endpoint        string `env:"EXPORT_S3_ENDPOINT"`
	ExportS3AccessKeyID     string `env:"EXPORT_S3_ACCESS_KEY_ID"`
	ExportS3SecretAccessKey string `env:"EXPORT_S3_SECRET_ACCESS_KEY"`
	ExportS3SessionToken    string `env:"EXPORT_S3_SESSION_TOKEN"`
	ExportS3ForcePathStyle  bool   `env:"EXPORT_S3_FORCE_PATH_STYLE" envDefault:"false"`

	// 阿里云 OSS 存储配置
	ExportOSSEndpoint        string `env:"EXPORT_OSS_ENDPOINT"`
	ExportOSSBucket          string `env:"EXPORT_OSS_BUCKET"`
	ExportOSSPrefix          string `env:"EXPORT_OSS_PREFIX"`
	ExportOSSAccessKeyID     string `env:"EXPORT_OSS_ACCESS_KEY_ID"`
	ExportOSSAccessKeySecret string `env:"EXPORT_OSS_ACCESS_KEY_SECRET"`

	// 腾讯云 COS 存储配置
	ExportCOSBucketURL string `env:"EXPORT_COS_BUCKET_URL"`
	ExportCOSPrefix    string `env:"EXPORT_COS_PREFIX"`
	ExportCOSSecretID  string `env:"EXPORT_COS_SECRET_ID"`
	ExportCOSSecretKey string `env:"EXPORT_COS_SECRET_KEY"`

	// Cloudflare R2 存储配置
	ExportR2AccountID       string `env:"EXPORT_R2_ACCOUNT_ID"`
	ExportR2Endpoint        string `env:"EXPORT_R2_ENDPOINT"`
	ExportR2Region          string `env:"EXPORT_R2_REGION" envDefault:"auto"`
	ExportR2Bucket          string `env:"EXPORT_R2_BUCKET"`
	ExportR2Prefix          string `env:"EXPORT_R2_PREFIX"`
	ExportR2AccessKeyID     string `env:"EXPORT_R2_ACCESS_KEY_ID"`
	ExportR2SecretAccessKey string `env:"EXPORT_R2_SECRET_ACCESS_KEY"`
}

// ParseConfig loads an optional .env file and then reads the environment.
func ParseConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logrus.WithError(err).Warn("failed to load .env file")
	}

	var conf Config
	if err := env.Parse(&conf); err != nil {
		logrus.WithError(err).Error("env.Parse error")
		return Config{}, err
	}
	return conf, nil
}

// Driver returns the normalised provider driver name.
func (c Config) Driver() string {
	driver := strings.ToLower(strings.TrimSpace(c.ProviderDriver))
	if driver == "" {
		return DriverReplicate
	}
	return driver
}

// ProviderCredential returns the credential of the selected driver.
func (c Config) ProviderCredential() string {
	switch c.Driver() {
	case DriverVolcengine:
		return strings.TrimSpace(c.VolcengineAPIKey)
	default:
		return strings.TrimSpace(c.ReplicateAPIToken)
	}
}

func (c Config) credentialEnvName() string {
	if c.Driver() == DriverVolcengine {
		return "VOLCENGINE_API_KEY"
	}
	return "REPLICATE_API_TOKEN"
}

// Validate reports server start-up faults. A missing provider credential is a
// ConfigurationError.
func (c Config) Validate() error {
	switch c.Driver() {
	case DriverReplicate, DriverVolcengine:
	default:
		return &entity.ConfigurationError{Setting: "PROVIDER_DRIVER", Reason: "unsupported driver " + c.ProviderDriver}
	}
	if c.ProviderCredential() == "" {
		return &entity.ConfigurationError{Setting: c.credentialEnvName(), Reason: "is not set"}
	}
	return nil
}

// ParseLogLevel falls back to info for unknown values.
func (c Config) ParseLogLevel() logrus.Level {
	level, err := logrus.ParseLevel(strings.TrimSpace(c.LogLevel))
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
