package cmd

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	globalConfig "github.com/twitboost/twitboost-api/config"
	"github.com/twitboost/twitboost-api/pkg/utils"
)

var rootCmd = &cobra.Command{
	Use:   "twitboost-api",
	Short: "TwitBoost scheduled-tweet dispatch engine",
	Long: `TwitBoost dispatch engine: schedules user tweets and threads, posts
them to Twitter/X when due, and keeps an audit log of every dispatch run.`,
}

func init() {
	// Load environment variables first
	utils.LoadConfig(".")

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	cobra.OnInitialize(initEnvConfig, initLogger)
}

// initEnvConfig loads configuration from environment variables
func initEnvConfig() {
	if envPort := viper.GetString("app_port"); envPort != "" {
		globalConfig.AppPort = envPort
	}
	if viper.IsSet("app_debug") {
		globalConfig.AppDebug = viper.GetBool("app_debug")
	}
	if envBasicAuth := viper.GetString("app_basic_auth"); envBasicAuth != "" {
		globalConfig.AppBasicAuthCredential = strings.Split(envBasicAuth, ",")
	}
	if envBasePath := viper.GetString("app_base_path"); envBasePath != "" {
		globalConfig.AppBasePath = envBasePath
	}
	if envTrustedProxies := viper.GetString("app_trusted_proxies"); envTrustedProxies != "" {
		globalConfig.AppTrustedProxies = strings.Split(envTrustedProxies, ",")
	}

	if envMongoURI := viper.GetString("mongodb_uri"); envMongoURI != "" {
		globalConfig.MongoDBURI = envMongoURI
	}
	if envMongoDB := viper.GetString("mongodb_database"); envMongoDB != "" {
		globalConfig.MongoDBDatabase = envMongoDB
	}

	if envCronSecret := viper.GetString("cron_secret"); envCronSecret != "" {
		globalConfig.CronSecret = envCronSecret
	}

	if envAPIBase := viper.GetString("twitter_api_base_url"); envAPIBase != "" {
		globalConfig.TwitterAPIBaseURL = envAPIBase
	}
	if envUploadBase := viper.GetString("twitter_upload_base_url"); envUploadBase != "" {
		globalConfig.TwitterUploadBaseURL = envUploadBase
	}
	if envTimeout := viper.GetString("twitter_http_timeout"); envTimeout != "" {
		if d, err := time.ParseDuration(envTimeout); err == nil && d > 0 {
			globalConfig.TwitterHTTPTimeout = d
		}
	}
	if envMaxMedia := viper.GetInt64("twitter_max_media_bytes"); envMaxMedia > 0 {
		globalConfig.TwitterMaxMediaBytes = envMaxMedia
	}

	if envPoolSize := viper.GetInt("dispatch_worker_pool_size"); envPoolSize > 0 {
		globalConfig.DispatchWorkerPoolSize = envPoolSize
	}
	if envQueueSize := viper.GetInt("dispatch_queue_size"); envQueueSize > 0 {
		globalConfig.DispatchQueueSize = envQueueSize
	}
	if envPostingTTL := viper.GetString("dispatch_posting_ttl"); envPostingTTL != "" {
		if d, err := time.ParseDuration(envPostingTTL); err == nil && d > 0 {
			globalConfig.DispatchPostingTTL = d
		}
	}
	if envLogCapacity := viper.GetInt("cron_log_capacity"); envLogCapacity > 0 {
		globalConfig.CronLogCapacity = envLogCapacity
	}

	if viper.IsSet("valkey_enabled") {
		globalConfig.ValkeyEnabled = viper.GetBool("valkey_enabled")
	}
	if envValkeyAddr := viper.GetString("valkey_address"); envValkeyAddr != "" {
		globalConfig.ValkeyAddress = envValkeyAddr
	}
	if envValkeyPassword := viper.GetString("valkey_password"); envValkeyPassword != "" {
		globalConfig.ValkeyPassword = envValkeyPassword
	}
	if viper.IsSet("valkey_db") {
		globalConfig.ValkeyDB = viper.GetInt("valkey_db")
	}
	if envValkeyPrefix := viper.GetString("valkey_key_prefix"); envValkeyPrefix != "" {
		globalConfig.ValkeyKeyPrefix = envValkeyPrefix
	}
}

func initLogger() {
	if globalConfig.AppDebug {
		logrus.SetLevel(logrus.DebugLevel)
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatalln(err)
	}
}
