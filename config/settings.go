package config

import "time"

var (
	AppVersion             = "v1.0.0"
	AppPort                = "3000"
	AppDebug               = false
	AppBasicAuthCredential []string
	AppBasePath            = ""
	AppTrustedProxies      []string

	MongoDBURI      = ""
	MongoDBDatabase = "twitboost"

	// CronSecret is the shared bearer secret guarding /api/cron/*.
	CronSecret = ""

	TwitterAPIBaseURL          = "https://api.twitter.com"
	TwitterUploadBaseURL       = "https://upload.twitter.com"
	TwitterHTTPTimeout         = 15 * time.Second
	TwitterMaxMediaBytes int64 = 20000000 // 20MB

	DispatchWorkerPoolSize = 4
	DispatchQueueSize      = 256
	DispatchPostingTTL     = 10 * time.Minute
	CronLogCapacity        = 100

	ValkeyEnabled   = false
	ValkeyAddress   = "localhost:6379"
	ValkeyPassword  = ""
	ValkeyDB        = 0
	ValkeyKeyPrefix = "twitboost"
)
