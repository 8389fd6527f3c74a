package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	globalConfig "github.com/twitboost/twitboost-api/config"
	"github.com/twitboost/twitboost-api/ui/rest"
	"github.com/twitboost/twitboost-api/ui/rest/middleware"
)

var restCmd = &cobra.Command{
	Use:   "rest",
	Short: "Run the TwitBoost dispatch API over HTTP",
	Run:   restServer,
}

func init() {
	restCmd.Flags().String("basic-auth", "", "Basic auth for the management API (format: user:pass,user2:pass2)")
	rootCmd.AddCommand(restCmd)
}

func restServer(cmd *cobra.Command, _ []string) {
	if baFlag, _ := cmd.Flags().GetString("basic-auth"); baFlag != "" {
		globalConfig.AppBasicAuthCredential = strings.Split(baFlag, ",")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := buildContainer(ctx)
	if err != nil {
		logrus.Fatalln("Failed to initialize services:", err)
	}
	defer container.close(context.Background())

	container.pool.Start(ctx)
	defer container.pool.Stop()
	rest.SetDispatchPool(container.pool)

	fiberConfig := fiber.Config{
		EnableTrustedProxyCheck: true,
		Network:                 "tcp",
		AppName:                 "TwitBoost Dispatch Engine",
		ServerHeader:            "Hidden",
	}
	if len(globalConfig.AppTrustedProxies) > 0 {
		fiberConfig.TrustedProxies = globalConfig.AppTrustedProxies
		fiberConfig.ProxyHeader = fiber.HeaderXForwardedHost
	}

	app := fiber.New(fiberConfig)

	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.Recovery())
	app.Use(helmet.New(helmet.Config{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        1000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))

	if globalConfig.AppDebug {
		app.Use(logger.New())
	}

	if globalConfig.CronSecret == "" {
		logrus.Fatalln("CRON_SECRET is required; the dispatch trigger must never be public.")
	}
	if len(globalConfig.AppBasicAuthCredential) == 0 {
		logrus.Fatalln("APP_BASIC_AUTH is required. Nothing should be public; please set APP_BASIC_AUTH=<user>:<secret>[,<user2>:<secret2>] and restart.")
	}

	account := make(map[string]string)
	for _, basicAuth := range globalConfig.AppBasicAuthCredential {
		ba := strings.Split(basicAuth, ":")
		if len(ba) != 2 {
			logrus.Fatalln("Basic auth is not valid, please use the format <user>:<secret>")
		}
		account[ba[0]] = ba[1]
	}

	// Cron endpoints authenticate with the shared bearer secret, not
	// basic auth; register them before the protected group.
	cronGroup := app.Group(globalConfig.AppBasePath+"/api/cron", middleware.CronAuth(globalConfig.CronSecret))
	rest.InitRestCron(cronGroup, container.dispatchUsecase, container.runLog)

	api := app.Group(globalConfig.AppBasePath+"/api", basicauth.New(basicauth.Config{Users: account}))
	rest.InitRestTweet(api, container.tweetUsecase, container.dispatchUsecase)
	rest.InitRestHealth(api, container.healthUsecase)
	rest.InitRestDispatchPool(api)

	go func() {
		<-ctx.Done()
		logrus.Info("Shutting down HTTP server")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	if err := app.Listen(":" + globalConfig.AppPort); err != nil {
		logrus.Fatalln("Failed to start server:", err)
	}
}
