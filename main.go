package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"fieldops-scheduler/controller"
	"fieldops-scheduler/dal"
	"fieldops-scheduler/models"
	"fieldops-scheduler/repository"
	"fieldops-scheduler/services"
	"fieldops-scheduler/utils"
	"fieldops-scheduler/utils/logger"
	"fieldops-scheduler/worker"

	"github.com/gin-gonic/gin"
)

var config *models.Config

func Init() {
	var err error
	config, err = utils.GetConfig()
	if err != nil {
		log.Fatal(err)
	}
}

// @title FieldOps Scheduler API
// @version 1.0
// @description Recurring work-order scheduling: schedule plans, generated operation jobs and crews.
// @description Every tenant-scoped call requires the X-Tenant-ID header. X-Actor-ID is recorded on writes.

// @host localhost:8081
// @BasePath /api/v1
func main() {
	Init()

	appLogger := logger.NewLogger(config.LogLevel, config.LogFormat)
	appLogger.Infof("Starting %s %s (%s)", config.AppName, config.AppVersion, config.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := dal.NewDynamoDBClient(ctx, config, appLogger)
	if err != nil {
		appLogger.Fatalf("Failed to create DynamoDB client: %v", err)
	}
	repos := repository.NewRepositoryContainer(db, config, appLogger)

	ownerID := worker.NewOwnerID()

	var leaser services.PlanLeaser
	if config.RedisURL != "" {
		redisLeaser, err := worker.NewRedisLeaser(config.RedisURL, config.SchedulerLeaseTTL, ownerID)
		if err != nil {
			appLogger.Fatalf("Failed to configure generation leases: %v", err)
		}
		defer redisLeaser.Close()
		if err := redisLeaser.Ping(ctx); err != nil {
			appLogger.Warnf("Redis unreachable, generation continues without leases until it recovers: %v", err)
		}
		leaser = redisLeaser
	}

	svc := services.NewService(repos, leaser, appLogger, config)

	generationWorker, err := worker.NewWorker(config, svc.GetJobGenerationService(), db, ownerID, appLogger)
	if err != nil {
		appLogger.Fatalf("Failed to create generation worker: %v", err)
	}
	if err := generationWorker.Start(ctx); err != nil {
		appLogger.Fatalf("Failed to start generation worker: %v", err)
	}
	defer generationWorker.Stop()

	if config.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	c := controller.NewController(svc, generationWorker, appLogger)
	c.RegisterRoutes(r, config.BasePath)

	if err := c.Serve(ctx, config, r); err != nil {
		appLogger.Errorf("Server stopped with error: %v", err)
		return
	}
	appLogger.Info("Server stopped")
}
