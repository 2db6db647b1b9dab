package wire

import (
	"GameZone/internal/api"
	"GameZone/internal/api/config"
	"GameZone/internal/api/handler"
	"GameZone/internal/job"
	"GameZone/internal/pkg/catalog"
	"GameZone/internal/pkg/cron"
	"GameZone/internal/pkg/es"
	"GameZone/internal/pkg/kafka"
	mongoRepo "GameZone/internal/pkg/mongo"
	"GameZone/internal/pkg/redis"
	"GameZone/internal/repository"
	"GameZone/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router       *gin.Engine
	DB           *gorm.DB
	KafkaManager *kafka.ConsumerManager
	CronMgr      *cron.Manager
	IMService    service.IMService
	WSHandler    *handler.WsHandler
}

func BuildApplication(db *gorm.DB, mongoDB *mongo.Database, cfg *config.Config) (*ApplicationContainer, error) {
	// 变更通知走 Redis Pub/Sub，多实例共享
	pubsub := redis.NewPubSub(redis.Rdb)

	userRepo := repository.NewUserRepo(db)
	userFollowRepo := repository.NewUserFollowRepo(db)
	bookmarkRepo := repository.NewGameBookmarkRepo(db)
	userESRepo := es.NewUserRepo()
	messageRepo := mongoRepo.NewMessageRepo(mongoDB)
	statusRepo := mongoRepo.NewStatusRepo(mongoDB)

	userService := service.NewUserService(userRepo, userESRepo)
	userFollowService := service.NewUserFollowService(userFollowRepo)
	directoryService := service.NewDirectoryService(userFollowService, userService)
	imService := service.NewIMService(cfg.IM, messageRepo, statusRepo, pubsub, pubsub, userService)
	catalogService := service.NewCatalogService(cfg.Catalog, catalog.NewClient(cfg.Catalog))
	bookmarkService := service.NewGameBookmarkService(bookmarkRepo)

	wsHandler := handler.NewWsHandler(cfg.IM, directoryService, imService, imService, pubsub)
	handlers := &api.HandlersGroup{
		UserHandler:         handler.NewUserHandler(userService),
		UserFollowHandler:   handler.NewUserFollowHandler(userFollowService, userService),
		IMHandler:           handler.NewIMHandler(imService),
		WSHandler:           wsHandler,
		CatalogHandler:      handler.NewCatalogHandler(catalogService),
		GameBookmarkHandler: handler.NewGameBookmarkHandler(bookmarkService),
	}

	router := api.SetupRouter(cfg, handlers)

	kafkaMgr, err := kafka.NewConsumerManager(cfg, userESRepo, userService, pubsub)
	if err != nil {
		imService.Close()
		return nil, err
	}

	cronMgr := cron.NewCronManager(job.NewFollowCountJob(userService, userFollowRepo))

	return &ApplicationContainer{
		Router:       router,
		DB:           db,
		KafkaManager: kafkaMgr,
		CronMgr:      cronMgr,
		IMService:    imService,
		WSHandler:    wsHandler,
	}, nil
}
