package server

import (
	"context"

	"github.com/PremSagarPadhy/REASTURANT-POS-sub001/chat"
	"github.com/PremSagarPadhy/REASTURANT-POS-sub001/config"
	"github.com/PremSagarPadhy/REASTURANT-POS-sub001/handlers"
	"github.com/PremSagarPadhy/REASTURANT-POS-sub001/kafka"
	"github.com/PremSagarPadhy/REASTURANT-POS-sub001/limiter"
	custommiddleware "github.com/PremSagarPadhy/REASTURANT-POS-sub001/middleware"
	"github.com/PremSagarPadhy/REASTURANT-POS-sub001/models"
	"github.com/PremSagarPadhy/REASTURANT-POS-sub001/redis"
	"github.com/PremSagarPadhy/REASTURANT-POS-sub001/services"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Server struct {
	Echo                 *echo.Echo
	DB                   *gorm.DB
	Config               *config.Config
	Redis                *redis.RedisClient
	AuthHandler          *handlers.AuthHandler
	CategoryHandler      *handlers.CategoryServiceHandler
	MenuHandler          *handlers.MenuHandler
	TableHandler         *handlers.TableHandler
	OrderHandler         *handlers.OrderHandler
	SupportHandler       *handlers.SupportHandler
	ChatWebSocketHandler *handlers.ChatWebSocketHandler

	consumer    *kafka.Consumer
	cancelKafka context.CancelFunc
}

func NewServer() *Server {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := models.AutoMigrateAll(db); err != nil {
		log.Fatal("Failed to auto-migrate database:", err)
	}

	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to redis:", err)
	}

	// 初始化 Echo
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"http://localhost:5173"},
		AllowMethods:     []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.PATCH},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		ExposeHeaders:    []string{echo.HeaderContentLength},
		MaxAge:           86400,
	}))

	authService := services.NewAuthService(db, &cfg.Auth)
	oauthService := services.NewOAuthService(&cfg.Auth)
	supportStore := services.NewSupportStore(db)

	// Kafka 订单事件，连接失败只记录日志不阻塞启动
	var publisher services.OrderEventPublisher
	var consumer *kafka.Consumer
	var cancelKafka context.CancelFunc
	if len(cfg.Kafka.Brokers) > 0 {
		saramaCfg, err := kafka.NewSaramaConfig(&cfg.Kafka)
		if err != nil {
			log.Fatal("Invalid kafka configuration:", err)
		}
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, saramaCfg)
		if err != nil {
			log.Warn("Kafka producer unavailable, order events disabled:", err)
		} else {
			publisher = kafka.NewOrderEventPublisher(producer, cfg.Kafka.OrderTopic)
		}

		consumerCfg, _ := kafka.NewSaramaConfig(&cfg.Kafka)
		consumer, err = kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID,
			[]string{cfg.Kafka.OrderTopic}, consumerCfg, kafka.NewOrderEventHandler(supportStore))
		if err != nil {
			log.Warn("Kafka consumer unavailable, order linking disabled:", err)
		} else {
			var ctx context.Context
			ctx, cancelKafka = context.WithCancel(context.Background())
			go func() {
				if err := consumer.Start(ctx); err != nil {
					log.Error("kafka consumer stopped:", err)
				}
			}()
		}
	}

	orderService := services.NewOrderService(db, publisher)

	// 聊天内核
	presence := chat.NewRegistry()
	rooms := chat.NewRouter()
	dispatcher := chat.NewDispatcher(supportStore, presence, rooms)

	chatWebSocketHandler := handlers.NewChatWebSocketHandler(dispatcher, redisClient)
	supportHandler := handlers.NewSupportHandler(dispatcher, supportStore)
	authHandler := handlers.NewAuthHandler(authService, oauthService)
	categoryHandler := handlers.NewCategoryHandler(db)
	menuHandler := handlers.NewMenuHandler(db)
	tableHandler := handlers.NewTableHandler(db)
	orderHandler := handlers.NewOrderHandler(orderService)

	s := &Server{
		Echo:                 e,
		DB:                   db,
		Config:               &cfg,
		Redis:                redisClient,
		AuthHandler:          authHandler,
		CategoryHandler:      categoryHandler,
		MenuHandler:          menuHandler,
		TableHandler:         tableHandler,
		OrderHandler:         orderHandler,
		SupportHandler:       supportHandler,
		ChatWebSocketHandler: chatWebSocketHandler,
		consumer:             consumer,
		cancelKafka:          cancelKafka,
	}

	// --- 设置路由 ---
	authMiddleware := custommiddleware.AuthMiddleware(authService)
	adminMiddleware := custommiddleware.AdminAuthMiddleware()
	limiterManager := limiter.NewManager(redisClient.Client, &limiter.FixedWindowStrategy{})
	s.SetupRoutes(authMiddleware, adminMiddleware, limiterManager)
	return s
}

func (s *Server) Start(addr string) {
	log.Fatal(s.Echo.Start(addr))
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancelKafka != nil {
		s.cancelKafka()
	}
	if s.consumer != nil {
		_ = s.consumer.Close()
	}
	return s.Echo.Shutdown(ctx)
}
