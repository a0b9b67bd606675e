package server

import (
	"time"

	"github.com/PremSagarPadhy/REASTURANT-POS-sub001/limiter"
	custommiddleware "github.com/PremSagarPadhy/REASTURANT-POS-sub001/middleware"

	"github.com/labstack/echo/v4"
)

func (s *Server) SetupRoutes(authMiddleware echo.MiddlewareFunc, adminMiddleware echo.MiddlewareFunc, limiterManager *limiter.Manager) {
	e := s.Echo
	api := e.Group("/api/v1")
	// 登录接口按 IP 限流
	loginLimiter := custommiddleware.NewRateLimitMiddleware(limiterManager, custommiddleware.RateLimitConfig{
		Limit:   10,
		Window:  time.Minute,
		KeyFunc: func(c echo.Context) string { return "login:" + c.RealIP() },
	})
	// 顾客留言按 IP 限流，防刷
	messageLimiter := custommiddleware.NewRateLimitMiddleware(limiterManager, custommiddleware.RateLimitConfig{
		Limit:   30,
		Window:  time.Minute,
		KeyFunc: func(c echo.Context) string { return "support:" + c.RealIP() },
	})
	// Auth routes (unprotected)
	auth := api.Group("/auth")
	{
		// Get available OAuth providers
		auth.GET("/providers", s.AuthHandler.GetProviders)
		// Local authentication
		auth.POST("/register", s.AuthHandler.Register)
		auth.POST("/login", s.AuthHandler.Login, loginLimiter)
		auth.POST("/refresh", s.AuthHandler.RefreshToken)
		// OAuth routes
		auth.GET("/oauth/:provider", s.AuthHandler.OAuthLogin)
		auth.GET("/oauth/:provider/callback", s.AuthHandler.OAuthCallback)
	}
	// 公开路由
	public := api.Group("/public")
	{
		public.GET("/categories", s.CategoryHandler.GetCategories)        // 获取分类树
		public.GET("/categories/all", s.CategoryHandler.GetAllCategories) // 获取所有分类
		public.GET("/categories/:id", s.CategoryHandler.GetCategoryByID)  // 获取分类详情
		public.GET("/menu", s.MenuHandler.ListMenuItems)                  // 获取菜品列表
		public.GET("/menu/:id", s.MenuHandler.GetMenuItem)                // 获取菜品详情

		// 顾客咨询入口（顾客无账号体系，按 email/phone 登记）
		public.POST("/support/customers", s.SupportHandler.RegisterCustomer, messageLimiter)
		public.POST("/support/customers/:customerId/messages", s.SupportHandler.SendCustomerMessage, messageLimiter)
		public.GET("/support/customers/:customerId/messages", s.SupportHandler.GetMessages)
	}

	// 客服 WebSocket，身份在协议内认证（customer:auth / admin:auth）
	e.GET("/ws/support", s.ChatWebSocketHandler.HandleWebSocket)

	// 需要认证
	protected := api.Group("")
	protected.Use(authMiddleware)
	{
		// User routes
		protected.GET("/user", s.AuthHandler.GetCurrentUser)

		// 客服工作台
		support := protected.Group("/support")
		{
			support.GET("/customers", s.SupportHandler.ListCustomers)                           // 会话列表
			support.GET("/customers/:customerId/messages", s.SupportHandler.GetMessages)        // 历史消息
			support.POST("/customers/:customerId/messages", s.SupportHandler.SendAdminMessage)  // 管理员回复
			support.POST("/customers/:customerId/read", s.SupportHandler.MarkRead)              // 标记已读
			support.PUT("/customers/:customerId/status", s.SupportHandler.UpdateStatus)         // 更新会话状态
			support.GET("/online-users", s.ChatWebSocketHandler.GetOnlineUsers)                 // 在线用户列表
		}

		// 桌台
		tables := protected.Group("/tables")
		{
			tables.GET("", s.TableHandler.ListTables)
			tables.POST("", s.TableHandler.CreateTable)
			tables.DELETE("/:id", s.TableHandler.DeleteTable)
		}

		// 订单
		orders := protected.Group("/orders")
		{
			orders.POST("", s.OrderHandler.CreateOrder)
			orders.GET("", s.OrderHandler.ListOrders)
			orders.GET("/:id", s.OrderHandler.GetOrder)
			orders.POST("/:id/complete", s.OrderHandler.CompleteOrder)
			orders.POST("/:id/cancel", s.OrderHandler.CancelOrder)
			orders.POST("/:id/payments", s.OrderHandler.RecordPayment)
		}
	}

	// 管理员路由
	admin := api.Group("/admin")
	admin.Use(authMiddleware, adminMiddleware)
	{
		admin.POST("/categories", s.CategoryHandler.CreateCategory)       // 创建分类
		admin.PUT("/categories/:id", s.CategoryHandler.UpdateCategory)    // 更新分类
		admin.DELETE("/categories/:id", s.CategoryHandler.DeleteCategory) // 删除分类
		admin.POST("/menu", s.MenuHandler.CreateMenuItem)                 // 创建菜品
		admin.PUT("/menu/:id", s.MenuHandler.UpdateMenuItem)              // 更新菜品
		admin.POST("/menu/:id/stock", s.MenuHandler.AdjustStock)          // 调整库存
		admin.DELETE("/menu/:id", s.MenuHandler.DeleteMenuItem)           // 删除菜品
	}
}
