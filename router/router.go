package router

import (
	"fmt"
	"net/http"

	"ledger/api"
	"ledger/config"
	_ "ledger/docs"
	"ledger/middleware"
	"ledger/service"
	"ledger/web"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, svc *service.ExpenseService, format *service.CurrencyFormatter) (*gin.Engine, error) {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(CORSMiddleware())

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("加载页面模板失败: %w", err)
	}
	r.SetHTMLTemplate(tmpl)
	static, err := web.Static()
	if err != nil {
		return nil, fmt.Errorf("加载静态资源失败: %w", err)
	}
	r.StaticFS("/static", http.FS(static))

	view := api.NewPresenter(format)
	limit := middleware.RateLimit(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window())

	// 网页
	pageHandler := api.NewPageHandler(svc, view)
	r.GET("/", pageHandler.Index)
	r.GET("/history", pageHandler.HistoryPage)
	r.GET("/expenses/:id/edit", pageHandler.EditPage)
	forms := r.Group("")
	forms.Use(limit)
	{
		forms.POST("/expenses", pageHandler.Create)
		forms.POST("/expenses/:id/edit", pageHandler.Update)
		forms.POST("/expenses/:id/delete", pageHandler.Delete)
		forms.POST("/expenses/:id/pay", pageHandler.Pay)
		forms.POST("/expenses/:id/toggle", pageHandler.Toggle)
		forms.POST("/people/pay", pageHandler.PayPerson)
	}

	// Swagger 文档
	if cfg.Server.Mode != gin.ReleaseMode {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	{
		expenseHandler := api.NewExpenseHandler(svc, view)
		expenses := v1.Group("/expenses")
		{
			expenses.GET("", expenseHandler.List)
			expenses.GET("/:id", expenseHandler.Get)

			write := expenses.Group("")
			write.Use(limit)
			write.POST("", expenseHandler.Create)
			write.PUT("/:id", expenseHandler.Update)
			write.DELETE("/:id", expenseHandler.Delete)
			write.POST("/:id/pay", expenseHandler.Pay)
			write.POST("/:id/toggle", expenseHandler.Toggle)
		}

		reportHandler := api.NewReportHandler(svc, view)
		v1.GET("/report/unpaid", reportHandler.Unpaid)
		v1.POST("/report/unpaid/:person/pay", limit, reportHandler.PayPerson)
		v1.POST("/report/pay", limit, reportHandler.PayPersonByBody)
		v1.GET("/history", reportHandler.History)

		exportHandler := api.NewExportHandler(svc, view)
		export := v1.Group("/export")
		{
			export.GET("/report", exportHandler.ExportReport)
			export.GET("/history", exportHandler.ExportHistory)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	return r, nil
}

// CORSMiddleware CORS 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
