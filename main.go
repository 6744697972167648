package main

import (
	"flag"
	"fmt"
	"strings"

	"ledger/config"
	"ledger/logger"
	"ledger/router"
	"ledger/service"
	"ledger/store"
)

// @title 共享账本 API
// @version 1.0
// @description 多人共享消费记账：记录谁欠了什么、按人或按条结清、查看按批次分组的支付历史
// @host localhost:8080
// @BasePath /

var (
	configFile  string
	port        string
	showVersion bool
)

func init() {
	flag.StringVar(&configFile, "config", "", "外部配置文件路径（可选）")
	flag.StringVar(&configFile, "c", "", "外部配置文件路径（简写）")
	flag.StringVar(&port, "port", "", "监听端口，如: 8080 或 :8080")
	flag.StringVar(&port, "p", "", "监听端口（简写）")
	flag.BoolVar(&showVersion, "version", false, "显示版本信息")
	flag.BoolVar(&showVersion, "v", false, "显示版本信息（简写）")
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Println("共享账本 v1.0.0")
		return
	}

	// 加载配置（内置配置 + 可选的外部配置覆盖）
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("加载配置失败")
	}
	logger.SetLevel(cfg.Log.Level)
	logger.SetJSON(cfg.Log.JSON)

	// 命令行参数覆盖端口配置
	if port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Server.Port = port
		logger.Log.Info().Str("port", port).Msg("命令行指定端口")
	}

	config.PrintConfig()

	st, err := store.Open(cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("存储初始化失败")
	}
	defer st.Close()

	format, err := service.NewCurrencyFormatter(cfg.Currency.Code, cfg.Currency.Locale, cfg.Currency.Display)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("货币格式初始化失败")
	}

	opts := []service.Option{service.WithEditPaidPolicy(cfg.Expenses.AllowEditPaid)}
	if cfg.Email.Enabled {
		opts = append(opts, service.WithNotifier(service.NewEmailService(&cfg.Email, format, cfg.Server.BaseURL)))
	}
	svc := service.NewExpenseService(st, opts...)

	r, err := router.SetupRouter(cfg, svc, format)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("路由初始化失败")
	}

	base := strings.TrimRight(cfg.Server.BaseURL, "/")
	if base == "" {
		base = "http://localhost" + cfg.Server.Port
	}
	logger.Log.Info().
		Str("home", base+"/").
		Str("swagger", base+"/swagger/index.html").
		Str("api", base+"/api/v1/").
		Msg("共享账本已启动")

	if err := r.Run(cfg.Server.Port); err != nil {
		logger.Log.Error().Err(err).Msg("服务器启动失败")
	}
}
