package main

import (
	"strings"

	"retail_backoffice/internal/audit"
	"retail_backoffice/internal/database"
	"retail_backoffice/internal/router"
	"retail_backoffice/pkg/config"
	"retail_backoffice/pkg/metrics"
	"retail_backoffice/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	utils.InitLogger(cfg.LogLevel)
	utils.SetJWTSecret(cfg.JWTSecret)
	utils.SetTokenTTLs(cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	database.InitDB(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode, cfg.DBSchemaPath)
	db := database.GetDB()
	defer db.Close()

	var sink audit.Sink = audit.NopSink{}
	if cfg.AuditBrokers != "" {
		brokers := strings.Split(cfg.AuditBrokers, ",")
		kafkaSink := audit.NewKafkaSink(brokers, cfg.AuditTopic)
		defer kafkaSink.Close()
		sink = kafkaSink
		log.Info().Strs("brokers", brokers).Str("topic", cfg.AuditTopic).Msg("Kafka audit sink enabled")
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(utils.GinLogger())

	corsConfig := cors.DefaultConfig()
	if cfg.CORSAllowedOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(cfg.CORSAllowedOrigins, ",")
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	engine.Use(cors.New(corsConfig))

	httpMetrics := metrics.NewHTTPMetrics("retail-backoffice")
	engine.Use(httpMetrics.Middleware())

	router.Setup(engine, db, sink)

	log.Info().Str("port", cfg.Port).Msg("Starting server")
	if err := engine.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
