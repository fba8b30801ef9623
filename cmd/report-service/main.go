package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"report-service/internal/auth"
	"report-service/internal/config"
	"report-service/internal/db"
	httphandler "report-service/internal/http"
	"report-service/internal/http/middleware"
	"report-service/internal/logger"
	"report-service/internal/repository"
	"report-service/internal/service"
	"report-service/internal/upstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)

	database, err := db.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect database")
	}

	lookupRepo := repository.NewLookupRepository(database)
	cityDirectory := service.NewCityDirectory(lookupRepo, cfg.Report.CityCacheTTL)
	lookupService := service.NewLookupService(cityDirectory, lookupRepo, lookupRepo)

	upstreamClient := upstream.NewClient(upstream.Config{
		BaseURL:      cfg.Upstream.BaseURL,
		DatamartPath: cfg.Upstream.DatamartPath,
		Token:        cfg.Upstream.Token,
		Timeout:      cfg.Upstream.Timeout,
	}, appLogger.With().Str("component", "upstream").Logger())

	rankingService := service.NewRankingService(upstreamClient, lookupService, service.NewGenerations(), service.RankingConfig{
		Columns:        cfg.Report.RankingColumns,
		HardStart:      cfg.Report.HardStart,
		Location:       cfg.Report.Location,
		AllCitiesLabel: cfg.Report.AllCitiesLabel,
	}, appLogger)
	portraitService := service.NewPortraitService(upstreamClient, lookupService, service.PortraitConfig{
		DefaultDays:     cfg.Report.PortraitDefaultDays,
		DefaultPageSize: cfg.Report.PortraitPageSize,
		Location:        cfg.Report.Location,
	}, appLogger)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	handler := httphandler.NewHandler(rankingService, portraitService, lookupService, lookupRepo, cfg.Report.Location, appLogger)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment, cfg.HTTP.AllowedOrigins, appLogger)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	appLogger.Info().Str("addr", addr).Str("upstream", cfg.Upstream.BaseURL).Msg("starting report service")

	if err := router.Run(addr); err != nil {
		appLogger.Error().Err(err).Msg("failed to start server")
		os.Exit(1)
	}
}
