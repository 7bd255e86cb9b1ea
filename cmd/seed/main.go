package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"

	"surveyhub/internal/cache"
	"surveyhub/internal/config"
	"surveyhub/internal/db"
	"surveyhub/internal/errors"
	"surveyhub/internal/logger"
	"surveyhub/internal/model"
	"surveyhub/internal/repository"
	"surveyhub/internal/service"
)

// SeedSurvey is one survey in the seed document. Entries with an id that
// already exists are updated in place.
type SeedSurvey struct {
	ID          string                   `json:"id"`
	Title       string                   `json:"title"`
	Description string                   `json:"description"`
	Workshop    bool                     `json:"workshop"`
	Questions   []model.Question         `json:"questions"`
	Permissions []model.SurveyPermission `json:"permissions"`
}

func main() {
	source := flag.String("source", "surveys.json", "path or http(s) URL of the survey seed document")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.Log.Level, cfg.Log.JSON)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx := context.Background()

	gormDB, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		zl.Fatal("connect database", zap.Error(err))
	}
	if err := db.Migrate(gormDB); err != nil {
		zl.Fatal("migrate", zap.Error(err))
	}

	store, err := cache.Open(ctx, cfg.Redis, zl)
	if err != nil {
		zl.Fatal("open cache", zap.Error(err))
	}

	surveys, err := loadSurveys(ctx, *source)
	if err != nil {
		zl.Fatal("load seed document", zap.String("source", *source), zap.Error(err))
	}
	zl.Info("seed document loaded", zap.String("source", *source), zap.Int("surveys", len(surveys)))

	svc := service.NewSurveyService(
		repository.NewSurveyRepository(gormDB),
		repository.NewResponseRepository(gormDB),
		cache.NewLayer(store, zl),
		zl,
	)
	created, updated, err := seedSurveys(ctx, svc, surveys)
	if err != nil {
		zl.Fatal("seed surveys", zap.Error(err))
	}
	zl.Info("seed completed", zap.Int("created", created), zap.Int("updated", updated))
}

// loadSurveys reads the seed document from a file or an http(s) URL.
func loadSurveys(ctx context.Context, source string) ([]SeedSurvey, error) {
	var r io.ReadCloser
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch returned status code: %d", resp.StatusCode)
		}
		r = resp.Body
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, err
		}
		r = f
	}
	defer r.Close()

	var surveys []SeedSurvey
	if err := json.NewDecoder(r).Decode(&surveys); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	return surveys, nil
}

// seedSurveys creates new surveys and updates those whose id already exists.
// Writes go through the survey service so cached aggregates are invalidated.
func seedSurveys(ctx context.Context, svc service.SurveyService, surveys []SeedSurvey) (created int, updated int, err error) {
	for _, s := range surveys {
		in := service.SurveyInput{
			ID:          s.ID,
			Title:       s.Title,
			Description: s.Description,
			Workshop:    s.Workshop,
			Questions:   s.Questions,
			Permissions: s.Permissions,
		}

		if s.ID != "" {
			_, err := svc.Update(ctx, s.ID, in)
			if err == nil {
				updated++
				continue
			}
			if !errors.IsNotFound(err) {
				return created, updated, fmt.Errorf("update survey %s: %w", s.ID, err)
			}
		}

		if _, err := svc.Create(ctx, in); err != nil {
			return created, updated, fmt.Errorf("create survey %q: %w", s.Title, err)
		}
		created++
	}
	return created, updated, nil
}
