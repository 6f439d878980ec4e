package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/router-for-me/proxyseed/internal/bootstrap"
	"github.com/router-for-me/proxyseed/internal/config"
	"github.com/router-for-me/proxyseed/internal/models"
	"github.com/router-for-me/proxyseed/internal/modelstore"
	log "github.com/sirupsen/logrus"
)

// StatusResponse reports the bootstrap outcome and the persisted sentinel.
type StatusResponse struct {
	Status            string    `json:"status"`
	DefaultsLoaded    bool      `json:"defaults_loaded"`
	StoreEnabled      bool      `json:"store_enabled"`
	CredentialsSealed bool      `json:"credentials_sealed"`
	SystemID          string    `json:"system_id"`
	OrganizationID    string    `json:"organization_id,omitempty"`
	BudgetID          string    `json:"budget_id,omitempty"`
	Models            int64     `json:"models"`
	SystemModels      int64     `json:"system_models"`
	ModelsCreated     int       `json:"models_created"`
	Error             string    `json:"error,omitempty"`
	FinishedAt        time.Time `json:"finished_at"`
}

// ModelStatus describes one persisted model without exposing credentials.
type ModelStatus struct {
	ModelID             string `json:"model_id"`
	ModelName           string `json:"model_name"`
	Model               string `json:"model,omitempty"`
	Provider            string `json:"provider,omitempty"`
	APIKeySet           bool   `json:"api_key_set"`
	APIBaseSet          bool   `json:"api_base_set"`
	CredentialsReadable bool   `json:"credentials_readable"`
}

// ConfigExists reports whether the config file exists at the path.
func ConfigExists(configPath string) bool {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return false
	}
	return true
}

// NewStatusEngine builds the gin engine serving the bootstrap status endpoints.
func NewStatusEngine(rt *Runtime) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", func(c *gin.Context) {
		state := rt.State()
		if !state.Healthy() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": state.Result().Status.String()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	engine.GET("/v0/bootstrap/status", func(c *gin.Context) {
		state := rt.State()
		result := state.Result()
		resp := StatusResponse{
			Status:            result.Status.String(),
			StoreEnabled:      rt.Conn() != nil,
			CredentialsSealed: rt.sealer.Enabled(),
			SystemID:          rt.systemID,
			OrganizationID:    result.OrganizationID,
			BudgetID:          result.BudgetID,
			ModelsCreated:     result.CreatedModels(),
			FinishedAt:        state.FinishedAt(),
		}
		if result.Err != nil {
			resp.Error = result.Err.Error()
		}

		if conn := rt.Conn(); conn != nil {
			ctx := c.Request.Context()
			loaded, errLoaded := bootstrap.DefaultsLoaded(ctx, conn)
			if errLoaded != nil {
				log.WithError(errLoaded).Error("read bootstrap sentinel")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "read bootstrap sentinel failed"})
				return
			}
			resp.DefaultsLoaded = loaded

			if errCount := conn.WithContext(ctx).Model(&models.ProxyModel{}).Count(&resp.Models).Error; errCount != nil {
				log.WithError(errCount).Error("count models")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "count models failed"})
				return
			}
			systemModels, errSystem := modelstore.CountByOrganization(ctx, conn, rt.systemID)
			if errSystem != nil {
				log.WithError(errSystem).Error("count system models")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "count models failed"})
				return
			}
			resp.SystemModels = systemModels
		}
		c.JSON(http.StatusOK, resp)
	})

	engine.GET("/v0/bootstrap/models", func(c *gin.Context) {
		conn := rt.Conn()
		if conn == nil {
			c.JSON(http.StatusOK, gin.H{"models": []ModelStatus{}})
			return
		}
		rows, errList := modelstore.ListModels(c.Request.Context(), conn)
		if errList != nil {
			log.WithError(errList).Error("list models")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list models failed"})
			return
		}
		out := make([]ModelStatus, 0, len(rows))
		for _, row := range rows {
			item := ModelStatus{ModelID: row.ModelID, ModelName: row.ModelName}
			params, errDecode := modelstore.DecodeParams(row, rt.sealer)
			if errDecode != nil {
				log.WithError(errDecode).Warnf("decode params for %s", row.ModelName)
			} else {
				item.Model = params.Model
				item.Provider = params.Provider
				item.APIKeySet = params.APIKey != ""
				item.APIBaseSet = params.APIBase != ""
				item.CredentialsReadable = true
			}
			out = append(out, item)
		}
		c.JSON(http.StatusOK, gin.H{"models": out})
	})

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return engine
}

// RunStatusServer serves the status engine until ctx is done.
func RunStatusServer(ctx context.Context, rt *Runtime, serverCfg config.ServerConfig) error {
	if serverCfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	addr := fmt.Sprintf("%s:%d", serverCfg.Host, serverCfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: NewStatusEngine(rt),
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if errShutdown := srv.Shutdown(shutdownCtx); errShutdown != nil {
			log.Errorf("status server shutdown error: %v", errShutdown)
		}
	}()

	log.Infof("status server listening on %s", addr)
	if errListen := srv.ListenAndServe(); errListen != nil && errListen != http.ErrServerClosed {
		return errListen
	}
	return nil
}
