package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/granformato/pedidos_backend/config"
	"github.com/granformato/pedidos_backend/fileproc"
	"github.com/granformato/pedidos_backend/models"
	"github.com/granformato/pedidos_backend/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

const defaultPort = "8080"

var tracer = otel.Tracer("pedidos-backend")

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()
	router := newRouter(logger)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	// Listen first; connect after. Cloud Run requires the container to
	// accept connections on $PORT quickly.
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server: " + err.Error())
		}
	}()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	workerCtx, stopWorker := context.WithCancel(context.Background())
	if config.RunFileWorker() {
		worker := fileproc.NewWorker(config.GetDB(), logger)
		go worker.Run(workerCtx)
		logger.WithFields(logrus.Fields{
			"module":    "server",
			"worker_id": worker.WorkerID,
		}).Info("file worker started")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stopWorker()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown: " + err.Error())
	}
}

func newRouter(logger *logrus.Logger) *gin.Engine {
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(getEnvDefault("CORS_ORIGINS", "*"), ","),
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		status := "ok"
		if config.GetDB() == nil {
			status = "starting"
		}
		c.JSON(http.StatusOK, gin.H{"status": status})
	})

	router.POST("/pedidos/:id/files", uploadPedidoFilesHandler(logger))
	router.GET("/pedidos/:id", getPedidoHandler())
	router.GET("/jobs/:id", getJobHandler())
	router.GET("/inventory", getInventoryHandler())

	return router
}

// uploadPedidoFilesHandler stages the uploaded batch to disk and enqueues
// one file-processing job. Measurement and stock adjustment happen
// out-of-band in the worker; the response carries the job id for polling.
func uploadPedidoFilesHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "uploadPedidoFiles")
		defer span.End()
		// downstream DB calls read the span off the request context
		c.Request = c.Request.WithContext(ctx)

		pedidoId, err := strconv.Atoi(c.Param("id"))
		if err != nil || pedidoId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pedido id"})
			return
		}

		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required"})
			return
		}
		files := form.File["files"]
		if len(files) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no files uploaded"})
			return
		}

		staged := make([]fileproc.StagedFileDescriptor, 0, len(files))
		for _, fh := range files {
			descriptor, err := fileproc.StageUpload(fh)
			if err != nil {
				config.LogError(logger, "server", "uploadPedidoFilesHandler", "StageUpload", fh.Filename, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not stage file"})
				return
			}
			staged = append(staged, *descriptor)
		}

		payload := fileproc.JobPayload{Files: staged}
		if v := strings.TrimSpace(c.PostForm("materialId")); v != "" {
			payload.MaterialId = &v
		}
		if v := strings.TrimSpace(c.PostForm("fallbackWidth")); v != "" {
			if width, err := strconv.ParseFloat(v, 64); err == nil && width > 0 {
				payload.FallbackWidth = &width
			}
		}
		if v := strings.TrimSpace(c.PostForm("clienteEmail")); v != "" && utils.IsValidEmail(v) {
			payload.ClienteEmail = &v
		}

		raw, err := fileproc.EncodeJobPayload(payload)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "details": utils.ProcessValidationErrors(err)})
			return
		}

		job, err := models.EnqueueFileProcessingJob(c.Request.Context(), pedidoId, raw)
		if err != nil {
			config.LogError(logger, "server", "uploadPedidoFilesHandler", "EnqueueFileProcessingJob", pedidoId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not enqueue job"})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"job_id": job.ID, "status": job.Status})
	}
}

func getPedidoHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		pedidoId, err := strconv.Atoi(c.Param("id"))
		if err != nil || pedidoId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pedido id"})
			return
		}
		pedido, err := models.GetPedido(config.GetDB().WithContext(c.Request.Context()), pedidoId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if pedido == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "pedido not found"})
			return
		}
		c.JSON(http.StatusOK, pedido)
	}
}

// getJobHandler exposes the job record for status polling by the upload UI.
func getJobHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		jobId, err := strconv.Atoi(c.Param("id"))
		if err != nil || jobId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
			return
		}
		job, err := models.GetFileProcessingJob(c.Request.Context(), jobId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if job == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusOK, job)
	}
}

func getInventoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := models.GetInventoryItems(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func getEnvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
