package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	telemetry "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.ApiService/implementation/telemetry"
	logger "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Logger"
	api_models "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Models/api"
	interfaces "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Repository/Interfaces"
)

// SensorController handles device-facing ingestion: readings, bulk
// submissions and RFID scan events.
type SensorController struct {
	telemetry   *telemetry.Service
	readingRepo interfaces.ReadingRepository
	eventRepo   interfaces.EventRepository
	logger      *logger.Logger
}

// NewSensorController creates a new sensor controller.
func NewSensorController(svc *telemetry.Service, readingRepo interfaces.ReadingRepository, eventRepo interfaces.EventRepository, log *logger.Logger) *SensorController {
	return &SensorController{
		telemetry:   svc,
		readingRepo: readingRepo,
		eventRepo:   eventRepo,
		logger:      log,
	}
}

// RegisterRoutes registers the ingestion routes with Gin.
func (c *SensorController) RegisterRoutes(router *gin.Engine) {
	iot := router.Group("/api/iot")
	{
		iot.POST("/sensors", c.CreateReading)
		iot.POST("/sensors/bulk", c.CreateBulk)
		iot.GET("/sensors/latest", c.GetLatest)
		iot.GET("/sensors/by_animal", c.GetByAnimal)
		iot.POST("/rfid", c.CreateScanEvent)
		iot.GET("/rfid", c.ListScanEvents)
		iot.GET("/health", c.Health)
	}
}

// CreateReading ingests one reading: POST /api/iot/sensors
func (c *SensorController) CreateReading(ctx *gin.Context) {
	var req api_models.CreateReadingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	reading, err := c.telemetry.SubmitReading(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, reading)
}

// CreateBulk ingests a batch of readings: POST /api/iot/sensors/bulk
func (c *SensorController) CreateBulk(ctx *gin.Context) {
	var reqs []api_models.CreateReadingRequest
	if err := ctx.ShouldBindJSON(&reqs); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "expected a list of sensor readings"})
		return
	}

	result := c.telemetry.SubmitBulk(ctx.Request.Context(), reqs)

	status := http.StatusCreated
	if result.Created == 0 {
		status = http.StatusBadRequest
	}
	ctx.JSON(status, result)
}

// GetLatest returns recent readings: GET /api/iot/sensors/latest?rfid=&limit=
func (c *SensorController) GetLatest(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	rfidTag := ctx.Query("rfid")

	var err error
	var readings interface{}
	if rfidTag != "" {
		readings, err = c.readingRepo.GetReadingsByTag(ctx.Request.Context(), rfidTag, limit)
	} else {
		readings, err = c.readingRepo.GetRecentReadings(ctx.Request.Context(), limit)
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"items": readings})
}

// GetByAnimal returns readings for one tag: GET /api/iot/sensors/by_animal?rfid=
func (c *SensorController) GetByAnimal(ctx *gin.Context) {
	rfidTag := ctx.Query("rfid")
	if rfidTag == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "rfid parameter is required"})
		return
	}
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "100"))

	readings, err := c.readingRepo.GetReadingsByTag(ctx.Request.Context(), rfidTag, limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"items": readings})
}

// CreateScanEvent logs an RFID scan: POST /api/iot/rfid
func (c *SensorController) CreateScanEvent(ctx *gin.Context) {
	var req api_models.CreateScanEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	event, err := c.telemetry.SubmitScanEvent(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, event)
}

// ListScanEvents returns recent scan events: GET /api/iot/rfid?limit=
func (c *SensorController) ListScanEvents(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))

	events, err := c.eventRepo.ListRecentEvents(ctx.Request.Context(), limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"items": events})
}

// Health is the device-facing health probe: GET /api/iot/health
func (c *SensorController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "Livestock IoT Sensor API",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
