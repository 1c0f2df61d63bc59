package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	logger "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Logger"
	lvsmodels "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Models"
	api_models "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Models/api"
	interfaces "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Repository/Interfaces"
)

// AnimalController handles animal registry management.
type AnimalController struct {
	animalRepo interfaces.AnimalRepository
	logger     *logger.Logger
}

// NewAnimalController creates a new animal controller.
func NewAnimalController(animalRepo interfaces.AnimalRepository, log *logger.Logger) *AnimalController {
	return &AnimalController{animalRepo: animalRepo, logger: log}
}

// RegisterRoutes registers the animal routes with Gin.
func (c *AnimalController) RegisterRoutes(router *gin.Engine) {
	animals := router.Group("/api/iot/animals")
	{
		animals.POST("", c.CreateAnimal)
		animals.GET("", c.ListAnimals)
		animals.GET("/:id", c.GetAnimal)
		animals.PATCH("/:id", c.UpdateAnimal)
	}
}

// CreateAnimal provisions an animal: POST /api/iot/animals
func (c *AnimalController) CreateAnimal(ctx *gin.Context) {
	var req api_models.CreateAnimalRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	existing, err := c.animalRepo.GetAnimalByTag(ctx.Request.Context(), req.RFIDTag)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if existing != nil {
		ctx.JSON(http.StatusConflict, gin.H{"error": "rfid_tag already registered"})
		return
	}

	animal := &lvsmodels.Animal{
		RFIDTag:     req.RFIDTag,
		Name:        req.Name,
		Species:     req.Species,
		Breed:       req.Breed,
		DateOfBirth: req.DateOfBirth,
		WeightKg:    req.WeightKg,
	}
	if animal.Name == "" {
		animal.Name = lvsmodels.PlaceholderName(req.RFIDTag)
	}

	if err := c.animalRepo.CreateAnimal(ctx.Request.Context(), animal); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, animal)
}

// ListAnimals lists the registry, or looks one animal up by tag:
// GET /api/iot/animals            lists all animals, newest first
// GET /api/iot/animals?rfid=<tag> returns a single animal or 404
func (c *AnimalController) ListAnimals(ctx *gin.Context) {
	if rfidTag := ctx.Query("rfid"); rfidTag != "" {
		animal, err := c.animalRepo.GetAnimalByTag(ctx.Request.Context(), rfidTag)
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if animal == nil {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "animal not found"})
			return
		}
		ctx.JSON(http.StatusOK, animal)
		return
	}

	animals, err := c.animalRepo.ListAnimals(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"items": animals})
}

// GetAnimal fetches one animal: GET /api/iot/animals/:id
func (c *AnimalController) GetAnimal(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid animal id"})
		return
	}

	animal, err := c.animalRepo.GetAnimalByID(ctx.Request.Context(), id)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if animal == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "animal not found"})
		return
	}

	ctx.JSON(http.StatusOK, animal)
}

// UpdateAnimal patches animal metadata: PATCH /api/iot/animals/:id
func (c *AnimalController) UpdateAnimal(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid animal id"})
		return
	}

	var req api_models.UpdateAnimalRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	animal, err := c.animalRepo.GetAnimalByID(ctx.Request.Context(), id)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if animal == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "animal not found"})
		return
	}

	if req.Name != nil {
		animal.Name = *req.Name
	}
	if req.Species != nil {
		animal.Species = *req.Species
	}
	if req.Breed != nil {
		animal.Breed = *req.Breed
	}
	if req.DateOfBirth != nil {
		animal.DateOfBirth = req.DateOfBirth
	}
	if req.WeightKg != nil {
		animal.WeightKg = req.WeightKg
	}

	if err := c.animalRepo.UpdateAnimal(ctx.Request.Context(), animal); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, animal)
}
