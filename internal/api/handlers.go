package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"trainer-workload-service/internal/cache"
	"trainer-workload-service/internal/workload"
)

// ErrorResponse is the JSON body returned for every failed request.
type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Handler struct {
	service workload.Service
	cache   *cache.QueryCache
	log     *logrus.Logger
}

func NewHandler(service workload.Service, queryCache *cache.QueryCache, log *logrus.Logger) *Handler {
	return &Handler{
		service: service,
		cache:   queryCache,
		log:     log,
	}
}

func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/api/v1")
	v1.GET("/trainers/:username/working-hours", h.GetWorkingHours)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetWorkingHours serves the monthly total for a trainer. Fresh results are
// answered from the TTL cache; misses fall through to the ledger.
func (h *Handler) GetWorkingHours(c *gin.Context) {
	username := c.Param("username")
	year := c.Query("year")
	month := c.Query("month")

	if h.cache != nil {
		if hours, ok := h.cache.Get(username, year, month); ok {
			c.JSON(http.StatusOK, workload.MonthlyHours{
				TrainerUsername: username,
				Year:            year,
				Month:           month,
				WorkingHours:    hours,
			})
			return
		}
	}

	result, err := h.service.GetWorkingHours(c.Request.Context(), username, year, month)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if h.cache != nil {
		h.cache.Set(username, year, month, result.WorkingHours)
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var validationErr *workload.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Status:  "error",
			Code:    "VALIDATION_FAILED",
			Message: validationErr.Error(),
		})
		return
	}

	var notFoundErr *workload.NotFoundError
	if errors.As(err, &notFoundErr) {
		code := "NO_DATA_FOR_PERIOD"
		if notFoundErr.TrainerUnknown() {
			code = "TRAINER_NOT_FOUND"
		}
		c.JSON(http.StatusNotFound, ErrorResponse{
			Status:  "error",
			Code:    code,
			Message: notFoundErr.Error(),
		})
		return
	}

	h.log.WithError(err).Error("working hours query failed")
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Status:  "error",
		Code:    "INTERNAL_ERROR",
		Message: "internal server error",
	})
}
