// Package api exposes the watchlist, threat feed and assessments over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/couchcryptid/threatmap-service/internal/domain"
	"github.com/couchcryptid/threatmap-service/internal/monitor"
)

// RoleHeader carries the caller's access level.
const RoleHeader = "X-User-Role"

const roleKey = "role"

// Monitor is the subset of *monitor.Registry the handlers use.
type Monitor interface {
	VisibleThreats() []domain.ThreatRecord
	Sensors() []domain.Sensor
	Locations() []domain.MonitoredLocation
	AddLocation(ctx context.Context, query string, radiusKm float64, role domain.Role) (domain.MonitoredLocation, error)
	AddResolved(ctx context.Context, loc domain.MonitoredLocation, role domain.Role) (domain.MonitoredLocation, error)
	RemoveLocation(ctx context.Context, id string) error
	Assess(id string) (domain.Assessment, error)
	Summarize(ctx context.Context, id string) (string, error)
	AnalyzeRoute(ctx context.Context, originID, destinationID string) (domain.RouteAnalysis, error)
	Settings() domain.Settings
	SetSettings(ctx context.Context, s domain.Settings)
}

type Handler struct {
	mon    Monitor
	logger *slog.Logger
}

func NewHandler(mon Monitor, logger *slog.Logger) *Handler {
	return &Handler{mon: mon, logger: logger}
}

// NewEngine builds a gin engine with recovery and the /v1 routes.
func NewEngine(h *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	RegisterRoutes(r, h)
	return r
}

func RegisterRoutes(r *gin.Engine, h *Handler) {
	v1 := r.Group("/v1", h.withRole)
	{
		v1.GET("/threats", h.Threats)
		v1.GET("/sensors", h.Sensors)
		v1.GET("/threat-types", h.ThreatTypes)
		v1.GET("/locations", h.Locations)
		v1.POST("/locations", h.AddLocation)
		v1.DELETE("/locations/:id", h.RemoveLocation)
		v1.GET("/locations/:id/assessment", h.Assessment)
		v1.POST("/locations/:id/summary", h.Summary)
		v1.POST("/routes", h.Route)
		v1.GET("/settings", h.GetSettings)
		v1.PUT("/settings", h.PutSettings)
	}
}

func (h *Handler) withRole(c *gin.Context) {
	role, err := domain.ParseRole(c.GetHeader(RoleHeader))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Set(roleKey, role)
	c.Next()
}

func roleOf(c *gin.Context) domain.Role {
	if r, ok := c.Get(roleKey); ok {
		return r.(domain.Role)
	}
	return domain.RoleGuest
}

// Threats: GET /v1/threats
// The global list after the settings pre-filter.
func (h *Handler) Threats(c *gin.Context) {
	threats := h.mon.VisibleThreats()
	c.JSON(http.StatusOK, gin.H{"meta": gin.H{"count": len(threats)}, "data": threats})
}

// Sensors: GET /v1/sensors
func (h *Handler) Sensors(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.mon.Sensors()})
}

type threatTypeView struct {
	Type     domain.ThreatType `json:"type"`
	Category domain.Category   `json:"category"`
}

type familyView struct {
	Name  string           `json:"name"`
	Types []threatTypeView `json:"types"`
}

// ThreatTypes: GET /v1/threat-types
// Settings families with the classifier category of each type.
func (h *Handler) ThreatTypes(c *gin.Context) {
	families := domain.ThreatFamilies()
	out := make([]familyView, 0, len(families))
	for _, f := range families {
		fv := familyView{Name: f.Name, Types: make([]threatTypeView, 0, len(f.Types))}
		for _, t := range f.Types {
			fv.Types = append(fv.Types, threatTypeView{Type: t, Category: domain.CategoryOf(t)})
		}
		out = append(out, fv)
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// Locations: GET /v1/locations
func (h *Handler) Locations(c *gin.Context) {
	locs := h.mon.Locations()
	c.JSON(http.StatusOK, gin.H{"meta": gin.H{"count": len(locs)}, "data": locs})
}

type addLocationRequest struct {
	Query     string   `json:"query"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	RadiusKm  float64  `json:"radiusKm"`
}

// AddLocation: POST /v1/locations
// Body: {"query": "東京"} to geocode, or {"name","latitude","longitude"} when
// coordinates are known. radiusKm defaults to the configured radius.
func (h *Handler) AddLocation(c *gin.Context) {
	var req addLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}

	var (
		loc domain.MonitoredLocation
		err error
	)
	switch {
	case req.Latitude != nil && req.Longitude != nil:
		loc, err = h.mon.AddResolved(c.Request.Context(), domain.MonitoredLocation{
			Name:      strings.TrimSpace(req.Name),
			Latitude:  *req.Latitude,
			Longitude: *req.Longitude,
			RadiusKm:  req.RadiusKm,
		}, roleOf(c))
	case strings.TrimSpace(req.Query) != "":
		loc, err = h.mon.AddLocation(c.Request.Context(), req.Query, req.RadiusKm, roleOf(c))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "query or latitude/longitude required"})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": loc})
}

// RemoveLocation: DELETE /v1/locations/:id
func (h *Handler) RemoveLocation(c *gin.Context) {
	if err := h.mon.RemoveLocation(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Assessment: GET /v1/locations/:id/assessment
func (h *Handler) Assessment(c *gin.Context) {
	a, err := h.mon.Assess(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": a})
}

// Summary: POST /v1/locations/:id/summary
func (h *Handler) Summary(c *gin.Context) {
	id := c.Param("id")
	text, err := h.mon.Summarize(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"locationId": id, "summary": text}})
}

type routeRequest struct {
	OriginID      string `json:"originId" binding:"required"`
	DestinationID string `json:"destinationId" binding:"required"`
}

// Route: POST /v1/routes
// Body: {"originId": "...", "destinationId": "..."}
func (h *Handler) Route(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	analysis, err := h.mon.AnalyzeRoute(c.Request.Context(), req.OriginID, req.DestinationID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": analysis})
}

// GetSettings: GET /v1/settings
func (h *Handler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.mon.Settings()})
}

// PutSettings: PUT /v1/settings (ADMIN only)
func (h *Handler) PutSettings(c *gin.Context) {
	if roleOf(c) != domain.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "settings require the ADMIN role"})
		return
	}
	var s domain.Settings
	if err := c.ShouldBindJSON(&s); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	for i, t := range s.DisabledThreatTypes {
		s.DisabledThreatTypes[i] = domain.ThreatType(strings.ToUpper(strings.TrimSpace(string(t))))
	}
	h.mon.SetSettings(c.Request.Context(), s)
	c.JSON(http.StatusOK, gin.H{"data": h.mon.Settings()})
}

// fail maps domain errors to status codes.
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrLocationNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidLocation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrLocationLimit):
		status = http.StatusForbidden
	case errors.Is(err, monitor.ErrUnresolved):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, monitor.ErrGeocoderUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
