package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cohort-admin-api/internal/dto"
	"github.com/noah-isme/cohort-admin-api/internal/models"
	"github.com/noah-isme/cohort-admin-api/internal/service"
	appErrors "github.com/noah-isme/cohort-admin-api/pkg/errors"
	"github.com/noah-isme/cohort-admin-api/pkg/response"
)

type cohortService interface {
	List(ctx context.Context, claims *models.JWTClaims, req dto.ListCohortsRequest) (*dto.CohortList, error)
	Get(ctx context.Context, claims *models.JWTClaims, id int64) (*models.Cohort, error)
	Counts(ctx context.Context, claims *models.JWTClaims, id int64, mode models.MemberCountMode) (*dto.CohortCounts, error)
	Members(ctx context.Context, claims *models.JWTClaims, id int64, req dto.PageRequest) (*dto.MemberList, error)
	Courses(ctx context.Context, claims *models.JWTClaims, id int64, req dto.PageRequest) (*dto.CourseList, error)
}

type cohortExporter interface {
	ExportCohorts(ctx context.Context, claims *models.JWTClaims, req dto.ListCohortsRequest, format string) (*service.ExportFile, error)
}

type cohortDeleteWorkflow interface {
	Request(ctx context.Context, claims *models.JWTClaims, req dto.DeleteRequest) (*dto.DeleteConfirmation, error)
	Confirm(ctx context.Context, claims *models.JWTClaims, req dto.ConfirmDeleteRequest) (*dto.DeleteResult, error)
}

// CohortHandler exposes cohort listing, drill-down, export and bulk delete endpoints.
type CohortHandler struct {
	cohorts cohortService
	exports cohortExporter
	deletes cohortDeleteWorkflow
}

// NewCohortHandler builds a new handler.
func NewCohortHandler(cohorts cohortService, exports cohortExporter, deletes cohortDeleteWorkflow) *CohortHandler {
	return &CohortHandler{cohorts: cohorts, exports: exports, deletes: deletes}
}

// List godoc
// @Summary List cohorts
// @Description Lists cohorts outside hidden categories with member and course counts. Out of range parameters fall back to defaults.
// @Tags Cohorts
// @Produce json
// @Param page query int false "Zero based page"
// @Param limit query int false "Page size"
// @Param search query string false "Matches name, cohort ID or description"
// @Param empty query int false "0 all, 1 without members, 2 without active members"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /cohorts [get]
func (h *CohortHandler) List(c *gin.Context) {
	list, err := h.cohorts.List(c.Request.Context(), claimsFromContext(c), listRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list.Items, &list.Pagination, map[string]interface{}{
		"all_total":  list.AllTotal,
		"can_manage": list.CanManage,
		"empty":      int(list.Emptiness),
	})
}

// Export godoc
// @Summary Export cohorts
// @Tags Cohorts
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Param search query string false "Search filter"
// @Param empty query int false "Emptiness mode"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /cohorts/export [get]
func (h *CohortHandler) Export(c *gin.Context) {
	file, err := h.exports.ExportCohorts(c.Request.Context(), claimsFromContext(c), listRequest(c), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("X-Export-Rows", strconv.Itoa(file.Rows))
	if file.Truncated {
		c.Header("X-Export-Truncated", "true")
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// Get godoc
// @Summary Get cohort
// @Tags Cohorts
// @Produce json
// @Param id path int true "Cohort ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /cohorts/{id} [get]
func (h *CohortHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	cohort, err := h.cohorts.Get(c.Request.Context(), claimsFromContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cohort, nil)
}

// Counts godoc
// @Summary Count cohort members and courses
// @Tags Cohorts
// @Produce json
// @Param id path int true "Cohort ID"
// @Param mode query string false "all, active or suspended"
// @Success 200 {object} response.Envelope
// @Router /cohorts/{id}/counts [get]
func (h *CohortHandler) Counts(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	counts, err := h.cohorts.Counts(c.Request.Context(), claimsFromContext(c), id, models.ParseMemberCountMode(c.Query("mode")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts, nil)
}

// Members godoc
// @Summary List cohort members
// @Tags Cohorts
// @Produce json
// @Param id path int true "Cohort ID"
// @Param page query int false "Zero based page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /cohorts/{id}/members [get]
func (h *CohortHandler) Members(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	list, err := h.cohorts.Members(c.Request.Context(), claimsFromContext(c), id, pageRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list.Items, &list.Pagination, map[string]interface{}{
		"cohort":     list.Cohort,
		"can_manage": list.CanManage,
	})
}

// Courses godoc
// @Summary List courses a cohort is enrolled into
// @Tags Cohorts
// @Produce json
// @Param id path int true "Cohort ID"
// @Param page query int false "Zero based page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /cohorts/{id}/courses [get]
func (h *CohortHandler) Courses(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	list, err := h.cohorts.Courses(c.Request.Context(), claimsFromContext(c), id, pageRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list.Items, &list.Pagination, map[string]interface{}{
		"cohort":     list.Cohort,
		"can_manage": list.CanManage,
	})
}

// RequestDelete godoc
// @Summary Request deletion of cohorts
// @Description Returns a summary of the selected cohorts and a single use confirmation token. Nothing is deleted.
// @Tags Cohorts
// @Accept json
// @Produce json
// @Param payload body dto.DeleteRequest true "Selected cohort IDs"
// @Success 200 {object} response.Envelope
// @Router /cohorts/delete/request [post]
func (h *CohortHandler) RequestDelete(c *gin.Context) {
	var req dto.DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid delete payload"))
		return
	}
	confirmation, err := h.deletes.Request(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, confirmation, nil)
}

// ConfirmDelete godoc
// @Summary Confirm deletion of cohorts
// @Description Deletes the cohorts bound to the token. Missing cohorts are skipped and the first failure is reported.
// @Tags Cohorts
// @Accept json
// @Produce json
// @Param payload body dto.ConfirmDeleteRequest true "Selection and token"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /cohorts/delete/confirm [post]
func (h *CohortHandler) ConfirmDelete(c *gin.Context) {
	var req dto.ConfirmDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid confirmation payload"))
		return
	}
	result, err := h.deletes.Confirm(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func listRequest(c *gin.Context) dto.ListCohortsRequest {
	return dto.ListCohortsRequest{
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "limit"),
		Search:   c.Query("search"),
		Empty:    queryInt(c, "empty"),
	}
}

func pageRequest(c *gin.Context) dto.PageRequest {
	return dto.PageRequest{Page: queryInt(c, "page"), PageSize: queryInt(c, "limit")}
}
