package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	dredomain "github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/domain"
)

type computeReportRequest struct {
	Competence string                  `json:"competence"`
	Regime     dredomain.Regime        `json:"regime"`
	ProfileID  string                  `json:"profile_id"`
	Config     *dredomain.ReportConfig `json:"config"`
}

// toCompute resolves the report config: an explicit profile wins over an
// inline config, and the default profile is used when neither is given.
func (s *Server) toCompute(ctx context.Context, req computeReportRequest) (dredomain.ComputeRequest, error) {
	out := dredomain.ComputeRequest{
		Competence: strings.TrimSpace(req.Competence),
		Regime:     dredomain.Regime(strings.ToLower(strings.TrimSpace(string(req.Regime)))),
	}

	profileID, err := parseOptionalSnowflakeID(req.ProfileID)
	if err != nil {
		return out, newValidationError("profile_id", "invalid_profile_id", "invalid profile_id")
	}

	switch {
	case profileID != nil:
		profile, err := s.profileSvc.Get(ctx, profileID.String())
		if err != nil {
			return out, err
		}
		out.Config = profile.Config()
	case req.Config != nil:
		out.Config = req.Config.Clone()
	default:
		cfg, err := s.profileSvc.GetDefault(ctx)
		if err != nil {
			return out, err
		}
		out.Config = cfg
	}
	return out, nil
}

func (s *Server) bindCompute(c *gin.Context) (dredomain.ComputeRequest, bool) {
	var req computeReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return dredomain.ComputeRequest{}, false
	}
	if strings.TrimSpace(req.Competence) == "" {
		AbortWithError(c, newValidationError("competence", "required", "competence is required"))
		return dredomain.ComputeRequest{}, false
	}

	compute, err := s.toCompute(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return dredomain.ComputeRequest{}, false
	}
	return compute, true
}

func (s *Server) PreviewReport(c *gin.Context) {
	req, ok := s.bindCompute(c)
	if !ok {
		return
	}

	report, err := s.dreSvc.ComputeReport(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}

func (s *Server) GenerateReport(c *gin.Context) {
	req, ok := s.bindCompute(c)
	if !ok {
		return
	}

	resp, err := s.dreSvc.GenerateReport(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListReports(c *gin.Context) {
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
		return
	}

	resp, err := s.dreSvc.ListStoredReports(c.Request.Context(), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetReport(c *gin.Context) {
	resp, err := s.dreSvc.GetStoredReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) FinalizeReport(c *gin.Context) {
	resp, err := s.dreSvc.FinalizeReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
