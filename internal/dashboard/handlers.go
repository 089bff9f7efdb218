package dashboard

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/launchpad/internal/apperr"
	"github.com/zulandar/launchpad/internal/auth"
	"github.com/zulandar/launchpad/internal/models"
	"github.com/zulandar/launchpad/internal/pipeline"
	"github.com/zulandar/launchpad/internal/rank"
	"github.com/zulandar/launchpad/internal/store"
)

// --- auth ---

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignUp(c *gin.Context) {
	var req credentials
	if !bindJSON(c, &req) {
		return
	}
	user, err := s.auth.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (s *Server) handleSignIn(c *gin.Context) {
	var req credentials
	if !bindJSON(c, &req) {
		return
	}
	sess, err := s.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *Server) handleSignOut(c *gin.Context) {
	if err := s.auth.SignOut(c.Request.Context(), auth.FromGin(c).Token); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- feedback sources ---

func (s *Server) handleListSources(c *gin.Context) {
	page, err := pageFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}
	status := c.DefaultQuery("status", models.SourceActive)
	if status == "all" {
		status = ""
	}
	out, err := s.st.Sources.List(c.Request.Context(), page, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type sourceRequest struct {
	Name        string `json:"name"`
	SourceURL   string `json:"source_url"`
	Description string `json:"description"`
}

func (s *Server) handleCreateSource(c *gin.Context) {
	var req sourceRequest
	if !bindJSON(c, &req) {
		return
	}
	src, err := s.st.Sources.Create(c.Request.Context(), auth.FromGin(c), &models.FeedbackSource{
		Name:        req.Name,
		SourceURL:   req.SourceURL,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, src)
}

func (s *Server) handleSourceStatus(c *gin.Context) {
	s.updateStatus(c, s.st.Sources.UpdateStatus, func(id string) (any, error) {
		return s.st.Sources.Get(c.Request.Context(), id)
	})
}

func (s *Server) handleListAnalyses(c *gin.Context) {
	page, err := pageFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}
	out, err := s.st.Analyses.ListBySource(c.Request.Context(), c.Param("id"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type analyzeRequest struct {
	SheetURL string `json:"sheet_url"`
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if !bindJSON(c, &req) {
		return
	}
	out, err := s.p.AnalyzeSheet(c.Request.Context(), auth.FromGin(c), req.SheetURL)
	if err != nil {
		respondPartial(c, out, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleReanalyze(c *gin.Context) {
	out, err := s.p.ReanalyzeSource(c.Request.Context(), auth.FromGin(c), c.Param("id"))
	if err != nil {
		respondPartial(c, out, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// respondPartial reports an error; when an analysis was already recorded
// its outcome is included so the caller can find the source.
func respondPartial(c *gin.Context, outcome *pipeline.AnalysisOutcome, err error) {
	if outcome == nil {
		respondError(c, err)
		return
	}
	kind := apperr.KindOf(err)
	body := gin.H{"error": err.Error(), "kind": kind, "outcome": outcome}
	if hint := apperr.HintOf(err); hint != "" {
		body["hint"] = hint
	}
	c.AbortWithStatusJSON(apperr.HTTPStatus(kind), body)
}

// --- tasks ---

func (s *Server) handleListTasks(c *gin.Context) {
	page, err := pageFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}
	filter := store.TaskFilter{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		SourceID: c.Query("source_id"),
	}
	ctx := c.Request.Context()

	if ranked, _ := strconv.ParseBool(c.Query("ranked")); ranked {
		all, err := s.st.Tasks.Find(ctx, filter)
		if err != nil {
			respondError(c, err)
			return
		}
		scored := rank.Ranked(all)
		end := min(page.Offset+page.Limit, len(scored))
		start := min(page.Offset, end)
		c.JSON(http.StatusOK, store.List[rank.Scored]{
			Items:  scored[start:end],
			Total:  int64(len(scored)),
			Offset: page.Offset,
			Limit:  page.Limit,
		})
		return
	}

	out, err := s.st.Tasks.List(ctx, page, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, store.List[rank.Scored]{
		Items:  rank.Score(out.Items),
		Total:  out.Total,
		Offset: out.Offset,
		Limit:  out.Limit,
	})
}

type taskRequest struct {
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	SourceFeedbackID *string `json:"source_feedback_id"`
	FrequencyScore   *int    `json:"frequency_score"`
	ImpactScore      *int    `json:"impact_score"`
	DevelopmentCost  *int    `json:"development_cost"`
	EffectScore      *int    `json:"effect_score"`
	Priority         string  `json:"priority"`
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var req taskRequest
	if !bindJSON(c, &req) {
		return
	}
	task, err := s.st.Tasks.Create(c.Request.Context(), auth.FromGin(c), &models.TaskCandidate{
		Title:            req.Title,
		Description:      req.Description,
		SourceFeedbackID: req.SourceFeedbackID,
		FrequencyScore:   req.FrequencyScore,
		ImpactScore:      req.ImpactScore,
		DevelopmentCost:  req.DevelopmentCost,
		EffectScore:      req.EffectScore,
		Priority:         req.Priority,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rank.Score([]models.TaskCandidate{*task})[0])
}

func (s *Server) handleGetTask(c *gin.Context) {
	task, err := s.st.Tasks.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rank.Score([]models.TaskCandidate{*task})[0])
}

func (s *Server) handleTaskStatus(c *gin.Context) {
	s.updateStatus(c, s.st.Tasks.UpdateStatus, func(id string) (any, error) {
		return s.st.Tasks.Get(c.Request.Context(), id)
	})
}

func (s *Server) handleGeneratePRD(c *gin.Context) {
	res, err := s.p.GeneratePRD(c.Request.Context(), auth.FromGin(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// --- stats ---

func (s *Server) handleStats(c *gin.Context) {
	st, err := s.st.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// updateStatus handles PATCH .../:id/status for any record type and
// responds with the reloaded record.
func (s *Server) updateStatus(c *gin.Context, update func(ctx context.Context, id, status string) error, reload func(id string) (any, error)) {
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	id := c.Param("id")
	if err := update(c.Request.Context(), id, req.Status); err != nil {
		respondError(c, err)
		return
	}
	rec, err := reload(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
