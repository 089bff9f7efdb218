package dashboard

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/launchpad/internal/apperr"
	"github.com/zulandar/launchpad/internal/auth"
	"github.com/zulandar/launchpad/internal/models"
	"github.com/zulandar/launchpad/internal/store"
)

// --- PRDs ---

func (s *Server) handleListPRDs(c *gin.Context) {
	page, err := pageFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}
	out, err := s.st.PRDs.List(c.Request.Context(), page, c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type prdRequest struct {
	TaskID         *string `json:"task_id"`
	Title          string  `json:"title"`
	Background     string  `json:"background"`
	Problem        string  `json:"problem"`
	Solution       string  `json:"solution"`
	UXRequirements string  `json:"ux_requirements"`
	EdgeCases      string  `json:"edge_cases"`
	Version        int     `json:"version"`
}

func (r prdRequest) sections() map[string]string {
	return map[string]string{
		models.SectionBackground:     r.Background,
		models.SectionProblem:        r.Problem,
		models.SectionSolution:       r.Solution,
		models.SectionUXRequirements: r.UXRequirements,
		models.SectionEdgeCases:      r.EdgeCases,
	}
}

func (s *Server) handleCreatePRD(c *gin.Context) {
	var req prdRequest
	if !bindJSON(c, &req) {
		return
	}
	prd, err := s.st.PRDs.Create(c.Request.Context(), auth.FromGin(c), &models.PRDDraft{
		TaskID:         req.TaskID,
		Title:          req.Title,
		Background:     req.Background,
		Problem:        req.Problem,
		Solution:       req.Solution,
		UXRequirements: req.UXRequirements,
		EdgeCases:      req.EdgeCases,
		Version:        req.Version,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, prd)
}

func (s *Server) handleGetPRD(c *gin.Context) {
	prd, err := s.st.PRDs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prd)
}

// handleSavePRD replaces the title and every section. A positive version
// in the body is stored as the new version.
func (s *Server) handleSavePRD(c *gin.Context) {
	var req prdRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")
	prd, err := s.st.PRDs.Save(ctx, id, req.Title, req.sections())
	if err != nil {
		respondError(c, err)
		return
	}
	if req.Version > 0 && req.Version != prd.Version {
		if prd, err = s.st.PRDs.SetVersion(ctx, id, req.Version); err != nil {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, prd)
}

func (s *Server) handlePRDStatus(c *gin.Context) {
	s.updateStatus(c, s.st.PRDs.UpdateStatus, func(id string) (any, error) {
		return s.st.PRDs.Get(c.Request.Context(), id)
	})
}

func (s *Server) handleChatHistory(c *gin.Context) {
	turns, err := s.p.ChatHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if turns == nil {
		turns = []models.ChatTurn{}
	}
	c.JSON(http.StatusOK, gin.H{"turns": turns})
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if !bindJSON(c, &req) {
		return
	}
	reply, err := s.p.ChatPRD(c.Request.Context(), auth.FromGin(c), c.Param("id"), req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (s *Server) handlePublishPRD(c *gin.Context) {
	prd, err := s.p.PublishPRD(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prd)
}

// --- launches ---

// handleGetLaunch returns the PRD's launch, creating it on first access.
func (s *Server) handleGetLaunch(c *gin.Context) {
	launch, err := s.st.Launches.GetOrCreate(c.Request.Context(), auth.FromGin(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, launch)
}

// handleUploadImage stores the multipart "file" field in image slot 1-3.
func (s *Server) handleUploadImage(c *gin.Context) {
	slot, err := strconv.Atoi(c.Param("slot"))
	if err != nil || slot < 1 || slot > models.LaunchImageSlots {
		respondError(c, apperr.New(apperr.InvalidInput, "image slot must be 1-%d, got %q", models.LaunchImageSlots, c.Param("slot")))
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		respondError(c, apperr.Wrap(err, apperr.InvalidInput, "multipart field \"file\" is required"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, apperr.Wrap(err, apperr.InvalidInput, "could not read the upload"))
		return
	}
	defer f.Close()

	launch, err := s.p.UploadLaunchImage(c.Request.Context(), c.Param("id"), slot-1, fh.Filename, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, launch)
}

type contentRequest struct {
	Type string `json:"type"`
}

// handleGenerateContent generates launch copy. :id is the launch's PRD.
func (s *Server) handleGenerateContent(c *gin.Context) {
	var req contentRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	launch, err := s.st.Launches.Get(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := s.p.GenerateLaunchContent(ctx, auth.FromGin(c), launch.PRDID, req.Type)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (s *Server) handleLaunchStatus(c *gin.Context) {
	s.updateStatus(c, s.st.Launches.UpdateStatus, func(id string) (any, error) {
		return s.st.Launches.Get(c.Request.Context(), id)
	})
}

// --- content assets ---

func (s *Server) handleListContent(c *gin.Context) {
	page, err := pageFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}
	out, err := s.st.Content.List(c.Request.Context(), page, store.ContentFilter{
		PRDID:  c.Query("prd_id"),
		Type:   c.Query("type"),
		Status: c.Query("status"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type assetRequest struct {
	TaskID        *string `json:"task_id"`
	PRDID         *string `json:"prd_id"`
	Type          string  `json:"type"`
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	TargetChannel *string `json:"target_channel"`
}

func (s *Server) handleCreateContent(c *gin.Context) {
	var req assetRequest
	if !bindJSON(c, &req) {
		return
	}
	asset, err := s.st.Content.Create(c.Request.Context(), auth.FromGin(c), &models.ContentAsset{
		TaskID:        req.TaskID,
		PRDID:         req.PRDID,
		Type:          req.Type,
		Title:         req.Title,
		Content:       req.Content,
		TargetChannel: req.TargetChannel,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, asset)
}

func (s *Server) handleGetContent(c *gin.Context) {
	asset, err := s.st.Content.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"asset": asset, "word_count": asset.WordCount()})
}

func (s *Server) handleContentStatus(c *gin.Context) {
	s.updateStatus(c, s.st.Content.UpdateStatus, func(id string) (any, error) {
		return s.st.Content.Get(c.Request.Context(), id)
	})
}

func (s *Server) handlePublishContent(c *gin.Context) {
	asset, err := s.p.PublishContent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, asset)
}
