package http

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/mediamanager/internal/auth"
	"github.com/mrlokans/mediamanager/internal/entities"
	"github.com/mrlokans/mediamanager/internal/media"
	"github.com/mrlokans/mediamanager/internal/services"
)

// MediaController exposes the media library over the JSON API.
type MediaController struct {
	service *services.MediaService
	thumbs  bool
}

func NewMediaController(service *services.MediaService, thumbs bool) *MediaController {
	return &MediaController{service: service, thumbs: thumbs}
}

// RegisterRoutes mounts the media endpoints under /api.
func (mc *MediaController) RegisterRoutes(r gin.IRouter) {
	api := r.Group("/api")

	api.POST("/media", mc.Upload)
	api.GET("/media", mc.List)
	api.GET("/media/stats", mc.Stats)
	api.GET("/media/:id", mc.Get)
	api.GET("/media/:id/properties", mc.Properties)
	api.GET("/media/:id/srcset", mc.Srcset)
	api.GET("/media/:id/img", mc.ImgTag)
	api.DELETE("/media/:id", auth.RequireManage(), mc.Delete)
	api.POST("/media/:id/responsive", auth.RequireManage(), mc.CreateResponsive)
	api.DELETE("/media/:id/responsive", auth.RequireManage(), mc.DeleteResponsive)
	api.POST("/media/:id/transform", auth.RequireManage(), mc.Transform)

	api.POST("/content/responsive", mc.ContentResponsive)
	api.POST("/content/images", mc.ContentImages)
	api.POST("/forms/responsive", auth.RequireManage(), mc.FormResponsive)
}

// Upload handles POST /api/media (multipart field "file", optional
// "directory"). Non-image files need the manage permission.
func (mc *MediaController) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: (&media.UploadError{Key: media.KeyUploadInput}).Error(),
			Code:  media.KeyUploadInput,
		})
		return
	}

	tmpDir, err := os.MkdirTemp("", "mediamanager-upload-*")
	if err != nil {
		respondInternalError(c, err, "upload temp dir")
		return
	}
	defer os.RemoveAll(tmpDir)

	// the client name is only used for validation and the extension
	tmpPath := filepath.Join(tmpDir, "upload")
	if err := c.SaveUploadedFile(header, tmpPath); err != nil {
		respondInternalError(c, err, "save upload")
		return
	}

	result, err := mc.service.Upload(c.Request.Context(), services.UploadInput{
		File:       media.File{Name: header.Filename, Size: header.Size, TmpPath: tmpPath},
		Directory:  c.PostForm("directory"),
		Auth:       auth.Authorizer(c),
		RemoteAddr: c.ClientIP(),
	})
	if err != nil {
		respondServiceError(c, err, "upload")
		return
	}

	log.Info().
		Uint("id", result.File.ID).
		Str("path", result.File.Path).
		Str("task_id", result.TaskID).
		Msg("media uploaded")

	status := http.StatusCreated
	if result.TaskID != "" {
		status = http.StatusAccepted
	}
	c.JSON(status, result)
}

// List handles GET /api/media?images=true&limit=&offset=
func (mc *MediaController) List(c *gin.Context) {
	limit, offset := parsePagination(c)
	imagesOnly := c.Query("images") == "true"

	files, total, err := mc.service.List(imagesOnly, limit, offset)
	if err != nil {
		respondInternalError(c, err, "list media")
		return
	}
	if files == nil {
		files = []entities.MediaFile{}
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    files,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(files)) < total,
	})
}

// Stats handles GET /api/media/stats
func (mc *MediaController) Stats(c *gin.Context) {
	stats, err := mc.service.Stats()
	if err != nil {
		respondInternalError(c, err, "media stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Get handles GET /api/media/:id
func (mc *MediaController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	file, err := mc.service.Get(id)
	if err != nil {
		respondServiceError(c, err, "get media")
		return
	}
	c.JSON(http.StatusOK, file)
}

// Properties handles GET /api/media/:id/properties
func (mc *MediaController) Properties(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	props, err := mc.service.Properties(id)
	if err != nil {
		respondServiceError(c, err, "media properties")
		return
	}
	c.JSON(http.StatusOK, props)
}

// Srcset handles GET /api/media/:id/srcset?sizes=800x600,400x300&method=inside
func (mc *MediaController) Srcset(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	srcset, sizes, err := mc.service.Srcset(id, media.SplitList(c.Query("sizes")), c.Query("method"))
	if err != nil {
		respondServiceError(c, err, "srcset")
		return
	}
	c.JSON(http.StatusOK, gin.H{"srcset": srcset, "sizes": sizes})
}

// ImgTag handles GET /api/media/:id/img?alt=&width=&height=&sizes=800x600,400x300
func (mc *MediaController) ImgTag(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	width, werr := strconv.Atoi(c.DefaultQuery("width", "0"))
	height, herr := strconv.Atoi(c.DefaultQuery("height", "0"))
	if werr != nil || herr != nil || width < 0 || height < 0 {
		respondBadRequest(c, "width and height must be non-negative integers")
		return
	}

	html, err := mc.service.ImgTag(id, services.ImgTagOptions{
		Alt:    c.Query("alt"),
		Width:  width,
		Height: height,
		Sizes:  media.SplitList(c.Query("sizes")),
	})
	if err != nil {
		respondServiceError(c, err, "img tag")
		return
	}
	c.JSON(http.StatusOK, gin.H{"html": string(html)})
}

// Delete handles DELETE /api/media/:id
func (mc *MediaController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := mc.service.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "delete media")
		return
	}
	c.Status(http.StatusNoContent)
}

// ResponsiveRequest selects the variants to create. Empty fields fall back
// to the configured defaults.
type ResponsiveRequest struct {
	Sizes  []string `json:"sizes"`
	Method string   `json:"method"`
	Thumbs *bool    `json:"thumbs"`
}

// CreateResponsive handles POST /api/media/:id/responsive. The variants are
// queued (202) or, without a task queue, created before responding (201).
func (mc *MediaController) CreateResponsive(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ResponsiveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body")
			return
		}
	}
	thumbs := mc.thumbs
	if req.Thumbs != nil {
		thumbs = *req.Thumbs
	}

	taskID, variants, err := mc.service.RequestResponsive(c.Request.Context(), id, req.Sizes, req.Method, thumbs)
	if err != nil {
		respondServiceError(c, err, "create responsive")
		return
	}
	if taskID != "" {
		respondAccepted(c, "responsive images queued", gin.H{"task_id": taskID})
		return
	}
	if variants == nil {
		variants = []entities.MediaVariant{}
	}
	c.JSON(http.StatusCreated, gin.H{"variants": variants})
}

// DeleteResponsive handles DELETE /api/media/:id/responsive
func (mc *MediaController) DeleteResponsive(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	taskID, removed, err := mc.service.RequestDeleteResponsive(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "delete responsive")
		return
	}
	if taskID != "" {
		respondAccepted(c, "responsive image removal queued", gin.H{"task_id": taskID})
		return
	}
	if removed == nil {
		removed = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// Transform handles POST /api/media/:id/transform
func (mc *MediaController) Transform(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.TransformRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Operation == "" {
		respondBadRequest(c, "operation is required")
		return
	}

	file, err := mc.service.Transform(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "transform")
		return
	}
	c.JSON(http.StatusOK, file)
}

// ContentRequest is an HTML fragment whose images get srcset attributes.
type ContentRequest struct {
	Content  string   `json:"content"`
	Sizes    []string `json:"sizes"`
	Method   string   `json:"method"`
	Generate bool     `json:"generate"`
}

// ContentResponsive handles POST /api/content/responsive. Generating the
// missing variants writes files and needs the manage permission.
func (mc *MediaController) ContentResponsive(c *gin.Context) {
	var req ContentRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		respondBadRequest(c, "content is required")
		return
	}
	if req.Generate && !auth.CanManage(c) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "manage permission required to generate images"})
		return
	}

	content, generated, err := mc.service.ContentResponsive(req.Content, req.Sizes, req.Method, req.Generate)
	if err != nil {
		respondServiceError(c, err, "content responsive")
		return
	}
	if generated == nil {
		generated = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"content": content, "generated": generated})
}

// ContentImages handles POST /api/content/images
func (mc *MediaController) ContentImages(c *gin.Context) {
	var req ContentRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		respondBadRequest(c, "content is required")
		return
	}

	images, err := mc.service.ContentImages(req.Content)
	if err != nil {
		respondServiceError(c, err, "content images")
		return
	}
	c.JSON(http.StatusOK, gin.H{"images": images})
}

// FormRequest lists the images saved with a form.
type FormRequest struct {
	Images []services.FormField `json:"images"`
}

// FormResponsive handles POST /api/forms/responsive. The variants of every
// existing image are written before the response.
func (mc *MediaController) FormResponsive(c *gin.Context) {
	var req FormRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Images) == 0 {
		respondBadRequest(c, "images are required")
		return
	}

	images, err := mc.service.FormResponsive(c.Request.Context(), req.Images)
	if err != nil {
		respondServiceError(c, err, "form responsive")
		return
	}
	c.JSON(http.StatusOK, gin.H{"images": images})
}
