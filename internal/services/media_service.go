package services

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"emperror.dev/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/mediamanager/internal/entities"
	"github.com/mrlokans/mediamanager/internal/imaging"
	"github.com/mrlokans/mediamanager/internal/media"
	"github.com/mrlokans/mediamanager/internal/responsive"
	"github.com/mrlokans/mediamanager/internal/tasks"
	"github.com/mrlokans/mediamanager/internal/utils"
)

var (
	ErrInvalidDirectory = errors.New("upload directory is not configured")
	ErrNotImage         = errors.New("media file is not an image")
)

// MediaConfig describes where media lives and how variants are made.
type MediaConfig struct {
	Root        string
	BaseURL     string // public prefix of Root used in rendered tags
	Directories []string
	Sizes       []string
	Method      imaging.ScaleMethod
	Thumbs      bool
	BestQuality bool
}

// UploadInput is one file received from a client.
type UploadInput struct {
	File       media.File
	Directory  string
	Auth       media.Authorizer
	RemoteAddr string
}

// UploadResult is the stored file and, when variants were queued, the task id.
type UploadResult struct {
	File   *entities.MediaFile `json:"file"`
	TaskID string              `json:"task_id,omitempty"`
}

// MediaService stores uploads and manages their responsive variants.
type MediaService struct {
	store     MediaStore
	helper    *media.Helper
	generator *responsive.Generator
	queue     TaskQueue
	audit     Auditor
	cfg       MediaConfig
	plugin    responsive.PluginSettings
}

// NewMediaService creates a MediaService. queue and auditor may be nil.
func NewMediaService(store MediaStore, helper *media.Helper, cfg MediaConfig, queue TaskQueue, auditor Auditor) *MediaService {
	if cfg.Method == 0 {
		cfg.Method = imaging.ScaleInside
	}
	return &MediaService{
		store:     store,
		helper:    helper,
		generator: responsive.NewGenerator(cfg.Root, cfg.BestQuality),
		queue:     queue,
		audit:     auditor,
		cfg:       cfg,
		plugin:    responsive.PluginSettingsFromSizes(cfg.Sizes),
	}
}

// Generator exposes the responsive generator rooted at the media root.
func (s *MediaService) Generator() *responsive.Generator {
	return s.generator
}

// Helper returns the upload validator.
func (s *MediaService) Helper() *media.Helper {
	return s.helper
}

// FilePath maps a stored media path to a file on disk.
func (s *MediaService) FilePath(rel string) string {
	return filepath.Join(s.cfg.Root, filepath.FromSlash(rel))
}

func (s *MediaService) relative(full string) string {
	rel, err := filepath.Rel(s.cfg.Root, full)
	if err != nil {
		return filepath.ToSlash(full)
	}
	return filepath.ToSlash(rel)
}

// Upload validates the file, copies it below the media root under a random
// name and records it. Images get their default sizes generated or queued.
func (s *MediaService) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	if err := s.helper.CanUpload(in.File, in.Auth); err != nil {
		s.logUpload(in.File.Name, nil, in.RemoteAddr, err)
		return nil, err
	}

	dir := in.Directory
	if dir == "" && len(s.cfg.Directories) > 0 {
		dir = s.cfg.Directories[0]
	}
	if !media.IsValidLocalDirectory(dir, s.cfg.Directories) {
		err := errors.WithMessagef(ErrInvalidDirectory, "%q", dir)
		s.logUpload(in.File.Name, nil, in.RemoteAddr, err)
		return nil, err
	}

	storedName := uuid.NewString()
	if ext := utils.Extension(in.File.Name); ext != "" {
		storedName += "." + ext
	}
	rel := path.Join(dir, storedName)
	full := s.FilePath(rel)

	if err := copyFile(in.File.TmpPath, full); err != nil {
		s.logUpload(in.File.Name, nil, in.RemoteAddr, err)
		return nil, err
	}

	file := &entities.MediaFile{
		Path:         rel,
		Name:         storedName,
		OriginalName: in.File.Name,
		Size:         in.File.Size,
		UploadedBy:   in.RemoteAddr,
	}
	if info, err := os.Stat(full); err == nil {
		file.Size = info.Size()
	}

	if media.IsImage(in.File.Name) {
		if props, err := imaging.FileProperties(full); err == nil {
			file.IsImage = true
			file.MIME = props.MIME
			file.Width = props.Width
			file.Height = props.Height
			file.Orientation = string(props.Orientation)
		}
	}
	if file.MIME == "" {
		file.MIME = media.MimeType(full, false)
	}

	if err := s.store.Create(file); err != nil {
		_ = os.Remove(full)
		err = errors.Wrap(err, "failed to record upload")
		s.logUpload(in.File.Name, nil, in.RemoteAddr, err)
		return nil, err
	}
	s.logUpload(in.File.Name, &file.ID, in.RemoteAddr, nil)

	log.Info().Uint("media_id", file.ID).Str("path", rel).Bool("image", file.IsImage).Msg("media uploaded")

	result := &UploadResult{File: file}
	if file.IsImage && len(s.cfg.Sizes) > 0 {
		taskID, variants, err := s.RequestResponsive(ctx, file.ID, nil, "", s.cfg.Thumbs)
		if err != nil {
			log.Warn().Err(err).Uint("media_id", file.ID).Msg("failed to create responsive images for upload")
		}
		result.TaskID = taskID
		if variants != nil {
			file.Variants = variants
		}
	}
	return result, nil
}

// Get returns a media file with its variants.
func (s *MediaService) Get(id uint) (*entities.MediaFile, error) {
	return s.store.GetByID(id)
}

// List returns a page of media files and the total count.
func (s *MediaService) List(imagesOnly bool, limit, offset int) ([]entities.MediaFile, int64, error) {
	return s.store.List(imagesOnly, limit, offset)
}

// Properties reads the image header of a stored file.
func (s *MediaService) Properties(id uint) (imaging.Properties, error) {
	file, err := s.store.GetByID(id)
	if err != nil {
		return imaging.Properties{}, err
	}
	if !file.IsImage {
		return imaging.Properties{}, ErrNotImage
	}
	return imaging.FileProperties(s.FilePath(file.Path))
}

// Delete removes the file, its variants and its record.
func (s *MediaService) Delete(ctx context.Context, id uint) error {
	file, err := s.store.GetByID(id)
	if err != nil {
		return err
	}

	removed, err := s.removeVariantFiles(file)
	if err != nil {
		return err
	}
	if err := os.Remove(s.FilePath(file.Path)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to delete %s", file.Path)
	}
	if err := s.store.Delete(id); err != nil {
		return err
	}

	if s.audit != nil {
		s.audit.LogDelete(id, file.Path, len(removed))
	}
	return nil
}

// RequestResponsive schedules variant generation for an image. With a task
// queue the id of the queued task is returned, otherwise the variants are
// generated before returning.
func (s *MediaService) RequestResponsive(ctx context.Context, id uint, sizes []string, method string, thumbs bool) (string, []entities.MediaVariant, error) {
	file, err := s.store.GetByID(id)
	if err != nil {
		return "", nil, err
	}
	if !file.IsImage {
		return "", nil, ErrNotImage
	}

	if len(sizes) == 0 {
		sizes = s.cfg.Sizes
	}
	for _, size := range sizes {
		if _, _, err := imaging.ParseSize(size); err != nil {
			return "", nil, err
		}
	}
	if method != "" {
		if _, err := imaging.ParseScaleMethod(method); err != nil {
			return "", nil, err
		}
	}

	if s.queue == nil {
		variants, err := s.GenerateResponsive(ctx, id, sizes, method, thumbs)
		return "", variants, err
	}

	ids, err := s.queue.Add(tasks.GenerateResponsiveTask{
		MediaID: id,
		Sizes:   sizes,
		Method:  method,
		Thumbs:  thumbs,
	}).Ctx(ctx).Save()
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to queue responsive images")
	}
	return ids[0], nil, nil
}

// GenerateResponsive writes the variants of an image and records them,
// replacing earlier variants of the same kind.
func (s *MediaService) GenerateResponsive(ctx context.Context, id uint, sizes []string, method string, thumbs bool) ([]entities.MediaVariant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := s.store.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !file.IsImage {
		return nil, ErrNotImage
	}

	scale := s.cfg.Method
	if method != "" {
		if scale, err = imaging.ParseScaleMethod(method); err != nil {
			return nil, err
		}
	}
	if len(sizes) == 0 {
		sizes = s.cfg.Sizes
	}

	variants, files, err := s.createVariants(file, sizes, scale, thumbs)
	if s.audit != nil {
		s.audit.LogResponsive(id, file.Path, true, files, err)
	}
	if err != nil {
		return nil, err
	}

	keep := make([]entities.MediaVariant, 0, len(file.Variants)+len(variants))
	for _, v := range file.Variants {
		if v.Thumbs != thumbs {
			keep = append(keep, v)
		}
	}
	keep = append(keep, variants...)
	if err := s.store.ReplaceVariants(id, keep); err != nil {
		return nil, errors.Wrap(err, "failed to record variants")
	}
	return variants, nil
}

func (s *MediaService) createVariants(file *entities.MediaFile, sizes []string, method imaging.ScaleMethod, thumbs bool) ([]entities.MediaVariant, []string, error) {
	img, err := imaging.Open(s.FilePath(file.Path))
	if err != nil {
		return nil, nil, err
	}
	img.SetBestQuality(s.cfg.BestQuality)

	created, err := img.CreateMultipleSizes(sizes, method, thumbs)
	if err != nil {
		return nil, nil, err
	}

	variants := make([]entities.MediaVariant, 0, len(created))
	files := make([]string, 0, len(created))
	for _, c := range created {
		rel := s.relative(c.Path())
		variants = append(variants, entities.MediaVariant{
			MediaID: file.ID,
			Path:    rel,
			Width:   c.Width(),
			Height:  c.Height(),
			Method:  method.String(),
			Thumbs:  thumbs,
		})
		files = append(files, rel)
	}
	return variants, files, nil
}

// DeleteResponsive removes every variant file and record of an image.
func (s *MediaService) DeleteResponsive(ctx context.Context, id uint) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := s.store.GetByID(id)
	if err != nil {
		return nil, err
	}

	removed, err := s.removeVariantFiles(file)
	if s.audit != nil {
		s.audit.LogResponsive(id, file.Path, false, removed, err)
	}
	if err != nil {
		return removed, err
	}
	if _, err := s.store.DeleteVariants(id); err != nil {
		return removed, errors.Wrap(err, "failed to delete variant records")
	}
	return removed, nil
}

// RequestDeleteResponsive queues DeleteResponsive when a task queue is set.
func (s *MediaService) RequestDeleteResponsive(ctx context.Context, id uint) (string, []string, error) {
	if s.queue == nil {
		removed, err := s.DeleteResponsive(ctx, id)
		return "", removed, err
	}
	if _, err := s.store.GetByID(id); err != nil {
		return "", nil, err
	}
	ids, err := s.queue.Add(tasks.DeleteResponsiveTask{MediaID: id}).Ctx(ctx).Save()
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to queue responsive image deletion")
	}
	return ids[0], nil, nil
}

func (s *MediaService) removeVariantFiles(file *entities.MediaFile) ([]string, error) {
	full := s.FilePath(file.Path)
	removed, err := imaging.DeleteVariants(full, false)
	if err != nil {
		return removed, err
	}
	thumbs, err := imaging.DeleteVariants(full, true)
	return append(removed, thumbs...), err
}

// Srcset returns the srcset and sizes attributes for a stored image.
func (s *MediaService) Srcset(id uint, sizes []string, method string) (string, string, error) {
	file, err := s.store.GetByID(id)
	if err != nil {
		return "", "", err
	}
	if !file.IsImage {
		return "", "", ErrNotImage
	}

	scale := s.cfg.Method
	if method != "" {
		if scale, err = imaging.ParseScaleMethod(method); err != nil {
			return "", "", err
		}
	}
	if len(sizes) == 0 {
		sizes = s.cfg.Sizes
	}

	srcset, err := s.generator.Srcset(file.Path, sizes, scale)
	if err != nil {
		return "", "", err
	}
	sizesAttr, err := s.generator.SizesAttr(file.Path)
	return srcset, sizesAttr, err
}

// ContentResponsive adds srcset and sizes to the images in an HTML fragment.
// With generate set, missing variants are written first.
func (s *MediaService) ContentResponsive(content string, sizes []string, method string, generate bool) (string, []string, error) {
	scale := s.cfg.Method
	if method != "" {
		var err error
		if scale, err = imaging.ParseScaleMethod(method); err != nil {
			return "", nil, err
		}
	}
	if len(sizes) == 0 {
		sizes = s.cfg.Sizes
	}

	var generated []string
	if generate {
		var err error
		if generated, err = s.generator.GenerateContentImages(content, sizes, scale); err != nil {
			return "", generated, err
		}
	}

	out, err := s.generator.AddContentSrcsetAndSizes(content, sizes, scale)
	return out, generated, err
}

// Stats reports database totals and the file counts of each media directory.
func (s *MediaService) Stats() (LibraryStats, error) {
	totals, err := s.store.Stats()
	if err != nil {
		return LibraryStats{}, err
	}

	stats := LibraryStats{MediaStats: totals, Directories: make(map[string]FolderCount, len(s.cfg.Directories))}
	for _, dir := range s.cfg.Directories {
		files, folders := media.CountFiles(s.FilePath(dir))
		stats.Directories[dir] = FolderCount{Files: files, Folders: folders}
	}
	return stats, nil
}

func (s *MediaService) logUpload(name string, id *uint, ip string, err error) {
	if s.audit != nil {
		s.audit.LogUpload(name, id, ip, err)
	}
}

// copyFile copies src to dst, creating dst's directory.
func copyFile(src, dst string) error {
	if src == "" {
		return errors.New("upload has no content")
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", filepath.Dir(dst))
	}

	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(err, "failed to open upload")
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return errors.Wrap(err, "failed to store upload")
	}
	return out.Close()
}

// hasVariantSuffix reports whether name looks like a generated variant.
func hasVariantSuffix(name string) bool {
	return imaging.VariantSource(name) != name && !strings.HasPrefix(name, ".")
}
