package services

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"emperror.dev/errors"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/mediamanager/internal/imaging"
)

// Sweep deletes variant files whose source image no longer exists and drops
// their records. It returns the removed paths relative to the media root.
func (s *MediaService) Sweep(ctx context.Context) ([]string, error) {
	removed := []string{}

	err := filepath.WalkDir(s.cfg.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == s.cfg.Root {
				return filepath.SkipDir
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !hasVariantSuffix(d.Name()) {
			return nil
		}

		folder := filepath.Dir(p)
		switch filepath.Base(folder) {
		case imaging.ResponsiveFolder, imaging.ThumbsFolder:
		default:
			return nil
		}

		source := filepath.Join(filepath.Dir(folder), imaging.VariantSource(d.Name()))
		if _, err := os.Stat(source); err == nil {
			return nil
		}

		if err := os.Remove(p); err != nil {
			return errors.Wrapf(err, "failed to delete %s", p)
		}
		removed = append(removed, s.relative(p))
		return nil
	})

	// files already deleted lose their records even when the walk stopped early
	if len(removed) > 0 {
		if _, dbErr := s.store.DeleteVariantsByPath(removed); dbErr != nil {
			err = errors.Append(err, errors.Wrap(dbErr, "failed to delete orphaned variant records"))
		}
	}

	if s.audit != nil {
		s.audit.LogSweep(removed, err)
	}
	if len(removed) > 0 {
		log.Info().Int("removed", len(removed)).Msg("orphaned variants swept")
	}
	return removed, err
}
