package tasks

import (
	"context"
	"time"

	"emperror.dev/errors"
	"github.com/mikestefanello/backlite"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/mediamanager/internal/entities"
)

// ResponsiveGenerator writes and records the size variants of a stored image.
type ResponsiveGenerator interface {
	GenerateResponsive(ctx context.Context, mediaID uint, sizes []string, method string, thumbs bool) ([]entities.MediaVariant, error)
}

// ResponsiveRemover deletes the size variants of a stored image.
type ResponsiveRemover interface {
	DeleteResponsive(ctx context.Context, mediaID uint) ([]string, error)
}

// GenerateResponsiveTask creates the variants of one image.
type GenerateResponsiveTask struct {
	MediaID uint     `json:"media_id"`
	Sizes   []string `json:"sizes,omitempty"`
	Method  string   `json:"method,omitempty"`
	Thumbs  bool     `json:"thumbs,omitempty"`
}

func (t GenerateResponsiveTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "generate_responsive",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// GenerateResponsiveProcessor runs GenerateResponsiveTask with gen.
func GenerateResponsiveProcessor(gen ResponsiveGenerator) backlite.QueueProcessor[GenerateResponsiveTask] {
	return func(ctx context.Context, task GenerateResponsiveTask) error {
		if gen == nil {
			return errors.New("responsive generator not configured")
		}

		variants, err := gen.GenerateResponsive(ctx, task.MediaID, task.Sizes, task.Method, task.Thumbs)
		if err != nil {
			return errors.Wrapf(err, "generate responsive images for media %d", task.MediaID)
		}

		log.Info().Uint("media_id", task.MediaID).Int("variants", len(variants)).Bool("thumbs", task.Thumbs).
			Msg("responsive images generated")
		return nil
	}
}

func NewGenerateResponsiveQueue(gen ResponsiveGenerator) backlite.Queue {
	return backlite.NewQueue(GenerateResponsiveProcessor(gen))
}

// DeleteResponsiveTask removes the variants of one image.
type DeleteResponsiveTask struct {
	MediaID uint `json:"media_id"`
}

func (t DeleteResponsiveTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "delete_responsive",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: true,
		},
	}
}

// DeleteResponsiveProcessor runs DeleteResponsiveTask with rm.
func DeleteResponsiveProcessor(rm ResponsiveRemover) backlite.QueueProcessor[DeleteResponsiveTask] {
	return func(ctx context.Context, task DeleteResponsiveTask) error {
		if rm == nil {
			return errors.New("responsive remover not configured")
		}

		removed, err := rm.DeleteResponsive(ctx, task.MediaID)
		if err != nil {
			return errors.Wrapf(err, "delete responsive images for media %d", task.MediaID)
		}

		log.Info().Uint("media_id", task.MediaID).Int("removed", len(removed)).Msg("responsive images deleted")
		return nil
	}
}

func NewDeleteResponsiveQueue(rm ResponsiveRemover) backlite.Queue {
	return backlite.NewQueue(DeleteResponsiveProcessor(rm))
}
