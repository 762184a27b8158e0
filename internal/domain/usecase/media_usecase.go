package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"workorder/internal/domain/entity"
	"workorder/internal/domain/resolver"
)

type MediaStorage interface {
	// Upload stores data and returns a durable URL for it.
	Upload(ctx context.Context, obj entity.MediaObject) (string, error)
}

// MediaUseCase attaches evidence to a step in two phases: the step already
// exists with empty media fields, the upload runs outside any document
// mutation, and the returned URL is applied with a single-field patch.
type MediaUseCase struct {
	Storage MediaStorage
	Jobs    *JobUseCase
	NewID   func() string
}

func NewMediaUseCase(storage MediaStorage, jobs *JobUseCase) *MediaUseCase {
	return &MediaUseCase{Storage: storage, Jobs: jobs, NewID: jobs.NewID}
}

func (u *MediaUseCase) AttachStepMedia(ctx context.Context, addr resolver.Address, field, fileName string, data []byte) (*entity.Step, error) {
	f, ok := entity.ParseStepField(field)
	if !ok || !f.IsMedia() {
		return nil, entity.Validation("field %q does not hold media", field)
	}
	if len(data) == 0 {
		return nil, entity.Validation("file is empty")
	}
	if _, err := u.Jobs.FindStep(ctx, addr); err != nil {
		return nil, err
	}
	if u.Storage == nil {
		return nil, entity.CollaboratorFailure("upload media", errors.New("media storage not configured"))
	}

	resource := entity.ResourceImage
	if f == entity.StepVideoURL {
		resource = entity.ResourceVideo
	}
	obj := entity.MediaObject{
		Key:      mediaKey(addr, f, u.NewID(), fileName),
		Data:     data,
		Resource: resource,
	}

	url, err := u.Storage.Upload(ctx, obj)
	if err != nil {
		log.Error().Err(err).Str("job_id", addr.JobID).Str("key", obj.Key).Msg("media upload failed")
		return nil, entity.CollaboratorFailure("upload media", err)
	}

	return u.Jobs.PatchStepField(ctx, addr, string(f), &url)
}

func mediaKey(addr resolver.Address, f entity.StepField, id, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("jobs/%s/tasks/%s/steps/%s/%s-%s%s", addr.JobID, addr.TaskID, addr.StepID, f, id, ext)
}
