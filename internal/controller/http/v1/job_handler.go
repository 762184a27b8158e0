package v1

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"workorder/internal/domain/entity"
	"workorder/internal/domain/resolver"
)

type JobUseCase interface {
	CreateJob(ctx context.Context, req entity.NewJob) (*entity.Job, error)
	GetJob(ctx context.Context, jobID string) (*entity.Job, error)
	ListJobs(ctx context.Context) ([]entity.Job, error)
	ReplaceJob(ctx context.Context, jobID string, r entity.JobReplacement) (*entity.Job, error)
	SetJobStatus(ctx context.Context, jobID string, status entity.JobStatus) (*entity.Job, error)
	DeleteJob(ctx context.Context, jobID string) error
	AppendTask(ctx context.Context, jobID string, req entity.NewTask) (*entity.Task, error)
	AppendStep(ctx context.Context, jobID, taskID string, req entity.NewStep) (*entity.Step, error)
	PatchStepField(ctx context.Context, addr resolver.Address, field string, value *string) (*entity.Step, error)
}

type MediaUseCase interface {
	AttachStepMedia(ctx context.Context, addr resolver.Address, field, fileName string, data []byte) (*entity.Step, error)
}

type JobHandler struct {
	UseCase JobUseCase
	Media   MediaUseCase
}

func NewJobHandler(u JobUseCase, media MediaUseCase) *JobHandler {
	return &JobHandler{UseCase: u, Media: media}
}

type statusRequest struct {
	Status entity.JobStatus `json:"status" binding:"required"`
}

type patchStepRequest struct {
	Field string  `json:"field" binding:"required"`
	Value *string `json:"value"`
}

func stepAddress(c *gin.Context) resolver.Address {
	return resolver.Address{JobID: c.Param("id"), TaskID: c.Param("taskId"), StepID: c.Param("stepId")}
}

func (h *JobHandler) CreateJob(c *gin.Context) {
	var req entity.NewJob
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	job, err := h.UseCase.CreateJob(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

func (h *JobHandler) ListJobs(c *gin.Context) {
	jobs, err := h.UseCase.ListJobs(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.UseCase.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) ReplaceJob(c *gin.Context) {
	var req entity.JobReplacement
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	job, err := h.UseCase.ReplaceJob(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) SetJobStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	job, err := h.UseCase.SetJobStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) DeleteJob(c *gin.Context) {
	id := c.Param("id")
	if err := h.UseCase.DeleteJob(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "deleted": true})
}

func (h *JobHandler) AppendTask(c *gin.Context) {
	var req entity.NewTask
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	task, err := h.UseCase.AppendTask(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *JobHandler) AppendStep(c *gin.Context) {
	var req entity.NewStep
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	step, err := h.UseCase.AppendStep(c.Request.Context(), c.Param("id"), c.Param("taskId"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, step)
}

func (h *JobHandler) PatchStep(c *gin.Context) {
	var req patchStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	step, err := h.UseCase.PatchStepField(c.Request.Context(), stepAddress(c), req.Field, req.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, step)
}

func (h *JobHandler) UploadStepMedia(c *gin.Context) {
	field := c.PostForm("field")
	if field == "" {
		respondError(c, entity.Validation("field required"))
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, entity.Validation("file required"))
		return
	}

	f, err := file.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		respondError(c, entity.Validation("read file: %v", err))
		return
	}

	step, err := h.Media.AttachStepMedia(c.Request.Context(), stepAddress(c), field, file.Filename, data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, step)
}
