package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"

	"workorder/internal/domain/entity"
	"workorder/internal/domain/ident"
	"workorder/internal/domain/resolver"
)

// DocumentStore is the persistence boundary. Every call touches one document
// and is atomic for that document. FindOne returns entity.ErrNotFound when
// nothing matches; out is a pointer to a struct (FindOne) or slice (FindAll).
type DocumentStore interface {
	FindOne(ctx context.Context, collection string, filter bson.M, out any) error
	FindAll(ctx context.Context, collection string, filter bson.M, out any) error
	Insert(ctx context.Context, collection string, doc any) (string, error)
	Update(ctx context.Context, collection string, filter, update bson.M, opts entity.UpdateOptions) (entity.UpdateResult, error)
	Delete(ctx context.Context, collection string, filter bson.M) (entity.DeleteResult, error)
}

type VehicleDecoder interface {
	Decode(ctx context.Context, vin string) (entity.VehicleInfo, error)
}

type EventSink interface {
	Notify(e entity.Event)
}

type Publisher interface {
	Publish(ctx context.Context, routingKey string, body json.RawMessage) error
}

type JobUseCase struct {
	Store    DocumentStore
	Vehicles VehicleDecoder
	Events   EventSink
	// AllowedStatuses restricts setJobStatus; empty accepts any non-empty label.
	AllowedStatuses map[entity.JobStatus]struct{}
	NewID           func() string
	Now             func() time.Time
}

func NewJobUseCase(store DocumentStore, vehicles VehicleDecoder, events EventSink, allowedStatuses []string) *JobUseCase {
	allowed := make(map[entity.JobStatus]struct{}, len(allowedStatuses))
	for _, s := range allowedStatuses {
		allowed[entity.JobStatus(s)] = struct{}{}
	}
	return &JobUseCase{
		Store:           store,
		Vehicles:        vehicles,
		Events:          events,
		AllowedStatuses: allowed,
		NewID:           ident.New,
		Now:             func() time.Time { return time.Now().UTC() },
	}
}

func (u *JobUseCase) CreateJob(ctx context.Context, req entity.NewJob) (*entity.Job, error) {
	if strings.TrimSpace(req.CustomerID) == "" {
		return nil, entity.Validation("customerId is required")
	}

	job := &entity.Job{
		ID:         u.NewID(),
		CustomerID: req.CustomerID,
		Status:     entity.StatusPendingDiagnosis,
		Tasks:      []entity.Task{},
		CreatedAt:  u.Now().Truncate(time.Millisecond),
	}

	switch {
	case req.VehicleInfo != nil:
		job.VehicleInfo = *req.VehicleInfo
	case req.VIN != "":
		if u.Vehicles == nil {
			return nil, entity.CollaboratorFailure("decode vin", errors.New("vehicle lookup not configured"))
		}
		info, err := u.Vehicles.Decode(ctx, req.VIN)
		if err != nil {
			return nil, err
		}
		job.VehicleInfo = info
	}

	if req.TaskInfo != nil {
		task, err := u.newTask(*req.TaskInfo)
		if err != nil {
			return nil, err
		}
		job.Tasks = append(job.Tasks, task)
	}

	if _, err := u.Store.Insert(ctx, entity.CollectionJobs, job); err != nil {
		return nil, err
	}

	u.notify(entity.Event{Type: entity.EventJobCreated, JobID: job.ID, Data: map[string]any{"customerId": job.CustomerID}})
	return job, nil
}

func (u *JobUseCase) GetJob(ctx context.Context, jobID string) (*entity.Job, error) {
	filter, err := resolver.Job(jobID)
	if err != nil {
		return nil, err
	}
	var job entity.Job
	if err := u.Store.FindOne(ctx, entity.CollectionJobs, filter, &job); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, entity.ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (u *JobUseCase) ListJobs(ctx context.Context) ([]entity.Job, error) {
	jobs := []entity.Job{}
	if err := u.Store.FindAll(ctx, entity.CollectionJobs, bson.M{}, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// ReplaceJob merges the supplied top-level fields into the stored job.
func (u *JobUseCase) ReplaceJob(ctx context.Context, jobID string, r entity.JobReplacement) (*entity.Job, error) {
	if _, err := resolver.Job(jobID); err != nil {
		return nil, err
	}
	if r.Empty() {
		return nil, entity.Validation("no fields to update")
	}

	fields := bson.M{}
	if r.CustomerID != nil {
		if strings.TrimSpace(*r.CustomerID) == "" {
			return nil, entity.Validation("customerId must not be empty")
		}
		fields[entity.FieldCustomerID] = *r.CustomerID
	}
	if r.VehicleInfo != nil {
		fields[entity.FieldVehicleInfo] = *r.VehicleInfo
	}
	if r.Status != nil {
		if err := u.checkStatus(*r.Status); err != nil {
			return nil, err
		}
		fields[entity.FieldStatus] = *r.Status
	}
	if r.Tasks != nil {
		current, err := u.GetJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		tasks, err := u.adoptTasks(current, *r.Tasks)
		if err != nil {
			return nil, err
		}
		fields[entity.FieldTasks] = tasks
	}

	target, err := resolver.SetFields(jobID, fields)
	if err != nil {
		return nil, err
	}
	res, err := u.Store.Update(ctx, entity.CollectionJobs, target.Filter, target.Update, target.Options)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, entity.ErrJobNotFound
	}

	u.notify(entity.Event{Type: entity.EventJobReplaced, JobID: jobID})
	return u.GetJob(ctx, jobID)
}

func (u *JobUseCase) SetJobStatus(ctx context.Context, jobID string, status entity.JobStatus) (*entity.Job, error) {
	if err := u.checkStatus(status); err != nil {
		return nil, err
	}
	target, err := resolver.SetFields(jobID, bson.M{entity.FieldStatus: status})
	if err != nil {
		return nil, err
	}
	res, err := u.Store.Update(ctx, entity.CollectionJobs, target.Filter, target.Update, target.Options)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, entity.ErrJobNotFound
	}

	u.notify(entity.Event{Type: entity.EventJobStatusChanged, JobID: jobID, Data: map[string]any{"status": status}})
	return u.GetJob(ctx, jobID)
}

// DeleteJob removes the job document, and with it every task and step it owns.
func (u *JobUseCase) DeleteJob(ctx context.Context, jobID string) error {
	filter, err := resolver.Job(jobID)
	if err != nil {
		return err
	}
	res, err := u.Store.Delete(ctx, entity.CollectionJobs, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return entity.ErrJobNotFound
	}

	u.notify(entity.Event{Type: entity.EventJobDeleted, JobID: jobID})
	return nil
}

func (u *JobUseCase) AppendTask(ctx context.Context, jobID string, req entity.NewTask) (*entity.Task, error) {
	if _, err := resolver.Job(jobID); err != nil {
		return nil, err
	}
	task, err := u.newTask(req)
	if err != nil {
		return nil, err
	}
	target, err := resolver.AppendTask(jobID, task)
	if err != nil {
		return nil, err
	}
	res, err := u.Store.Update(ctx, entity.CollectionJobs, target.Filter, target.Update, target.Options)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, entity.ErrJobNotFound
	}

	u.notify(entity.Event{Type: entity.EventTaskAppended, JobID: jobID, TaskID: task.ID})
	return &task, nil
}

func (u *JobUseCase) AppendStep(ctx context.Context, jobID, taskID string, req entity.NewStep) (*entity.Step, error) {
	step := entity.Step{
		ID:          u.NewID(),
		Description: req.Description,
		PhotoBefore: req.PhotoBefore,
		PhotoAfter:  req.PhotoAfter,
		VideoURL:    req.VideoURL,
	}
	target, err := resolver.AppendStep(jobID, taskID, step)
	if err != nil {
		return nil, err
	}
	res, err := u.Store.Update(ctx, entity.CollectionJobs, target.Filter, target.Update, target.Options)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, u.missing(ctx, jobID)
	}

	u.notify(entity.Event{Type: entity.EventStepAppended, JobID: jobID, TaskID: taskID, StepID: step.ID})
	return &step, nil
}

// PatchStepField sets a single field of a step. A nil value stores null,
// which only media fields accept.
func (u *JobUseCase) PatchStepField(ctx context.Context, addr resolver.Address, field string, value *string) (*entity.Step, error) {
	f, ok := entity.ParseStepField(field)
	if !ok {
		return nil, entity.Validation("field %q cannot be patched", field)
	}
	var v any = value
	if f == entity.StepDescription {
		if value == nil {
			return nil, entity.Validation("description must not be null")
		}
		v = *value
	}

	target, err := resolver.PatchStepField(addr, f, v)
	if err != nil {
		return nil, err
	}
	res, err := u.Store.Update(ctx, entity.CollectionJobs, target.Filter, target.Update, target.Options)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, u.missing(ctx, addr.JobID)
	}

	// Zero modified means either the step is absent or it already held value.
	job, err := u.GetJob(ctx, addr.JobID)
	if err != nil {
		return nil, err
	}
	task, ok := job.Task(addr.TaskID)
	if !ok {
		return nil, entity.ErrTaskNotFound
	}
	step, ok := task.Step(addr.StepID)
	if !ok {
		return nil, entity.ErrStepNotFound
	}

	if res.ModifiedCount > 0 {
		u.notify(entity.Event{
			Type:   entity.EventStepPatched,
			JobID:  addr.JobID,
			TaskID: addr.TaskID,
			StepID: addr.StepID,
			Data:   map[string]any{"field": field},
		})
	}
	out := *step
	return &out, nil
}

// FindStep returns the step at addr without modifying anything.
func (u *JobUseCase) FindStep(ctx context.Context, addr resolver.Address) (*entity.Step, error) {
	if addr.TaskID == "" || addr.StepID == "" {
		return nil, entity.InvalidIdentifier("stepId", addr.StepID)
	}
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	job, err := u.GetJob(ctx, addr.JobID)
	if err != nil {
		return nil, err
	}
	task, ok := job.Task(addr.TaskID)
	if !ok {
		return nil, entity.ErrTaskNotFound
	}
	step, ok := task.Step(addr.StepID)
	if !ok {
		return nil, entity.ErrStepNotFound
	}
	out := *step
	return &out, nil
}

// missing tells a missing job apart from a job whose nested address did not resolve.
func (u *JobUseCase) missing(ctx context.Context, jobID string) error {
	if _, err := u.GetJob(ctx, jobID); err != nil {
		return err
	}
	return entity.ErrTaskNotFound
}

func (u *JobUseCase) newTask(req entity.NewTask) (entity.Task, error) {
	if strings.TrimSpace(req.Title) == "" {
		return entity.Task{}, entity.Validation("task title is required")
	}
	return entity.Task{
		ID:          u.NewID(),
		Title:       req.Title,
		Technician:  req.Technician,
		Description: req.Description,
		Steps:       []entity.Step{},
	}, nil
}

// adoptTasks assigns ids to supplied tasks and steps that lack one. A supplied
// id must already belong to the same kind of element in current and may
// appear only once, so every positional filter keeps matching one element.
func (u *JobUseCase) adoptTasks(current *entity.Job, in []entity.Task) ([]entity.Task, error) {
	knownTasks := make(map[string]struct{}, len(current.Tasks))
	knownSteps := make(map[string]struct{})
	for _, t := range current.Tasks {
		knownTasks[t.ID] = struct{}{}
		for _, s := range t.Steps {
			knownSteps[s.ID] = struct{}{}
		}
	}

	seenTasks := make(map[string]struct{}, len(in))
	seenSteps := make(map[string]struct{})
	out := make([]entity.Task, 0, len(in))
	for _, t := range in {
		if strings.TrimSpace(t.Title) == "" {
			return nil, entity.Validation("task title is required")
		}
		if t.ID == "" {
			t.ID = u.NewID()
		} else {
			if !ident.Valid(t.ID) {
				return nil, entity.InvalidIdentifier("taskId", t.ID)
			}
			if _, ok := knownTasks[t.ID]; !ok {
				return nil, entity.Validation("task %s does not belong to job %s", t.ID, current.ID)
			}
			if _, dup := seenTasks[t.ID]; dup {
				return nil, entity.Validation("task %s appears more than once", t.ID)
			}
		}
		seenTasks[t.ID] = struct{}{}

		steps := make([]entity.Step, 0, len(t.Steps))
		for _, s := range t.Steps {
			if s.ID == "" {
				s.ID = u.NewID()
			} else {
				if !ident.Valid(s.ID) {
					return nil, entity.InvalidIdentifier("stepId", s.ID)
				}
				if _, ok := knownSteps[s.ID]; !ok {
					return nil, entity.Validation("step %s does not belong to job %s", s.ID, current.ID)
				}
				if _, dup := seenSteps[s.ID]; dup {
					return nil, entity.Validation("step %s appears more than once", s.ID)
				}
			}
			seenSteps[s.ID] = struct{}{}
			steps = append(steps, s)
		}
		t.Steps = steps
		out = append(out, t)
	}
	return out, nil
}

func (u *JobUseCase) checkStatus(status entity.JobStatus) error {
	if strings.TrimSpace(string(status)) == "" {
		return entity.Validation("status is required")
	}
	if len(u.AllowedStatuses) == 0 {
		return nil
	}
	if _, ok := u.AllowedStatuses[status]; !ok {
		return entity.Validation("status %q is not allowed", status)
	}
	return nil
}

func (u *JobUseCase) notify(e entity.Event) {
	if u.Events == nil {
		return
	}
	e.At = u.Now()
	u.Events.Notify(e)
	log.Debug().Str("event", string(e.Type)).Str("job_id", e.JobID).Msg("event queued")
}
