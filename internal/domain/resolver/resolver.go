// Package resolver turns a logical work order address (job, task, step) into
// the filter and update documents a Document Store Adapter executes in one
// atomic single-document update.
package resolver

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"workorder/internal/domain/entity"
	"workorder/internal/domain/ident"
)

// Array filter identifiers used by doubly-indexed step updates.
const (
	taskIdent = "task"
	stepIdent = "step"
)

// Address locates a job and optionally one of its tasks and one of that task's steps.
type Address struct {
	JobID  string
	TaskID string
	StepID string
}

// Validate checks the syntax of every supplied id. It never touches storage.
func (a Address) Validate() error {
	if !ident.Valid(a.JobID) {
		return entity.InvalidIdentifier("jobId", a.JobID)
	}
	if a.TaskID != "" && !ident.Valid(a.TaskID) {
		return entity.InvalidIdentifier("taskId", a.TaskID)
	}
	if a.StepID != "" {
		if a.TaskID == "" {
			return entity.InvalidIdentifier("taskId", a.TaskID)
		}
		if !ident.Valid(a.StepID) {
			return entity.InvalidIdentifier("stepId", a.StepID)
		}
	}
	return nil
}

// Filter is the outer, document-level match. A task constraint makes the
// whole operation match nothing when the task is absent from the job.
func (a Address) Filter() bson.M {
	f := bson.M{entity.FieldID: a.JobID}
	if a.TaskID != "" {
		f[entity.FieldTasks+"."+entity.FieldNestedID] = a.TaskID
	}
	return f
}

// Target is a complete single-document mutation.
type Target struct {
	Filter  bson.M
	Update  bson.M
	Options entity.UpdateOptions
}

// Job addresses a whole job document.
func Job(jobID string) (bson.M, error) {
	a := Address{JobID: jobID}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a.Filter(), nil
}

// AppendTask pushes task onto the end of the job's tasks.
func AppendTask(jobID string, task entity.Task) (Target, error) {
	a := Address{JobID: jobID}
	if err := a.Validate(); err != nil {
		return Target{}, err
	}
	if task.Steps == nil {
		task.Steps = []entity.Step{}
	}
	return Target{
		Filter: a.Filter(),
		Update: bson.M{"$push": bson.M{entity.FieldTasks: task}},
	}, nil
}

// AppendStep pushes step onto the steps of the first task whose id matches,
// using the position recorded by the outer filter's task constraint.
func AppendStep(jobID, taskID string, step entity.Step) (Target, error) {
	a := Address{JobID: jobID, TaskID: taskID}
	if err := a.Validate(); err != nil {
		return Target{}, err
	}
	if taskID == "" {
		return Target{}, entity.InvalidIdentifier("taskId", taskID)
	}
	path := fmt.Sprintf("%s.$.%s", entity.FieldTasks, entity.FieldSteps)
	return Target{
		Filter: a.Filter(),
		Update: bson.M{"$push": bson.M{path: step}},
	}, nil
}

// PatchStepField sets one field of one step. The task and the step are each
// selected by an independent array filter.
func PatchStepField(a Address, field entity.StepField, value any) (Target, error) {
	if a.TaskID == "" {
		return Target{}, entity.InvalidIdentifier("taskId", a.TaskID)
	}
	if a.StepID == "" {
		return Target{}, entity.InvalidIdentifier("stepId", a.StepID)
	}
	if err := a.Validate(); err != nil {
		return Target{}, err
	}
	if _, ok := entity.ParseStepField(string(field)); !ok {
		return Target{}, entity.Validation("field %q cannot be patched", field)
	}

	path := fmt.Sprintf("%s.$[%s].%s.$[%s].%s", entity.FieldTasks, taskIdent, entity.FieldSteps, stepIdent, field)
	opts := entity.UpdateOptions{ArrayFilters: []bson.M{
		{taskIdent + "." + entity.FieldNestedID: a.TaskID},
		{stepIdent + "." + entity.FieldNestedID: a.StepID},
	}}
	return Target{
		Filter:  a.Filter(),
		Update:  bson.M{"$set": bson.M{path: value}},
		Options: opts,
	}, nil
}

// SetFields merges the given top-level fields into the job, shallow per field.
func SetFields(jobID string, fields bson.M) (Target, error) {
	a := Address{JobID: jobID}
	if err := a.Validate(); err != nil {
		return Target{}, err
	}
	if len(fields) == 0 {
		return Target{}, entity.Validation("no fields to update")
	}
	if _, ok := fields[entity.FieldID]; ok {
		return Target{}, entity.Validation("%s is immutable", entity.FieldID)
	}
	return Target{
		Filter: a.Filter(),
		Update: bson.M{"$set": fields},
	}, nil
}
