package entity

import "time"

type JobStatus string

const (
	StatusPendingDiagnosis JobStatus = "pending_diagnosis"
	StatusInProgress       JobStatus = "in_progress"
	StatusCompleted        JobStatus = "completed"
)

// Document field names shared by the resolver and the store adapters.
const (
	FieldID          = "_id"
	FieldCustomerID  = "customerId"
	FieldVehicleInfo = "vehicleInfo"
	FieldStatus      = "status"
	FieldTasks       = "tasks"
	FieldSteps       = "steps"
	FieldNestedID    = "id"
)

type VehicleInfo struct {
	Make            string `json:"make,omitempty" bson:"make,omitempty"`
	Model           string `json:"model,omitempty" bson:"model,omitempty"`
	Year            string `json:"year,omitempty" bson:"year,omitempty"`
	Manufacturer    string `json:"manufacturer,omitempty" bson:"manufacturer,omitempty"`
	VehicleType     string `json:"vehicleType,omitempty" bson:"vehicleType,omitempty"`
	EngineCylinders string `json:"engineCylinders,omitempty" bson:"engineCylinders,omitempty"`
	FuelType        string `json:"fuelType,omitempty" bson:"fuelType,omitempty"`
	Transmission    string `json:"transmission,omitempty" bson:"transmission,omitempty"`
}

// Job is the aggregate root of a work order. Tasks and steps live only inside it.
type Job struct {
	ID          string      `json:"id" bson:"_id"`
	CustomerID  string      `json:"customerId" bson:"customerId"`
	VehicleInfo VehicleInfo `json:"vehicleInfo" bson:"vehicleInfo"`
	Status      JobStatus   `json:"status" bson:"status"`
	Tasks       []Task      `json:"tasks" bson:"tasks"`
	CreatedAt   time.Time   `json:"createdAt" bson:"createdAt"`
}

type Task struct {
	ID          string `json:"id" bson:"id"`
	Title       string `json:"title" bson:"title"`
	Technician  string `json:"technician" bson:"technician"`
	Description string `json:"description" bson:"description"`
	Steps       []Step `json:"steps" bson:"steps"`
}

type Step struct {
	ID          string  `json:"id" bson:"id"`
	Description string  `json:"description" bson:"description"`
	PhotoBefore *string `json:"photoBefore" bson:"photoBefore"`
	PhotoAfter  *string `json:"photoAfter" bson:"photoAfter"`
	VideoURL    *string `json:"videoUrl" bson:"videoUrl"`
}

// StepField names a step attribute that may be patched on its own.
type StepField string

const (
	StepDescription StepField = "description"
	StepPhotoBefore StepField = "photoBefore"
	StepPhotoAfter  StepField = "photoAfter"
	StepVideoURL    StepField = "videoUrl"
)

func ParseStepField(s string) (StepField, bool) {
	switch f := StepField(s); f {
	case StepDescription, StepPhotoBefore, StepPhotoAfter, StepVideoURL:
		return f, true
	}
	return "", false
}

// IsMedia reports whether the field carries an evidence URL.
func (f StepField) IsMedia() bool {
	return f == StepPhotoBefore || f == StepPhotoAfter || f == StepVideoURL
}

func (j *Job) Task(id string) (*Task, bool) {
	for i := range j.Tasks {
		if j.Tasks[i].ID == id {
			return &j.Tasks[i], true
		}
	}
	return nil, false
}

func (t *Task) Step(id string) (*Step, bool) {
	for i := range t.Steps {
		if t.Steps[i].ID == id {
			return &t.Steps[i], true
		}
	}
	return nil, false
}

// NewTask is the caller-supplied part of a task.
type NewTask struct {
	Title       string `json:"title" binding:"required"`
	Technician  string `json:"technician"`
	Description string `json:"description"`
}

// NewStep is the caller-supplied part of a step.
type NewStep struct {
	Description string  `json:"description"`
	PhotoBefore *string `json:"photoBefore"`
	PhotoAfter  *string `json:"photoAfter"`
	VideoURL    *string `json:"videoUrl"`
}

type NewJob struct {
	CustomerID  string       `json:"customerId" binding:"required"`
	VehicleInfo *VehicleInfo `json:"vehicleInfo"`
	VIN         string       `json:"vin"`
	TaskInfo    *NewTask     `json:"taskInfo"`
}

// JobReplacement carries the top-level fields merged by a replace. Nil fields are left alone.
type JobReplacement struct {
	CustomerID  *string      `json:"customerId"`
	VehicleInfo *VehicleInfo `json:"vehicleInfo"`
	Status      *JobStatus   `json:"status"`
	Tasks       *[]Task      `json:"tasks"`
}

func (r JobReplacement) Empty() bool {
	return r.CustomerID == nil && r.VehicleInfo == nil && r.Status == nil && r.Tasks == nil
}
