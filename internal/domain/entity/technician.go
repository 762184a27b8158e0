package entity

import "time"

const TechnicianAvailable = "available"

type TechnicianStats struct {
	Efficiency     float64 `json:"efficiency" bson:"efficiency"`
	Speed          float64 `json:"speed" bson:"speed"`
	TasksCompleted int     `json:"tasksCompleted" bson:"tasksCompleted"`
}

type Technician struct {
	ID        string          `json:"id" bson:"_id"`
	Name      string          `json:"name" bson:"name"`
	Phone     string          `json:"phone,omitempty" bson:"phone,omitempty"`
	Email     string          `json:"email,omitempty" bson:"email,omitempty"`
	Specialty string          `json:"specialty,omitempty" bson:"specialty,omitempty"`
	Status    string          `json:"status" bson:"status"`
	Stats     TechnicianStats `json:"stats" bson:"stats"`
	CreatedAt time.Time       `json:"createdAt" bson:"createdAt"`
}

type NewTechnician struct {
	Name      string           `json:"name" binding:"required"`
	Phone     string           `json:"phone"`
	Email     string           `json:"email"`
	Specialty string           `json:"specialty"`
	Status    string           `json:"status"`
	Stats     *TechnicianStats `json:"stats"`
}
