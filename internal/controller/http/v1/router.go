package v1

import (
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerTagNames sync.Once

// useJSONFieldNames makes validation errors report the json name of a field.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// NewRouter registers every route on a fresh engine. Middlewares run before
// the route handlers in the order given.
func NewRouter(jobs *JobHandler, directory *DirectoryHandler, middlewares ...gin.HandlerFunc) *gin.Engine {
	useJSONFieldNames()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares...)
	r.MaxMultipartMemory = 32 << 20

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	jobGroup := r.Group("/jobs")
	{
		jobGroup.POST("", jobs.CreateJob)
		jobGroup.GET("", jobs.ListJobs)
		jobGroup.GET("/:id", jobs.GetJob)
		jobGroup.PUT("/:id", jobs.ReplaceJob)
		jobGroup.PATCH("/:id/status", jobs.SetJobStatus)
		jobGroup.DELETE("/:id", jobs.DeleteJob)
		jobGroup.POST("/:id/tasks", jobs.AppendTask)
		jobGroup.POST("/:id/tasks/:taskId/steps", jobs.AppendStep)
		jobGroup.PATCH("/:id/tasks/:taskId/steps/:stepId", jobs.PatchStep)
		jobGroup.POST("/:id/tasks/:taskId/steps/:stepId/media", jobs.UploadStepMedia)
	}

	customers := r.Group("/customers")
	{
		customers.POST("", directory.CreateCustomer)
		customers.GET("", directory.ListCustomers)
		customers.GET("/:id", directory.GetCustomer)
	}

	technicians := r.Group("/technicians")
	{
		technicians.POST("", directory.CreateTechnician)
		technicians.GET("", directory.ListTechnicians)
		technicians.GET("/:id", directory.GetTechnician)
	}

	r.GET("/vehicles/:vin", directory.DecodeVehicle)

	return r
}
