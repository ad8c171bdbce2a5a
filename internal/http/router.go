package http

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/MediTrack-HMS/visit-queue-service/internal/broadcast"
	"github.com/MediTrack-HMS/visit-queue-service/internal/config"
	"github.com/MediTrack-HMS/visit-queue-service/internal/ingest"
	"github.com/MediTrack-HMS/visit-queue-service/internal/messaging"
	"github.com/MediTrack-HMS/visit-queue-service/internal/patient"
	"github.com/MediTrack-HMS/visit-queue-service/internal/queue"
	"github.com/MediTrack-HMS/visit-queue-service/internal/telemetry"
)

// SetupRouter initializes all routes for the application
func SetupRouter(db *sql.DB, cfg *config.Config, publisher messaging.PublisherInterface, hub *broadcast.Hub, metrics *telemetry.Metrics) *mux.Router {
	// Initialize patient components
	patientRepo := patient.NewRepository(db)
	patientService := patient.NewService(patientRepo, publisher, metrics)
	patientHandler := patient.NewHandler(patientService, cfg.Environment)

	// Initialize ingestion components
	ingestHandler := ingest.NewHandler(patientService, metrics, cfg.Environment)

	// Initialize queue components
	queueRepo := queue.NewRepository(db)
	queueService := queue.NewService(queueRepo, publisher, metrics, hub)
	queueHandler := queue.NewHandler(queueService, cfg.Environment)

	r := mux.NewRouter()
	r.Use(otelmux.Middleware("visit-queue-service"))
	if metrics != nil {
		r.Use(MetricsMiddleware(metrics))
	}

	// Public health endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"visit-queue-service"}`))
	}).Methods("GET")

	// Department catalog, served from configuration
	r.HandleFunc("/api/departments", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":     true,
			"departments": cfg.Departments.Departments,
		})
	}).Methods("GET")

	// Visit recording routes
	r.HandleFunc("/api/addVisit", patientHandler.AddVisit).Methods("POST")
	r.HandleFunc("/api/uploadFile", ingestHandler.UploadFile).Methods("POST")
	r.HandleFunc("/api/addBulkVisits", ingestHandler.AddBulkVisits).Methods("POST")

	// Patient lookup routes. The id route must be registered before the
	// nationalId route so "/api/patient/id/7" never matches the latter.
	r.HandleFunc("/api/patient/id/{id}", patientHandler.GetByPatientID).Methods("GET")
	r.HandleFunc("/api/patient/{nationalId}", patientHandler.GetByNationalID).Methods("GET")
	r.HandleFunc("/api/patient/{nationalId}", patientHandler.Delete).Methods("DELETE")
	r.HandleFunc("/api/allPatients", patientHandler.ListAll).Methods("GET")
	r.HandleFunc("/api/patients/sort/by-visits", patientHandler.ListByVisitCount).Methods("GET")
	r.HandleFunc("/api/patients/today", patientHandler.ListToday).Methods("GET")
	r.HandleFunc("/api/patients/date-range", patientHandler.ListByDateRange).Methods("GET")
	r.HandleFunc("/api/stats", patientHandler.Stats).Methods("GET")

	// Queue routes
	r.HandleFunc("/api/queue/add", queueHandler.Admit).Methods("POST")
	r.HandleFunc("/api/queue/active", queueHandler.ListActive).Methods("GET")
	r.HandleFunc("/api/queue/department/{department}", queueHandler.ListByDepartment).Methods("GET")
	r.HandleFunc("/api/queue/status/{id}", queueHandler.SetStatus).Methods("PUT")
	r.HandleFunc("/api/queue/call-next/{department}", queueHandler.CallNext).Methods("POST")
	r.HandleFunc("/api/queue/complete/{id}", queueHandler.Complete).Methods("POST")
	r.HandleFunc("/api/queue/purge", queueHandler.Purge).Methods("POST")

	// Live queue feed for waiting-room displays
	if hub != nil {
		r.HandleFunc("/ws/queue", hub.HandleWS).Methods("GET")
	}

	return r
}
