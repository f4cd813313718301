package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	pb "github.com/oshokin/catpoint/internal/pb/v1"
)

// maxImageSize caps camera uploads.
const maxImageSize = 10 << 20

// maxBodySize caps JSON request bodies.
const maxBodySize = 1 << 16

// NewRouter builds the HTTP API around the provided service.
// metrics is mounted on /metrics when not nil.
func NewRouter(service pb.SecurityServiceServer, metrics http.Handler) *mux.Router {
	h := &handlers{service: service}

	r := mux.NewRouter()
	r.Use(Logger)

	r.HandleFunc("/health", h.health).Methods(http.MethodGet)

	if metrics != nil {
		r.Handle("/metrics", metrics).Methods(http.MethodGet)
	}

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/state", h.getState).Methods(http.MethodGet)
	v1.HandleFunc("/arming", h.setArmingStatus).Methods(http.MethodPut)
	v1.HandleFunc("/alarm", h.setAlarmStatus).Methods(http.MethodPut)
	v1.HandleFunc("/sensors", h.listSensors).Methods(http.MethodGet)
	v1.HandleFunc("/sensors", h.addSensor).Methods(http.MethodPost)
	v1.HandleFunc("/sensors/{id}", h.getSensor).Methods(http.MethodGet)
	v1.HandleFunc("/sensors/{id}", h.removeSensor).Methods(http.MethodDelete)
	v1.HandleFunc("/sensors/{id}/activation", h.setSensorActivation).Methods(http.MethodPut)
	v1.HandleFunc("/sensors/{id}/reevaluate", h.reevaluateSensor).Methods(http.MethodPost)
	v1.HandleFunc("/camera", h.processImage).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(notFound)

	return r
}
