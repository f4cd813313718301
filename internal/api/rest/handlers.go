package rest

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/catpoint/internal/logger"
	pb "github.com/oshokin/catpoint/internal/pb/v1"
)

var (
	// errSensorNotFound is reported when a sensor path does not match a registered sensor.
	errSensorNotFound = errors.New("sensor not found")
	// errNoRoute is reported for unknown paths.
	errNoRoute = errors.New("no route")
)

// handlers adapts HTTP requests to the SecurityService.
type handlers struct {
	service pb.SecurityServiceServer
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeProto(w, r, http.StatusOK, &structpb.Struct{
		Fields: map[string]*structpb.Value{
			"status": structpb.NewStringValue("ok"),
		},
	})
}

func (h *handlers) getState(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.GetState(r.Context(), new(emptypb.Empty))
	respond(w, r, http.StatusOK, resp, err)
}

func (h *handlers) setArmingStatus(w http.ResponseWriter, r *http.Request) {
	req, err := readStruct(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)

		return
	}

	value := wrapperspb.String(req.GetFields()[pb.FieldArmingStatus].GetStringValue())

	resp, err := h.service.SetArmingStatus(r.Context(), value)
	respond(w, r, http.StatusOK, resp, err)
}

func (h *handlers) setAlarmStatus(w http.ResponseWriter, r *http.Request) {
	req, err := readStruct(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)

		return
	}

	value := wrapperspb.String(req.GetFields()[pb.FieldAlarmStatus].GetStringValue())

	resp, err := h.service.SetAlarmStatus(r.Context(), value)
	respond(w, r, http.StatusOK, resp, err)
}

func (h *handlers) listSensors(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.ListSensors(r.Context(), new(emptypb.Empty))
	respond(w, r, http.StatusOK, resp, err)
}

func (h *handlers) getSensor(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	list, err := h.service.ListSensors(r.Context(), new(emptypb.Empty))
	if err != nil {
		respond(w, r, http.StatusOK, nil, err)

		return
	}

	for _, value := range list.GetValues() {
		sensor := value.GetStructValue()
		if sensor.GetFields()[pb.FieldID].GetStringValue() == id {
			writeProto(w, r, http.StatusOK, sensor)

			return
		}
	}

	writeError(w, r, http.StatusNotFound, fmt.Errorf("%w: %s", errSensorNotFound, id))
}

func (h *handlers) addSensor(w http.ResponseWriter, r *http.Request) {
	req, err := readStruct(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)

		return
	}

	resp, err := h.service.AddSensor(r.Context(), req)
	respond(w, r, http.StatusCreated, resp, err)
}

func (h *handlers) removeSensor(w http.ResponseWriter, r *http.Request) {
	_, err := h.service.RemoveSensor(r.Context(), wrapperspb.String(mux.Vars(r)["id"]))
	if err != nil {
		respond(w, r, http.StatusOK, nil, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) setSensorActivation(w http.ResponseWriter, r *http.Request) {
	req, err := readStruct(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)

		return
	}

	if req.Fields == nil {
		req.Fields = make(map[string]*structpb.Value, 1)
	}

	req.Fields[pb.FieldID] = structpb.NewStringValue(mux.Vars(r)["id"])

	resp, err := h.service.SetSensorActivation(r.Context(), req)
	respond(w, r, http.StatusOK, resp, err)
}

func (h *handlers) reevaluateSensor(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.ReevaluateSensor(r.Context(), wrapperspb.String(mux.Vars(r)["id"]))
	respond(w, r, http.StatusOK, resp, err)
}

func (h *handlers) processImage(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImageSize))
	if err != nil {
		writeError(w, r, http.StatusRequestEntityTooLarge, err)

		return
	}

	resp, err := h.service.ProcessImage(r.Context(), wrapperspb.Bytes(data))
	respond(w, r, http.StatusOK, resp, err)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, fmt.Errorf("%w for %s %s", errNoRoute, r.Method, r.URL.Path))
}

// readStruct decodes a JSON object body. An empty body yields an empty struct.
func readStruct(w http.ResponseWriter, r *http.Request) (*structpb.Struct, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	msg := new(structpb.Struct)
	if len(data) == 0 {
		return msg, nil
	}

	if err = protojson.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}

	return msg, nil
}

// respond writes resp, or the HTTP translation of a service error.
func respond(w http.ResponseWriter, r *http.Request, code int, resp proto.Message, err error) {
	if err != nil {
		writeError(w, r, httpStatus(status.Code(err)), errors.New(status.Convert(err).Message()))

		return
	}

	writeProto(w, r, code, resp)
}

// httpStatus maps gRPC codes to HTTP status codes.
func httpStatus(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, code int, err error) {
	writeProto(w, r, code, &structpb.Struct{
		Fields: map[string]*structpb.Value{
			"error": structpb.NewStringValue(err.Error()),
		},
	})
}

func writeProto(w http.ResponseWriter, r *http.Request, code int, msg proto.Message) {
	data, err := protojson.Marshal(msg)
	if err != nil {
		logger.ErrorKV(r.Context(), "Failed to encode response", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if _, err = w.Write(data); err != nil {
		logger.WarnKV(r.Context(), "Failed to write response", "error", err)
	}
}
