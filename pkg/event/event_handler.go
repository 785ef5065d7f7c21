package event

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/kalendo/kalendo/internal/rest"
	"github.com/kalendo/kalendo/pkg/auth"
	log "github.com/sirupsen/logrus"
)

type EventDTO struct {
	Id          string   `json:"id"`
	Title       string   `json:"title"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Group       string   `json:"group"`
	Groups      []string `json:"groups,omitempty"`
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location,omitempty"`
	Url         string   `json:"url,omitempty"`
}

type EventHandler struct {
	service EventService
}

func NewEventHandler(service EventService) *EventHandler {
	return &EventHandler{service: service}
}

// ListEvents godoc
// @Summary List organizational events
// @Tags Events
// @Produce json
// @Success 200 {array} EventDTO
// @Router /api/event [get]
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	events, err := h.service.ListEvents(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	response := make([]EventDTO, 0, len(events))
	for _, event := range events {
		response = append(response, eventToDTO(event))
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// CreateEvent godoc
// @Summary Create an organizational event
// @Tags Events
// @Accept json
// @Produce json
// @Param event body EventDTO true "Event"
// @Success 201 {object} EventDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 403 {object} rest.ErrorResponse "Not authorized"
// @Router /api/event [post]
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Creating organizational event")

	event, ok := decodeEvent(w, r)
	if !ok {
		return
	}

	stored, err := h.service.CreateEvent(r.Context(), event)
	if err != nil {
		writeEventError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(eventToDTO(stored)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// UpdateEvent godoc
// @Summary Update an organizational event
// @Tags Events
// @Accept json
// @Produce json
// @Param eventId path string true "Event id"
// @Param event body EventDTO true "Event"
// @Success 200 {object} EventDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 404 {object} rest.ErrorResponse "Event not found"
// @Router /api/event/{eventId} [put]
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	event, ok := decodeEvent(w, r)
	if !ok {
		return
	}
	event.Id = mux.Vars(r)["eventId"]

	updated, err := h.service.UpdateEvent(r.Context(), event)
	if err != nil {
		writeEventError(w, err)
		return
	}

	if err := json.NewEncoder(w).Encode(eventToDTO(updated)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// DeleteEvent godoc
// @Summary Delete an organizational event
// @Tags Events
// @Param eventId path string true "Event id"
// @Success 204
// @Failure 404 {object} rest.ErrorResponse "Event not found"
// @Router /api/event/{eventId} [delete]
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventId := mux.Vars(r)["eventId"]

	if err := h.service.DeleteEvent(r.Context(), eventId); err != nil {
		w.Header().Set("Content-Type", "application/json")
		writeEventError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeEvent(w http.ResponseWriter, r *http.Request) (Event, bool) {
	var dto EventDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error: "Invalid request body format",
		})
		return Event{}, false
	}

	event, err := eventFromDTO(dto)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error:   "Invalid event",
			Details: err.Error(),
		})
		return Event{}, false
	}
	return event, true
}

func writeEventError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrNotAuthorized):
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Administrator capability required"})
	case errors.Is(err, ErrInvalidEvent):
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Invalid event", Details: err.Error()})
	case errors.Is(err, ErrEventNotFound):
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Event not found"})
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func eventToDTO(event Event) EventDTO {
	dto := EventDTO{
		Id:          event.Id,
		Title:       event.Title,
		Start:       event.Start.Format(time.RFC3339),
		End:         event.End.Format(time.RFC3339),
		Group:       string(event.Group),
		Description: event.Description,
		Location:    event.Location,
		Url:         event.Url,
	}
	for _, g := range event.Groups {
		dto.Groups = append(dto.Groups, string(g))
	}
	return dto
}

func eventFromDTO(dto EventDTO) (Event, error) {
	start, err := time.Parse(time.RFC3339, dto.Start)
	if err != nil {
		return Event{}, errors.New("start must be in RFC3339 format")
	}
	end, err := time.Parse(time.RFC3339, dto.End)
	if err != nil {
		return Event{}, errors.New("end must be in RFC3339 format")
	}

	event := Event{
		Id:          dto.Id,
		Title:       dto.Title,
		Start:       start,
		End:         end,
		Group:       Group(dto.Group),
		Description: dto.Description,
		Location:    dto.Location,
		Url:         dto.Url,
	}
	for _, g := range dto.Groups {
		event.Groups = append(event.Groups, Group(g))
	}
	return event, nil
}
