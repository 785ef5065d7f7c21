package contactwork

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

type RecurringPatternDTO struct {
	Frequency          string `json:"frequency"`
	DayOfWeek          int    `json:"dayOfWeek,omitempty"`
	DayOfMonth         int    `json:"dayOfMonth,omitempty"`
	Duration           string `json:"duration"`
	CustomDuration     int    `json:"customDuration,omitempty"`
	CustomDurationUnit string `json:"customDurationUnit,omitempty"`
}

type EntryDTO struct {
	Id                 string               `json:"id"`
	Person             string               `json:"person"`
	StartTime          string               `json:"startTime"`
	EndTime            string               `json:"endTime"`
	Location           string               `json:"location"`
	Organization       string               `json:"organization"`
	IsRecurring        bool                 `json:"isRecurring"`
	RecurringPattern   *RecurringPatternDTO `json:"recurringPattern,omitempty"`
	DeletedOccurrences []string             `json:"deletedOccurrences,omitempty"`
	Description        string               `json:"description,omitempty"`
	CreatedAt          string               `json:"createdAt,omitempty"`
	UpdatedAt          string               `json:"updatedAt,omitempty"`
}

type OccurrenceDTO struct {
	Id    string   `json:"id"`
	Start string   `json:"start"`
	End   string   `json:"end"`
	Entry EntryDTO `json:"entry"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListEntries godoc
// @Summary List contact work entries
// @Tags ContactWork
// @Produce json
// @Success 200 {array} EntryDTO
// @Router /api/contactwork [get]
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	entries, err := h.service.ListEntries(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	response := make([]EntryDTO, 0, len(entries))
	for _, entry := range entries {
		response = append(response, entryToDTO(entry))
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Schedule godoc
// @Summary Expanded calendar occurrences
// @Description All entries expanded into concrete occurrences, merged and ordered by start
// @Tags ContactWork
// @Produce json
// @Success 200 {array} OccurrenceDTO
// @Router /api/contactwork/schedule [get]
func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	occurrences, err := h.service.Schedule(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	response := make([]OccurrenceDTO, 0, len(occurrences))
	for _, occurrence := range occurrences {
		response = append(response, OccurrenceDTO{
			Id:    occurrence.Id,
			Start: occurrence.Start.Format(time.RFC3339),
			End:   occurrence.End.Format(time.RFC3339),
			Entry: entryToDTO(occurrence.Entry),
		})
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// CreateEntry godoc
// @Summary Create a contact work entry
// @Tags ContactWork
// @Accept json
// @Produce json
// @Param entry body EntryDTO true "Entry"
// @Success 201 {object} EntryDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 403 {object} rest.ErrorResponse "Not authorized"
// @Router /api/contactwork [post]
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Creating contact work entry")

	entry, ok := decodeEntry(w, r)
	if !ok {
		return
	}

	stored, err := h.service.CreateEntry(r.Context(), entry)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(entryToDTO(stored)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// UpdateEntry godoc
// @Summary Update a contact work entry
// @Tags ContactWork
// @Accept json
// @Produce json
// @Param entryId path string true "Entry id"
// @Param entry body EntryDTO true "Entry"
// @Success 200 {object} EntryDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 404 {object} rest.ErrorResponse "Entry not found"
// @Router /api/contactwork/{entryId} [put]
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	entry, ok := decodeEntry(w, r)
	if !ok {
		return
	}
	entry.Id = mux.Vars(r)["entryId"]

	updated, err := h.service.UpdateEntry(r.Context(), entry)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := json.NewEncoder(w).Encode(entryToDTO(updated)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// DeleteEntry godoc
// @Summary Delete a contact work entry (entire series)
// @Tags ContactWork
// @Param entryId path string true "Entry id"
// @Success 204
// @Failure 404 {object} rest.ErrorResponse "Entry not found"
// @Router /api/contactwork/{entryId} [delete]
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	entryId := mux.Vars(r)["entryId"]

	if err := h.service.DeleteEntry(r.Context(), entryId); err != nil {
		w.Header().Set("Content-Type", "application/json")
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteOccurrence godoc
// @Summary Delete a single occurrence of a recurring entry
// @Tags ContactWork
// @Param entryId path string true "Entry id"
// @Param date query string true "Occurrence date (YYYY-MM-DD)"
// @Success 204
// @Failure 400 {object} rest.ErrorResponse "Invalid date"
// @Failure 404 {object} rest.ErrorResponse "Entry not found"
// @Router /api/contactwork/{entryId}/occurrence [delete]
func (h *Handler) DeleteOccurrence(w http.ResponseWriter, r *http.Request) {
	entryId := mux.Vars(r)["entryId"]

	date, err := time.ParseInLocation(dateKeyLayout, r.URL.Query().Get("date"), time.Local)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error:   "Invalid date format",
			Details: "Occurrence date must be formatted as YYYY-MM-DD",
		})
		return
	}

	if err := h.service.DeleteOccurrence(r.Context(), entryId, date); err != nil {
		w.Header().Set("Content-Type", "application/json")
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeEntry(w http.ResponseWriter, r *http.Request) (Entry, bool) {
	var dto EntryDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error: "Invalid request body format",
		})
		return Entry{}, false
	}

	entry, err := entryFromDTO(dto)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error:   "Invalid entry",
			Details: err.Error(),
		})
		return Entry{}, false
	}
	return entry, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrNotAuthorized):
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Administrator capability required"})
	case errors.Is(err, ErrInvalidEntry):
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Invalid entry", Details: err.Error()})
	case errors.Is(err, ErrEntryNotFound):
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Entry not found"})
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func entryToDTO(entry Entry) EntryDTO {
	dto := EntryDTO{
		Id:           entry.Id,
		Person:       entry.Person,
		StartTime:    entry.StartTime.Format(time.RFC3339),
		EndTime:      entry.EndTime.Format(time.RFC3339),
		Location:     entry.Location,
		Organization: string(entry.Organization),
		IsRecurring:  entry.IsRecurring,
		Description:  entry.Description,
	}
	if !entry.CreatedAt.IsZero() {
		dto.CreatedAt = entry.CreatedAt.Format(time.RFC3339)
	}
	if !entry.UpdatedAt.IsZero() {
		dto.UpdatedAt = entry.UpdatedAt.Format(time.RFC3339)
	}
	if entry.RecurringPattern != nil {
		dto.RecurringPattern = &RecurringPatternDTO{
			Frequency:          string(entry.RecurringPattern.Frequency),
			DayOfWeek:          int(entry.RecurringPattern.DayOfWeek),
			DayOfMonth:         entry.RecurringPattern.DayOfMonth,
			Duration:           string(entry.RecurringPattern.Duration),
			CustomDuration:     entry.RecurringPattern.CustomDuration,
			CustomDurationUnit: string(entry.RecurringPattern.CustomDurationUnit),
		}
	}
	for _, d := range entry.DeletedOccurrences {
		dto.DeletedOccurrences = append(dto.DeletedOccurrences, d.Format(dateKeyLayout))
	}
	return dto
}

func entryFromDTO(dto EntryDTO) (Entry, error) {
	startTime, err := time.Parse(time.RFC3339, dto.StartTime)
	if err != nil {
		return Entry{}, errors.New("startTime must be in RFC3339 format")
	}
	endTime, err := time.Parse(time.RFC3339, dto.EndTime)
	if err != nil {
		return Entry{}, errors.New("endTime must be in RFC3339 format")
	}

	entry := Entry{
		Id:           dto.Id,
		Person:       dto.Person,
		StartTime:    startTime,
		EndTime:      endTime,
		Location:     dto.Location,
		Organization: Organization(dto.Organization),
		IsRecurring:  dto.IsRecurring,
		Description:  dto.Description,
	}
	if dto.RecurringPattern != nil {
		entry.RecurringPattern = &RecurringPattern{
			Frequency:          Frequency(dto.RecurringPattern.Frequency),
			DayOfWeek:          startTime.Weekday(),
			DayOfMonth:         startTime.Day(),
			Duration:           Duration(dto.RecurringPattern.Duration),
			CustomDuration:     dto.RecurringPattern.CustomDuration,
			CustomDurationUnit: DurationUnit(dto.RecurringPattern.CustomDurationUnit),
		}
	}
	return entry, nil
}
