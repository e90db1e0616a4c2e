package adminapi

import (
	"encoding/hex"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dantte-lp/procheckd/internal/identity"
	"github.com/dantte-lp/procheckd/internal/loader"
)

// ProcessHandler serves read-only JSON views of a loader.Driver's process
// slot table.
type ProcessHandler struct {
	driver *loader.Driver
}

// NewProcessHandler creates a ProcessHandler backed by driver.
func NewProcessHandler(driver *loader.Driver) *ProcessHandler {
	return &ProcessHandler{driver: driver}
}

// slotResponse is the JSON projection of a loader.ProcessSlot.
type slotResponse struct {
	ID          int    `json:"id"`
	Generation  uint64 `json:"generation"`
	Address     int64  `json:"address"`
	State       string `json:"state"`
	Version     uint32 `json:"version"`
	PackageName string `json:"package_name,omitempty"`
	AppIDKind   string `json:"app_id_kind"`
	AppID       string `json:"app_id,omitempty"`
	ShortID     string `json:"short_id,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

func toSlotResponse(s loader.ProcessSlot) slotResponse {
	resp := slotResponse{
		ID:         s.ID,
		Generation: s.Generation,
		Address:    s.Address,
		State:      s.State.String(),
		Version:    s.Version,
		AppIDKind:  s.AppID.Kind().String(),
	}

	if name, ok := s.Container.PackageName(); ok {
		resp.PackageName = string(name)
	}

	if s.AppID.Kind() == identity.KindConcrete {
		resp.AppID = hex.EncodeToString(s.AppID.Bytes())
	}

	if v, ok := s.ShortID.Value(); ok {
		resp.ShortID = strconv.FormatUint(uint64(v), 10)
	} else {
		resp.ShortID = "LocallyUnique"
	}

	if s.Reason != nil {
		resp.Reason = s.Reason.Error()
	}

	return resp
}

// List handles GET /v1/processes. Returns every slot currently in the
// table, in slot-ID order.
func (h *ProcessHandler) List(w http.ResponseWriter, r *http.Request) {
	slots := h.driver.Slots()
	resp := make([]slotResponse, 0, len(slots))
	for _, s := range slots {
		resp = append(resp, toSlotResponse(s))
	}
	WriteJSONOK(w, resp)
}

// Get handles GET /v1/processes/{id}.
func (h *ProcessHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		BadRequest(w, "slot id must be an integer")
		return
	}

	slot, ok := h.driver.Slot(id)
	if !ok {
		NotFound(w, "no such slot")
		return
	}

	WriteJSONOK(w, toSlotResponse(slot))
}

// runningEntryResponse is the JSON projection of a loader.RunningEntry.
type runningEntryResponse struct {
	SlotID  int    `json:"slot_id"`
	ShortID string `json:"short_id"`
}

// Running handles GET /v1/running. Returns the current Running set.
func (h *ProcessHandler) Running(w http.ResponseWriter, r *http.Request) {
	entries := h.driver.RunningSet()
	resp := make([]runningEntryResponse, 0, len(entries))
	for _, e := range entries {
		item := runningEntryResponse{SlotID: e.SlotID}
		if v, ok := e.ShortID.Value(); ok {
			item.ShortID = strconv.FormatUint(uint64(v), 10)
		} else {
			item.ShortID = "LocallyUnique"
		}
		resp = append(resp, item)
	}
	WriteJSONOK(w, resp)
}
