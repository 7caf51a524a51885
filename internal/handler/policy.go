package handler

import (
	"net/http"
	"strconv"

	"netfence/internal/domain"
	"netfence/internal/service"
)

// --- Segments ---

func (h *Handler) ListVlans(w http.ResponseWriter, r *http.Request) {
	segments, err := h.policy.ListSegments(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, segments, http.StatusOK)
}

func (h *Handler) CreateVlan(w http.ResponseWriter, r *http.Request) {
	var input service.SegmentInput
	if !h.decode(w, r, &input) {
		return
	}

	segment, err := h.policy.CreateSegment(r.Context(), h.actor(r), input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, segment, http.StatusCreated)
}

func (h *Handler) UpdateVlan(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var input service.SegmentInput
	if !h.decode(w, r, &input) {
		return
	}

	segment, err := h.policy.UpdateSegment(r.Context(), h.actor(r), id, input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, segment, http.StatusOK)
}

func (h *Handler) DeleteVlan(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.policy.DeleteSegment(r.Context(), h.actor(r), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Communication rules ---

func (h *Handler) ListCommunication(w http.ResponseWriter, r *http.Request) {
	rules, err := h.policy.ListRules(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, rules, http.StatusOK)
}

func (h *Handler) SetCommunication(w http.ResponseWriter, r *http.Request) {
	var input service.RuleInput
	if !h.decode(w, r, &input) {
		return
	}

	rule, err := h.policy.SetRule(r.Context(), h.actor(r), input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, rule, http.StatusOK)
}

func (h *Handler) DeleteCommunication(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.policy.DeleteRule(r.Context(), h.actor(r), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListLimitedDevices(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	exceptions, err := h.policy.ListLimitedDevices(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, exceptions, http.StatusOK)
}

// SetLimitedDevices replaces the rule's whole exception set.
func (h *Handler) SetLimitedDevices(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		DeviceIDs []int64 `json:"device_ids"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.policy.SetLimitedDevices(r.Context(), h.actor(r), id, req.DeviceIDs); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Devices ---

func (h *Handler) ListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.policy.ListDevices(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, devices, http.StatusOK)
}

func (h *Handler) CreateDevice(w http.ResponseWriter, r *http.Request) {
	var input service.DeviceInput
	if !h.decode(w, r, &input) {
		return
	}

	device, err := h.policy.CreateDevice(r.Context(), h.actor(r), input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, device, http.StatusCreated)
}

func (h *Handler) UpdateDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var input service.DeviceInput
	if !h.decode(w, r, &input) {
		return
	}

	device, err := h.policy.UpdateDevice(r.Context(), h.actor(r), id, input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, device, http.StatusOK)
}

func (h *Handler) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.policy.DeleteDevice(r.Context(), h.actor(r), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Resolve answers the access question for an ordered device pair.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	sourceID, err := strconv.ParseInt(r.URL.Query().Get("source_id"), 10, 64)
	if err != nil {
		h.writeError(w, "Invalid source_id", "must be a numeric device id", http.StatusBadRequest)
		return
	}
	targetID, err := strconv.ParseInt(r.URL.Query().Get("target_id"), 10, 64)
	if err != nil {
		h.writeError(w, "Invalid target_id", "must be a numeric device id", http.StatusBadRequest)
		return
	}

	decision, err := h.policy.Resolve(r.Context(), sourceID, targetID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, decision, http.StatusOK)
}

// --- Switches and ports ---

func (h *Handler) ListSwitches(w http.ResponseWriter, r *http.Request) {
	switches, err := h.policy.ListSwitches(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, switches, http.StatusOK)
}

func (h *Handler) CreateSwitch(w http.ResponseWriter, r *http.Request) {
	var input service.SwitchInput
	if !h.decode(w, r, &input) {
		return
	}

	sw, err := h.policy.CreateSwitch(r.Context(), h.actor(r), input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, sw, http.StatusCreated)
}

func (h *Handler) UpdateSwitch(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var input service.SwitchInput
	if !h.decode(w, r, &input) {
		return
	}

	sw, err := h.policy.UpdateSwitch(r.Context(), h.actor(r), id, input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, sw, http.StatusOK)
}

func (h *Handler) DeleteSwitch(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.policy.DeleteSwitch(r.Context(), h.actor(r), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListSwitchPorts(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	ports, err := h.policy.ListSwitchPorts(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, ports, http.StatusOK)
}

func (h *Handler) CreateSwitchPort(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var input service.PortInput
	if !h.decode(w, r, &input) {
		return
	}

	port, err := h.policy.CreateSwitchPort(r.Context(), h.actor(r), id, input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, port, http.StatusCreated)
}

func (h *Handler) UpdateSwitchPort(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var input service.PortInput
	if !h.decode(w, r, &input) {
		return
	}

	port, err := h.policy.UpdateSwitchPort(r.Context(), h.actor(r), id, input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, port, http.StatusOK)
}

func (h *Handler) DeleteSwitchPort(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.policy.DeleteSwitchPort(r.Context(), h.actor(r), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetPortVlans(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	memberships, err := h.policy.GetPortVlans(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, memberships, http.StatusOK)
}

// SetPortVlans replaces the port's whole membership set.
func (h *Handler) SetPortVlans(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Vlans []domain.PortVlanMembership `json:"vlans"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.policy.SetPortVlans(r.Context(), h.actor(r), id, req.Vlans); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Reservations ---

func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	vlanID, err := strconv.Atoi(r.PathValue("vlanID"))
	if err != nil {
		h.writeError(w, "Invalid vlanID", "must be a numeric VLAN tag", http.StatusBadRequest)
		return
	}

	reservations, err := h.policy.ListReservations(r.Context(), vlanID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, reservations, http.StatusOK)
}

func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var input service.ReservationInput
	if !h.decode(w, r, &input) {
		return
	}

	reservation, err := h.policy.CreateReservation(r.Context(), h.actor(r), input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, reservation, http.StatusCreated)
}

func (h *Handler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var input service.ReservationInput
	if !h.decode(w, r, &input) {
		return
	}

	reservation, err := h.policy.UpdateReservation(r.Context(), h.actor(r), id, input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, reservation, http.StatusOK)
}

func (h *Handler) DeleteReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.policy.DeleteReservation(r.Context(), h.actor(r), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
