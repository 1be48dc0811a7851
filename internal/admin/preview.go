package admin

import "net/http"

// PreviewMode tracks where a submission stands in the optional two-step
// approve flow.
type PreviewMode int

const (
	PreviewOff PreviewMode = iota
	PreviewRequested
	PreviewApproved
	PreviewDeclined
)

// Submit-button markers driving the preview flow.
const (
	ParamPreview        = "btn_preview"
	ParamPreviewApprove = "btn_preview_approve"
	ParamPreviewDecline = "btn_preview_decline"
)

// ResolvePreviewMode inspects the submission markers. Descriptors without
// preview support always resolve to PreviewOff. Approve and decline win over
// a plain preview request when several markers are present.
func ResolvePreviewMode(r *http.Request, supported bool) PreviewMode {
	if !supported || r == nil {
		return PreviewOff
	}
	switch {
	case HasFormField(r, ParamPreviewApprove):
		return PreviewApproved
	case HasFormField(r, ParamPreviewDecline):
		return PreviewDeclined
	case HasFormField(r, ParamPreview):
		return PreviewRequested
	}
	return PreviewOff
}

// AllowsPersist reports whether a valid form may be persisted under this
// mode: only when preview is off or was explicitly approved.
func (m PreviewMode) AllowsPersist() bool {
	return m == PreviewOff || m == PreviewApproved
}

func (m PreviewMode) String() string {
	switch m {
	case PreviewOff:
		return "off"
	case PreviewRequested:
		return "requested"
	case PreviewApproved:
		return "approved"
	case PreviewDeclined:
		return "declined"
	}
	return "unknown"
}
