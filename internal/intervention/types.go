// Package intervention maps the top-ranked corpus document to an action the
// host application can take, consulting the host's update state for
// update-related suggestions. The scorer decides *what* the user is asking
// about; this package decides *which* intervention to surface for it.
package intervention

// UpdateStatus is the host application's update state.
type UpdateStatus string

const (
	StatusChecking        UpdateStatus = "checking"
	StatusNoUpdate        UpdateStatus = "no-update"
	StatusDownloading     UpdateStatus = "downloading"
	StatusStaged          UpdateStatus = "staged"
	StatusReadyForRestart UpdateStatus = "ready-for-restart"
	StatusManualOnly      UpdateStatus = "manual-only"
	StatusDisabled        UpdateStatus = "disabled"
	StatusUnavailable     UpdateStatus = "unavailable"
)

// Action is what the host should do when the user accepts a suggestion.
type Action string

const (
	ActionClearData        Action = "clear-data"
	ActionRefreshProfile   Action = "refresh-profile"
	ActionShowUpdateDialog Action = "show-update-dialog"
	ActionRestartToUpdate  Action = "restart-to-update"
	ActionOpenDownloadPage Action = "open-download-page"
)

// Corpus document ids the picker recognises. They match the default
// interventions in pkg/config.
const (
	DocClearData      = "clear-data"
	DocRefreshProfile = "refresh-profile"
	DocUpdateApp      = "update-app"
)

// Picked is a surfaced intervention: the document that won the ranking and
// the action chosen for it.
type Picked struct {
	ID     string `json:"id"`
	Action Action `json:"action"`
	Score  int    `json:"score"`
}
