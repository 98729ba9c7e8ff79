package api

import "github.com/stashsuite/stashweb/internal/backend"

// LoginRequest is the payload for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
}

// ArchiveRequest is the payload for a restore submission.
type ArchiveRequest struct {
	// Files lists the paths to restore. At least one is required.
	Files []string `json:"files" validate:"required,min=1,dive,required"`

	// Strip removes that many leading path components from each entry.
	Strip int `json:"strip" validate:"gte=0"`

	// Format selects the archive flavor; anything but "tar.gz" means zip.
	Format string `json:"format"`

	// Password decrypts encrypted backups.
	Password string `json:"pass"`
}

// DeleteRequest carries the client-deletion flags.
type DeleteRequest struct {
	Keepconf bool `json:"keepconf"`
	Delcert  bool `json:"delcert"`
	Revoke   bool `json:"revoke"`
	Template bool `json:"template"`
	Delete   bool `json:"delete"`
}

// SubmitResponse acknowledges an accepted task submission.
type SubmitResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// StatusResponse reports a task's lifecycle position. Location is only set
// for successful tasks and points at the matching fetch endpoint.
type StatusResponse struct {
	State    string `json:"state"`
	Location string `json:"location,omitempty"`
	Error    string `json:"error,omitempty"`
}

// BrowseResponse wraps an enumerated backup tree.
type BrowseResponse struct {
	Results []backend.TreeNode `json:"results"`
}

// DeleteOutcomeResponse reports what a finished client deletion did.
type DeleteOutcomeResponse struct {
	Client  string                `json:"client"`
	Options backend.DeleteOptions `json:"options"`
	Outcome string                `json:"outcome"`
}

// BackupRunningResponse reports whether any backup is in progress.
type BackupRunningResponse struct {
	Running bool `json:"running"`
}

// PrefsRequest is the payload for PUT /api/prefs.
type PrefsRequest struct {
	PageLength int  `json:"page_length" validate:"required,gte=1,lte=1000"`
	DarkMode   bool `json:"dark_mode"`
}

// PrefsResponse mirrors the stored preferences.
type PrefsResponse struct {
	Username   string `json:"username"`
	PageLength int    `json:"page_length"`
	DarkMode   bool   `json:"dark_mode"`
}
