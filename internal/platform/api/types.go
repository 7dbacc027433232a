package api

// Product describes the firmware product block of a status response.
type Product struct {
	Version   string `json:"product_version"`
	Latest    string `json:"product_latest"`
	Series    string `json:"product_series"`
	Repos     string `json:"product_repos"`
	NextMajor string `json:"CORE_NEXT"`
}

// Package is one entry of a pending-package list.
type Package struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// FirmwareStatus is the firmware daemon's status report. String flags use
// the daemon's "1"/"0" encoding; the helper methods interpret them.
// Absent fields decode to their zero values, which all read as "nothing
// pending".
type FirmwareStatus struct {
	Status            string    `json:"status"`
	StatusMessage     string    `json:"status_msg"`
	OSVersion         string    `json:"os_version"`
	NeedsRebootFlag   string    `json:"needs_reboot"`
	UpgradeNeedsBoot  string    `json:"upgrade_needs_reboot"`
	LastCheck         string    `json:"last_check"`
	Product           Product   `json:"product"`
	UpgradePackages   []Package `json:"upgrade_packages"`
	NewPackages       []Package `json:"new_packages"`
	ReinstallPackages []Package `json:"reinstall_packages"`
	DowngradePackages []Package `json:"downgrade_packages"`
	RemovePackages    []Package `json:"remove_packages"`
	AllPackages       []Package `json:"all_packages"`
}

// NeedsReboot reports whether the daemon flags a pending reboot.
func (s *FirmwareStatus) NeedsReboot() bool {
	return s.NeedsRebootFlag == "1"
}

// UpgradeNeedsReboot reports whether the pending upgrade requires a reboot.
func (s *FirmwareStatus) UpgradeNeedsReboot() bool {
	return s.UpgradeNeedsBoot == "1"
}

// HasPendingPackages reports whether any package operation is pending.
func (s *FirmwareStatus) HasPendingPackages() bool {
	return len(s.UpgradePackages) > 0 ||
		len(s.NewPackages) > 0 ||
		len(s.ReinstallPackages) > 0 ||
		len(s.DowngradePackages) > 0 ||
		len(s.RemovePackages) > 0
}

// UpgradeStatus reports on an in-progress firmware operation.
type UpgradeStatus struct {
	Status   string `json:"status"`
	Log      string `json:"log"`
	Progress string `json:"progress"`
}

// Running reports whether a firmware operation is still executing.
func (s *UpgradeStatus) Running() bool {
	return s.Status == "running" || s.Status == "reboot"
}

// Activity is the diagnostics activity snapshot; only the headers (which
// carry the uptime line) and the process table are exposed.
type Activity struct {
	Headers []string            `json:"headers"`
	Details []map[string]string `json:"details"`
}

// actionResponse is the generic acknowledgement of a triggered operation.
type actionResponse struct {
	Status  string `json:"status"`
	Message string `json:"msg"`
}

// changelogResponse wraps a changelog fetch; the daemon has returned the
// text under either key across releases.
type changelogResponse struct {
	HTML      string `json:"html"`
	Changelog string `json:"changelog"`
}
