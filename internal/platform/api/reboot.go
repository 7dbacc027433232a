package api

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// RebootAdvice classifies a needs_reboot flag as genuine or stale.
type RebootAdvice struct {
	NeedsReboot        bool
	UpgradeNeedsReboot bool
	Stale              bool
	UptimeSeconds      int // -1 when unknown
	LastCheck          string
	Explanation        string
}

var (
	uptimeDaysPattern = regexp.MustCompile(`up\s+(\d+)\+(\d+):(\d+):(\d+)`)
	uptimeHMSPattern  = regexp.MustCompile(`up\s+(\d+):(\d+):(\d+)`)
	tzNamePattern     = regexp.MustCompile(`\s+[A-Z]{2,4}\s+`)
)

// CheckNeedsReboot decides whether the firmware daemon's needs_reboot flag
// should be acted on. The flag survives reboots in the daemon's cache, so
// a set flag whose last firmware check predates the current boot is a
// leftover, not a real pending reboot.
func (c *Client) CheckNeedsReboot(ctx context.Context) (*RebootAdvice, error) {
	status, err := c.FirmwareStatus(ctx)
	if err != nil {
		return nil, err
	}
	advice := &RebootAdvice{
		NeedsReboot:        status.NeedsReboot(),
		UpgradeNeedsReboot: status.UpgradeNeedsReboot(),
		UptimeSeconds:      -1,
		LastCheck:          status.LastCheck,
	}
	if !advice.NeedsReboot {
		advice.Explanation = "No reboot required."
		return advice, nil
	}

	// Quiescent system with the flag still set: leftover from an update
	// that was already rebooted. The web UI ignores it too.
	if !status.HasPendingPackages() && status.Status == "none" {
		advice.Stale = true
		advice.Explanation = "needs_reboot is set but no packages are pending and the system is up to date. " +
			"Leftover flag from a previously applied update. Safe to ignore."
		return advice, nil
	}

	uptime := c.uptimeSeconds(ctx)
	advice.UptimeSeconds = uptime
	checkAge := lastCheckAgeSeconds(status.LastCheck, time.Now())

	switch {
	case uptime < 0 || checkAge < 0:
		advice.Explanation = "needs_reboot is set. Could not determine if stale (uptime unavailable)."
	case uptime < checkAge:
		// The firmware check predates this boot, so the flag predates the
		// reboot that already happened.
		advice.Stale = true
		advice.Explanation = fmt.Sprintf(
			"needs_reboot is set but appears stale: system has been up %dm, but last firmware check was %dm ago (check predates this boot). Safe to ignore.",
			uptime/60, checkAge/60)
	default:
		advice.Explanation = fmt.Sprintf(
			"needs_reboot is set and appears genuine: system has been up %dm, last firmware check was %dm ago. A reboot is recommended.",
			uptime/60, checkAge/60)
	}
	return advice, nil
}

// uptimeSeconds parses the uptime from the activity headers. Returns -1
// when unavailable.
func (c *Client) uptimeSeconds(ctx context.Context) int {
	activity, err := c.SystemActivity(ctx)
	if err != nil || len(activity.Headers) == 0 {
		return -1
	}
	return parseUptime(activity.Headers[0])
}

// parseUptime extracts seconds from "up 0+01:08:14" or "up 1:08:14"
// header formats. Returns -1 when neither matches.
func parseUptime(header string) int {
	if m := uptimeDaysPattern.FindStringSubmatch(header); m != nil {
		days, _ := strconv.Atoi(m[1])
		hours, _ := strconv.Atoi(m[2])
		mins, _ := strconv.Atoi(m[3])
		secs, _ := strconv.Atoi(m[4])
		return days*86400 + hours*3600 + mins*60 + secs
	}
	if m := uptimeHMSPattern.FindStringSubmatch(header); m != nil {
		hours, _ := strconv.Atoi(m[1])
		mins, _ := strconv.Atoi(m[2])
		secs, _ := strconv.Atoi(m[3])
		return hours*3600 + mins*60 + secs
	}
	return -1
}

// lastCheckAgeSeconds returns how many seconds before now the last_check
// timestamp ("Sat Feb 21 14:14:23 EST 2026") lies. The timezone name is
// dropped before parsing; it is not reliably parseable and a zone's worth
// of skew does not change the staleness verdict for multi-hour uptimes.
// Returns -1 when unparseable.
func lastCheckAgeSeconds(lastCheck string, now time.Time) int {
	if lastCheck == "" {
		return -1
	}
	cleaned := tzNamePattern.ReplaceAllString(lastCheck, " ")
	t, err := time.ParseInLocation("Mon Jan 2 15:04:05 2006", cleaned, now.Location())
	if err != nil {
		return -1
	}
	return int(now.Sub(t).Seconds())
}
