// Package config holds the runtime configuration for opnup.
//
// A single Config value is constructed in the command handlers and passed
// into every component constructor. There are no package-level mutable
// settings; anything a component needs to know travels through here.
package config

import (
	"os"
	"strings"
)

// Default filesystem locations on an OPNsense appliance.
const (
	DefaultStateFile    = "/var/db/opnsense-upgrade.state"
	DefaultHookFile     = "/etc/rc.local.d/99-opnsense-upgrade-resume"
	DefaultResumeLog    = "/var/log/opnsense-upgrade-resume.log"
	DefaultRepoConf     = "/usr/local/etc/pkg/repos/OPNsense.conf"
	DefaultChangelogDir = "/usr/local/opnsense/changelog"
	DefaultBackupDir    = "/root/config-backups"
	DefaultLogDir       = "/var/log/opnsense-upgrades"
	DefaultConfigXML    = "/conf/config.xml"
	DefaultPkgLock      = "/var/run/pkg.lock"
	DefaultRebootFlag   = "/var/run/reboot_required"

	// DefaultMirrorBase is the fallback package mirror when no repo
	// configuration exists; the FreeBSD ABI path is appended at runtime.
	DefaultMirrorBase = "https://pkg.opnsense.org"
)

// MinFreeDiskMB is the free space required on / before an upgrade starts.
const MinFreeDiskMB = 2000

// Config is the complete runtime configuration.
type Config struct {
	Paths    Paths     `yaml:"paths"`
	Mirror   Mirror    `yaml:"mirror"`
	Timeouts Timeouts  `yaml:"-"`
	API      APIConfig `yaml:"api"`
}

// Paths groups every filesystem location the tool touches.
type Paths struct {
	StateFile    string `yaml:"state_file"`
	HookFile     string `yaml:"hook_file"`
	ResumeLog    string `yaml:"resume_log"`
	RepoConf     string `yaml:"repo_conf"`
	ChangelogDir string `yaml:"changelog_dir"`
	BackupDir    string `yaml:"backup_dir"`
	LogDir       string `yaml:"log_dir"`
	ConfigXML    string `yaml:"config_xml"`
	PkgLock      string `yaml:"pkg_lock"`
	RebootFlag   string `yaml:"reboot_flag"`
}

// Mirror configures package mirror discovery.
type Mirror struct {
	// FallbackBase is used when RepoConf has no usable mirror URL.
	FallbackBase string `yaml:"fallback_base"`
}

// APIConfig configures the appliance REST API client. The key and secret
// come from the environment, never from the config file.
type APIConfig struct {
	URL        string `yaml:"url"`
	Key        string `yaml:"-"`
	Secret     string `yaml:"-"`
	VerifySSL  bool   `yaml:"verify_ssl"`
	ReadOnly   bool   `yaml:"read_only"`
}

// Default returns a Config populated with appliance defaults.
func Default() *Config {
	return &Config{
		Paths: Paths{
			StateFile:    DefaultStateFile,
			HookFile:     DefaultHookFile,
			ResumeLog:    DefaultResumeLog,
			RepoConf:     DefaultRepoConf,
			ChangelogDir: DefaultChangelogDir,
			BackupDir:    DefaultBackupDir,
			LogDir:       DefaultLogDir,
			ConfigXML:    DefaultConfigXML,
			PkgLock:      DefaultPkgLock,
			RebootFlag:   DefaultRebootFlag,
		},
		Mirror:   Mirror{FallbackBase: DefaultMirrorBase},
		Timeouts: LoadTimeouts(),
		API:      apiFromEnv(),
	}
}

// apiFromEnv reads API client settings from the environment.
func apiFromEnv() APIConfig {
	return APIConfig{
		URL:       strings.TrimRight(os.Getenv("OPNSENSE_URL"), "/"),
		Key:       os.Getenv("OPNSENSE_API_KEY"),
		Secret:    os.Getenv("OPNSENSE_API_SECRET"),
		VerifySSL: envBool("OPNSENSE_VERIFY_SSL", false),
		ReadOnly:  envBool("OPNSENSE_READ_ONLY", false),
	}
}

func envBool(name string, def bool) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return def
}
