package config

import "time"

// Config is the root configuration schema.
type Config struct {
	Global        GlobalConfig        `mapstructure:"global"`
	Backup        BackupConfig        `mapstructure:"backup"`
	Verify        VerifyConfig        `mapstructure:"verify"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Schedule      ScheduleConfig      `mapstructure:"schedule"`
}

type GlobalConfig struct {
	LogLevel         string        `mapstructure:"log_level"`
	LogFormat        string        `mapstructure:"log_format"` // json or console
	LockFile         string        `mapstructure:"lock_file"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
}

type BackupConfig struct {
	Source         string `mapstructure:"source"`
	Target         string `mapstructure:"target"`
	Manifest       string `mapstructure:"manifest"`
	ChunkSize      int    `mapstructure:"chunk_size"`
	HashAlgorithm  string `mapstructure:"hash_algorithm"` // sha256 or blake3
	PostCopyVerify bool   `mapstructure:"post_copy_verify"`
}

type VerifyConfig struct {
	Output string `mapstructure:"output"` // table or json
}

type NotificationsConfig struct {
	Webhooks []WebhookConfig `mapstructure:"webhooks"`
}

type WebhookConfig struct {
	Name    string            `mapstructure:"name"`
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
}

type ScheduleConfig struct {
	WindowStart string `mapstructure:"window_start"` // HH:MM local time
	WindowEnd   string `mapstructure:"window_end"`
	Timezone    string `mapstructure:"timezone"`
}
