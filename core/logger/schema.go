package logger

import "strings"

var levelNames = map[string]string{
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
}

func normalizeLevel(level string) string {
	if level == "" {
		return "INFO"
	}
	if mapped, ok := levelNames[strings.ToLower(level)]; ok {
		return mapped
	}
	return strings.ToUpper(level)
}

// Known status values; aliases map onto them and unknown values pass through lowercased.
var statusNames = map[string]string{
	"ok":           "ok",
	"success":      "ok",
	"fail":         "fail",
	"error":        "fail",
	"skip":         "skip",
	"retry":        "retry",
	"rate_limited": "rate_limited",
	"cancelled":    "cancelled",
	"canceled":     "cancelled",
}

func normalizeStatus(status string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	if mapped, ok := statusNames[status]; ok {
		return mapped
	}
	return status
}

var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"chat_type",
	"handler",
	"op",
	"token",
	"duration_ms",
	"words",
	"added",
	"learned",
	"total",
	"percent",
	"correct",
	"variants",
	"line",
	"reason",
	"path",
	"driver",
	"size",
	"messages",
	"kb",
	"mode",
	"listen",
	"public_url",
	"http_code",
	"db",
	"host",
	"port",
	"err",
	"err_code",
	"cause",
	"retryable",
	"attempts",
	"backoff_ms",
	"rate_limited",
	"sessions",
}
