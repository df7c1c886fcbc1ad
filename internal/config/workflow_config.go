package config

import "time"

const (
	// Reports
	MaxReportPhotos  = 3
	MaxTitleLength   = 255
	MinLatitude      = -90.0
	MaxLatitude      = 90.0
	MinLongitude     = -180.0
	MaxLongitude     = 180.0
	MaxMessageLength = 2000
	ReportLockPrefix = "lock:report:"
	DefaultLanguage  = "en"

	// Timeouts
	DefaultOperationTimeout = 5 * time.Second
	DefaultReportLockTTL    = 10 * time.Second
	DefaultDeliveryTimeout  = 15 * time.Second
)
