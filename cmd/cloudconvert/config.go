// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/cloudconvert/internal/secrets"
	"github.com/pdiddy/cloudconvert/pkg/cloudconvert"
	"github.com/pdiddy/cloudconvert/pkg/types"
)

const (
	defaultTimeout        = 120 * time.Second
	defaultUserAgent      = "cloudconvert-go/0.1"
	defaultProcessURLHelp = cloudconvert.DefaultProcessURL
)

// loadConfig assembles the configuration from flags, environment, and the
// config file (through viper), falling back to secret files for credentials.
func loadConfig(s secrets.Secrets) types.Config {
	timeout := viper.GetDuration("timeout")
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	userAgent := viper.GetString("user_agent")
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	historyPath := viper.GetString("history.path")
	if historyPath == "" {
		historyPath = defaultHistoryPath()
	}

	return types.Config{
		Client: types.ClientConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   timeout,
				UserAgent: userAgent,
			},
			APIKey:     s.Or(secrets.APIKey, viper.GetString("api_key")),
			ProcessURL: viper.GetString("process_url"),
			MaxFiles:   viper.GetInt("max_files"),
		},
		Storage: types.StorageConfig{
			Endpoint:     viper.GetString("storage.endpoint"),
			AccessKey:    s.Or(secrets.StorageAccessKey, viper.GetString("storage.access_key")),
			SecretKey:    s.Or(secrets.StorageSecretKey, viper.GetString("storage.secret_key")),
			UseSSL:       viper.GetBool("storage.use_ssl"),
			Region:       viper.GetString("storage.region"),
			CreateBucket: viper.GetBool("storage.create_bucket"),
		},
		History: types.HistoryConfig{
			Path:     historyPath,
			Disabled: viper.GetBool("history.disabled"),
		},
	}
}

func defaultHistoryPath() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "cloudconvert", "history.db")
	}
	return filepath.Join(".cloudconvert", "history.db")
}
