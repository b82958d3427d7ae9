// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for webchat.
//
// # Key Types
//
//   - Config: Main configuration structure
//   - StoreConfig: Message store backend (sqlite file or hosted API)
//   - ChatConfig: Session engine tuning (typing indicator, length limit)
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (WEBCHAT_*)
//   - A .env file in the working directory
//   - ~/.webchat/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	mgr, err := session.NewManager(session.Options{Config: cfg.SessionConfig(), ...})
package config
