/*
main.go

Copyright © 2025 Code Monkey Cybersecurity
Contact: git@cybermonkey.net.au

This file is part of Versio.

This software is dual-licensed under the Do No Harm License
and the GNU Affero General Public License v3 (AGPL-3.0-or-later).
You may use, modify, and distribute it under the terms of either license.

See LICENSE.agpl and LICENSE.dnh for full details.
*/
package main

import (
	"github.com/CodeMonkeyCybersecurity/versio/cmd"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/logger"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/telemetry"
)

func main() {
	logger.InitializeWithFallback()
	if err := telemetry.Init("versio"); err != nil {
		logger.L().Warn("telemetry disabled: " + err.Error())
	}

	cmd.Execute()
}
