package config

import (
	"os"
	"path/filepath"
)

const configTemplate = `# dip-trader configuration

[connection]
host = "127.0.0.1"
live_port = 7496
paper_port = 7497
client_id = 1
max_attempts = 3
retry_delay = "5s"
connect_timeout = "30s"

[strategy]
# Benchmark index used to compute the decline percentage.
benchmark_symbol = "SPX"
# Decline tiers (percent). Must be strictly increasing.
tiers = [10.0, 20.0, 30.0, 40.0]
poll_interval = "60s"
price_wait = "10s"
sample_interval = "250ms"
# End the session after any trade attempt, successful or not.
halt_on_trade_failure = true

[paper]
starting_cash = 100000.0
# Seed prices for the paper simulation, e.g.
# [paper.prices]
# SPX = 5000.0
# MSFT = 420.0

[reports]
# dir = "~/.config/dip-trader/reports"

[email]
enabled = false
smtp_host = "smtp.gmail.com"
smtp_port = 587
# username / password may also come from TRADING_EMAIL / TRADING_EMAIL_PASSWORD
from = ""
to = ""

[logging]
level = "info"
`

// createTemplateConfig writes a commented template config file so a first run
// leaves something editable behind.
func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(configTemplate), 0600)
}

// WriteTemplate writes the template config into configDir, used by the
// `config init` command.
func WriteTemplate(configDir string) error {
	return createTemplateConfig(configDir)
}
