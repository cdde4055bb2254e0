package cli

import (
	"bufio"
	"os"
	"strings"
	"time"

	"dip-trader/internal/trading"
)

// promptDecider asks the operator on stdin between polls and when the market
// is closed. The interrupt signal remains the non-interactive way out.
type promptDecider struct {
	output *Output
	reader *bufio.Reader
}

func newPromptDecider(output *Output) *promptDecider {
	return &promptDecider{
		output: output,
		reader: bufio.NewReader(os.Stdin),
	}
}

// ShouldContinue asks whether monitoring should go on. Anything but an
// explicit no keeps the session running; so does a read error, which is what
// a detached stdin produces.
func (p *promptDecider) ShouldContinue() bool {
	p.output.Printf("Continue monitoring? [Y/n] ")

	line, err := p.reader.ReadString('\n')
	if err != nil {
		return true
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer != "n" && answer != "no"
}

func (p *promptDecider) OnMarketClosed(untilOpen time.Duration) trading.MarketClosedChoice {
	p.output.Warn("Market is closed. Next open in %s.", untilOpen.Round(time.Minute))
	p.output.Printf("Wait for open? [Y/n] ")

	line, err := p.reader.ReadString('\n')
	if err != nil {
		return trading.ChoiceExit
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	if answer == "n" || answer == "no" {
		return trading.ChoiceExit
	}
	return trading.ChoiceWait
}
