// Package color styles terminal output with termenv.
package color

import (
	"fmt"
	"strings"

	"github.com/muesli/termenv"
)

// ANSI palette indices
const (
	Red     = "1"
	Green   = "2"
	Yellow  = "3"
	Blue    = "4"
	Magenta = "5"
	Cyan    = "6"
	Gray    = "8"

	BrightRed = "9"
)

var profile = termenv.EnvColorProfile()

// EnableColor forces colors on (256 colors) or off.
func EnableColor(enable bool) {
	if enable {
		profile = termenv.ANSI256
		return
	}
	profile = termenv.Ascii
}

func IsColorEnabled() bool {
	return profile != termenv.Ascii
}

// Profile is the active color profile, shared with the logger.
func Profile() termenv.Profile {
	return profile
}

func Colorize(color, text string) string {
	if !IsColorEnabled() {
		return text
	}
	return profile.String(text).Foreground(profile.Color(color)).String()
}

func RedText(text string) string     { return Colorize(Red, text) }
func GreenText(text string) string   { return Colorize(Green, text) }
func YellowText(text string) string  { return Colorize(Yellow, text) }
func BlueText(text string) string    { return Colorize(Blue, text) }
func MagentaText(text string) string { return Colorize(Magenta, text) }
func CyanText(text string) string    { return Colorize(Cyan, text) }
func GrayText(text string) string    { return Colorize(Gray, text) }

func BrightRedText(text string) string { return Colorize(BrightRed, text) }

func BoldText(text string) string {
	if !IsColorEnabled() {
		return text
	}
	return profile.String(text).Bold().String()
}

func Error(message string) string {
	if !IsColorEnabled() {
		return message
	}
	return BrightRedText("Error: ") + message
}

func Warning(message string) string {
	if !IsColorEnabled() {
		return message
	}
	return YellowText("Warning: ") + message
}

func Highlight(text, highlight string) string {
	if !IsColorEnabled() || highlight == "" {
		return text
	}
	return strings.ReplaceAll(text, highlight, YellowText(highlight))
}

func Position(line, col int) string {
	return CyanText(fmt.Sprintf("%d:%d", line, col))
}

func ErrorWithPosition(line, col int, message, context string) string {
	if !IsColorEnabled() {
		return fmt.Sprintf("Error at %d:%d: %s\n%s", line, col, message, context)
	}

	return fmt.Sprintf("%s at %s: %s\n%s",
		BrightRedText(BoldText("Error")),
		Position(line, col),
		message,
		GrayText(context))
}
