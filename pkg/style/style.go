// Package style provides consistent terminal styling for the cvago CLI and
// console.
package style

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// Palette shared by the CLI output and the console.
var (
	ColorAccent = lipgloss.AdaptiveColor{Light: "#5A3FC0", Dark: "#B4A0FF"}
	ColorInfo   = lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#67E8F9"}
	ColorGood   = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#86EFAC"}
	ColorWarn   = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FCD34D"}
	ColorBad    = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#FCA5A5"}
	ColorMuted  = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	commandStyle = lipgloss.NewStyle().Foreground(ColorInfo)
	mutedStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	goodStyle    = lipgloss.NewStyle().Foreground(ColorGood)
	warnStyle    = lipgloss.NewStyle().Foreground(ColorWarn)
	badStyle     = lipgloss.NewStyle().Foreground(ColorBad)
	boldStyle    = lipgloss.NewStyle().Bold(true)
)

// NoColor disables colors (for non-TTY or NO_COLOR)
var NoColor = false

func init() {
	if os.Getenv("CVAGO_NO_COLOR") != "" || os.Getenv("NO_COLOR") != "" {
		NoColor = true
	}
	// Check if stdout is a TTY
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			NoColor = true
		}
	}
}

func render(st lipgloss.Style, text string) string {
	if NoColor {
		return text
	}
	return st.Render(text)
}

func Heading(text string) string { return render(headingStyle, text) }
func Command(text string) string { return render(commandStyle, text) }
func Muted(text string) string   { return render(mutedStyle, text) }
func Good(text string) string    { return render(goodStyle, text) }
func Warn(text string) string    { return render(warnStyle, text) }
func Bad(text string) string     { return render(badStyle, text) }

// B makes text bold
func B(text string) string { return render(boldStyle, text) }

// Success formats a success message prefix.
func Success(label string) string {
	return Good(label+":") + " "
}

// Failure formats an error message prefix.
func Failure(label string) string {
	return Bad(label+":") + " "
}

// Field renders "label: value", with "—" for an empty value.
func Field(label, value string) string {
	if strings.TrimSpace(value) == "" {
		value = Muted("—")
	}
	return Muted(label+":") + " " + value
}

// SetupHelp configures Typer-style help templates for a Cobra command
func SetupHelp(cmd *cobra.Command) {
	cobra.AddTemplateFunc("styleHeading", Heading)
	cobra.AddTemplateFunc("styleCommand", Command)
	cobra.AddTemplateFunc("styleDefault", Muted)
	cobra.AddTemplateFunc("rpadStyled", rpadStyled)

	cmd.SetUsageTemplate(usageTemplate)
	cmd.SetHelpTemplate(helpTemplate)
}

func rpadStyled(s string, padding int) string {
	styled := Command(s)
	// Add padding based on raw string length
	padLen := padding - len(s)
	if padLen > 0 {
		return styled + strings.Repeat(" ", padLen)
	}
	return styled
}

// usageTemplate is the Typer-style usage template
const usageTemplate = `{{ styleHeading "Usage:" }}
  {{ styleCommand .UseLine }}{{if .HasAvailableSubCommands}} [command]{{end}}
{{if .HasAvailableSubCommands}}
{{ styleHeading "Commands:" }}{{range .Commands}}{{if .IsAvailableCommand}}
  {{rpadStyled .Name .NamePadding }}  {{.Short}}{{end}}{{end}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`

// helpTemplate is the Typer-style help template
const helpTemplate = `{{if .Long}}{{.Long}}

{{else if .Short}}{{.Short}}

{{end}}{{ styleHeading "Usage:" }}
  {{ styleCommand .UseLine }}{{if .HasAvailableSubCommands}} [command]{{end}}
{{if .HasExample}}
{{ styleHeading "Examples:" }}
{{.Example}}
{{end}}{{if .HasAvailableSubCommands}}
{{ styleHeading "Commands:" }}{{range .Commands}}{{if .IsAvailableCommand}}
  {{rpadStyled .Name .NamePadding }}  {{.Short}}{{end}}{{end}}
{{end}}{{if .HasAvailableLocalFlags}}
{{ styleHeading "Options:" }}
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}
{{end}}{{if .HasAvailableInheritedFlags}}
{{ styleHeading "Global Options:" }}
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}
{{end}}{{if .HasAvailableSubCommands}}
Use "{{.CommandPath}} [command] --help" for more information about a command.
{{end}}`
