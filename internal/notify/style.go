package notify

import "github.com/xaenox/second-brain/internal/models"

type Color string

const (
	ColorRed     Color = "red"
	ColorYellow  Color = "yellow"
	ColorGreen   Color = "green"
	ColorBlue    Color = "blue"
	ColorNeutral Color = "neutral"
)

func ColorFor(s models.Severity) Color {
	switch s {
	case models.SeverityError:
		return ColorRed
	case models.SeverityWarning:
		return ColorYellow
	case models.SeveritySuccess:
		return ColorGreen
	case models.SeverityInfo:
		return ColorBlue
	default:
		return ColorNeutral
	}
}

// Badge is the chat rendering of a color.
func (c Color) Badge() string {
	switch c {
	case ColorRed:
		return "🔴"
	case ColorYellow:
		return "🟡"
	case ColorGreen:
		return "🟢"
	case ColorBlue:
		return "🔵"
	default:
		return "⚪"
	}
}
