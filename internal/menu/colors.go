package menu

import "github.com/fatih/color"

var (
	successColor = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	infoColor    = color.New(color.FgCyan)
	titleColor   = color.New(color.FgCyan, color.Bold)
	boldColor    = color.New(color.Bold)
	dimColor     = color.New(color.FgHiBlack)
)
