package menu

import "strings"

// State is a menu screen.
type State int

const (
	StateMain State = iota
	StateCategory
	StateBackup
	StateExit
)

func (s State) String() string {
	switch s {
	case StateMain:
		return "main"
	case StateCategory:
		return "category"
	case StateBackup:
		return "backup"
	case StateExit:
		return "exit"
	default:
		return "unknown"
	}
}

// Action is the side effect a transition asks the controller to perform.
type Action int

const (
	ActionNone Action = iota
	ActionMoveUp
	ActionMoveDown
	ActionOpenCategory
	ActionBack
	ActionToggle
	ActionSelectAll
	ActionSelectNone
	ActionDeploy
	ActionCheckRequirements
	ActionOpenBackups
	ActionBackupAll
	ActionRestore
	ActionPrune
	ActionQuit
)

var actionNames = map[Action]string{
	ActionNone:              "none",
	ActionMoveUp:            "move-up",
	ActionMoveDown:          "move-down",
	ActionOpenCategory:      "open-category",
	ActionBack:              "back",
	ActionToggle:            "toggle",
	ActionSelectAll:         "select-all",
	ActionSelectNone:        "select-none",
	ActionDeploy:            "deploy",
	ActionCheckRequirements: "check-requirements",
	ActionOpenBackups:       "open-backups",
	ActionBackupAll:         "backup-all",
	ActionRestore:           "restore",
	ActionPrune:             "prune",
	ActionQuit:              "quit",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// TokenSpace is the token for input consisting only of spaces.
const TokenSpace = "space"

type transition struct {
	action Action
	next   State
}

// transitions is the complete menu table. Input not listed for a state
// maps to ActionNone and leaves the state unchanged.
var transitions = map[State]map[string]transition{
	StateMain: {
		"j":     {ActionMoveDown, StateMain},
		"down":  {ActionMoveDown, StateMain},
		"k":     {ActionMoveUp, StateMain},
		"up":    {ActionMoveUp, StateMain},
		"":      {ActionOpenCategory, StateCategory},
		"enter": {ActionOpenCategory, StateCategory},
		"right": {ActionOpenCategory, StateCategory},
		"l":     {ActionOpenCategory, StateCategory},
		"a":     {ActionSelectAll, StateMain},
		"n":     {ActionSelectNone, StateMain},
		"d":     {ActionDeploy, StateMain},
		"b":     {ActionOpenBackups, StateBackup},
		"q":     {ActionQuit, StateExit},
		"quit":  {ActionQuit, StateExit},
		"exit":  {ActionQuit, StateExit},
	},
	StateCategory: {
		"":         {ActionBack, StateMain},
		"left":     {ActionBack, StateMain},
		"back":     {ActionBack, StateMain},
		"h":        {ActionBack, StateMain},
		"q":        {ActionBack, StateMain},
		"j":        {ActionMoveDown, StateCategory},
		"down":     {ActionMoveDown, StateCategory},
		"k":        {ActionMoveUp, StateCategory},
		"up":       {ActionMoveUp, StateCategory},
		TokenSpace: {ActionToggle, StateCategory},
		"t":        {ActionToggle, StateCategory},
		"a":        {ActionSelectAll, StateCategory},
		"n":        {ActionSelectNone, StateCategory},
		"d":        {ActionDeploy, StateCategory},
		"c":        {ActionCheckRequirements, StateCategory},
	},
	StateBackup: {
		"1":    {ActionBackupAll, StateMain},
		"2":    {ActionRestore, StateMain},
		"3":    {ActionPrune, StateMain},
		"4":    {ActionBack, StateMain},
		"":     {ActionBack, StateMain},
		"back": {ActionBack, StateMain},
	},
}

// Normalize turns a raw input line into a table token.
func Normalize(input string) string {
	lower := strings.ToLower(input)
	trimmed := strings.TrimSpace(lower)
	if trimmed == "" && strings.Contains(lower, " ") {
		return TokenSpace
	}
	return trimmed
}

// Transition looks up the action and next state for raw input in state.
func Transition(state State, input string) (Action, State) {
	if t, ok := transitions[state][Normalize(input)]; ok {
		return t.action, t.next
	}
	return ActionNone, state
}
