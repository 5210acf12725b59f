package domain

// IntentType classifies what the user wants to do.
type IntentType int

const (
	IntentUnknown IntentType = iota
	IntentCatalog            // payload: "green", "brown" or ""
	IntentAdd                // payload: ingredient reference
	IntentIncrement          // payload: ingredient, Amount: delta
	IntentDecrement          // payload: ingredient, Amount: delta
	IntentRemove             // payload: ingredient
	IntentClear
	IntentShowMix
	IntentAdvice
	IntentListBins
	IntentNewBin     // Args: type, name...
	IntentLogBin     // Args: bin number, moisture, smell, [temp], [notes...]
	IntentAnalyzeBin // payload: bin number
	IntentDeleteBin  // payload: bin number
	IntentAsk        // free-form question, answered with grounded search
	IntentNews
	IntentWeather  // payload: location
	IntentDiagnose // Args: path, prompt...
	IntentSolve    // payload: problem description
	IntentListen   // push-to-talk voice input
	IntentRepeatLast
	IntentHelp
	IntentQuit
)

// String returns a human-readable intent type.
func (i IntentType) String() string {
	if name, ok := intentStrings[i]; ok {
		return name
	}
	return "unknown"
}

var intentStrings = map[IntentType]string{
	IntentCatalog:    "catalog",
	IntentAdd:        "add",
	IntentIncrement:  "increment",
	IntentDecrement:  "decrement",
	IntentRemove:     "remove",
	IntentClear:      "clear",
	IntentShowMix:    "show_mix",
	IntentAdvice:     "advice",
	IntentListBins:   "list_bins",
	IntentNewBin:     "new_bin",
	IntentLogBin:     "log_bin",
	IntentAnalyzeBin: "analyze_bin",
	IntentDeleteBin:  "delete_bin",
	IntentAsk:        "ask",
	IntentNews:       "news",
	IntentWeather:    "weather",
	IntentDiagnose:   "diagnose",
	IntentSolve:      "solve",
	IntentListen:     "listen",
	IntentRepeatLast: "repeat_last",
	IntentHelp:       "help",
	IntentQuit:       "quit",
}

// Intent represents a parsed user action.
type Intent struct {
	Type    IntentType
	Payload string   // main argument, e.g. an ingredient name
	Args    []string // positional arguments for multi-field commands
	Amount  int      // step for increment/decrement, 1 when omitted
}

// IntentFromString maps a string back to an IntentType. Unknown names map
// to IntentUnknown.
func IntentFromString(s string) IntentType {
	for k, v := range intentStrings {
		if v == s {
			return k
		}
	}
	return IntentUnknown
}
