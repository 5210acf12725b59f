package domain

import "context"

// IngredientCatalog provides the fixed ingredient table. Implementations
// must never change their contents after construction.
type IngredientCatalog interface {
	List() []Ingredient
	ListByKind(kind Kind) []Ingredient
	Get(id string) (Ingredient, error)
	Lookup(query string) (Ingredient, error)
}

// Advisor returns free-text optimization advice for a mix. Implementations
// call a remote generative model; errors should wrap ErrAdvisoryUnavailable.
type Advisor interface {
	MixAdvice(ctx context.Context, mixDescription string, ratio float64) (string, error)
}

// ContentService is the wider set of generative calls the app makes
// outside the mix calculator.
type ContentService interface {
	Advisor
	Search(ctx context.Context, query, topic string) (*Answer, error)
	News(ctx context.Context) (*Answer, error)
	Diagnose(ctx context.Context, media Media, prompt string) (string, error)
	Solve(ctx context.Context, query string) (string, error)
	BinHealth(ctx context.Context, binType BinType, logs []BinLog) (string, error)
	Weather(ctx context.Context, location string) (string, error)
}

// BinStore holds compost bins for the current process. Implementations can
// be in-memory or any other backend.
type BinStore interface {
	Save(ctx context.Context, bin *CompostBin) error
	Load(ctx context.Context, id string) (*CompostBin, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*CompostBin, error)
	// Update applies fn to the stored bin atomically. If fn returns an
	// error nothing is written.
	Update(ctx context.Context, id string, fn func(bin *CompostBin) error) error
}

// IntentParser converts raw user input into structured intents.
type IntentParser interface {
	Parse(ctx context.Context, input string) (*Intent, error)
}

// Notifier delivers messages to the user. Implementations can write to
// the terminal or also speak the message aloud.
type Notifier interface {
	Notify(ctx context.Context, message string) error
	NotifyUrgent(ctx context.Context, message string) error
}
