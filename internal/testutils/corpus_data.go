package testutils

import "github.com/Mohaimin66/event-annotation-tool/internal/domain"

// EventTypeCatalog is the synthetic event-type catalog used by generated
// corpora. The labels follow the event-extraction convention of
// Category.Subtype so generated data looks like the real annotation
// projects the tool serves.
var EventTypeCatalog = []domain.EventTypeDef{
	{Name: "Conflict.Attack", Description: "A violent physical act causing harm or damage."},
	{Name: "Conflict.Demonstrate", Description: "A public gathering to protest or make demands."},
	{Name: "Movement.Transport", Description: "Moving people or goods from one place to another."},
	{Name: "Contact.Meet", Description: "Two or more parties coming together at the same location."},
	{Name: "Contact.Correspondence", Description: "Contact at a distance by phone, letter, or electronic means."},
	{Name: "Personnel.Elect", Description: "A candidate winning an election for a position."},
	{Name: "Personnel.StartPosition", Description: "A person beginning employment in a position."},
	{Name: "Personnel.EndPosition", Description: "A person leaving a position or employment."},
	{Name: "Life.Die", Description: "The death of a person."},
	{Name: "Life.Injure", Description: "A person sustaining physical harm."},
	{Name: "Transaction.TransferMoney", Description: "Giving or receiving money without an exchange of goods."},
	{Name: "Justice.ArrestJail", Description: "A person being taken into custody by authorities."},
	{Name: "Business.StartOrg", Description: "A new organization being founded."},
	{Name: "Business.EndOrg", Description: "An organization going out of existence."},
}

// sentenceTemplate is one synthetic sentence with its ground-truth event.
// TriggerIndices point into Tokens; generators use them both for the
// model-prediction blob and for simulated annotator answers.
type sentenceTemplate struct {
	Tokens         []string
	EventType      string
	TriggerIndices []int
}

// sentenceTemplates pair every catalog entry with at least one surface
// realization, plus a few no-event sentences so generated corpora contain
// items whose correct annotation is the null event type.
var sentenceTemplates = []sentenceTemplate{
	{
		Tokens:         []string{"Rebel", "forces", "attacked", "the", "village", "near", "the", "border", "at", "dawn", "."},
		EventType:      "Conflict.Attack",
		TriggerIndices: []int{2},
	},
	{
		Tokens:         []string{"The", "shelling", "destroyed", "two", "bridges", "across", "the", "river", "."},
		EventType:      "Conflict.Attack",
		TriggerIndices: []int{1},
	},
	{
		Tokens:         []string{"Thousands", "marched", "through", "the", "capital", "demanding", "lower", "fuel", "prices", "."},
		EventType:      "Conflict.Demonstrate",
		TriggerIndices: []int{1},
	},
	{
		Tokens:         []string{"The", "convoy", "moved", "medical", "supplies", "to", "the", "eastern", "districts", "."},
		EventType:      "Movement.Transport",
		TriggerIndices: []int{2},
	},
	{
		Tokens:         []string{"Refugees", "crossed", "the", "mountain", "pass", "before", "the", "first", "snow", "."},
		EventType:      "Movement.Transport",
		TriggerIndices: []int{1},
	},
	{
		Tokens:         []string{"The", "two", "presidents", "met", "in", "Geneva", "to", "discuss", "the", "ceasefire", "."},
		EventType:      "Contact.Meet",
		TriggerIndices: []int{3},
	},
	{
		Tokens:         []string{"She", "phoned", "the", "minister", "minutes", "after", "the", "announcement", "."},
		EventType:      "Contact.Correspondence",
		TriggerIndices: []int{1},
	},
	{
		Tokens:         []string{"Voters", "elected", "a", "new", "mayor", "after", "months", "of", "campaigning", "."},
		EventType:      "Personnel.Elect",
		TriggerIndices: []int{1},
	},
	{
		Tokens:         []string{"He", "joined", "the", "central", "bank", "as", "chief", "economist", "in", "March", "."},
		EventType:      "Personnel.StartPosition",
		TriggerIndices: []int{1},
	},
	{
		Tokens:         []string{"The", "director", "resigned", "following", "the", "audit", "findings", "."},
		EventType:      "Personnel.EndPosition",
		TriggerIndices: []int{2},
	},
	{
		Tokens:         []string{"The", "veteran", "journalist", "died", "at", "his", "home", "on", "Tuesday", "."},
		EventType:      "Life.Die",
		TriggerIndices: []int{3},
	},
	{
		Tokens:         []string{"Three", "workers", "were", "injured", "when", "the", "scaffolding", "collapsed", "."},
		EventType:      "Life.Injure",
		TriggerIndices: []int{3},
	},
	{
		Tokens:         []string{"The", "bank", "transferred", "the", "funds", "to", "an", "offshore", "account", "."},
		EventType:      "Transaction.TransferMoney",
		TriggerIndices: []int{2},
	},
	{
		Tokens:         []string{"Police", "arrested", "three", "suspects", "after", "the", "overnight", "raid", "."},
		EventType:      "Justice.ArrestJail",
		TriggerIndices: []int{1},
	},
	{
		Tokens:         []string{"The", "engineers", "founded", "a", "startup", "focused", "on", "grid", "storage", "."},
		EventType:      "Business.StartOrg",
		TriggerIndices: []int{2},
	},
	{
		Tokens:         []string{"The", "shipping", "firm", "was", "dissolved", "after", "ninety", "years", "of", "trade", "."},
		EventType:      "Business.EndOrg",
		TriggerIndices: []int{4},
	},
	// Sentences with no event from the catalog. EventType "" means the
	// correct annotation is the null event type.
	{
		Tokens:    []string{"The", "harbor", "was", "quiet", "under", "a", "low", "gray", "sky", "."},
		EventType: "",
	},
	{
		Tokens:    []string{"Wheat", "prices", "have", "remained", "stable", "since", "the", "spring", "."},
		EventType: "",
	},
	{
		Tokens:    []string{"The", "museum", "holds", "the", "region's", "largest", "collection", "of", "maps", "."},
		EventType: "",
	},
}
